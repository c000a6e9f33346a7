package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"
	"golang.org/x/image/bmp"

	"github.com/ichinoseShugo/kinectjointrecord/display"
	"github.com/ichinoseShugo/kinectjointrecord/stream"
)

// Status is the body of GET /status.
type Status struct {
	Device       string `json:"device,omitempty"`
	Skeleton     string `json:"skeleton"`
	RecordPoints bool   `json:"recordPoints"`
	RecordImages bool   `json:"recordImages"`
	SessionDir   string `json:"sessionDir"`
	PointsFile   string `json:"pointsFile,omitempty"`
}

// Api serves the current frame and the recording toggles over HTTP.
type Api struct {
	session *stream.SensorSession
	server  *http.Server
}

func NewApi(listen string, session *stream.SensorSession) *Api {
	a := new(Api)
	a.session = session
	a.server = &http.Server{Addr: listen, Handler: a.Handler()}
	return a
}

// Handler routes the api endpoints.
func (a *Api) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /frame.bmp", a.handleFrame)
	mux.HandleFunc("GET /status", a.handleStatus)
	mux.HandleFunc("POST /record/points", a.handleRecordPoints)
	mux.HandleFunc("POST /record/images", a.handleRecordImages)
	mux.HandleFunc("POST /record/all", a.handleRecordAll)
	return mux
}

// Serve listens until Shutdown is called.
func (a *Api) Serve() error {
	log.Info().Str("addr", a.server.Addr).Msg("Listening...")
	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (a *Api) Shutdown(ctx context.Context) error {
	return a.server.Shutdown(ctx)
}

func (a *Api) status() Status {
	c := a.session.Controller()
	s := Status{
		Skeleton:     a.session.Status().String(),
		RecordPoints: c.RecordPoints(),
		RecordImages: c.RecordImages(),
		SessionDir:   c.SessionDir(),
		PointsFile:   a.session.Recorder().Path(),
	}
	if d := a.session.Device(); d != nil {
		s.Device = d.ID()
	}
	return s
}

func (a *Api) writeStatus(w http.ResponseWriter, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(a.status()); err != nil {
		log.Debug().Err(err).Msg("Writing status failed")
	}
}

func (a *Api) handleStatus(w http.ResponseWriter, r *http.Request) {
	a.writeStatus(w, http.StatusOK)
}

func (a *Api) handleFrame(w http.ResponseWriter, r *http.Request) {
	bitmap := a.session.Bitmap()
	if bitmap == nil {
		http.Error(w, "no sensor session", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "image/bmp")
	if err := bmp.Encode(w, display.Render(bitmap, a.session.Canvas())); err != nil {
		log.Debug().Err(err).Msg("Writing frame failed")
	}
}

func parseOn(r *http.Request) (bool, error) {
	v := r.URL.Query().Get("on")
	if v == "" {
		return true, nil
	}
	return strconv.ParseBool(v)
}

func (a *Api) handleRecordPoints(w http.ResponseWriter, r *http.Request) {
	on, err := parseOn(r)
	if err != nil {
		http.Error(w, "invalid on parameter", http.StatusBadRequest)
		return
	}
	if err := a.session.Controller().SetRecordPoints(on); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	a.writeStatus(w, http.StatusOK)
}

func (a *Api) handleRecordImages(w http.ResponseWriter, r *http.Request) {
	on, err := parseOn(r)
	if err != nil {
		http.Error(w, "invalid on parameter", http.StatusBadRequest)
		return
	}
	a.session.Controller().SetRecordImages(on)
	a.writeStatus(w, http.StatusOK)
}

func (a *Api) handleRecordAll(w http.ResponseWriter, r *http.Request) {
	if err := a.session.Controller().RecordAll(); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	a.writeStatus(w, http.StatusOK)
}
