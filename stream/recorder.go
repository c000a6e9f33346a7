package stream

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ichinoseShugo/kinectjointrecord/sensor"
)

// PointsFileName is the log file written inside a session directory.
const PointsFileName = "Points.csv"

// ErrNotRecording is returned by RecordSample when no session is open.
var ErrNotRecording = errors.New("no recording session open")

// RecordingIOError reports a failure to open a session's log file.
type RecordingIOError struct {
	Path string
	Err  error
}

func (e *RecordingIOError) Error() string {
	return "open recording " + e.Path + ": " + e.Err.Error()
}

func (e *RecordingIOError) Unwrap() error {
	return e.Err
}

// Recorder appends timestamped joint samples to Points.csv.
type Recorder struct {
	mu    sync.Mutex
	clock *Stopwatch
	file  *os.File
	w     *csv.Writer
	path  string
}

// NewRecorder creates a Recorder that timestamps rows with clock.
func NewRecorder(clock *Stopwatch) *Recorder {
	r := new(Recorder)
	r.clock = clock
	return r
}

// StartSession creates dir if needed, truncates dir/Points.csv and starts
// the clock. A previously open file is flushed and closed first.
func (r *Recorder) StartSession(dir string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.closeLocked(); err != nil {
		log.Warn().Err(err).Str("path", r.path).Msg("Closing previous recording failed")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &RecordingIOError{Path: dir, Err: err}
	}
	path := filepath.Join(dir, PointsFileName)
	file, err := os.Create(path)
	if err != nil {
		return &RecordingIOError{Path: path, Err: err}
	}

	r.file = file
	r.w = csv.NewWriter(file)
	r.path = path
	r.clock.Start()

	log.Info().Str("path", path).Msg("Recording session started")
	return nil
}

// RecordSample appends one elapsed,x,y,z row. The clock is stopped while
// the row is written.
func (r *Recorder) RecordSample(joint sensor.Joint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.w == nil {
		return ErrNotRecording
	}

	r.clock.Stop()
	defer r.clock.Start()

	return r.w.Write(FormatSample(r.clock.Elapsed(), joint.Position))
}

// Flush writes buffered rows to the file.
func (r *Recorder) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.w == nil {
		return nil
	}
	r.w.Flush()
	return r.w.Error()
}

// Close flushes and releases the file.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closeLocked()
}

func (r *Recorder) closeLocked() error {
	if r.file == nil {
		return nil
	}
	r.w.Flush()
	err := errors.Join(r.w.Error(), r.file.Close())
	r.file = nil
	r.w = nil
	return err
}

// Path of the open log file, empty when none is open.
func (r *Recorder) Path() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return ""
	}
	return r.path
}

// FormatSample renders one row: elapsed time then the shortest decimal form
// of each coordinate.
func FormatSample(elapsed time.Duration, p sensor.SkeletonPoint) []string {
	return []string{
		FormatElapsed(elapsed),
		formatCoordinate(p.X),
		formatCoordinate(p.Y),
		formatCoordinate(p.Z),
	}
}

func formatCoordinate(v float32) string {
	return strconv.FormatFloat(float64(v), 'f', -1, 32)
}
