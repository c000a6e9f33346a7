package stream

import (
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ichinoseShugo/kinectjointrecord/util"
)

// RecordingController owns the record-points and record-images toggles.
// Frame callbacks read each toggle once per invocation; transitions are
// serialised so a start never interleaves with another.
type RecordingController struct {
	mu           sync.Mutex
	recordPoints atomic.Bool
	recordImages atomic.Bool

	root         string
	sessionStart time.Time
	recorder     *Recorder
}

// NewRecordingController creates a controller whose session directory is
// derived once from sessionStart.
func NewRecordingController(root string, sessionStart time.Time, recorder *Recorder) *RecordingController {
	c := new(RecordingController)
	c.root = root
	c.sessionStart = sessionStart
	c.recorder = recorder
	return c
}

// SessionFolderName formats t as YYYYMMDDHHMM.
func SessionFolderName(t time.Time) string {
	return strconv.Itoa(t.Year()) +
		util.Digits(int(t.Month())) +
		util.Digits(t.Day()) +
		util.Digits(t.Hour()) +
		util.Digits(t.Minute())
}

// SessionDir is the directory every recording of this process writes to.
func (c *RecordingController) SessionDir() string {
	return filepath.Join(c.root, SessionFolderName(c.sessionStart))
}

func (c *RecordingController) RecordPoints() bool {
	return c.recordPoints.Load()
}

func (c *RecordingController) RecordImages() bool {
	return c.recordImages.Load()
}

// SetRecordPoints toggles point recording. Turning it on opens (truncating)
// the session's Points.csv; on failure the toggle stays off and the
// RecordingIOError is returned. Turning it off stops rows being written but
// leaves the file open with the rows so far flushed.
func (c *RecordingController) SetRecordPoints(on bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setRecordPointsLocked(on)
}

func (c *RecordingController) setRecordPointsLocked(on bool) error {
	if !on {
		if c.recordPoints.Swap(false) {
			if err := c.recorder.Flush(); err != nil {
				log.Warn().Err(err).Msg("Flushing points failed")
			}
			log.Info().Msg("Point recording off")
		}
		return nil
	}
	if c.recordPoints.Load() {
		return nil
	}

	if err := c.recorder.StartSession(c.SessionDir()); err != nil {
		log.Error().Err(err).Msg("Point recording left off")
		return err
	}
	c.recordPoints.Store(true)
	log.Info().Str("dir", c.SessionDir()).Msg("Point recording on")
	return nil
}

// SetRecordImages toggles saving of colour frames.
func (c *RecordingController) SetRecordImages(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setRecordImagesLocked(on)
}

func (c *RecordingController) setRecordImagesLocked(on bool) {
	if c.recordImages.Swap(on) != on {
		log.Info().Bool("on", on).Msg("Image recording toggled")
	}
}

// RecordAll turns both toggles on. If the points file cannot be opened
// neither toggle changes.
func (c *RecordingController) RecordAll() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.setRecordPointsLocked(true); err != nil {
		return err
	}
	c.setRecordImagesLocked(true)
	return nil
}
