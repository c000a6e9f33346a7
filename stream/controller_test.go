package stream

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ichinoseShugo/kinectjointrecord/sensor"
)

func TestSessionFolderName(t *testing.T) {
	cases := []struct {
		in   time.Time
		want string
	}{
		{time.Date(2024, 3, 5, 9, 7, 0, 0, time.UTC), "202403050907"},
		{time.Date(2024, 12, 25, 14, 30, 59, 0, time.UTC), "202412251430"},
		{time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), "202501010000"},
	}
	for _, c := range cases {
		if got := SessionFolderName(c.in); got != c.want {
			t.Errorf("SessionFolderName(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}

func newTestController(t *testing.T) (*RecordingController, string) {
	t.Helper()
	root := t.TempDir()
	clock := newFakeClock()
	c := NewRecordingController(root, clock.now(), NewRecorder(NewStopwatch(clock.now)))
	return c, root
}

func TestRecordingController_RecordPointsOpensSessionFile(t *testing.T) {
	c, root := newTestController(t)
	if c.RecordPoints() {
		t.Fatal("expected record points off initially")
	}

	if err := c.SetRecordPoints(true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer c.recorder.Close()

	if !c.RecordPoints() {
		t.Error("expected record points on")
	}
	want := filepath.Join(root, "202403050907", PointsFileName)
	if _, err := os.Stat(want); err != nil {
		t.Errorf("expected %s to exist: %v", want, err)
	}
	if c.recorder.Path() != want {
		t.Errorf("recorder path %q, want %q", c.recorder.Path(), want)
	}
}

func TestRecordingController_SessionDirFixedAtConstruction(t *testing.T) {
	c, _ := newTestController(t)
	first := c.SessionDir()
	time.Sleep(10 * time.Millisecond)
	if c.SessionDir() != first {
		t.Error("session dir changed")
	}
}

func TestRecordingController_ToggleOffThenOnTruncates(t *testing.T) {
	c, _ := newTestController(t)
	if err := c.SetRecordPoints(true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c.recorder.RecordSample(sensor.Joint{Position: pointAt(1, 2, 3)})
	c.recorder.RecordSample(sensor.Joint{Position: pointAt(1, 2, 3)})

	if err := c.SetRecordPoints(false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.RecordPoints() {
		t.Fatal("expected record points off")
	}
	if c.recorder.Path() == "" {
		t.Fatal("expected file to stay open while toggled off")
	}

	if err := c.SetRecordPoints(true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	path := c.recorder.Path()
	if err := c.recorder.Close(); err != nil {
		t.Fatal(err)
	}
	if lines := readLines(t, path); len(lines) != 0 {
		t.Errorf("expected truncated file, got %q", lines)
	}
}

func TestRecordingController_RepeatedOnDoesNotRestart(t *testing.T) {
	c, _ := newTestController(t)
	if err := c.SetRecordPoints(true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c.recorder.RecordSample(sensor.Joint{Position: pointAt(1, 2, 3)})
	if err := c.SetRecordPoints(true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	path := c.recorder.Path()
	c.recorder.Close()
	if lines := readLines(t, path); len(lines) != 1 {
		t.Errorf("expected row kept, got %q", lines)
	}
}

func TestRecordingController_OpenFailureLeavesToggleOff(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	clock := newFakeClock()
	c := NewRecordingController(blocker, clock.now(), NewRecorder(NewStopwatch(clock.now)))

	err := c.SetRecordPoints(true)
	var ioErr *RecordingIOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("expected RecordingIOError, got %v", err)
	}
	if c.RecordPoints() {
		t.Error("expected record points left off")
	}
}

func TestRecordingController_RecordAll(t *testing.T) {
	c, _ := newTestController(t)
	if err := c.RecordAll(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer c.recorder.Close()
	if !c.RecordPoints() || !c.RecordImages() {
		t.Errorf("expected both toggles on, got points=%v images=%v", c.RecordPoints(), c.RecordImages())
	}

	c.SetRecordImages(false)
	if c.RecordImages() {
		t.Error("expected images off")
	}
	if !c.RecordPoints() {
		t.Error("expected points unaffected")
	}
}

func TestRecordingController_RecordAllOpenFailureChangesNothing(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	clock := newFakeClock()
	c := NewRecordingController(blocker, clock.now(), NewRecorder(NewStopwatch(clock.now)))

	err := c.RecordAll()
	var ioErr *RecordingIOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("expected RecordingIOError, got %v", err)
	}
	if c.RecordPoints() || c.RecordImages() {
		t.Errorf("expected both toggles off, got points=%v images=%v", c.RecordPoints(), c.RecordImages())
	}
}

func TestRecordingController_ToggleOffFlushesRows(t *testing.T) {
	c, _ := newTestController(t)
	if err := c.SetRecordPoints(true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer c.recorder.Close()
	c.recorder.RecordSample(sensor.Joint{Position: pointAt(1, 2, 3)})

	if err := c.SetRecordPoints(false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lines := readLines(t, c.recorder.Path()); len(lines) != 1 {
		t.Errorf("expected 1 flushed row while toggled off, got %q", lines)
	}
}
