package stream

import (
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/ichinoseShugo/kinectjointrecord/display"
	"github.com/ichinoseShugo/kinectjointrecord/sensor"
)

// ShapeSurface is a drawing surface of marker shapes.
type ShapeSurface interface {
	Clear()
	Add(e display.Ellipse)
}

// SampleRecorder persists joint samples.
type SampleRecorder interface {
	RecordSample(joint sensor.Joint) error
}

// PointsToggle reports whether samples should be recorded.
type PointsToggle interface {
	RecordPoints() bool
}

// SkeletonStatus is the on/off skeleton indicator.
type SkeletonStatus struct {
	on  atomic.Bool
	set atomic.Bool
}

func (s *SkeletonStatus) Set(on bool) {
	first := !s.set.Swap(true)
	if s.on.Swap(on) != on || first {
		log.Info().Msg(s.String())
	}
}

func (s *SkeletonStatus) On() bool {
	return s.on.Load()
}

func (s *SkeletonStatus) String() string {
	if s.On() {
		return "Skeleton On"
	}
	return "Skeleton Off"
}

// SkeletonTracker handles skeleton frames: it redraws a marker for the
// selected joint of every tracked skeleton and records the joint while
// point recording is on.
type SkeletonTracker struct {
	joint     sensor.JointType
	slots     []sensor.Skeleton
	projector *JointProjector
	canvas    ShapeSurface
	recorder  SampleRecorder
	toggle    PointsToggle
	status    *SkeletonStatus
}

func NewSkeletonTracker(joint sensor.JointType, slotCount int, projector *JointProjector,
	canvas ShapeSurface, recorder SampleRecorder, toggle PointsToggle, status *SkeletonStatus) *SkeletonTracker {

	t := new(SkeletonTracker)
	t.joint = joint
	t.slots = make([]sensor.Skeleton, slotCount)
	t.projector = projector
	t.canvas = canvas
	t.recorder = recorder
	t.toggle = toggle
	t.status = status
	return t
}

// TrackedJoints returns the selected joint of every Tracked skeleton, in
// slot order.
func TrackedJoints(skeletons []sensor.Skeleton, joint sensor.JointType) []sensor.Joint {
	var joints []sensor.Joint
	for _, s := range skeletons {
		if s.TrackingState == sensor.Tracked {
			joints = append(joints, s.Joint(joint))
		}
	}
	return joints
}

// OnSkeletonFrame is the skeleton stream handler.
func (t *SkeletonTracker) OnSkeletonFrame(frame *sensor.SkeletonFrame) {
	t.canvas.Clear()

	if frame == nil {
		t.status.Set(false)
		return
	}

	if len(t.slots) != frame.SkeletonArrayLength() {
		t.slots = make([]sensor.Skeleton, frame.SkeletonArrayLength())
	}
	if err := frame.CopySkeletonDataTo(t.slots); err != nil {
		log.Debug().Err(err).Msg("Skipping skeleton frame")
		t.status.Set(false)
		return
	}

	record := t.toggle.RecordPoints()
	joints := TrackedJoints(t.slots, t.joint)
	for _, joint := range joints {
		t.draw(joint)
		if !record {
			continue
		}
		if err := t.recorder.RecordSample(joint); err != nil {
			log.Error().Err(err).Uint32("frame", frame.FrameNumber).Msg("Recording sample failed")
		}
	}
	t.status.Set(len(joints) > 0)
}

func (t *SkeletonTracker) draw(joint sensor.Joint) {
	pt, err := t.projector.Project(joint.Position)
	if err != nil {
		log.Debug().Err(err).Str("joint", joint.Type.String()).Msg("Joint not projected")
		return
	}
	t.canvas.Add(Marker(pt))
}
