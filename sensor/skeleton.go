package sensor

import (
	"fmt"
)

// TrackingState classifies a skeleton slot.
type TrackingState int

const (
	NotTracked TrackingState = iota
	PositionOnly
	Tracked
)

var trackingStateNames = map[TrackingState]string{
	NotTracked:   "NotTracked",
	PositionOnly: "PositionOnly",
	Tracked:      "Tracked",
}

func (s TrackingState) String() string {
	if n, ok := trackingStateNames[s]; ok {
		return n
	}
	return "unknown"
}

func (s TrackingState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *TrackingState) UnmarshalText(text []byte) error {
	for state, name := range trackingStateNames {
		if name == string(text) {
			*s = state
			return nil
		}
	}
	return fmt.Errorf("unknown tracking state %q", text)
}

// JointType identifies one of the twenty tracked joints.
type JointType int

const (
	HipCenter JointType = iota
	Spine
	ShoulderCenter
	Head
	ShoulderLeft
	ElbowLeft
	WristLeft
	HandLeft
	ShoulderRight
	ElbowRight
	WristRight
	HandRight
	HipLeft
	KneeLeft
	AnkleLeft
	FootLeft
	HipRight
	KneeRight
	AnkleRight
	FootRight
	JointCount
)

var jointNames = [JointCount]string{
	"HipCenter", "Spine", "ShoulderCenter", "Head",
	"ShoulderLeft", "ElbowLeft", "WristLeft", "HandLeft",
	"ShoulderRight", "ElbowRight", "WristRight", "HandRight",
	"HipLeft", "KneeLeft", "AnkleLeft", "FootLeft",
	"HipRight", "KneeRight", "AnkleRight", "FootRight",
}

func (j JointType) String() string {
	if j < 0 || j >= JointCount {
		return "unknown"
	}
	return jointNames[j]
}

// ParseJointType looks a joint up by name.
func ParseJointType(name string) (JointType, error) {
	for i, n := range jointNames {
		if n == name {
			return JointType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown joint type %q", name)
}

func (j JointType) MarshalText() ([]byte, error) {
	if j < 0 || j >= JointCount {
		return nil, fmt.Errorf("invalid joint type %d", int(j))
	}
	return []byte(j.String()), nil
}

func (j *JointType) UnmarshalText(text []byte) error {
	parsed, err := ParseJointType(string(text))
	if err != nil {
		return err
	}
	*j = parsed
	return nil
}

func (j *JointType) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var name string
	if err := unmarshal(&name); err != nil {
		return err
	}
	return j.UnmarshalText([]byte(name))
}

// Joint is a single joint position.
type Joint struct {
	Type          JointType     `json:"-"`
	TrackingState TrackingState `json:"state"`
	Position      SkeletonPoint `json:"position"`
}

// Skeleton is one slot of a skeleton frame.
type Skeleton struct {
	TrackingID    int                 `json:"trackingId"`
	TrackingState TrackingState       `json:"state"`
	Position      SkeletonPoint       `json:"position"`
	Joints        map[JointType]Joint `json:"joints,omitempty"`
}

// Joint returns the joint of the given type. A missing joint comes back
// NotTracked at the origin.
func (s Skeleton) Joint(t JointType) Joint {
	j, ok := s.Joints[t]
	if !ok {
		return Joint{Type: t, TrackingState: NotTracked}
	}
	j.Type = t
	return j
}
