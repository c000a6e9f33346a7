package sensor

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
)

const colorHeaderLength = 8

// MarshalBinary encodes the frame as width, height and frame number
// (little endian uint16, uint16, uint32) followed by the BGR32 pixels.
func (f *ColorFrame) MarshalBinary() (data []byte, err error) {
	if len(f.Pixels) != f.Width*f.Height*BytesPerPixel {
		return nil, fmt.Errorf("frame %dx%d has %d pixel bytes", f.Width, f.Height, len(f.Pixels))
	}
	data = make([]byte, colorHeaderLength, colorHeaderLength+len(f.Pixels))
	binary.LittleEndian.PutUint16(data[0:], uint16(f.Width))
	binary.LittleEndian.PutUint16(data[2:], uint16(f.Height))
	binary.LittleEndian.PutUint32(data[4:], f.FrameNumber)
	data = append(data, f.Pixels...)

	return data, nil
}

// UnmarshalBinary decodes a frame written by MarshalBinary.
func (f *ColorFrame) UnmarshalBinary(data []byte) error {
	if len(data) < colorHeaderLength {
		return fmt.Errorf("%w: short header (%d bytes)", ErrFrameUnavailable, len(data))
	}
	width := int(binary.LittleEndian.Uint16(data[0:]))
	height := int(binary.LittleEndian.Uint16(data[2:]))
	pixels := data[colorHeaderLength:]
	if len(pixels) != width*height*BytesPerPixel {
		return fmt.Errorf("%w: %dx%d frame carries %d pixel bytes", ErrFrameUnavailable, width, height, len(pixels))
	}

	f.Width = width
	f.Height = height
	f.FrameNumber = binary.LittleEndian.Uint32(data[4:])
	f.Pixels = make([]byte, len(pixels))
	copy(f.Pixels, pixels)
	return nil
}

// DecodeColorFrame decodes a binary colour frame.
func DecodeColorFrame(data []byte) (*ColorFrame, error) {
	f := new(ColorFrame)
	if err := f.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return f, nil
}

// DecodeSkeletonFrame decodes a JSON skeleton frame and pads it to slots
// entries with NotTracked skeletons.
func DecodeSkeletonFrame(data []byte, slots int) (*SkeletonFrame, error) {
	f := new(SkeletonFrame)
	if err := json.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFrameUnavailable, err)
	}
	if len(f.Skeletons) > slots {
		return nil, fmt.Errorf("%w: %d skeletons exceed %d slots", ErrFrameUnavailable, len(f.Skeletons), slots)
	}
	for len(f.Skeletons) < slots {
		f.Skeletons = append(f.Skeletons, Skeleton{TrackingState: NotTracked})
	}
	return f, nil
}
