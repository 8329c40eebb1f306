package izzi

import "fmt"

// DecodeFrame decodes every known field of a status or command frame.
func DecodeFrame(frame []byte) (map[SensorID]int, error) {
	frameType, err := FrameType(frame)
	if err != nil {
		return nil, err
	}
	if len(frame) < frameLengths[frameType] {
		return nil, fmt.Errorf("frame 0x%02x of %d bytes: %w", frameType, len(frame), ErrShortFrame)
	}

	values := map[SensorID]int{}
	if frameType == StatusFrameID {
		for _, s := range newSensorTable() {
			if values[s.id], err = s.field.Decode(frame); err != nil {
				return nil, err
			}
		}
		return values, nil
	}

	for _, e := range newCommandTable() {
		if values[e.id], err = e.field.Decode(frame); err != nil {
			return nil, err
		}
	}
	return values, nil
}
