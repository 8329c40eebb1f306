package izzi

import (
	"fmt"
)

// Frame type bytes. The first byte of every frame identifies its type.
const (
	CommandFrameID byte = 0x64
	StatusFrameID  byte = 0x65
)

const (
	StatusFrameLength  = 26
	CommandFrameLength = 21
)

// Status frame offsets
const (
	statusOutdoorTempIndex   = 1
	statusSupplyTempIndex    = 2
	statusExtractTempIndex   = 3
	statusExhaustTempIndex   = 4
	statusBypassStateIndex   = 5
	statusCoverStateIndex    = 6
	statusDefrostStateIndex  = 7
	statusHumidityIndex      = 8
	statusCO2LevelIndex      = 9
	statusSupplySpeedIndex   = 10
	statusExtractSpeedIndex  = 11
	statusHigroCO2StateIndex = 12
)

// Command frame offsets
const (
	commandBypassTempIndex   = 8
	commandBypassModeIndex   = 9
	commandSupplySpeedIndex  = 10
	commandExtractSpeedIndex = 11
	commandUnitStateIndex    = 12
	commandVentPresetIndex   = 14
	commandHigroCO2Index     = 16
	commandSupplyStateIndex  = 17
	commandExtractStateIndex = 18
)

const (
	BypassModeAuto   = 0
	BypassModeOpen   = 1
	BypassModeClosed = 2

	UnitOff = 0
	UnitOn  = 1

	// CoverOpen is the cover state reported while the intake cover is open.
	CoverOpen = 0

	StateOff = 0
	StateOn  = 1
)

// Vent overrides shift airflow between the two ducts on top of the commanded speed.
const (
	VentModeNone       = 0
	VentModeFireplace  = 1
	VentModeOpenWindow = 2
	VentModeCookerHood = 3
)

// Vent presets are handled by the unit itself.
const (
	VentPresetOff       = 0
	VentPresetSpeed1    = 1
	VentPresetSpeed2    = 2
	VentPresetSpeed3    = 3
	VentPresetVentilate = 4
	VentPresetFireplace = 5
	VentPresetAway      = 6
	VentPresetAuto      = 7
)

var defaultCommandFrame = [CommandFrameLength]byte{
	CommandFrameID, 0x00, 0x00, 0x00, 0x00, 0x16, 0x05, 0x00,
	0x16, BypassModeClosed, 0x28, 0x28, UnitOff, 0x00, VentPresetSpeed1, 0x00,
	StateOn, StateOn, StateOn, 0x00, 0x00,
}

// NewCommandFrame returns a fresh copy of the default command frame.
// Reserved bytes keep the values the unit expects.
func NewCommandFrame() []byte {
	frame := make([]byte, CommandFrameLength)
	copy(frame, defaultCommandFrame[:])
	return frame
}

// Format describes how a single byte field is interpreted.
type Format int

const (
	Unsigned Format = iota
	Signed
)

// Field locates a single byte value inside a frame.
type Field struct {
	Offset int
	Format Format
}

// Decode extracts the field from the frame.
func (f Field) Decode(frame []byte) (int, error) {
	if f.Offset < 0 || f.Offset >= len(frame) {
		return 0, fmt.Errorf("offset %d outside frame of %d bytes: %w", f.Offset, len(frame), ErrShortFrame)
	}
	raw := frame[f.Offset]
	if f.Format == Signed {
		return int(int8(raw)), nil
	}
	return int(raw), nil
}

// Encode writes value into buf at the field offset, leaving every other byte untouched.
func (f Field) Encode(buf []byte, value int) error {
	if f.Offset < 0 || f.Offset >= len(buf) {
		return fmt.Errorf("offset %d outside frame of %d bytes: %w", f.Offset, len(buf), ErrShortFrame)
	}
	buf[f.Offset] = byte(value)
	return nil
}

// FrameType returns the type byte of the frame, or an error if the frame
// is empty or of an unknown type.
func FrameType(frame []byte) (byte, error) {
	if len(frame) == 0 {
		return 0, ErrShortFrame
	}
	if _, ok := frameLengths[frame[0]]; !ok {
		return 0, fmt.Errorf("frame type 0x%02x: %w", frame[0], ErrUnknownFrame)
	}
	return frame[0], nil
}

var frameLengths = map[byte]int{
	StatusFrameID:  StatusFrameLength,
	CommandFrameID: CommandFrameLength,
}
