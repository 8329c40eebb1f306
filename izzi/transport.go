package izzi

import (
	"encoding/hex"
	"errors"
	"time"

	"github.com/victorjacobs/go-izzi/ui"
)

var (
	ErrNotConnected = errors.New("not connected")
	ErrShortFrame   = errors.New("short frame")
	ErrUnknownFrame = errors.New("unknown frame type")
)

const (
	DefaultReadTimeout = 3 * time.Second

	drainTimeout   = 100 * time.Millisecond
	maxDrainReads  = 64
	drainChunkSize = 1024
)

// Transport moves whole frames over a byte stream. Implementations never
// reconnect on their own; that is left to the controller loop.
type Transport interface {
	Connect() error
	Disconnect() error
	IsConnected() bool
	// ReadFrame returns the next complete frame, or nil without error if
	// nothing arrived within timeout.
	ReadFrame(timeout time.Duration) ([]byte, error)
	WriteFrame(frame []byte) error
}

// readFunc reads into p, waiting at most timeout. It returns 0 and no error on timeout.
type readFunc func(p []byte, timeout time.Duration) (int, error)

// scanFrame reads byte by byte until a known type byte shows up, then reads
// exactly the rest of that frame. Unknown bytes are skipped, so the scan never
// consumes anything past the end of the next valid frame.
func scanFrame(read readFunc, lengths map[byte]int, timeout time.Duration) ([]byte, error) {
	one := make([]byte, 1)
	var frame []byte

	for frame == nil {
		n, err := read(one, timeout)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, nil
		}
		length, ok := lengths[one[0]]
		if !ok {
			continue
		}
		frame = make([]byte, length)
		frame[0] = one[0]
	}

	for received := 1; received < len(frame); {
		n, err := read(frame[received:], timeout)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			ui.Debug("Timeout after %d of %d bytes", received, len(frame))
			return nil, nil
		}
		received += n
	}

	ui.Debug("RX %s", hex.EncodeToString(frame))
	return frame, nil
}

// drain discards whatever the medium buffered before we connected.
func drain(read readFunc) {
	buf := make([]byte, drainChunkSize)
	for i := 0; i < maxDrainReads; i++ {
		n, err := read(buf, drainTimeout)
		if err != nil || n == 0 {
			return
		}
	}
}
