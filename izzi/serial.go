package izzi

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/victorjacobs/go-izzi/ui"
	"go.bug.st/serial"
)

const serialBaudRate = 9600

// openSerialPort is swapped out in tests.
var openSerialPort = serial.Open

// SerialTransport talks to the unit over an RS485 adapter. Only status frames
// are seen on the serial line.
type SerialTransport struct {
	portName string
	port     serial.Port
}

func NewSerialTransport(portName string) *SerialTransport {
	return &SerialTransport{
		portName: portName,
	}
}

func (s *SerialTransport) Connect() error {
	if s.port != nil {
		return nil
	}

	port, err := openSerialPort(s.portName, &serial.Mode{
		BaudRate: serialBaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", s.portName, err)
	}
	s.port = port

	drain(s.read)

	return nil
}

func (s *SerialTransport) Disconnect() error {
	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	return err
}

func (s *SerialTransport) IsConnected() bool {
	return s.port != nil
}

func (s *SerialTransport) ReadFrame(timeout time.Duration) ([]byte, error) {
	if s.port == nil {
		return nil, ErrNotConnected
	}
	return scanFrame(s.read, map[byte]int{StatusFrameID: StatusFrameLength}, timeout)
}

func (s *SerialTransport) WriteFrame(frame []byte) error {
	if s.port == nil {
		return ErrNotConnected
	}

	ui.Debug("TX %s", hex.EncodeToString(frame))

	n, err := s.port.Write(frame)
	if err != nil {
		return err
	}
	if n != len(frame) {
		return fmt.Errorf("short write: %d of %d bytes", n, len(frame))
	}
	return nil
}

func (s *SerialTransport) read(p []byte, timeout time.Duration) (int, error) {
	if err := s.port.SetReadTimeout(timeout); err != nil {
		return 0, err
	}
	return s.port.Read(p)
}
