package izzi

import (
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/victorjacobs/go-izzi/ui"
)

const (
	DefaultTCPPort = 8234

	dialTimeout = 10 * time.Second
)

// TCPTransport connects to a serial-to-ethernet gateway on the unit's bus.
// Besides status frames the gateway echoes command frames written by whichever
// controller is master, which lets a slave follow along.
type TCPTransport struct {
	address string
	conn    net.Conn
}

func NewTCPTransport(host string, port int) *TCPTransport {
	return &TCPTransport{
		address: net.JoinHostPort(host, strconv.Itoa(port)),
	}
}

func (t *TCPTransport) Connect() error {
	if t.conn != nil {
		return nil
	}

	conn, err := net.DialTimeout("tcp", t.address, dialTimeout)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", t.address, err)
	}
	t.conn = conn

	drain(t.read)

	return nil
}

func (t *TCPTransport) Disconnect() error {
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	return err
}

func (t *TCPTransport) IsConnected() bool {
	return t.conn != nil
}

func (t *TCPTransport) ReadFrame(timeout time.Duration) ([]byte, error) {
	if t.conn == nil {
		return nil, ErrNotConnected
	}
	return scanFrame(t.read, frameLengths, timeout)
}

func (t *TCPTransport) WriteFrame(frame []byte) error {
	if t.conn == nil {
		return ErrNotConnected
	}

	ui.Debug("TX %s", hex.EncodeToString(frame))

	if err := t.conn.SetWriteDeadline(time.Now().Add(DefaultReadTimeout)); err != nil {
		return err
	}
	_, err := t.conn.Write(frame)
	return err
}

func (t *TCPTransport) read(p []byte, timeout time.Duration) (int, error) {
	if err := t.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return 0, err
	}
	n, err := t.conn.Read(p)
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return n, nil
	}
	return n, err
}
