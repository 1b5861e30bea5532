package utils

import (
	"context"
	"fmt"
	"net"

	"go.einride.tech/can"
	"go.einride.tech/can/pkg/socketcan"
)

// FrameWriter transmits raw CAN frames.
type FrameWriter interface {
	WriteFrame(ctx context.Context, frame can.Frame) error
	Close() error
}

// FrameReader receives raw CAN frames.
type FrameReader interface {
	ReadFrame(ctx context.Context) (can.Frame, error)
	Close() error
}

// SocketCANWriter transmits on a SocketCAN interface.
type SocketCANWriter struct {
	conn net.Conn
	tx   *socketcan.Transmitter
}

// NewSocketCANWriter opens a transmit connection on the given interface
// (e.g. "can0", "vcan0").
func NewSocketCANWriter(ctx context.Context, iface string) (*SocketCANWriter, error) {
	conn, err := socketcan.DialContext(ctx, "can", iface)
	if err != nil {
		return nil, fmt.Errorf("socketcan dial %s: %w", iface, err)
	}
	return &SocketCANWriter{conn: conn, tx: socketcan.NewTransmitter(conn)}, nil
}

func (w *SocketCANWriter) WriteFrame(ctx context.Context, frame can.Frame) error {
	return w.tx.TransmitFrame(ctx, frame)
}

func (w *SocketCANWriter) Close() error {
	if w.conn != nil {
		return w.conn.Close()
	}
	return nil
}

// SocketCANReader receives from a SocketCAN interface.
type SocketCANReader struct {
	conn net.Conn
	recv *socketcan.Receiver
}

// NewSocketCANReader opens a receive connection on the given interface.
func NewSocketCANReader(ctx context.Context, iface string) (*SocketCANReader, error) {
	conn, err := socketcan.DialContext(ctx, "can", iface)
	if err != nil {
		return nil, fmt.Errorf("socketcan dial %s: %w", iface, err)
	}
	return &SocketCANReader{conn: conn, recv: socketcan.NewReceiver(conn)}, nil
}

// ReadFrame blocks until one frame arrives or the context is cancelled.
func (r *SocketCANReader) ReadFrame(ctx context.Context) (can.Frame, error) {
	frameCh := make(chan can.Frame, 1)
	errCh := make(chan error, 1)

	go func() {
		if r.recv.Receive() {
			frameCh <- r.recv.Frame()
			return
		}
		errCh <- fmt.Errorf("receive failed")
	}()

	select {
	case <-ctx.Done():
		return can.Frame{}, ctx.Err()
	case frame := <-frameCh:
		return frame, nil
	case err := <-errCh:
		return can.Frame{}, err
	}
}

func (r *SocketCANReader) Close() error {
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}
