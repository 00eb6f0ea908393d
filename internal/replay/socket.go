// Package replay drives a live server through the actions recorded in a
// Conversation and reports mismatches against the captured traffic,
// mirroring HttpReplayClient and UdpReplayClient's replay() loops over a
// raw socket.
package replay

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// rawSocket wraps a single unix socket file descriptor: unix.Socket and
// friends take the same arguments the underlying POSIX syscalls do, so
// there is no layer of abstraction to build beyond naming the calls.
type rawSocket struct {
	fd int
}

func newStreamSocket(family int) (*rawSocket, error) {
	fd, err := unix.Socket(family, unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, fmt.Errorf("socket failed: %w", err)
	}
	return &rawSocket{fd: fd}, nil
}

func newDatagramSocket(family int) (*rawSocket, error) {
	fd, err := unix.Socket(family, unix.SOCK_DGRAM, 0)
	if err != nil {
		return nil, fmt.Errorf("socket failed: %w", err)
	}
	return &rawSocket{fd: fd}, nil
}

func (s *rawSocket) Connect(sa unix.Sockaddr) error {
	if err := unix.Connect(s.fd, sa); err != nil {
		return fmt.Errorf("connect failed: %w", err)
	}
	return nil
}

// Write loops on partial writes until the entire payload is sent. A zero
// or negative result (with no error) means the peer closed the
// connection, which is fatal for this conversation.
func (s *rawSocket) Write(payload []byte) error {
	written := 0
	for written < len(payload) {
		n, err := unix.Write(s.fd, payload[written:])
		if err != nil {
			return fmt.Errorf("write failed: %w", err)
		}
		if n <= 0 {
			return fmt.Errorf("write failed: connection closed")
		}
		written += n
	}
	return nil
}

// Read reads into buf once and returns the number of bytes read. A zero
// result with no error means the peer closed the connection.
func (s *rawSocket) Read(buf []byte) (int, error) {
	n, err := unix.Read(s.fd, buf)
	if err != nil {
		return 0, fmt.Errorf("read failed: %w", err)
	}
	if n == 0 {
		return 0, fmt.Errorf("read failed: connection closed")
	}
	return n, nil
}

func (s *rawSocket) SendTo(payload []byte, to unix.Sockaddr) error {
	if err := unix.Sendto(s.fd, payload, 0, to); err != nil {
		return fmt.Errorf("sendto failed: %w", err)
	}
	return nil
}

// RecvFrom reads one datagram into buf.
func (s *rawSocket) RecvFrom(buf []byte) (int, error) {
	n, _, err := unix.Recvfrom(s.fd, buf, 0)
	if err != nil {
		return 0, fmt.Errorf("recvfrom failed: %w", err)
	}
	return n, nil
}

// Close implements io.Closer.
func (s *rawSocket) Close() error {
	return unix.Close(s.fd)
}
