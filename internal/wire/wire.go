// Package wire handles reading and writing newline-delimited JSON messages
// over a net.Conn. Every line is a single message:
//
//	<json>\n
//
// The IPC socket is local and owner-restricted by the OS, so the wire
// carries no transport security of its own.
package wire

import (
	"bufio"
	"fmt"
	"net"
	"time"

	"go.klb.dev/clipstash/internal/message"
)

const (
	// MaxMessageSize is the largest message we will read (16 MiB).
	MaxMessageSize = 16 * 1024 * 1024

	writeDeadline = 5 * time.Second
)

// Conn wraps a net.Conn with buffered newline-delimited JSON framing.
type Conn struct {
	conn net.Conn
	br   *bufio.Reader
}

// New wraps conn.
func New(conn net.Conn) *Conn {
	return &Conn{
		conn: conn,
		br:   bufio.NewReaderSize(conn, 64*1024),
	}
}

// Close closes the underlying connection.
func (c *Conn) Close() error { return c.conn.Close() }

// WriteMsg serialises msg to JSON and writes it followed by a newline.
func (c *Conn) WriteMsg(msg *message.Message) error {
	raw, err := msg.Encode()
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	line := append(raw, '\n')

	_ = c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
	_, err = c.conn.Write(line)
	_ = c.conn.SetWriteDeadline(time.Time{})
	return err
}

// ReadMsg reads one newline-terminated line and deserialises it into a
// Message.
func (c *Conn) ReadMsg() (*message.Message, error) {
	line, err := c.br.ReadBytes('\n')
	if err != nil {
		return nil, err
	}
	if len(line) > MaxMessageSize {
		return nil, fmt.Errorf("message too large (%d bytes)", len(line))
	}
	return message.Decode(line[:len(line)-1])
}
