package main

import (
	"fmt"

	"go.klb.dev/clipstash/internal/ipc"
	"go.klb.dev/clipstash/internal/message"
	"go.klb.dev/clipstash/internal/wire"
)

// roundTrip sends one request to the daemon and returns the reply.
func roundTrip(msg *message.Message) (*message.Message, error) {
	conn, err := ipc.Dial()
	if err != nil {
		return nil, fmt.Errorf("no clipstash daemon on %s (start one with \"clipstash serve\"): %w",
			ipc.SocketPath(), err)
	}
	wc := wire.New(conn)
	defer wc.Close()

	if err := wc.WriteMsg(msg); err != nil {
		return nil, fmt.Errorf("send: %w", err)
	}
	reply, err := wc.ReadMsg()
	if err != nil {
		return nil, fmt.Errorf("reply: %w", err)
	}
	if reply.Type == message.TypeError {
		return nil, fmt.Errorf("%s", reply.Error)
	}
	return reply, nil
}
