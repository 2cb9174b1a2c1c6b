// Package ipc provides the local Unix-socket channel CLI tools and the UI
// collaborator use to talk to a running clipstash daemon.
package ipc

import (
	"net"
	"os"
	"path/filepath"
)

// SocketPath returns the path for the IPC socket.
//
//   - $CLIPSTASH_SOCKET when set
//   - $XDG_RUNTIME_DIR/clipstash.sock when available
//   - $TMPDIR/clipstash.sock otherwise
func SocketPath() string {
	if s := os.Getenv("CLIPSTASH_SOCKET"); s != "" {
		return s
	}
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "clipstash.sock")
	}
	return filepath.Join(os.TempDir(), "clipstash.sock")
}

// IsRunning reports whether a clipstash daemon appears to be listening on
// the IPC socket. It does a cheap dial-and-close; no data is exchanged.
func IsRunning() bool {
	c, err := net.Dial("unix", SocketPath())
	if err != nil {
		return false
	}
	_ = c.Close()
	return true
}

// Listen creates and returns a net.Listener on the IPC socket path, removing
// any stale socket file first.
func Listen() (net.Listener, error) {
	path := SocketPath()
	// Remove stale socket from a previous (crashed) run.
	_ = os.Remove(path)
	return net.Listen("unix", path)
}

// Dial connects to the daemon's IPC socket.
func Dial() (net.Conn, error) {
	return net.Dial("unix", SocketPath())
}
