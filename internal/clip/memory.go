package clip

import "sync"

// Memory is an in-process Backend. It backs tests and headless hosts where
// no system clipboard exists; the change counter advances on every write and
// clear, matching NSPasteboard semantics.
type Memory struct {
	mu      sync.Mutex
	content string
	count   uint64

	// FailReads makes ChangeCount and ReadString return ReadErr, for
	// exercising adapter-failure paths in tests.
	FailReads bool
	ReadErr   error
}

// NewMemory returns an empty in-process clipboard.
func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Name() string { return "in-process memory clipboard" }

func (m *Memory) ChangeCount() (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailReads {
		return 0, m.ReadErr
	}
	return m.count, nil
}

func (m *Memory) ReadString() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailReads {
		return "", m.ReadErr
	}
	return m.content, nil
}

func (m *Memory) WriteString(s string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.content = s
	m.count++
	return nil
}

func (m *Memory) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.content = ""
	m.count++
	return nil
}

func (m *Memory) Close() {}
