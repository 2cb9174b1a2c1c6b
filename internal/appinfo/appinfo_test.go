package appinfo

import (
	"errors"
	"testing"

	"go.klb.dev/clipstash/internal/entry"
)

type fakeProvider struct {
	info entry.AppInfo
	err  error
}

func (f fakeProvider) Frontmost() (entry.AppInfo, error) { return f.info, f.err }

func TestCaptureEditorOriginIgnoresFrontmost(t *testing.T) {
	p := fakeProvider{info: entry.AppInfo{Name: "Safari", BundleID: "com.apple.Safari", PID: 42}}

	got := Capture(p, true)
	if got.Name != EditorAppName || got.BundleID != EditorBundleID || got.WindowTitle != EditorWindowTitle {
		t.Errorf("editor-origin metadata = %+v, want fixed editor identity", got)
	}
	if got.PID != 0 {
		t.Errorf("editor-origin metadata carried pid %d", got.PID)
	}
}

func TestCaptureSamplesFrontmost(t *testing.T) {
	want := entry.AppInfo{Name: "Terminal", BundleID: "com.apple.Terminal", WindowTitle: "zsh", PID: 7}
	got := Capture(fakeProvider{info: want}, false)
	if got != want {
		t.Errorf("Capture = %+v, want %+v", got, want)
	}
}

func TestCaptureFailuresYieldAbsentMetadata(t *testing.T) {
	tests := []struct {
		name string
		p    Provider
	}{
		{"nil provider", nil},
		{"provider error", fakeProvider{err: errors.New("no window server")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Capture(tt.p, false); got != (entry.AppInfo{}) {
				t.Errorf("Capture = %+v, want absent metadata", got)
			}
		})
	}
}
