// Package appinfo resolves copy provenance: which application owned the
// frontmost window at the moment a clipboard change was observed. Build
// constraints select the platform query; everywhere the answer is best
// effort and missing fields stay absent.
package appinfo

import (
	"github.com/shirou/gopsutil/v3/process"

	"go.klb.dev/clipstash/internal/entry"
)

// Identity of the application's own editor, substituted for editor-origin
// copies. By the time polling observes such a change focus may have moved on,
// so the frontmost sample would lie.
const (
	EditorAppName     = "clipstash"
	EditorBundleID    = "dev.klb.clipstash"
	EditorWindowTitle = "clipstash editor"
)

// Provider answers the frontmost-application query.
type Provider interface {
	Frontmost() (entry.AppInfo, error)
}

// Capture resolves provenance for a copy. Editor-origin copies always get
// the app's own identity; otherwise the provider is sampled and enriched.
// A failed sample yields absent metadata, never an error: provenance is
// decoration, not correctness.
func Capture(p Provider, fromEditor bool) entry.AppInfo {
	if fromEditor {
		return entry.AppInfo{
			Name:        EditorAppName,
			BundleID:    EditorBundleID,
			WindowTitle: EditorWindowTitle,
		}
	}
	if p == nil {
		return entry.AppInfo{}
	}
	info, err := p.Frontmost()
	if err != nil {
		return entry.AppInfo{}
	}
	return enrich(info)
}

// enrich fills the application name from the process table when the platform
// hook only yielded a pid.
func enrich(info entry.AppInfo) entry.AppInfo {
	if info.Name != "" || info.PID == 0 {
		return info
	}
	proc, err := process.NewProcess(info.PID)
	if err != nil {
		return info
	}
	if name, err := proc.Name(); err == nil {
		info.Name = name
	}
	return info
}

// New returns the platform provider, or nil when the platform has no
// frontmost-window query.
func New() Provider { return newProvider() }
