//go:build darwin

package appinfo

// #cgo CFLAGS: -x objective-c
// #cgo LDFLAGS: -framework Cocoa
// #import <Cocoa/Cocoa.h>
// #include <stdlib.h>
//
// typedef struct {
//     char *name;
//     char *bundle_id;
//     int   pid;
// } clipstash_frontmost_t;
//
// clipstash_frontmost_t clipstash_frontmost() {
//     clipstash_frontmost_t out = {0};
//     NSRunningApplication *app = [[NSWorkspace sharedWorkspace] frontmostApplication];
//     if (app == nil) {
//         return out;
//     }
//     if (app.localizedName != nil) {
//         out.name = strdup([app.localizedName UTF8String]);
//     }
//     if (app.bundleIdentifier != nil) {
//         out.bundle_id = strdup([app.bundleIdentifier UTF8String]);
//     }
//     out.pid = app.processIdentifier;
//     return out;
// }
import "C"

import (
	"unsafe"

	"go.klb.dev/clipstash/internal/entry"
)

type darwinProvider struct{}

func newProvider() Provider { return darwinProvider{} }

// Frontmost samples NSWorkspace. The window title is not available without
// accessibility permissions, so it stays absent here.
func (darwinProvider) Frontmost() (entry.AppInfo, error) {
	fm := C.clipstash_frontmost()
	var info entry.AppInfo
	if fm.name != nil {
		info.Name = C.GoString(fm.name)
		C.free(unsafe.Pointer(fm.name))
	}
	if fm.bundle_id != nil {
		info.BundleID = C.GoString(fm.bundle_id)
		C.free(unsafe.Pointer(fm.bundle_id))
	}
	info.PID = int32(fm.pid)
	return info, nil
}
