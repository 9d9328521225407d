// SPDX-License-Identifier: MPL-2.0

//go:build windows

package watch

import (
	"errors"
	"syscall"
)

// isFatalFsnotifyError classifies fsnotify errors that indicate the watcher
// is fundamentally broken and cannot recover. On Windows, these correspond
// to handle exhaustion errors:
//   - ERROR_TOO_MANY_OPEN_FILES (4)
//   - ERROR_INVALID_HANDLE (6)
//   - ERROR_NOT_ENOUGH_MEMORY (8)
func isFatalFsnotifyError(err error) bool {
	var errno syscall.Errno
	if !errors.As(err, &errno) {
		return false
	}
	switch errno {
	case 4, 6, 8:
		return true
	}
	return false
}
