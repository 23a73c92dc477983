//go:build !linux && !darwin

package clipboard

import (
	"fmt"
	"runtime"
)

// WriteString reports an error, since there is no clipboard support for
// this platform.
func WriteString(s string) error {
	return fmt.Errorf("clipboard is not supported on %s", runtime.GOOS)
}
