// Package must wraps operations that return an error we can't usefully
// recover from (closing an already-doomed file or connection) but still
// want surfaced somewhere instead of silently discarded.
package must

import (
	"io"

	"github.com/zachwinter/valve/pkg/logging"
)

// Close closes c, logging a warning if it fails instead of losing the
// error entirely.
func Close(c io.Closer, logger *logging.Logger) {
	if err := c.Close(); err != nil {
		logger.Warnf("unable to close: %s", err.Error())
	}
}
