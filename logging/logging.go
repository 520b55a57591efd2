// Package logging holds the process-wide structured logger.
//
// Output is logfmt. The report itself goes to stdout, so a run normally
// points the logger at a file with Open.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// Logger is replaced by Open. Until then it writes to stderr.
var Logger log.Logger

func init() {
	Logger = New(os.Stderr, false)
}

// New returns a logfmt logger on w. Debug lines are dropped unless debug is set.
func New(w io.Writer, debug bool) log.Logger {
	l := log.NewLogfmtLogger(log.NewSyncWriter(w))
	l = log.With(l, "ts", log.DefaultTimestampUTC)
	if debug {
		return level.NewFilter(l, level.AllowDebug())
	}
	return level.NewFilter(l, level.AllowInfo())
}

// Open redirects Logger to the file at path, appending. The caller closes the returned file.
func Open(path string, debug bool) (io.Closer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0660)
	if err != nil {
		return nil, fmt.Errorf("unable to open log file %s: %w", path, err)
	}
	Logger = New(f, debug)
	return f, nil
}

// Fingerprint identifies an address in logs without writing it in clear.
func Fingerprint(addr string) string {
	return fmt.Sprintf("%x", xxhash.Sum64String(addr))
}
