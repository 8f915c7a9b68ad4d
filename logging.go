package turbodrone

import (
	"os"

	"github.com/apex/log"
	"github.com/apex/log/handlers/text"
)

// Log is the package-wide logger. It defaults to a text handler on stderr;
// callers embedding turbodrone in a larger program may replace it with
// SetLogger before starting any pipeline.
var Log log.Interface = &log.Logger{
	Handler: text.New(os.Stderr),
	Level:   log.InfoLevel,
}

// SetLogger replaces the package-wide logger, eg. to route turbodrone's
// structured fields into a JSON handler or an existing apex/log.Logger.
func SetLogger(l log.Interface) {
	if l == nil {
		return
	}
	Log = l
}

// SetDebug toggles debug-level logging (reassembly-gap diagnostics, per-tick
// scheduler chatter) on the default logger. It is a no-op if SetLogger has
// installed a logger that isn't *log.Logger.
func SetDebug(debug bool) {
	logger, ok := Log.(*log.Logger)
	if !ok {
		return
	}
	if debug {
		logger.Level = log.DebugLevel
	} else {
		logger.Level = log.InfoLevel
	}
}
