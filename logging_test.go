package turbodrone

import (
	"testing"

	"github.com/apex/log"
)

func TestSetLoggerIgnoresNil(t *testing.T) {
	original := Log
	defer func() { Log = original }()

	SetLogger(nil)
	if Log != original {
		t.Error("SetLogger(nil) should leave the existing logger in place")
	}
}

func TestSetLoggerReplacesLogger(t *testing.T) {
	original := Log
	defer func() { Log = original }()

	replacement := &log.Logger{Handler: log.HandlerFunc(func(*log.Entry) error { return nil })}
	SetLogger(replacement)
	if Log != log.Interface(replacement) {
		t.Error("SetLogger should install the replacement logger")
	}
}

func TestSetDebugTogglesLevelOnDefaultLogger(t *testing.T) {
	original := Log
	defer func() { Log = original }()

	logger := &log.Logger{Level: log.InfoLevel}
	SetLogger(logger)

	SetDebug(true)
	if logger.Level != log.DebugLevel {
		t.Errorf("Level = %v, want DebugLevel", logger.Level)
	}

	SetDebug(false)
	if logger.Level != log.InfoLevel {
		t.Errorf("Level = %v, want InfoLevel", logger.Level)
	}
}

func TestSetDebugNoOpOnNonLoggerInterface(t *testing.T) {
	original := Log
	defer func() { Log = original }()

	// log.WithField returns an *Entry, which satisfies log.Interface but is
	// not a *log.Logger, so SetDebug's type assertion should just no-op.
	entry := log.WithField("component", "test")
	SetLogger(entry)
	SetDebug(true) // must not panic
}
