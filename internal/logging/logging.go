// Package logging wires the standard logger to an optional rotating log file.
package logging

import (
	"io"
	"log"

	"github.com/natefinch/lumberjack"

	"github.com/boucaud/sample-intensity-worker/internal/config"
)

var verbose bool

// Setup directs the standard logger to a rotating file when one is configured.
// The returned closer is a no-op when logging to stderr.
func Setup(cfg config.LogConfig) io.Closer {
	verbose = cfg.Verbose
	if cfg.File == "" {
		return nopCloser{}
	}
	l := &lumberjack.Logger{
		Filename: cfg.File,
		MaxSize:  cfg.MaxSizeMB, // megabytes
		MaxAge:   cfg.MaxAge,    // days
	}
	log.SetOutput(l)
	log.Printf("Sending log messages to: %s", cfg.File)
	return l
}

// Debugf logs only when verbose logging is enabled.
func Debugf(format string, args ...interface{}) {
	if verbose {
		log.Printf("DEBUG "+format, args...)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
