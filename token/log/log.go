package log

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/btcsuite/btclog"
	"github.com/jrick/logrotate/rotator"
)

// logWriter implements an io.Writer that outputs to both standard output and
// the write-end pipe of an initialized log rotator.
type logWriter struct{}

func (logWriter) Write(p []byte) (n int, err error) {
	os.Stdout.Write(p)
	if LogRotator != nil {
		LogRotator.Write(p)
	}
	return len(p), nil
}

var (
	backendLog = btclog.NewBackend(logWriter{})

	// LogRotator is one of the logging outputs. It should be closed on
	// application shutdown.
	LogRotator *rotator.Rotator

	// Srv is the logger for the rpc/http server subsystem.
	Srv = backendLog.Logger("SRV")
	// Topic is the logger for the admission validator subsystem.
	Topic = backendLog.Logger("TOPC")
	// Index is the logger for the token index subsystem.
	Index = backendLog.Logger("INDX")
	// Gorm is the logger the database layer bridges into.
	Gorm = backendLog.Logger("GORM")
)

// InitLogRotator initializes the logging rotator to write logs to logFile and
// create roll files in the same directory. It must be called before the
// package-level loggers are relied on for file output.
func InitLogRotator(logFile string) {
	logDir, _ := filepath.Split(logFile)
	err := os.MkdirAll(logDir, 0700)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create log directory: %v\n", err)
		os.Exit(1)
	}
	r, err := rotator.New(logFile, 10*1024, false, 3)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create file rotator: %v\n", err)
		os.Exit(1)
	}

	LogRotator = r
}

// SetLogLevels sets the log level for all subsystem loggers.
func SetLogLevels(level btclog.Level) {
	for _, l := range []btclog.Logger{Srv, Topic, Index, Gorm} {
		l.SetLevel(level)
	}
}
