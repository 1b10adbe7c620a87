package sentry

import (
	"time"

	"github.com/getsentry/sentry-go"
)

// Init configures the sentry hub. An empty dsn leaves reporting disabled;
// RecoverPanic then still rethrows, it just has nowhere to report.
func Init(dsn string) error {
	if dsn == "" {
		return nil
	}
	return sentry.Init(sentry.ClientOptions{
		Dsn: dsn,
	})
}

// RecoverPanic reports a panic to sentry and rethrows it.
func RecoverPanic() {
	if err := recover(); err != nil {
		sentry.CurrentHub().Recover(err)
		sentry.Flush(time.Second * 2)
		panic(err)
	}
}
