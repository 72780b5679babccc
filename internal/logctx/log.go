// Package logctx is the controller's single logging sink. Every component
// formats its own message and logs through here rather than holding its own
// writer or calling fmt.Println directly.
package logctx

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the package-level sink. It is the one conventional singleton in
// the codebase (see SPEC_FULL.md §9); everything else is passed explicitly.
var Logger = logrus.New()

func init() {
	Logger.SetOutput(os.Stderr)
	Logger.SetLevel(logrus.InfoLevel)
	Logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
}

// SetLevel sets the logging level by name ("debug", "info", "warn", "error").
func SetLevel(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	Logger.SetLevel(lvl)
	return nil
}

// SetOutput redirects log output.
func SetOutput(w io.Writer) {
	Logger.SetOutput(w)
}

// SetJSONFormat switches the sink to structured JSON output.
func SetJSONFormat() {
	Logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05Z07:00",
	})
}

// WithField returns an entry carrying a single field.
func WithField(key string, value interface{}) *logrus.Entry {
	return Logger.WithField(key, value)
}

// WithFields returns an entry carrying multiple fields.
func WithFields(fields logrus.Fields) *logrus.Entry {
	return Logger.WithFields(fields)
}

// WithDevice scopes log lines to one device handle (cmd/meridiand uses it
// for per-device connect failures; internal/devfsm does not log).
func WithDevice(name string) *logrus.Entry {
	return Logger.WithField("device", name)
}

// WithTransaction scopes log lines to one controller transaction.
func WithTransaction(tid uint64) *logrus.Entry {
	return Logger.WithField("tid", tid)
}

// WithOperation scopes log lines to a northbound RPC or internal operation name.
func WithOperation(operation string) *logrus.Entry {
	return Logger.WithField("operation", operation)
}
