package logger

import (
	"errors"
	"fmt"
	"os"
)

var (
	// ErrAppNameIsEmpty is returned by Init without Log.AppName.
	ErrAppNameIsEmpty = errors.New("log config: AppName is required")

	// ErrServiceNameIsEmpty is returned by Init without Log.ServiceName, the metrics label.
	ErrServiceNameIsEmpty = errors.New("log config: ServiceName is required")
)

// ErrorHandler reports events zerolog failed to write. stderr is the only place left.
func ErrorHandler(err error) {
	_, _ = fmt.Fprintln(os.Stderr, "upmail: dropped log event:", err)
}
