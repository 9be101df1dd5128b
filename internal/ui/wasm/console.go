//go:build js && wasm

package wasm

import (
	"strings"

	"github.com/rs/zerolog"
)

// ConsoleWriter sends zerolog output to the browser console, picking the
// console method from the entry level.
type ConsoleWriter struct{}

func (ConsoleWriter) Write(p []byte) (int, error) {
	consoleCall("log", strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

func (ConsoleWriter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	line := strings.TrimRight(string(p), "\n")
	switch {
	case level >= zerolog.ErrorLevel:
		consoleCall("error", line)
	case level == zerolog.WarnLevel:
		consoleCall("warn", line)
	case level == zerolog.DebugLevel || level == zerolog.TraceLevel:
		consoleCall("debug", line)
	default:
		consoleCall("log", line)
	}
	return len(p), nil
}
