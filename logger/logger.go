package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

var logger zerolog.Logger

func init() {
	Setup("info", FormatConsole, nil)
}

// Setup replaces the process logger. Output goes to stdout for debug through warn and
// to stderr for error and above unless w is set, in which case everything goes to w.
func Setup(level, format string, w io.Writer) {
	var writer io.Writer
	if w != nil {
		writer = formatWriter(w, format)
	} else {
		writer = zerolog.MultiLevelWriter(
			SpecificLevelWriter{
				Writer: formatWriter(os.Stdout, format),
				Levels: []zerolog.Level{
					zerolog.DebugLevel, zerolog.InfoLevel, zerolog.WarnLevel,
				},
			},
			SpecificLevelWriter{
				Writer: formatWriter(os.Stderr, format),
				Levels: []zerolog.Level{
					zerolog.ErrorLevel, zerolog.FatalLevel, zerolog.PanicLevel,
				},
			},
		)
	}
	logger = zerolog.New(writer).Level(ParseLevel(level)).With().Timestamp().Logger()
}

func formatWriter(w io.Writer, format string) io.Writer {
	if format == FormatJSON {
		return w
	}
	return zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: w != os.Stdout && w != os.Stderr}
}

// ParseLevel converts a level name to a zerolog level. Unknown names map to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Get returns the process logger for callers that attach their own fields.
func Get() *zerolog.Logger {
	return &logger
}

func Info(msg string) {
	logger.Info().Msg(msg)
}

func Infof(format string, args ...interface{}) {
	logger.Info().Msgf(format, args...)
}

func Warn(msg string) {
	logger.Warn().Msg(msg)
}

func Warnf(format string, args ...interface{}) {
	logger.Warn().Msgf(format, args...)
}

func Error(msg string) {
	logger.Error().Msg(msg)
}

func Errorf(format string, args ...interface{}) {
	logger.Error().Msgf(format, args...)
}

func Debug(msg string) {
	logger.Debug().Msg(msg)
}

func Debugf(format string, args ...interface{}) {
	logger.Debug().Msgf(format, args...)
}

// SpecificLevelWriter forwards only the listed levels to Writer.
type SpecificLevelWriter struct {
	io.Writer
	Levels []zerolog.Level
}

func (w SpecificLevelWriter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	for _, l := range w.Levels {
		if l == level {
			return w.Write(p)
		}
	}
	return len(p), nil
}
