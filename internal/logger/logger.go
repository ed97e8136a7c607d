package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

const (
	LevelError = iota
	LevelWarning
	LevelInfo
	LevelDebug
)

var (
	log          zerolog.Logger
	currentLevel = LevelInfo
)

func init() {
	Setup(LevelInfo)
}

// Setup configures the process-wide logger. Levels follow the -log flag:
// 0 errors only, 1 adds warnings, 2 adds info, 3 adds debug.
func Setup(level int) {
	currentLevel = level

	zl := zerolog.ErrorLevel
	switch {
	case level >= LevelDebug:
		zl = zerolog.DebugLevel
	case level >= LevelInfo:
		zl = zerolog.InfoLevel
	case level >= LevelWarning:
		zl = zerolog.WarnLevel
	}

	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log = zerolog.New(out).Level(zl).With().Timestamp().Logger()
}

func GetCurrentLevel() int {
	return currentLevel
}

func Error() *zerolog.Event {
	return log.Error()
}

func Warn() *zerolog.Event {
	return log.Warn()
}

func Info() *zerolog.Event {
	return log.Info()
}

func Debug() *zerolog.Event {
	return log.Debug()
}
