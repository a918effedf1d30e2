package logging

import (
	"strings"

	"go.uber.org/zap/zapcore"
)

// TraceLevel sits below Debug. gitlabber logs per-project discovery details
// and git transfer progress at this level.
const TraceLevel = zapcore.DebugLevel - 1

const traceName = "trace"

// LevelFromString parses a level name, case-insensitively, including
// "trace". An empty string means info.
func LevelFromString(level string) (zapcore.Level, error) {
	if strings.EqualFold(level, traceName) {
		return TraceLevel, nil
	}
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return zapcore.InfoLevel, err
	}
	return l, nil
}

// LevelString is the inverse of LevelFromString.
func LevelString(l zapcore.Level) string {
	if l == TraceLevel {
		return traceName
	}
	return l.String()
}

// encodeLevel writes lowercase level names, "trace" included.
func encodeLevel(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(LevelString(l))
}
