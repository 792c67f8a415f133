package logx

import (
	"fmt"
	"log"
	"os"
	"sync/atomic"
)

// Level controls which messages get emitted
type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var (
	current atomic.Int32
	std     = log.New(os.Stderr, "", log.LstdFlags)
)

func init() {
	current.Store(int32(LevelInfo))
}

// SetLevel sets the minimum level that gets logged
func SetLevel(level Level) {
	current.Store(int32(level))
}

func enabled(level Level) bool {
	return int32(level) >= current.Load()
}

func output(prefix string, args ...any) {
	std.Output(3, prefix+" "+fmt.Sprint(args...))
}

func outputf(prefix, format string, args ...any) {
	std.Output(3, prefix+" "+fmt.Sprintf(format, args...))
}

func Debug(args ...any) {
	if enabled(LevelDebug) {
		output("[DEBUG]", args...)
	}
}

func Debugf(format string, args ...any) {
	if enabled(LevelDebug) {
		outputf("[DEBUG]", format, args...)
	}
}

func Info(args ...any) {
	if enabled(LevelInfo) {
		output("[INFO]", args...)
	}
}

func Infof(format string, args ...any) {
	if enabled(LevelInfo) {
		outputf("[INFO]", format, args...)
	}
}

func Warn(args ...any) {
	if enabled(LevelWarn) {
		output("[WARN]", args...)
	}
}

func Warnf(format string, args ...any) {
	if enabled(LevelWarn) {
		outputf("[WARN]", format, args...)
	}
}

func Error(args ...any) {
	if enabled(LevelError) {
		output("[ERROR]", args...)
	}
}

func Errorf(format string, args ...any) {
	if enabled(LevelError) {
		outputf("[ERROR]", format, args...)
	}
}

// Fatalf logs at error level and exits the process
func Fatalf(format string, args ...any) {
	outputf("[FATAL]", format, args...)
	os.Exit(1)
}
