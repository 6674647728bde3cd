package logger

import (
	"encoding/json"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"strings"
	"sync"
	"time"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Format selects how log lines are rendered.
type Format int

const (
	FormatText Format = iota
	FormatJSON
)

var (
	mu            sync.RWMutex
	currentLevel  = LevelInfo
	currentFormat = FormatText
	logger        = stdlog.New(os.Stdout, "", 0)
	output        io.Closer
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func SetLevel(level string) {
	mu.Lock()
	defer mu.Unlock()

	switch strings.ToUpper(level) {
	case "DEBUG":
		currentLevel = LevelDebug
	case "INFO":
		currentLevel = LevelInfo
	case "WARN":
		currentLevel = LevelWarn
	case "ERROR":
		currentLevel = LevelError
	}
}

// SetFormat switches between "text" and "json" output. Unknown values are
// ignored.
func SetFormat(format string) {
	mu.Lock()
	defer mu.Unlock()

	switch strings.ToLower(format) {
	case "text":
		currentFormat = FormatText
	case "json":
		currentFormat = FormatJSON
	}
}

// SetOutput directs log lines to "stdout", "stderr" or a file path, which is
// opened for appending. A previously opened log file is closed.
func SetOutput(dest string) error {
	var w io.Writer
	var c io.Closer

	switch strings.ToLower(dest) {
	case "", "stdout":
		w = os.Stdout
	case "stderr":
		w = os.Stderr
	default:
		f, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		w, c = f, f
	}

	SetWriter(w)

	mu.Lock()
	prev := output
	output = c
	mu.Unlock()

	if prev != nil {
		_ = prev.Close()
	}
	return nil
}

// SetWriter sends log lines to w.
func SetWriter(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger = stdlog.New(w, "", 0)
}

type jsonLine struct {
	Time    string `json:"time"`
	Level   string `json:"level"`
	Message string `json:"msg"`
}

func log(level Level, format string, v ...any) {
	mu.RLock()
	defer mu.RUnlock()

	if level < currentLevel {
		return
	}

	message := fmt.Sprintf(format, v...)
	now := time.Now()

	if currentFormat == FormatJSON {
		line, err := json.Marshal(jsonLine{
			Time:    now.UTC().Format(time.RFC3339Nano),
			Level:   level.String(),
			Message: message,
		})
		if err == nil {
			logger.Println(string(line))
			return
		}
	}

	timestamp := now.Format("2006-01-02 15:04:05")
	prefix := fmt.Sprintf("[%s] [%s] ", timestamp, level.String())
	logger.Println(prefix + message)
}

func Debug(format string, v ...any) {
	log(LevelDebug, format, v...)
}

func Info(format string, v ...any) {
	log(LevelInfo, format, v...)
}

func Warn(format string, v ...any) {
	log(LevelWarn, format, v...)
}

func Error(format string, v ...any) {
	log(LevelError, format, v...)
}
