package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"handover-launcher/internal/config"
)

// LogLevel 日志级别
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

var prefixes = [...]string{
	DEBUG: "DEBUG: ",
	INFO:  "INFO: ",
	WARN:  "WARN: ",
	ERROR: "ERROR: ",
}

// ParseLevel maps debug/info/warn/error to a level, anything else is WARN
func ParseLevel(level string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return DEBUG
	case "info":
		return INFO
	case "error":
		return ERROR
	default:
		return WARN
	}
}

// Logger writes each level through its own log.Logger, levels below the threshold go to io.Discard
type Logger struct {
	byLevel [len(prefixes)]*log.Logger
	closer  io.Closer
}

func newLogger(output io.Writer, threshold LogLevel) *Logger {
	l := &Logger{}
	for lvl, prefix := range prefixes {
		w := io.Discard
		if LogLevel(lvl) >= threshold {
			w = output
		}
		l.byLevel[lvl] = log.New(w, prefix, log.LstdFlags|log.Lshortfile)
	}
	return l
}

var (
	mu      sync.RWMutex
	current *Logger
)

// swap installs l and closes the file of the previous logger
func swap(l *Logger) {
	mu.Lock()
	defer mu.Unlock()
	if current != nil && current.closer != nil {
		current.closer.Close()
	}
	current = l
}

/**
 * Initialize the logging system
 * @param {*config.LogConfig} cfg - Level and path settings
 * @param {string} logDir - Directory of launcher.log, used when cfg.Path is empty or "console"
 * @param {bool} console - Also write to stderr (foreground commands)
 * @description
 * - Without a file (no path and no logDir) everything goes to stderr
 * - File output falls back to stderr when the file cannot be opened
 */
func InitLogger(cfg *config.LogConfig, logDir string, console bool) {
	path := cfg.Path
	if path == "console" {
		path = ""
	}
	if path == "" && logDir != "" {
		path = filepath.Join(logDir, "launcher.log")
	}

	var output io.Writer = os.Stderr
	var file *os.File
	if path != "" {
		f, err := openLogFile(path)
		if err != nil {
			// 日志文件不可用时退回标准错误输出
			fmt.Fprintf(os.Stderr, "open log file failed: %v\n", err)
		} else {
			file = f
			output = f
			if console {
				output = io.MultiWriter(os.Stderr, f)
			}
		}
	}

	l := newLogger(output, ParseLevel(cfg.Level))
	if file != nil {
		l.closer = file
	}
	swap(l)
}

// InitWithWriter 使用指定输出初始化日志，测试中使用
func InitWithWriter(output io.Writer, level LogLevel) {
	swap(newLogger(output, level))
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
}

// Close 关闭日志文件，之后的日志被丢弃
func Close() {
	swap(nil)
}

// emit writes msg at lvl, calldepth 3 points Lshortfile at the caller of the exported helper
func emit(lvl LogLevel, msg string) {
	mu.RLock()
	l := current
	mu.RUnlock()
	if l == nil {
		return
	}
	l.byLevel[lvl].Output(3, msg)
}

func Debugf(format string, v ...interface{}) {
	emit(DEBUG, fmt.Sprintf(format, v...))
}

func Info(v ...interface{}) {
	emit(INFO, fmt.Sprintln(v...))
}

func Infof(format string, v ...interface{}) {
	emit(INFO, fmt.Sprintf(format, v...))
}

func Warnf(format string, v ...interface{}) {
	emit(WARN, fmt.Sprintf(format, v...))
}

func Errorf(format string, v ...interface{}) {
	emit(ERROR, fmt.Sprintf(format, v...))
}
