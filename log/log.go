// Package log is the ambient logging facade used across chaincore. It wraps
// beego/logs so callers get printf-style Debug/Info/Warn/Error/Trace helpers
// without importing the adapter machinery themselves.
package log

import (
	"encoding/json"
	"fmt"
	"path"
	"runtime"
	"strings"

	"github.com/astaxie/beego/logs"
	"github.com/btcforge/chaincore/conf"
)

// DefaultLogDirname is the subdirectory of the data directory log files are
// written under.
const DefaultLogDirname = "logs"

func init() {
	if err := Init(); err != nil {
		panic(err)
	}
}

type logConfig struct {
	Filename string `json:"filename"`
	Level    int    `json:"level,omitempty"`
	Rotate   bool   `json:"rotate,omitempty"`
	Daily    bool   `json:"daily,omitempty"`
	MaxDays  int64  `json:"maxdays,omitempty"`
	MaxLines int    `json:"maxlines,omitempty"`
	MaxSize  int    `json:"maxsize,omitempty"`
}

// GetLevel maps a level name, as found in the config file, to the
// corresponding beego/logs level constant. Unrecognized names fall back to
// LevelDebug.
func GetLevel(strLevel string) int {
	switch strings.ToLower(strLevel) {
	case "emergency":
		return logs.LevelEmergency
	case "alert":
		return logs.LevelAlert
	case "critical":
		return logs.LevelCritical
	case "error":
		return logs.LevelError
	case "warn", "warning":
		return logs.LevelWarn
	case "info", "informational":
		return logs.LevelInfo
	case "notice":
		return logs.LevelNotice
	case "debug":
		return logs.LevelDebug
	default:
		return logs.LevelDebug
	}
}

// Init configures the default logger. Called with no arguments it logs to
// the data directory at debug level. Called with a single JSON-encoded
// logConfig argument (filename/level/rotation) it configures the file
// adapter from that instead, which is how tests pin the log path.
func Init(jsonConfig ...string) error {
	if len(jsonConfig) == 0 {
		dir := path.Join(conf.GetDataPath(), DefaultLogDirname)
		config, err := json.Marshal(logConfig{
			Filename: path.Join(dir, "debug.log"),
			Rotate:   true,
			Daily:    true,
			Level:    logs.LevelDebug,
		})
		if err != nil {
			return err
		}
		logs.SetLogger(logs.AdapterFile, string(config))
		return nil
	}
	logs.SetLogger(logs.AdapterFile, jsonConfig[0])
	return nil
}

// TraceLog reports the caller's function name and line, for callers that
// want to stitch it into a log message by hand.
func TraceLog() string {
	pc := make([]uintptr, 10)
	runtime.Callers(2, pc)
	f := runtime.FuncForPC(pc[0])
	_, line := f.FileLine(pc[0])
	return fmt.Sprintf("%s line : %d\n", f.Name(), line)
}

// Print dispatches format/args at the named level, tagging the message with
// module.
func Print(module string, level string, format string, reason ...interface{}) {
	format = "[" + module + "] " + format
	switch level {
	case "emergency":
		logs.Emergency(format, reason...)
	case "alert":
		logs.Alert(format, reason...)
	case "critical":
		logs.Critical(format, reason...)
	case "error":
		logs.Error(format, reason...)
	case "warn":
		logs.Warn(format, reason...)
	case "info":
		logs.Info(format, reason...)
	case "debug":
		logs.Debug(format, reason...)
	case "notice":
		logs.Notice(format, reason...)
	}
}

func Emergency(format string, v ...interface{}) { logs.Emergency(format, v...) }
func Alert(format string, v ...interface{})     { logs.Alert(format, v...) }
func Critical(format string, v ...interface{})  { logs.Critical(format, v...) }
func Error(format string, v ...interface{})     { logs.Error(format, v...) }
func Warn(format string, v ...interface{})      { logs.Warn(format, v...) }
func Info(format string, v ...interface{})      { logs.Info(format, v...) }
func Debug(format string, v ...interface{})     { logs.Debug(format, v...) }
func Trace(format string, v ...interface{})     { logs.Debug(format, v...) }
func Notice(format string, v ...interface{})    { logs.Notice(format, v...) }

// Closure defers building a log message until it is actually emitted, for
// arguments that are expensive to format.
type Closure func() string

func (c Closure) String() string {
	return c()
}

func InitLogClosure(c func() string) Closure {
	return Closure(c)
}
