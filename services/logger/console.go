package logsvc

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"golang.org/x/term"

	"github.com/trezcool/malipo/core"
	"github.com/trezcool/malipo/core/user"
)

// Components tagging log lines
const (
	ComponentAPI   = "API"
	ComponentDB    = "DB"
	ComponentAdmin = "ADMIN"
	ComponentCron  = "CRON"
)

// NewConsoleLogger returns a slog logger tagged with component, colored when w is a terminal. Debug lines are printed in debug mode only.
func NewConsoleLogger(w io.Writer, component string, debug bool) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	noColor := true
	if f, ok := w.(*os.File); ok {
		noColor = !term.IsTerminal(int(f.Fd()))
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.DateTime,
		NoColor:    noColor,
	})).With("component", component)
}

// consoleAttrs turns logger args (error, map[string]interface{}, user.User, ...) into slog attributes.
func consoleAttrs(args []interface{}) []interface{} {
	attrs := make([]interface{}, 0, len(args))
	for _, arg := range args {
		switch v := arg.(type) {
		case user.User:
			attrs = append(attrs, slog.String("user", v.Username))
		case error:
			attrs = append(attrs, slog.Any("error", v))
		case map[string]interface{}:
			for key, val := range v {
				attrs = append(attrs, slog.Any(key, val))
			}
		default:
			attrs = append(attrs, slog.Any("arg", v))
		}
	}
	return attrs
}

// ConsoleLogger only prints to the console. It is used by tools & tests.
type ConsoleLogger struct {
	console *slog.Logger
}

var _ core.Logger = (*ConsoleLogger)(nil)

func NewConsoleOnlyLogger(console *slog.Logger) *ConsoleLogger {
	return &ConsoleLogger{console: console}
}

// NewStdLogger returns a ConsoleLogger printing to stderr.
func NewStdLogger() *ConsoleLogger {
	return NewConsoleOnlyLogger(NewConsoleLogger(os.Stderr, "STD", true))
}

func (l ConsoleLogger) Debug(msg string, args ...interface{}) {
	l.console.Debug(msg, consoleAttrs(args)...)
}

func (l ConsoleLogger) Info(msg string, args ...interface{}) {
	l.console.Info(msg, consoleAttrs(args)...)
}

func (l ConsoleLogger) Warn(msg string, args ...interface{}) {
	l.console.Warn(msg, consoleAttrs(args)...)
}

func (l ConsoleLogger) Error(msg string, args ...interface{}) {
	l.console.Error(msg, consoleAttrs(args)...)
}

func (l ConsoleLogger) Fatal(msg string, args ...interface{}) {
	l.console.Error(msg, consoleAttrs(args)...)
	os.Exit(1)
}
