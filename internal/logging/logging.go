// Package logging provides the structured, leveled logger used by the server
// and the CLI's long-running commands. It adapts go-logger's glog so callers
// depend on a small interface.
package logging

import (
	"errors"
	"fmt"
	"strings"

	glog "github.com/goliatone/go-logger/glog"
)

// ErrInvalidFormat is returned by New for an unknown output format.
var ErrInvalidFormat = errors.New("unsupported log format")

// Logger is the logging contract used across the module.
// Args are alternating key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)

	// Named returns a child logger tagged with name.
	Named(name string) Logger
	// With returns a child logger that adds fields to every entry.
	With(fields map[string]any) Logger
}

// Config selects level and output format.
type Config struct {
	Level     string // trace, debug, info, warn, error, fatal (default info)
	Format    string // console (default), json, pretty
	AddSource bool
}

// New builds a Logger backed by go-logger.
func New(cfg Config) (Logger, error) {
	options := []glog.Option{glog.WithLevel(normalizeLevel(cfg.Level))}

	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "", "console":
		options = append(options, glog.WithLoggerTypeConsole())
	case "json":
		options = append(options, glog.WithLoggerTypeJSON())
	case "pretty":
		options = append(options, glog.WithLoggerTypePretty())
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidFormat, cfg.Format)
	}

	if cfg.AddSource {
		options = append(options, glog.WithAddSource(true))
	}

	return &adapter{root: glog.NewLogger(options...)}, nil
}

// adapter wraps either the root logger or a named child.
type adapter struct {
	root  *glog.BaseLogger
	inner glog.Logger // nil means root
}

func wrap(root *glog.BaseLogger, inner glog.Logger) Logger {
	return &adapter{root: root, inner: inner}
}

func (l *adapter) logger() glog.Logger {
	if l.inner != nil {
		return l.inner
	}
	return l.root
}

func (l *adapter) Debug(msg string, args ...any) { l.logger().Debug(msg, args...) }
func (l *adapter) Info(msg string, args ...any)  { l.logger().Info(msg, args...) }
func (l *adapter) Warn(msg string, args ...any)  { l.logger().Warn(msg, args...) }
func (l *adapter) Error(msg string, args ...any) { l.logger().Error(msg, args...) }

func (l *adapter) Named(name string) Logger {
	name = strings.TrimSpace(name)
	if name == "" || l.root == nil {
		return l
	}
	return wrap(l.root, l.root.GetLogger(name))
}

func (l *adapter) With(fields map[string]any) Logger {
	if len(fields) == 0 {
		return l
	}
	if fl, ok := l.logger().(glog.FieldsLogger); ok {
		copied := make(map[string]any, len(fields))
		for k, v := range fields {
			copied[k] = v
		}
		return wrap(l.root, fl.WithFields(copied))
	}
	return l
}

func normalizeLevel(level string) string {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return glog.Trace
	case "debug":
		return glog.Debug
	case "warn", "warning":
		return glog.Warn
	case "error":
		return glog.Error
	case "fatal":
		return glog.Fatal
	default:
		return glog.Info
	}
}

// Nop returns a Logger that discards everything.
func Nop() Logger { return nop{} }

type nop struct{}

func (nop) Debug(string, ...any)       {}
func (nop) Info(string, ...any)        {}
func (nop) Warn(string, ...any)        {}
func (nop) Error(string, ...any)       {}
func (nop) Named(string) Logger        { return nop{} }
func (nop) With(map[string]any) Logger { return nop{} }
