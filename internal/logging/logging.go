// Package logging configures gout's line-oriented, timestamped logger.
//
// The wire format is fixed by the original tool and is not negotiable:
// every line starts with "[<program> <timestamp>]" where timestamp is
// "YYYY_MM_DD-HH:MM." followed by a 4-digit decimation of the current
// microsecond (microsecond/100, i.e. 10-microsecond resolution). There is
// no JSON mode, no rotation, and no level filtering beyond a minimum
// level cutoff.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

// Config controls how Configure builds the logger.
type Config struct {
	// Program is the prefix token, e.g. "gout" (agent) or "gout_server" (relay).
	Program string
	// Level is one of DEBUG, INFO, WARN, ERROR (default INFO).
	Level string
	// Writer overrides the output destination; defaults to os.Stdout.
	Writer io.Writer
}

// Configure builds and installs a *slog.Logger that renders gout's
// historical log line format.
func Configure(cfg Config) *slog.Logger {
	w := cfg.Writer
	if w == nil {
		w = os.Stdout
	}
	program := cfg.Program
	if program == "" {
		program = "gout"
	}

	h := &lineHandler{
		w:       w,
		program: program,
		level:   parseLevel(cfg.Level),
	}
	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}

func parseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// lineHandler is a slog.Handler emitting "[<program> <ts>] msg key=val ..."
// lines, one per record, matching the source tool's log() helper.
type lineHandler struct {
	mu      sync.Mutex
	w       io.Writer
	program string
	level   slog.Level
	attrs   []slog.Attr
	groups  []string
}

func (h *lineHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *lineHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	b.WriteByte('[')
	b.WriteString(h.program)
	b.WriteByte(' ')
	b.WriteString(timestamp(r.Time))
	b.WriteString("] ")
	b.WriteString(r.Message)

	writeAttr := func(a slog.Attr) bool {
		if a.Key == "" {
			return true
		}
		b.WriteByte(' ')
		if len(h.groups) > 0 {
			b.WriteString(strings.Join(h.groups, "."))
			b.WriteByte('.')
		}
		b.WriteString(a.Key)
		b.WriteByte('=')
		b.WriteString(formatValue(a.Value))
		return true
	}

	for _, a := range h.attrs {
		writeAttr(a)
	}
	r.Attrs(writeAttr)
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *lineHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	next := &lineHandler{
		w:       h.w,
		program: h.program,
		level:   h.level,
		groups:  h.groups,
	}
	next.attrs = append(next.attrs, h.attrs...)
	next.attrs = append(next.attrs, attrs...)
	return next
}

func (h *lineHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := &lineHandler{
		w:       h.w,
		program: h.program,
		level:   h.level,
		attrs:   h.attrs,
	}
	next.groups = append(next.groups, h.groups...)
	next.groups = append(next.groups, name)
	return next
}

// timestamp renders "YYYY_MM_DD-HH:MM." plus microsecond/100, zero-padded
// to 4 digits (10-microsecond resolution), matching gout's original log().
func timestamp(t time.Time) string {
	head := t.Format("2006_01_02-15:04.")
	sub := (t.Nanosecond() / 1000) / 100
	return fmt.Sprintf("%s%04d", head, sub)
}

func formatValue(v slog.Value) string {
	s := v.String()
	if strings.ContainsAny(s, " \t\n\"") {
		return fmt.Sprintf("%q", s)
	}
	return s
}
