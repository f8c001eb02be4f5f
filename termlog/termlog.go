// Package termlog is a leveled logger that prints styled lines to a
// console sink and persists each line, newest first, to a recstore.Store.
package termlog

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/toon-format/toon-go"

	"github.com/rowlog/termtools/logship"
	"github.com/rowlog/termtools/recstore"
)

// ANSI styles per level
const (
	styleRed    = "\033[91m"
	styleYellow = "\033[93m"
	styleCyan   = "\033[96m"
	styleGreen  = "\033[92m"
	styleGray   = "\033[90m"
	styleReset  = "\033[0m"
)

// stamp recorded with each persisted line, e.g. [11/Aug/2025 20:41:36]
const stampFormat = "[02/Jan/2006 15:04:05]"

// Logger prints "[LEVEL] text" lines to a sink and prepends each one,
// with a timestamp, to a record store. Persistence is best-effort: a
// failed write surfaces as a console warning from the store, never as an
// error or panic. Console output keeps working after Dispose; only
// persistence stops.
type Logger struct {
	// Shipper, when set, also receives every formatted line
	Shipper *logship.Shipper
	// Now overrides the clock used for timestamps, for tests
	Now func() time.Time

	store        *recstore.Store
	out          io.Writer
	color        bool
	debugEnabled bool
	disposed     bool
}

// New creates a Logger persisting to store (which may be nil for a
// console-only logger), printing to stdout. Styling is enabled only when
// stdout is a terminal.
func New(store *recstore.Store) *Logger {
	return NewWithWriter(store, os.Stdout)
}

// NewWithWriter is New with a custom console sink
func NewWithWriter(store *recstore.Store, out io.Writer) *Logger {
	return &Logger{
		store: store,
		out:   out,
		color: isTerminal(out),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// With runs fn with a logger backed by store and guarantees Dispose on
// every exit path, including a panic inside fn.
func With(store *recstore.Store, fn func(l *Logger)) {
	l := New(store)
	defer l.Dispose()
	fn(l)
}

func (l *Logger) NewLog(text string) { l.save("Log", text, "") }

func (l *Logger) Error(text string) { l.save("ERROR", text, styleRed) }

func (l *Logger) Warning(text string) { l.save("WARNING", text, styleYellow) }

func (l *Logger) Info(text string) { l.save("INFO", text, styleCyan) }

func (l *Logger) Success(text string) { l.save("SUCCESS", text, styleGreen) }

// Debug logs only when enabled via SetDebug, off by default
func (l *Logger) Debug(text string) {
	if !l.debugEnabled {
		return
	}
	l.save("DEBUG", text, styleGray)
}

// SetDebug turns DEBUG output on or off
func (l *Logger) SetDebug(enabled bool) {
	l.debugEnabled = enabled
}

// Event logs a named structured event. keyVals alternate key and value;
// the payload is toon-encoded into the message. An odd keyVals drops the
// last element.
func (l *Logger) Event(name string, keyVals ...any) {
	n := len(keyVals) - len(keyVals)%2
	text := name
	if n > 0 {
		m := map[string]any{}
		for i := 0; i < n; i += 2 {
			k := fmt.Sprintf("%v", keyVals[i])
			m[k] = keyVals[i+1]
		}
		d, err := toon.Marshal(m)
		if err != nil {
			fmt.Fprintf(l.out, "termlog: event %q not encoded: %v\n", name, err)
			return
		}
		text = name + " " + string(d)
	}
	l.save("EVENT", text, "")
}

// Dispose marks the logger inert and releases the store reference.
// One-way and idempotent. Later log calls still print to the console but
// are never persisted.
func (l *Logger) Dispose() {
	l.disposed = true
	l.store = nil
}

func (l *Logger) stamp() string {
	now := time.Now
	if l.Now != nil {
		now = l.Now
	}
	return now().Format(stampFormat)
}

func (l *Logger) save(level, text, style string) {
	line := fmt.Sprintf("[%s] %s", level, text)
	if l.color && style != "" {
		fmt.Fprintf(l.out, "%s%s%s\n", style, line, styleReset)
	} else {
		fmt.Fprintln(l.out, line)
	}

	if l.Shipper != nil {
		l.Shipper.Ship(level, line)
	}

	if l.disposed || l.store == nil {
		return
	}
	// the store reports its own failures; nothing propagates from here
	l.store.Prepend(recstore.Row{line, l.stamp()})
}
