// Package report collects the validation and processing errors raised while
// a run works through its candidate themes.
//
// Errors are either non-fatal (recorded, processing continues) or fatal
// (recorded, processing of the current theme stops). A fatal error is
// signalled by returning an error that wraps ErrAbort; callers check it with
// errors.Is and move on to the next theme.
package report

import (
	"errors"
	"fmt"
	"io"
	"sync"
)

// ErrAbort marks an error that ends processing of the current theme.
var ErrAbort = errors.New("theme processing aborted")

// MaxExitCode is the largest exit status a run reports.
const MaxExitCode = 255

// AnnotationPrefix prefixes every emitted error line so CI runners can turn
// it into an annotation.
const AnnotationPrefix = "::error "

// Entry is a single recorded error.
type Entry struct {
	// ThemeID is the owning theme, empty when no theme was known.
	ThemeID string
	Message string
	Fatal   bool
}

// String renders the entry with its theme prefix.
func (e Entry) String() string {
	if e.ThemeID == "" {
		return e.Message
	}
	return fmt.Sprintf("[%s] %s", e.ThemeID, e.Message)
}

// FatalError is returned by Scope.Fatalf. It wraps ErrAbort.
type FatalError struct {
	Entry Entry
}

// Error implements the error interface.
func (e *FatalError) Error() string {
	return e.Entry.String()
}

// Unwrap returns ErrAbort.
func (e *FatalError) Unwrap() error {
	return ErrAbort
}

// Collector is the process-wide ordered error list.
type Collector struct {
	mu      sync.Mutex
	entries []Entry
}

// NewCollector creates an empty Collector.
func NewCollector() *Collector {
	return &Collector{entries: make([]Entry, 0)}
}

// Errorf records an error that is not tied to a theme.
func (c *Collector) Errorf(format string, args ...any) {
	c.add(Entry{Message: fmt.Sprintf(format, args...)})
}

// Scope returns a view of the collector that prefixes every entry with themeID.
func (c *Collector) Scope(themeID string) *Scope {
	return &Scope{collector: c, themeID: themeID}
}

func (c *Collector) add(e Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, e)
}

// Entries returns a copy of the recorded entries in order.
func (c *Collector) Entries() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Messages returns the rendered entries in order.
func (c *Collector) Messages() []string {
	entries := c.Entries()
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.String()
	}
	return out
}

// Len returns the number of recorded entries.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Emit writes every entry as an annotation line.
func (c *Collector) Emit(w io.Writer) error {
	for _, e := range c.Entries() {
		if _, err := fmt.Fprintf(w, "%s%s\n", AnnotationPrefix, e.String()); err != nil {
			return fmt.Errorf("writing error annotations: %w", err)
		}
	}
	return nil
}

// ExitCode returns the process exit status for the collected errors: zero
// when nothing was recorded, otherwise the count capped at MaxExitCode.
func (c *Collector) ExitCode() int {
	n := c.Len()
	if n > MaxExitCode {
		return MaxExitCode
	}
	return n
}

// Scope records errors on behalf of a single theme.
type Scope struct {
	collector *Collector
	themeID   string
}

// ThemeID returns the theme this scope belongs to.
func (s *Scope) ThemeID() string {
	return s.themeID
}

// Errorf records a non-fatal error.
func (s *Scope) Errorf(format string, args ...any) {
	s.collector.add(Entry{ThemeID: s.themeID, Message: fmt.Sprintf(format, args...)})
}

// Fatalf records a fatal error and returns it. The caller must stop
// processing the theme and propagate the returned error.
func (s *Scope) Fatalf(format string, args ...any) error {
	e := Entry{ThemeID: s.themeID, Message: fmt.Sprintf(format, args...), Fatal: true}
	s.collector.add(e)
	return &FatalError{Entry: e}
}

// Abort records err as a fatal error unless it already went through Fatalf.
// It returns an error wrapping ErrAbort either way.
func (s *Scope) Abort(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrAbort) {
		return err
	}
	return s.Fatalf("%v", err)
}
