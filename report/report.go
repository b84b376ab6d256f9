// Package report prints the coloured stage banners shown while plotting.
package report

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Reporter writes "=== message ===" lines, coloured by severity when the
// output is a terminal. It is safe for concurrent use.
type Reporter struct {
	mu    sync.Mutex
	w     io.Writer
	info  lipgloss.Style
	ok    lipgloss.Style
	warn  lipgloss.Style
	fail  lipgloss.Style
	quiet bool
}

// New returns a Reporter writing to w.
func New(w io.Writer) *Reporter {
	r := lipgloss.NewRenderer(w)
	return &Reporter{
		w:    w,
		info: r.NewStyle().Foreground(lipgloss.Color("13")),
		ok:   r.NewStyle().Foreground(lipgloss.Color("10")),
		warn: r.NewStyle().Foreground(lipgloss.Color("11")),
		fail: r.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
	}
}

// Discard returns a Reporter that prints nothing.
func Discard() *Reporter {
	r := New(io.Discard)
	r.quiet = true
	return r
}

func (r *Reporter) print(style lipgloss.Style, format string, args []any) {
	if r.quiet {
		return
	}
	msg := "=== " + fmt.Sprintf(format, args...) + " ==="
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.w, style.Render(msg))
}

// Infof reports progress.
func (r *Reporter) Infof(format string, args ...any) { r.print(r.info, format, args) }

// OKf reports a completed stage.
func (r *Reporter) OKf(format string, args ...any) { r.print(r.ok, format, args) }

// Warnf reports something suspicious that does not stop the run.
func (r *Reporter) Warnf(format string, args ...any) { r.print(r.warn, format, args) }

// Failf reports a fatal error.
func (r *Reporter) Failf(format string, args ...any) { r.print(r.fail, format, args) }
