// Package report accumulates per-task outcomes into the run summary and
// renders it for the terminal.
package report

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/tanq16/grablist/internal/utils"
	"golang.org/x/term"
)

type Failure struct {
	URL  string
	Kind utils.ErrorKind
	Err  error
}

// Summary is the final tally of a run. Failures are listed in completion
// order.
type Summary struct {
	Succeeded int
	Skipped   int
	Failed    int
	Bytes     int64
	Failures  []Failure
}

func (s *Summary) Total() int {
	return s.Succeeded + s.Skipped + s.Failed
}

// OK reports whether the run should exit zero.
func (s *Summary) OK() bool {
	return len(s.Failures) == 0
}

// Aggregator collects outcomes from concurrent workers. Record is safe
// for concurrent use; Finalize must only be called after every worker
// has delivered its outcome.
type Aggregator struct {
	mu        sync.Mutex
	summary   Summary
	finalized bool
}

func NewAggregator() *Aggregator {
	return &Aggregator{}
}

func (a *Aggregator) Record(o utils.Outcome) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.finalized {
		panic("report: Record after Finalize")
	}
	switch o.Status {
	case utils.StatusSuccess:
		a.summary.Succeeded++
		a.summary.Bytes += o.Bytes
	case utils.StatusSkipped:
		a.summary.Skipped++
	case utils.StatusFailed:
		a.summary.Failed++
		a.summary.Failures = append(a.summary.Failures, Failure{
			URL:  o.Task.URL,
			Kind: o.Kind,
			Err:  o.Err,
		})
	}
}

func (a *Aggregator) Finalize() *Summary {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.finalized = true
	s := a.summary
	return &s
}

// Render writes the human-readable summary. Styling is dropped when
// stdout is not a terminal.
func Render(w io.Writer, s *Summary) {
	styled := false
	if f, ok := w.(*os.File); ok {
		styled = term.IsTerminal(int(f.Fd()))
	}
	line := func(style lipgloss.Style, text string) {
		if styled {
			fmt.Fprintln(w, style.Render(text))
		} else {
			fmt.Fprintln(w, text)
		}
	}
	line(headerStyle, fmt.Sprintf("Processed %d URLs", s.Total()))
	line(successStyle, fmt.Sprintf("  %s %d downloaded (%s)", styleSymbols["pass"], s.Succeeded, humanize.IBytes(uint64(s.Bytes))))
	if s.Skipped > 0 {
		line(warningStyle, fmt.Sprintf("  %s %d skipped (already downloaded)", styleSymbols["warning"], s.Skipped))
	}
	if s.Failed > 0 {
		line(errorStyle, fmt.Sprintf("  %s %d failed", styleSymbols["fail"], s.Failed))
		for _, f := range s.Failures {
			line(detailStyle, fmt.Sprintf("    %s %s [%s] %v", styleSymbols["bullet"], f.URL, f.Kind, f.Err))
		}
	}
}
