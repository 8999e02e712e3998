package main

import (
	"fmt"
	"io"
	"sync"

	"ai-notes-reflect/pkg/reflection/presenter"
	"ai-notes-reflect/pkg/reflection/stream"

	"github.com/fatih/color"
)

var (
	titleColor = color.New(color.FgCyan, color.Bold)
	dimColor   = color.New(color.FgHiBlack)
	warnColor  = color.New(color.FgYellow)
	errColor   = color.New(color.FgRed, color.Bold)
	okColor    = color.New(color.FgGreen)
)

// printer draws session progress and results on a terminal.
type printer struct {
	mu       sync.Mutex
	w        io.Writer
	progress bool
}

func newPrinter(w io.Writer) *printer {
	return &printer{w: w}
}

// Partial redraws a single progress line listing the sections seen so far.
func (p *printer) Partial(u stream.Update) {
	p.mu.Lock()
	defer p.mu.Unlock()

	sections := presenter.Render(u.Partial, u.Shape)
	titles := make([]string, 0, len(sections))
	for _, s := range sections {
		titles = append(titles, s.Title)
	}
	dimColor.Fprintf(p.w, "\r\033[K… %s %v", u.Shape, titles)
	p.progress = true
}

func (p *printer) Outcome(o stream.Outcome) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clearProgress()

	// Without a final result the last partial rendering stays on screen.
	partial := presenter.Render(o.Partial, o.Shape)

	switch o.State {
	case stream.StateCancelled:
		p.sections(partial)
		warnColor.Fprintln(p.w, "Cancelled.")
		return
	case stream.StateFallbackFailed:
		p.sections(partial)
		errColor.Fprintf(p.w, "Reflection failed: %v\n", o.Err)
		return
	case stream.StateFallbackSucceeded:
		dimColor.Fprintln(p.w, "Streaming failed, showing the classic result.")
	}

	if o.BackendError != "" {
		warnColor.Fprintf(p.w, "Generator reported: %s\n", o.BackendError)
	}
	if o.Unresolved() {
		if len(partial) > 0 {
			p.sections(partial)
			warnColor.Fprintln(p.w, "The reflection could not be parsed, showing what was received.")
			return
		}
		warnColor.Fprintln(p.w, "The reflection could not be parsed. Raw output:")
		fmt.Fprintln(p.w, o.Raw)
		return
	}

	p.sections(presenter.Render(o.Final, o.Shape))
}

func (p *printer) sections(sections []presenter.Section) {
	for i, s := range sections {
		if i > 0 {
			fmt.Fprintln(p.w)
		}
		titleColor.Fprintln(p.w, s.Title)
		if s.Text != "" {
			fmt.Fprintln(p.w, s.Text)
		}
		for _, item := range s.Items {
			fmt.Fprintf(p.w, "  • %s\n", item)
		}
	}
}

func (p *printer) Warn(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	warnColor.Fprintln(p.w, msg)
}

func (p *printer) Saved(id, title string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	okColor.Fprintf(p.w, "Saved as note %s (%q)\n", id, title)
}

func (p *printer) clearProgress() {
	if p.progress {
		fmt.Fprint(p.w, "\r\033[K")
		p.progress = false
	}
}
