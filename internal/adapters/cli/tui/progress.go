package tui

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// StepStatus represents the state of a progress step
type StepStatus int

const (
	StepPending StepStatus = iota
	StepRunning
	StepComplete
	StepError
)

// ProgressStep represents a single step in the progress
type ProgressStep struct {
	Name   string
	Status StepStatus
	Detail string
}

// ProgressDisplay manages multi-step progress output
type ProgressDisplay struct {
	out        io.Writer
	steps      []ProgressStep
	spinnerIdx int
	quiet      bool
	live       bool
	mu         sync.Mutex
	rendered   bool
}

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// NewProgressDisplay creates a new progress display. On a terminal the step
// list is redrawn in place; elsewhere only settled steps are printed.
func NewProgressDisplay(out io.Writer, steps []string, quiet bool) *ProgressDisplay {
	pd := &ProgressDisplay{
		out:   out,
		steps: make([]ProgressStep, len(steps)),
		quiet: quiet,
		live:  IsTerminal(out),
	}
	for i, name := range steps {
		pd.steps[i] = ProgressStep{Name: name, Status: StepPending}
	}
	return pd
}

// StartStep marks a step as running
func (p *ProgressDisplay) StartStep(index int) {
	p.set(index, StepRunning, "")
}

// CompleteStep marks a step as complete, with an optional detail
func (p *ProgressDisplay) CompleteStep(index int, detail string) {
	p.set(index, StepComplete, detail)
}

// FailStep marks a step as failed
func (p *ProgressDisplay) FailStep(index int, err string) {
	p.set(index, StepError, err)
}

func (p *ProgressDisplay) set(index int, status StepStatus, detail string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if index < 0 || index >= len(p.steps) {
		return
	}
	p.steps[index].Status = status
	p.steps[index].Detail = detail

	if p.live {
		p.render()
		return
	}
	if !p.quiet && status != StepRunning {
		fmt.Fprintln(p.out, p.line(index))
	}
}

// Steps returns a copy of the current step states
func (p *ProgressDisplay) Steps() []ProgressStep {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]ProgressStep(nil), p.steps...)
}

// Tick advances the spinner animation
func (p *ProgressDisplay) Tick() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.spinnerIdx = (p.spinnerIdx + 1) % len(spinnerFrames)
	if p.live {
		p.render()
	}
}

func (p *ProgressDisplay) line(i int) string {
	step := p.steps[i]
	stepNum := fmt.Sprintf("[%d/%d]", i+1, len(p.steps))

	var status string
	switch step.Status {
	case StepPending:
		status = " "
	case StepRunning:
		status = spinnerFrames[p.spinnerIdx]
	case StepComplete:
		status = "✓"
	case StepError:
		status = "✗"
	}

	if step.Detail != "" {
		return fmt.Sprintf("%s %s... %s %s", stepNum, step.Name, status, step.Detail)
	}
	return fmt.Sprintf("%s %s... %s", stepNum, step.Name, status)
}

func (p *ProgressDisplay) render() {
	if p.quiet {
		return
	}

	// Move cursor up by number of steps and clear to the end
	if p.rendered {
		fmt.Fprintf(p.out, "\033[%dA\033[J", len(p.steps))
	}
	for i := range p.steps {
		fmt.Fprintln(p.out, p.line(i))
	}
	p.rendered = true
}

// StartSpinner starts a goroutine that ticks the spinner until done is closed
func (p *ProgressDisplay) StartSpinner() chan struct{} {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				p.Tick()
			}
		}
	}()
	return done
}
