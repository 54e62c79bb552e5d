package tui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"golang.org/x/term"

	"github.com/devbush/stockdesk/internal/batch"
)

// renderProgressBar creates a text progress bar like [=====>    ]
// current=0, total=10, width=10 → [          ]
// current=5, total=10, width=10 → [=====>    ]
// current=10, total=10, width=10 → [==========]
func renderProgressBar(current, total, width int) string {
	if total <= 0 || current <= 0 {
		return "[" + strings.Repeat(" ", width) + "]"
	}
	if current >= total {
		return "[" + strings.Repeat("=", width) + "]"
	}

	equals := min(current*width/total, width-1)
	spaces := width - equals - 1
	return "[" + strings.Repeat("=", equals) + ">" + strings.Repeat(" ", spaces) + "]"
}

// BatchProgress renders batch runner snapshots. On a terminal it redraws a
// single gradient bar in place; otherwise it prints one text line per chunk.
type BatchProgress struct {
	out   io.Writer
	quiet bool
	bar   *progress.Model

	mu       sync.Mutex
	last     batch.Progress
	rendered bool
}

// NewBatchProgress creates a progress display writing to out
func NewBatchProgress(out io.Writer, quiet bool) *BatchProgress {
	bp := &BatchProgress{out: out, quiet: quiet}
	if IsTerminal(out) {
		bar := progress.New(
			progress.WithDefaultGradient(),
			progress.WithWidth(30),
			progress.WithoutPercentage(),
		)
		bp.bar = &bar
	}
	return bp
}

// IsTerminal reports whether w is an interactive terminal
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Update records and renders a snapshot. Its signature matches batch.ProgressFunc.
func (bp *BatchProgress) Update(p batch.Progress) {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	bp.last = p
	if bp.quiet {
		return
	}
	fmt.Fprint(bp.out, bp.line(p))
	bp.rendered = true
}

func (bp *BatchProgress) line(p batch.Progress) string {
	counts := fmt.Sprintf("%d/%d %3.0f%%", p.Processed, p.Total, p.Percent())
	if p.Failed > 0 {
		counts += fmt.Sprintf("  %d failed", p.Failed)
	}

	if bp.bar != nil {
		eta := ""
		if !p.Done() {
			eta = fmt.Sprintf("  ~%s left", p.Remaining().Round(time.Second))
		}
		return fmt.Sprintf("\r\033[K%s %s %s%s", p.Label, bp.bar.ViewAs(p.Percent()/100), counts, eta)
	}

	return fmt.Sprintf("%s %s %s  chunk %d/%d\n",
		p.Label, renderProgressBar(p.Processed, p.Total, 20), counts, p.ChunkIndex+1, p.TotalChunks)
}

// Finish terminates the in-place line on a terminal
func (bp *BatchProgress) Finish() {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if bp.rendered && bp.bar != nil {
		fmt.Fprintln(bp.out)
	}
}

// Last returns the most recent snapshot
func (bp *BatchProgress) Last() batch.Progress {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	return bp.last
}
