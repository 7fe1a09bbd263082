package progress

import (
	"fmt"
	"io"
	"sync"

	bprogress "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

var (
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")).Bold(true)
	countStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0"))
)

// Bar redraws a single terminal line on every update.
type Bar struct {
	mu    sync.Mutex
	out   io.Writer
	label string
	model bprogress.Model
	total int
	done  int
}

func NewBar(out io.Writer, label string, width int) *Bar {
	if width <= 0 {
		width = 40
	}
	return &Bar{
		out:   out,
		label: label,
		model: bprogress.New(bprogress.WithDefaultGradient(), bprogress.WithWidth(width)),
	}
}

func (b *Bar) Start(total int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.total = total
	b.done = 0
	b.render()
}

func (b *Bar) Increment() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.done < b.total {
		b.done++
	}
	b.render()
}

func (b *Bar) Finish() {
	b.mu.Lock()
	defer b.mu.Unlock()
	fmt.Fprintln(b.out)
}

func (b *Bar) render() {
	fmt.Fprintf(b.out, "\r%s %s %s",
		labelStyle.Render(b.label),
		b.model.ViewAs(b.percent()),
		countStyle.Render(fmt.Sprintf("%d/%d", b.done, b.total)),
	)
}

func (b *Bar) percent() float64 {
	if b.total <= 0 {
		return 1
	}
	return float64(b.done) / float64(b.total)
}

// Nop discards progress updates.
type Nop struct{}

func (Nop) Start(int)  {}
func (Nop) Increment() {}
func (Nop) Finish()    {}
