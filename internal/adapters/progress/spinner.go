package progress

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"

	"github.com/trebuchet-org/dvote/internal/usecase"
)

// SpinnerProgress reports batch progress with a spinner on terminals and
// plain lines otherwise
type SpinnerProgress struct {
	out         io.Writer
	interactive bool
	spinner     *spinner.Spinner
	startTime   time.Time
}

// NewSpinnerProgress creates a progress reporter writing to out
func NewSpinnerProgress(out io.Writer, interactive bool) *SpinnerProgress {
	return &SpinnerProgress{
		out:         out,
		interactive: interactive,
		startTime:   time.Now(),
	}
}

func (p *SpinnerProgress) OnProgress(ctx context.Context, event usecase.ProgressEvent) {
	if event.Stage == "complete" {
		p.stop()
		color.New(color.FgGreen).Fprintf(p.out, "✅ %s in %s\n", event.Message, time.Since(p.startTime).Round(time.Millisecond))
		return
	}

	if !p.interactive {
		if event.Total > 0 {
			fmt.Fprintf(p.out, "[%d/%d] %s\n", event.Current, event.Total, event.Message)
		} else if event.Message != "" {
			fmt.Fprintln(p.out, event.Message)
		}
		return
	}

	if !event.Spinner {
		p.stop()
		return
	}
	if p.spinner == nil {
		p.spinner = spinner.New(spinner.CharSets[14], 100*time.Millisecond)
		p.spinner.Writer = p.out
		_ = p.spinner.Color("cyan", "bold")
	}
	p.spinner.Suffix = fmt.Sprintf(" [%d/%d] %s", event.Current, event.Total, event.Message)
	if !p.spinner.Active() {
		p.spinner.Start()
	}
}

func (p *SpinnerProgress) Info(message string) {
	p.pause(func() { color.New(color.FgCyan).Fprintln(p.out, "ℹ️  "+message) })
}

func (p *SpinnerProgress) Error(message string) {
	p.pause(func() { color.New(color.FgRed).Fprintln(p.out, "❌ "+message) })
}

// pause stops an active spinner around print
func (p *SpinnerProgress) pause(print func()) {
	active := p.spinner != nil && p.spinner.Active()
	if active {
		p.spinner.Stop()
	}
	print()
	if active {
		p.spinner.Start()
	}
}

func (p *SpinnerProgress) stop() {
	if p.spinner != nil && p.spinner.Active() {
		p.spinner.Stop()
	}
}

var _ usecase.ProgressSink = (*SpinnerProgress)(nil)
