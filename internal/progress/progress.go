package progress

import (
	"fmt"
	"io"
	"net/url"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/charmbracelet/bubbles/progress"
)

const maxURLWidth = 40

// ProgressTracker shows a spinner while a page renders and a progress bar of
// processed versus discovered pages after each one.
type ProgressTracker struct {
	overallProgress progress.Model
	spinner         *spinner.Spinner
	out             io.Writer
	mu              sync.Mutex
}

// New creates a ProgressTracker writing to out. The spinner only animates
// when out is a terminal.
func New(out io.Writer) *ProgressTracker {
	return &ProgressTracker{
		overallProgress: progress.New(progress.WithDefaultGradient(), progress.WithWidth(30)),
		spinner:         spinner.New(spinner.CharSets[9], 100*time.Millisecond, spinner.WithWriter(out)),
		out:             out,
	}
}

// StartPage starts the spinner for url.
func (p *ProgressTracker) StartPage(url string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.spinner.Suffix = " " + formatURL(url)
	p.spinner.Start()
}

// FinishPage stops the spinner and prints the overall progress.
func (p *ProgressTracker) FinishPage(url string, processed, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.spinner.Stop()

	ratio := 0.0
	if total > 0 {
		ratio = float64(processed) / float64(total)
	}
	fmt.Fprintf(p.out, "\r%s %d/%d pages %s\n",
		p.overallProgress.ViewAs(ratio),
		processed,
		total,
		formatURL(url))
}

// formatURL shortens long URLs to host plus the tail of the path.
func formatURL(urlStr string) string {
	if len(urlStr) <= maxURLWidth {
		return urlStr
	}
	u, err := url.Parse(urlStr)
	if err == nil && u.Host != "" {
		path := u.Path
		room := maxURLWidth - len(u.Host) - 3
		if room < 0 {
			room = 0
		}
		if len(path) > room {
			path = "..." + path[len(path)-room:]
		}
		return u.Host + path
	}
	return "..." + urlStr[len(urlStr)-maxURLWidth:]
}
