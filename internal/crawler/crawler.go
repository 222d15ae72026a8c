// Package crawler drives a mirror run: it drains the frontier one page at a
// time, renders each page, discovers new in-site links and writes the
// materialized result.
package crawler

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/go-scripts/sitemirror/internal/links"
	"github.com/go-scripts/sitemirror/internal/materialize"
	"github.com/go-scripts/sitemirror/internal/queue"
	"github.com/go-scripts/sitemirror/internal/render"
	"github.com/go-scripts/sitemirror/internal/site"
	"github.com/go-scripts/sitemirror/internal/types"
	"github.com/go-scripts/sitemirror/internal/writer"
)

// Configuration holds the crawler settings
type Configuration struct {
	Root      site.Root
	StartURL  string
	OutputDir string
	BaseHref  string

	FetchTimeout time.Duration
	FallbackWait time.Duration
	SettleWait   time.Duration
}

// Reporter receives per-page progress.
type Reporter interface {
	StartPage(url string)
	FinishPage(url string, processed, total int)
}

type nopReporter struct{}

func (nopReporter) StartPage(string)            {}
func (nopReporter) FinishPage(string, int, int) {}

// Result summarizes a finished run.
type Result struct {
	Dir          string
	Visited      int
	Files        []string
	PromotedHome bool
}

// Crawler manages the mirroring process
type Crawler struct {
	config   Configuration
	renderer render.Renderer
	writer   *writer.FileWriter
	progress Reporter
	logger   *log.Logger
	// sleep covers the waits when the renderer returned no page.
	sleep func(ctx context.Context, d time.Duration) error
}

// Option customizes a Crawler.
type Option func(*Crawler)

// WithLogger sets the logger. The default is log.Default().
func WithLogger(l *log.Logger) Option {
	return func(c *Crawler) { c.logger = l }
}

// WithProgress sets the progress reporter.
func WithProgress(r Reporter) Option {
	return func(c *Crawler) { c.progress = r }
}

// New creates a Crawler. It fails only when the output directory cannot be
// created.
func New(config Configuration, renderer render.Renderer, opts ...Option) (*Crawler, error) {
	w, err := writer.New(config.OutputDir)
	if err != nil {
		return nil, err
	}

	c := &Crawler{
		config:   config,
		renderer: renderer,
		writer:   w,
		progress: nopReporter{},
		logger:   log.Default(),
		sleep:    sleepCtx,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = log.Default()
	}
	if c.progress == nil {
		c.progress = nopReporter{}
	}
	return c, nil
}

// Run crawls from the start URL until the frontier is empty, then renames
// home.html to index.html. Page fetch problems are logged and tolerated;
// only output failures and ctx cancellation end the run early.
func (c *Crawler) Run(ctx context.Context) (Result, error) {
	res := Result{Dir: c.writer.Dir()}
	c.logger.Debug("Starting crawl", "root", c.config.Root.String(), "start", c.config.StartURL, "dir", res.Dir)
	frontier := queue.NewFrontier(c.config.StartURL)
	visited := queue.NewVisited()

	for {
		if err := ctx.Err(); err != nil {
			res.Visited = visited.Len()
			return res, err
		}

		url, ok := frontier.Pop()
		if !ok {
			break
		}
		// Marked before processing so a page found again mid-iteration is
		// never queued twice.
		if !visited.Mark(url) {
			continue
		}

		c.progress.StartPage(url)
		c.logger.Info("Crawling", "url", url)

		record := c.fetch(ctx, url)
		c.discover(record, frontier, visited)
		name, err := c.save(record)

		c.progress.FinishPage(url, visited.Len(), visited.Len()+frontier.Len())
		if err != nil {
			res.Visited = visited.Len()
			return res, err
		}
		res.Files = append(res.Files, name)
	}

	res.Visited = visited.Len()

	promoted, err := c.writer.PromoteHome()
	if err != nil {
		return res, err
	}
	if promoted {
		c.logger.Info("Renamed home page", "from", site.HomeName+site.Ext, "to", site.IndexName+site.Ext)
	}
	res.PromotedHome = promoted
	return res, nil
}

// fetch renders url and returns whatever content could be captured. The
// settle wait is applied on every path, the fallback wait after every load
// error.
func (c *Crawler) fetch(ctx context.Context, url string) types.PageRecord {
	record := types.PageRecord{URL: url}

	page, err := c.renderer.Load(url, c.config.FetchTimeout)
	wait := c.sleep
	if page != nil {
		wait = func(_ context.Context, d time.Duration) error { return page.Wait(d) }
		defer page.Close()
	}

	if err != nil {
		record.Degraded = true
		c.logger.Warn("Page did not settle, continuing with partial content", "url", url, "err", err)
		if err := wait(ctx, c.config.FallbackWait); err != nil {
			c.logger.Warn("Fallback wait interrupted", "url", url, "err", err)
		}
	}
	if err := wait(ctx, c.config.SettleWait); err != nil {
		c.logger.Warn("Settle wait interrupted", "url", url, "err", err)
	}
	if page == nil {
		return record
	}

	markup, styles, err := page.Capture()
	if err != nil {
		record.Degraded = true
		c.logger.Warn("Capture incomplete", "url", url, "err", err)
	}
	record.Markup = markup
	record.Styles = styles
	return record
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// discover queues every in-site link of record that has not been visited.
func (c *Crawler) discover(record types.PageRecord, frontier *queue.Frontier, visited *queue.Visited) {
	found, err := links.Extract(record.Markup, record.URL, c.config.Root, visited)
	if err != nil {
		c.logger.Warn("Link discovery failed", "url", record.URL, "err", err)
		return
	}
	for _, u := range found {
		if visited.Contains(u) {
			continue
		}
		if frontier.Add(u) {
			c.logger.Debug("Found new page", "url", u)
		}
	}
}

// save materializes record and writes it under its local file name.
func (c *Crawler) save(record types.PageRecord) (string, error) {
	content, err := materialize.Page(record.Markup, record.Styles, record.URL, c.config.BaseHref, c.config.Root)
	if err != nil {
		c.logger.Warn("Could not materialize page, saving raw markup", "url", record.URL, "err", err)
		content = record.Markup
	}

	name := c.config.Root.LocalFilename(record.URL)
	path, err := c.writer.WritePage(name, content)
	if err != nil {
		c.logger.Error("Could not save page", "url", record.URL, "err", err)
		return "", err
	}
	c.logger.Info("Saved", "url", record.URL, "file", path, "degraded", record.Degraded)
	return name, nil
}
