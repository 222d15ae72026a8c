package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/go-scripts/sitemirror/internal/config"
	"github.com/go-scripts/sitemirror/internal/crawler"
	"github.com/go-scripts/sitemirror/internal/progress"
	"github.com/go-scripts/sitemirror/internal/render"
	"github.com/go-scripts/sitemirror/internal/site"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("110"))
)

// CLI flags structure
type CLIFlags struct {
	ConfigFile string        `help:"Path to configuration file" default:"config.yaml" short:"c"`
	SiteRoot   string        `help:"Base URL that bounds the mirror" name:"site-root"`
	StartURL   string        `help:"Page to start crawling from" name:"start-url" short:"u"`
	OutputDir  string        `help:"Directory the pages are written to" name:"output" short:"o"`
	Timeout    time.Duration `help:"Per-page load timeout"`
	NoHeadless bool          `help:"Show the browser window" name:"no-headless"`
	Debug      bool          `help:"Enable debug logging" default:"false"`
}

// loadConfig reads the configuration file and applies flag overrides.
func loadConfig(flags CLIFlags) (config.Config, error) {
	cfg, err := config.Load(flags.ConfigFile)
	if err != nil {
		return cfg, err
	}

	if flags.SiteRoot != "" {
		cfg.SiteRoot = flags.SiteRoot
		// A new root without a new start page starts at the root itself.
		if flags.StartURL == "" {
			cfg.StartURL = ""
		}
	}
	if flags.StartURL != "" {
		cfg.StartURL = flags.StartURL
	}
	if flags.OutputDir != "" {
		cfg.OutputDir = flags.OutputDir
	}
	if flags.Timeout > 0 {
		cfg.FetchTimeout = flags.Timeout
	}
	if flags.NoHeadless {
		cfg.Browser.Headless = false
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func newLogger(debug bool) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Prefix:          "sitemirror",
	})
	if debug {
		logger.SetLevel(log.DebugLevel)
	}

	styles := log.DefaultStyles()
	styles.Levels[log.ErrorLevel] = lipgloss.NewStyle().
		SetString("ERROR").
		Padding(0, 1, 0, 1).
		Background(lipgloss.Color("196")).
		Foreground(lipgloss.Color("0"))
	styles.Levels[log.WarnLevel] = lipgloss.NewStyle().
		SetString("WARN").
		Padding(0, 1, 0, 1).
		Background(lipgloss.Color("214")).
		Foreground(lipgloss.Color("0"))
	logger.SetStyles(styles)

	log.SetDefault(logger)
	return logger
}

func run(ctx context.Context, cfg config.Config, logger *log.Logger) error {
	root, err := site.New(cfg.SiteRoot)
	if err != nil {
		return err
	}

	fmt.Println(titleStyle.Render("Site mirror"))
	fmt.Println(infoStyle.Render(fmt.Sprintf("Site root:     %s", root.String())))
	fmt.Println(infoStyle.Render(fmt.Sprintf("Output folder: %s/", cfg.OutputDir)))
	fmt.Println()

	browser, err := render.NewChrome(ctx, render.Options{
		Headless:       cfg.Browser.Headless,
		Width:          cfg.Browser.Width,
		Height:         cfg.Browser.Height,
		UserAgent:      cfg.Browser.UserAgent,
		CaptureTimeout: cfg.CaptureTimeout,
	})
	if err != nil {
		return err
	}
	defer browser.Close()

	c, err := crawler.New(crawler.Configuration{
		Root:         root,
		StartURL:     cfg.StartURL,
		OutputDir:    cfg.OutputDir,
		BaseHref:     cfg.BaseHref,
		FetchTimeout: cfg.FetchTimeout,
		FallbackWait: cfg.FallbackWait,
		SettleWait:   cfg.SettleWait,
	}, browser, crawler.WithLogger(logger), crawler.WithProgress(progress.New(os.Stdout)))
	if err != nil {
		return err
	}

	res, err := c.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(titleStyle.Render(fmt.Sprintf("Done! %d pages saved to '%s/'", res.Visited, res.Dir)))
	fmt.Println(infoStyle.Render(fmt.Sprintf("Push the '%s/' folder contents to your static host.", res.Dir)))
	return nil
}

func main() {
	var flags CLIFlags

	kong.Parse(&flags,
		kong.Name("sitemirror"),
		kong.Description("Mirror a rendered site into a folder of static HTML files."),
	)

	logger := newLogger(flags.Debug)

	cfg, err := loadConfig(flags)
	if err != nil {
		logger.Fatal("Error loading configuration", "err", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Mirror failed", "err", err)
		stop()
		os.Exit(1)
	}
}
