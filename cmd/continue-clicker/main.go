// Command continue-clicker watches the screen for the model's thinking-limit
// prompt and clicks it so long-running sessions keep going unattended.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"continue-clicker/internal/click"
	"continue-clicker/internal/config"
	"continue-clicker/internal/enhance"
	"continue-clicker/internal/logger"
	"continue-clicker/internal/ocr"
	"continue-clicker/internal/platform"
	"continue-clicker/internal/scanner"
	"continue-clicker/internal/screen"
	"continue-clicker/internal/stats"
	"continue-clicker/internal/version"
)

var (
	flagLogFile  string
	flagLogLevel string
	flagDebug    bool
	flagInterval time.Duration
	flagSets     []string
)

func main() {
	root := &cobra.Command{
		Use:           "continue-clicker",
		Short:         "Detects the thinking-limit prompt on screen and clicks Continue",
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flagLogFile, "log-file", "", "append logs to this file as well as stderr")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "log level: debug, info, warn, error")
	root.PersistentFlags().BoolVar(&flagDebug, "debug-images", false, "save raw and enhanced captures to disk")
	root.PersistentFlags().StringArrayVar(&flagSets, "set", nil, "override a parameter, e.g. --set scan.interval=30s")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the scan loop until interrupted",
		RunE:  runLoop,
	}
	runCmd.Flags().DurationVar(&flagInterval, "interval", 0, "override the scan interval")

	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "Run a single scan cycle and report what was found",
		RunE:  runSingleScan,
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Print the effective configuration",
		RunE:  runStatus,
	}

	root.AddCommand(runCmd, scanCmd, statusCmd)

	if err := root.Execute(); err != nil {
		color.Red("error: %v", err)
		os.Exit(1)
	}
}

// loadConfig builds the registry from defaults, the saved config file, and
// any --set overrides, then initializes logging.
func loadConfig() (*config.Registry, error) {
	if err := logger.Init(flagLogFile, flagLogLevel); err != nil {
		return nil, err
	}
	cfg := config.New()
	if err := cfg.Load(); err != nil {
		return nil, err
	}
	if flagDebug {
		if err := cfg.Set(config.ImageSaveDebug, true); err != nil {
			return nil, err
		}
	}
	if flagInterval > 0 {
		if err := cfg.Set(config.ScanInterval, flagInterval); err != nil {
			return nil, err
		}
	}
	for _, kv := range flagSets {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --set %q, want name=value", kv)
		}
		if err := cfg.SetString(name, value); err != nil {
			return nil, fmt.Errorf("--set %s: %w", name, err)
		}
	}
	return cfg, nil
}

// assembly bundles everything a scan needs plus its cleanup.
type assembly struct {
	cfg   *config.Registry
	stats *stats.Store
	scan  *scanner.Scanner
	click *click.Executor
	close func()
}

func build(cfg *config.Registry) (*assembly, error) {
	grabber := screen.NewGrabber(platform.Screen{}, screen.GrabOptions{
		MaxRetries: cfg.Int(config.CaptureMaxRetries),
		RetryDelay: cfg.Duration(config.CaptureRetryDelay),
		MinWidth:   cfg.Int(config.ImageMinWidth),
		MinHeight:  cfg.Int(config.ImageMinHeight),
	})

	enhancer := enhance.New(enhance.Options{
		MinWidth:       cfg.Int(config.ImageMinWidth),
		MinHeight:      cfg.Int(config.ImageMinHeight),
		CLAHEClip:      cfg.Float(config.EnhanceCLAHEClip),
		CLAHETile:      cfg.Int(config.EnhanceCLAHETile),
		ThresholdBlock: cfg.Int(config.EnhanceThresholdBlock),
		ThresholdC:     cfg.Float(config.EnhanceThresholdC),
	})

	engine, err := ocr.NewEngine(cfg.Float(config.OCRMinConfidence))
	if err != nil {
		return nil, err
	}

	var artifacts *screen.ArtifactStore
	if cfg.Bool(config.ImageSaveDebug) {
		artifacts, err = screen.NewArtifactStore(
			cfg.String(config.ImageScreenshotsDir), cfg.Int(config.ImageMaxScreenshots))
		if err != nil {
			engine.Close()
			return nil, err
		}
	}

	st := stats.New(100)
	sc := scanner.New(cfg, grabber, enhancer, engine, st, artifacts)

	exec := click.NewExecutor(platform.NewMouse(), click.Options{
		OffsetX:     cfg.Int(config.ClickOffsetX),
		OffsetY:     cfg.Int(config.ClickOffsetY),
		MaxRetries:  cfg.Int(config.ClickMaxRetries),
		RetryDelay:  cfg.Duration(config.ClickRetryDelay),
		SettleDelay: cfg.Duration(config.ClickSettleDelay),
	})

	return &assembly{
		cfg:   cfg,
		stats: st,
		scan:  sc,
		click: exec,
		close: func() { _ = engine.Close() },
	}, nil
}

func banner() {
	c := color.New(color.FgCyan, color.Bold)
	c.Println("continue-clicker " + version.String())
	color.New(color.Faint).Println("park the cursor in a screen corner to abort clicks")
}

func runLoop(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	app, err := build(cfg)
	if err != nil {
		return err
	}
	defer app.close()

	banner()
	ctrl := scanner.NewController(cfg, app.scan, app.click, app.stats)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		ctrl.Stop()
	}()

	ctrl.Run()

	sum := app.stats.Snapshot()
	color.Green("session %s: %d scans, %d detections, %d clicks over %s",
		sum.SessionID, sum.TotalScans, sum.SuccessfulDetections,
		sum.ClicksPerformed, sum.Uptime.Round(time.Second))
	return nil
}

func runSingleScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	app, err := build(cfg)
	if err != nil {
		return err
	}
	defer app.close()

	out, err := app.scan.ScanWithRetry(1)
	if err != nil {
		return err
	}
	switch {
	case out.Skipped:
		fmt.Println("frame unchanged since last scan")
	case len(out.Coordinates) == 0:
		color.Yellow("no prompt detected (%d attempts)", out.Attempts)
	default:
		color.Green("prompt detected at:")
		for _, p := range out.Coordinates {
			fmt.Printf("  (%d, %d)\n", p.X, p.Y)
		}
	}
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	bold := color.New(color.Bold)
	bold.Println("configuration")
	fmt.Printf("  file: %s\n\n", cfg.Path())
	for _, name := range cfg.Names() {
		v, err := cfg.Get(name)
		if err != nil {
			continue
		}
		desc := ""
		if p, err := cfg.Describe(name); err == nil {
			desc = p.Description
		}
		fmt.Printf("  %-34s %-14v %s\n", name, v, desc)
	}
	return nil
}
