package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/mscrnt/emgd_confgen/internal/version"
	"github.com/mscrnt/emgd_confgen/pkg/catalog"
	"github.com/mscrnt/emgd_confgen/pkg/config"
	"github.com/mscrnt/emgd_confgen/pkg/db"
	"github.com/mscrnt/emgd_confgen/pkg/render"
	"github.com/mscrnt/emgd_confgen/pkg/timing"
)

type generateOptions struct {
	formPath     string
	profile      string
	overrides    map[string]string
	tablesDir    string
	templatesDir string
	output       string
	dump         string
	hostInfo     bool
	record       bool
}

func generateCmd() *cobra.Command {
	var (
		opts    generateOptions
		watch   bool
		logFile string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate an X server configuration",
		Long: `Generate an EMGD X server configuration from a form.

Form input is read from a saved profile, then a TOML file, then --set
overrides; later sources win.

Examples:
  # Render a form to stdout
  emgdconf generate --form kiosk.toml

  # Render a saved profile with one field changed
  emgdconf generate --profile kiosk --set lvds_dtd_1_pclk=64000 --out xorg.conf

  # Show the assembled configuration instead of rendering it
  emgdconf generate --form kiosk.toml --dump yaml

  # Regenerate whenever the form or the tables change
  emgdconf generate --form kiosk.toml --out xorg.conf --watch`,
		RunE: func(_ *cobra.Command, _ []string) error {
			logger, closeLog, err := newLogger("generate", logFile)
			if err != nil {
				return err
			}
			defer closeLog()

			if opts.dump != "" && opts.dump != "json" && opts.dump != "yaml" {
				return fmt.Errorf("--dump must be json or yaml")
			}

			if watch {
				return watchAndGenerate(opts, logger)
			}
			return runGenerate(opts, logger)
		},
	}

	cmd.Flags().StringVarP(&opts.formPath, "form", "f", "", "TOML form file")
	cmd.Flags().StringVarP(&opts.profile, "profile", "p", "", "Saved profile to start from")
	cmd.Flags().StringToStringVar(&opts.overrides, "set", map[string]string{}, "Form field overrides (key=value)")
	cmd.Flags().StringVar(&opts.tablesDir, "tables", "", "Directory overriding the built-in reference tables")
	cmd.Flags().StringVar(&opts.templatesDir, "templates", "", "Directory overriding the built-in templates")
	cmd.Flags().StringVarP(&opts.output, "out", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVar(&opts.dump, "dump", "", "Print the assembled configuration as json or yaml instead of rendering")
	cmd.Flags().BoolVar(&opts.hostInfo, "host-info", false, "Write the host name and platform into the header")
	cmd.Flags().BoolVar(&opts.record, "record", false, "Store the rendered configuration in the history")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Regenerate when the form, tables or templates change")
	cmd.Flags().StringVar(&logFile, "log", "", "Log file path (default: stderr)")

	return cmd
}

func runGenerate(opts generateOptions, logger *log.Logger) error {
	values, err := loadForm(opts.profile, opts.formPath, opts.overrides)
	if err != nil {
		return err
	}

	tables, err := catalog.LoadDir(opts.tablesDir)
	if err != nil {
		return fmt.Errorf("failed to load tables: %w", err)
	}

	cfg, report, err := config.Build(values, tables, timing.DefaultRegistry())
	if err != nil {
		return fmt.Errorf("failed to build configuration: %w", err)
	}
	for _, s := range report.Skipped {
		logger.Printf("Skipped malformed value %s", s)
	}
	for _, w := range report.Warnings {
		logger.Printf("Warning: %s", w)
	}

	out, closeOut, err := openOutput(opts.output)
	if err != nil {
		return err
	}
	defer closeOut()

	if opts.dump != "" {
		return encode(out, opts.dump, cfg)
	}

	templates, err := render.LoadTemplates(opts.templatesDir)
	if err != nil {
		return fmt.Errorf("failed to load templates: %w", err)
	}

	genOpts := []render.Option{render.WithVersion(version.GetVersion(buildVersion, buildCommit, buildTime))}
	if opts.hostInfo {
		info, err := render.CollectSystemInfo()
		if err != nil {
			logger.Printf("Host info unavailable: %v", err)
		} else {
			genOpts = append(genOpts, render.WithSystemInfo(info))
		}
	}

	text, err := render.NewGenerator(templates, genOpts...).Generate(cfg)
	if err != nil {
		return fmt.Errorf("failed to render configuration: %w", err)
	}
	if _, err := fmt.Fprint(out, text); err != nil {
		return fmt.Errorf("failed to write configuration: %w", err)
	}

	if opts.output != "" {
		logger.Printf("Wrote %s (%s mode, %d port(s))", opts.output, cfg.Mode, len(cfg.Ports()))
	}

	if opts.record {
		database, err := openDB()
		if err != nil {
			return err
		}
		defer func() { _ = database.Close() }()

		g := &db.Generation{
			Profile:    opts.profile,
			ConfigName: cfg.Name,
			Mode:       string(cfg.Mode),
			Skipped:    len(report.Skipped),
			Output:     text,
		}
		if err := database.CreateGeneration(g); err != nil {
			return err
		}
		logger.Printf("Recorded generation #%d", g.ID)
	}

	return nil
}

// watchAndGenerate renders once, then again after every change to the
// inputs until interrupted. Failed passes are logged and do not stop the
// watch.
func watchAndGenerate(opts generateOptions, logger *log.Logger) error {
	if opts.formPath == "" && opts.tablesDir == "" && opts.templatesDir == "" {
		return fmt.Errorf("--watch needs --form, --tables or --templates")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Editors often replace files, so the form's directory is watched
	watched := map[string]bool{}
	var formPath string
	if opts.formPath != "" {
		formPath = filepath.Clean(opts.formPath)
		watched[filepath.Dir(formPath)] = true
	}
	for _, dir := range []string{opts.tablesDir, opts.templatesDir} {
		if dir != "" {
			watched[filepath.Clean(dir)] = true
		}
	}
	for dir := range watched {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	relevant := func(name string) bool {
		name = filepath.Clean(name)
		if opts.output != "" && name == filepath.Clean(opts.output) {
			return false
		}
		dir := filepath.Dir(name)
		return name == formPath ||
			(opts.tablesDir != "" && dir == filepath.Clean(opts.tablesDir)) ||
			(opts.templatesDir != "" && dir == filepath.Clean(opts.templatesDir))
	}

	if err := runGenerate(opts, logger); err != nil {
		logger.Printf("Generation failed: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	logger.Println("Watching for changes. Press Ctrl+C to stop.")

	for {
		select {
		case <-sigChan:
			logger.Println("Received shutdown signal")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if !relevant(event.Name) {
				continue
			}
			logger.Printf("Change detected: %s", event.Name)
			if err := runGenerate(opts, logger); err != nil {
				logger.Printf("Generation failed: %v", err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Printf("Watcher error: %v", err)
		}
	}
}
