package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	flag "github.com/spf13/pflag"

	"github.com/electr1fy0/bluenote/auth"
	"github.com/electr1fy0/bluenote/config"
	"github.com/electr1fy0/bluenote/logger"
	"github.com/electr1fy0/bluenote/model"
	"github.com/electr1fy0/bluenote/notes"
	"github.com/electr1fy0/bluenote/storage"
	"github.com/electr1fy0/bluenote/validation"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("bluenote", flag.ContinueOnError)
	configPath := fs.StringP("config", "c", "", "config file (JSON with comments)")
	dataDir := fs.String("data-dir", "", "directory for notes, session and logs")
	logLevel := fs.Int("log-level", 0, "slog level: -4 debug, 0 info, 4 warn, 8 error")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if fs.Changed("data-dir") {
		cfg.DataDir = *dataDir
	}
	if fs.Changed("log-level") {
		cfg.LogLevel = *logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	logFile, err := os.OpenFile(filepath.Join(cfg.DataDir, "bluenote.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()

	log := logger.New(cfg.LogLevel, logFile)
	log.Info("starting", "data_dir", cfg.DataDir, "config", cfg.Source, "sealed", cfg.Passphrase != "")

	gw, err := storage.Open(storage.Options{
		Dir:        cfg.DataDir,
		Passphrase: cfg.Passphrase,
		Logger:     log,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := gw.Close(); err != nil {
			log.Error("close storage", "err", err)
		}
	}()

	snap, err := gw.Restore()
	if err != nil {
		return fmt.Errorf("restore state: %w", err)
	}

	authStore := auth.NewStore(auth.WithPersister(gw))
	authStore.Restore(snap.Auth)
	noteStore := notes.NewStore(notes.WithPersister(gw))
	noteStore.Restore(snap.Notes)

	authenticator, err := auth.NewAuthenticator(cfg.Auth.Username, cfg.Auth.Password, cfg.Auth.LoginDelay)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	exportRoot, err := os.Getwd()
	if err != nil {
		exportRoot = cfg.DataDir
	}

	m := model.New(model.Deps{
		Ctx:           ctx,
		Notes:         noteStore,
		Auth:          authStore,
		Authenticator: authenticator,
		Limits: validation.Limits{
			MaxTitle:       cfg.Notes.MaxTitleLength,
			MaxDescription: cfg.Notes.MaxDescriptionLength,
		},
		SearchDebounce: cfg.Notes.SearchDebounce,
		ExportRoot:     exportRoot,
		Log:            log,
	})

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run ui: %w", err)
	}
	log.Info("exiting")
	return nil
}
