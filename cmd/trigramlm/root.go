package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/cognicore/trigramlm/pkg/trigramlm"
	"github.com/cognicore/trigramlm/pkg/trigramlm/config"
	"github.com/cognicore/trigramlm/pkg/trigramlm/store"
	"github.com/cognicore/trigramlm/pkg/trigramlm/store/sqlite"
)

var (
	cfgFile   string
	activeCfg config.Config
	loaded    bool
)

func NewRootCmd() *cobra.Command {
	defaults := config.DefaultConfig()

	cmd := &cobra.Command{
		Use:           "trigramlm",
		Short:         "Trigram language model: train, score and generate",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(config.LoadOptions{
				Cmd:        cmd,
				ConfigFile: cfgFile,
				Defaults:   defaults,
			})
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			activeCfg = cfg
			loaded = true
			setupLogger(cfg.LogLevel, cmd.ErrOrStderr())
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Optional config file (yaml|toml|json)")
	config.RegisterFlags(cmd.PersistentFlags(), defaults)

	cmd.AddCommand(newTrainCmd())
	cmd.AddCommand(newScoreCmd())
	cmd.AddCommand(newGenerateCmd())
	cmd.AddCommand(newModelsCmd())

	return cmd
}

// setupLogger configures the process-wide slog default logger.
func setupLogger(levelStr string, w io.Writer) {
	lvl, err := config.ParseLogLevel(levelStr)
	if err != nil {
		lvl = slog.LevelInfo
	}
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(h))
}

func requireConfig() (config.Config, error) {
	if !loaded {
		return config.Config{}, fmt.Errorf("configuration not loaded")
	}
	return activeCfg, nil
}

// newLM wires the facade from configuration. The SQLite store is opened
// only when store.db_path is set.
func newLM(ctx context.Context, cfg config.Config, progress io.Writer) (*trigramlm.LM, error) {
	comp, err := config.NewLoader(cfg).Load()
	if err != nil {
		return nil, err
	}

	var st store.Store
	if cfg.Store.DBPath != "" {
		st, err = sqlite.OpenSQLite(ctx, cfg.Store.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open store %s: %w", cfg.Store.DBPath, err)
		}
	}

	if !cfg.Progress {
		progress = nil
	}

	lm, err := trigramlm.New(trigramlm.Options{
		Store:    st,
		Pipeline: comp.Pipeline,
		Scoring:  comp.Scoring,
		Logger:   slog.Default(),
		Progress: progress,
	})
	if err != nil {
		if st != nil {
			st.Close()
		}
		return nil, err
	}
	return lm, nil
}

func createFile(path string) (*os.File, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	return f, nil
}

// writeFile creates path and hands it to write, closing it either way
func writeFile(path string, write func(io.Writer) error) error {
	f, err := createFile(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
