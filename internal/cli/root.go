// Package cli implements the lecturequiz commands. Every command receives
// an *Env so tests can replace services, storage and external binaries.
package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/alnah/go-lecturequiz/internal/config"
	"github.com/alnah/go-lecturequiz/internal/logger"
)

// globalFlags holds persistent flags shared by every subcommand.
type globalFlags struct {
	configPath string
}

// NewRootCmd builds the command tree.
func NewRootCmd(env *Env, version string) *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   "lecturequiz",
		Short: "Turn recorded lectures into summaries and quizzes",
		Long: `Transcribe recorded lectures, summarize the transcript and generate
multiple-choice and true/false questions from the summary.

Results are stored in a SQLite database (database.path).`,
		Version: version,
		// Silence Cobra's default error/usage printing; main handles it.
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.SetOut(env.Stdout)
	root.SetErr(env.Stderr)
	root.PersistentFlags().StringVar(&g.configPath, "config", "", "Config file (default: ./lecturequiz.yml, then the user config dir)")

	root.AddCommand(
		courseCmd(env, g),
		lectureCmd(env, g),
		runCmd(env, g),
		regenerateCmd(env, g),
		splitCmd(env),
	)
	return root
}

// app is the per-command runtime: configuration, logger and store.
type app struct {
	cfg   config.Config
	log   zerolog.Logger
	store Store
}

// openApp loads the configuration and opens the store. Callers must Close.
func openApp(ctx context.Context, env *Env, g *globalFlags) (*app, error) {
	cfg, err := env.ConfigLoader.Load(g.configPath)
	if err != nil {
		return nil, err
	}
	log := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: env.Stderr,
	})

	st, err := env.StoreOpener.Open(ctx, cfg.Database, logger.WithComponent(log, "store"))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return &app{cfg: cfg, log: log, store: st}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.log.Warn().Err(err).Msg("closing database failed")
	}
}

// parseID parses a positive database ID.
func parseID(kind, s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%s ID %q must be a positive integer: %w", kind, s, ErrInvalidID)
	}
	return uint(id), nil
}
