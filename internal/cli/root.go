// Package cli implements the stovewatch commands.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kbenzar/stovewatch/internal/domain"
	"github.com/kbenzar/stovewatch/internal/logger"
	"github.com/kbenzar/stovewatch/internal/storage"
)

var (
	dbPath  string
	memOnly bool
	verbose bool
	quiet   bool
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "stovewatch",
	Short: "Detect cooking timers in recipe text and run them",
	Long: "stovewatch extracts duration expressions from recipe instructions\n" +
		"and turns each into a countdown timer whose state survives restarts.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		_ = godotenv.Load()
	},
	SilenceUsage: true,
}

func init() {
	RootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Timer state database path (default: $STOVEWATCH_DB or ~/.stovewatch/timers.db)")
	RootCmd.PersistentFlags().BoolVar(&memOnly, "memory", false, "Keep timer state in memory only (no persistence)")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose/debug logging")
	RootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Disable all logging")
}

func newLogger() *logger.Logger {
	level := logger.LevelNormal
	if verbose {
		level = logger.LevelVerbose
	}
	if quiet {
		level = logger.LevelOff
	}
	return logger.New(level, os.Stderr)
}

func storePath() string {
	if dbPath != "" {
		return dbPath
	}
	if env := os.Getenv("STOVEWATCH_DB"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".stovewatch", "timers.db")
}

// openStore returns the persistence store and a close function. With
// --memory, state is kept in an in-process map and lost on exit.
func openStore(log *logger.Logger) (domain.KeyValueStore, func(), error) {
	if memOnly {
		return storage.NewMemoryStore(log), func() {}, nil
	}
	s, err := storage.NewSQLiteStore(storePath(), log)
	if err != nil {
		return nil, nil, fmt.Errorf("opening store: %w", err)
	}
	return s, func() { _ = s.Close() }, nil
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
