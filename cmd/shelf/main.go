package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"shelf/internal/config"
	"shelf/internal/logging"
	"shelf/internal/session"
	"shelf/internal/store"
)

var (
	// Global flags
	verbose     bool
	libraryPath string
	configPath  string

	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "shelf",
	Short: "shelf - personal library catalog",
	Long: `shelf keeps a catalog of the books you own in a single JSON document.

Run without arguments to start the interactive menu. Changes made in the
menu are written back only when you choose "Save and exit".`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if libraryPath != "" {
			loaded.Library.Path = libraryPath
		}
		if err := loaded.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		cfg = loaded

		if err := logging.Initialize(cfg.Logging); err != nil {
			return fmt.Errorf("failed to initialize logging: %w", err)
		}
		logging.Boot("Command %q using library %s", cmd.CommandPath(), cfg.Library.Path)

		logger, err = newLogger(verbose)
		if err != nil {
			logging.BootError("Verbose logger unavailable: %v", err)
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	RunE: runInteractive,
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if !verbose {
		return zap.NewNop(), nil
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	zc.Encoding = "console"
	return zc.Build()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&libraryPath, "file", "f", "", "Library document (default: library.path from config, library.txt)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultConfigPath, "Config file")

	registerLibraryCommands(rootCmd)

	// Runs after every Execute, including when RunE fails.
	cobra.OnFinalize(closeLogs)
}

func closeLogs() {
	if logger != nil {
		_ = logger.Sync()
	}
	logging.CloseAll()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			// Restore default handling so a second interrupt exits at once.
			stop()
			fmt.Fprintln(os.Stderr, "\nInterrupted; press Enter to quit without saving, or interrupt again to exit now.")
		case <-done:
		}
	}()

	err := rootCmd.ExecuteContext(ctx)
	close(done)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openStore() *store.FileStore {
	return store.NewFileStore(cfg.Library.Path, store.WithIndent(cfg.Library.Indent))
}

// runInteractive runs the menu loop on the command's stdin/stdout.
func runInteractive(cmd *cobra.Command, args []string) error {
	st := openStore()
	logger.Debug("Starting interactive session", zap.String("library", st.Path()))

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	s := session.New(st, cmd.InOrStdin(), cmd.OutOrStdout())
	err := s.Run(ctx)
	switch {
	case errors.Is(err, session.ErrInputClosed):
		logger.Info("Input closed before exit", zap.Int("books", len(s.Library())))
		fmt.Fprintln(cmd.ErrOrStderr(), "Input closed; changes were not saved.")
		return nil
	case errors.Is(err, context.Canceled):
		logger.Info("Interrupted before exit", zap.Int("books", len(s.Library())))
		fmt.Fprintln(cmd.ErrOrStderr(), "Interrupted; changes were not saved.")
		return nil
	}
	return err
}
