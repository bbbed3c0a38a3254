package internal

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/goplus/llvmlibc/internal/build"
)

var (
	verbose bool
	envFile string
)

var rootCmd = &cobra.Command{
	Use:   "llvmlibc",
	Short: "llvmlibc builds LLVM libc as static libraries",
	Long: `llvmlibc configures LLVM libc through CMake, builds libc, libm and the
startup objects for the target architecture, and prints the directives
needed to link against them.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Load unset environment variables from this file")
}

func setup(cmd *cobra.Command, args []string) error {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if envFile == "" {
		return nil
	}
	// godotenv.Load never overrides variables that are already set.
	if err := godotenv.Load(envFile); err != nil {
		if errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("env-file") {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", envFile, err)
	}
	slog.Debug("environment file loaded", "path", envFile)
	return nil
}

// exitCode maps err to the process exit status. Placeholder drift gets its
// own status so wrappers can tell "review and rerun" from a hard failure.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case build.CodeOf(err) == build.ErrCodePlaceholderDrift:
		return 2
	default:
		return 1
	}
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		slog.Error("llvmlibc failed", "error", err, "code", build.CodeOf(err))
		os.Exit(exitCode(err))
	}
}
