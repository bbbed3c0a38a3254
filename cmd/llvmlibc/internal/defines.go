package internal

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goplus/llvmlibc/config"
	"github.com/goplus/llvmlibc/internal/build"
)

var (
	definesSource  string
	definesConfig  string
	definesNoScudo bool
)

var definesCmd = &cobra.Command{
	Use:   "defines",
	Short: "Print the CMake definitions a build would use",
	Long:  `Defines prints the KEY=VALUE definitions derived from the configuration, sorted by key, without running CMake.`,
	Args:  cobra.NoArgs,
	RunE:  runDefines,
}

func init() {
	definesCmd.Flags().StringVarP(&definesSource, "source", "s", "", "Directory holding src/libc and src/compiler-rt (default $CARGO_MANIFEST_DIR or cwd)")
	definesCmd.Flags().StringVarP(&definesConfig, "config", "c", "", "YAML file overriding the default libc configuration")
	definesCmd.Flags().BoolVar(&definesNoScudo, "no-scudo", false, "Build without the scudo allocator")
	rootCmd.AddCommand(definesCmd)
}

func runDefines(cmd *cobra.Command, args []string) error {
	cfg, _, err := build.ResolveConfig(build.Options{
		SourceRoot: definesSource,
		ConfigFile: definesConfig,
		NoScudo:    definesNoScudo,
	})
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), config.Collect(cfg).String())
	return err
}
