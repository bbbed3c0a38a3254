package internal

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/goplus/llvmlibc/internal/build"
	"github.com/goplus/llvmlibc/internal/env"
)

var (
	linkOut    string
	linkFormat string
)

var linkCmd = &cobra.Command{
	Use:   "link",
	Short: "Print link directives recorded by the last build",
	Long:  `Link reads the build record in the output directory and prints its link directives again without rebuilding.`,
	Args:  cobra.NoArgs,
	RunE:  runLink,
}

func init() {
	linkCmd.Flags().StringVarP(&linkOut, "out", "o", "", "Output directory of a previous build (default $OUT_DIR)")
	linkCmd.Flags().StringVarP(&linkFormat, "format", "f", string(build.FormatCargo), fmt.Sprintf("Link directive format %v", build.Formats))
	rootCmd.AddCommand(linkCmd)
}

func runLink(cmd *cobra.Command, args []string) error {
	format, err := build.ParseFormat(linkFormat)
	if err != nil {
		return err
	}
	res, err := loadRecord(linkOut)
	if err != nil {
		return err
	}
	return res.Link.Write(cmd.OutOrStdout(), format)
}

// loadRecord reads the build record from outDir, or from $OUT_DIR when
// outDir is empty.
func loadRecord(outDir string) (*build.Result, error) {
	if outDir == "" {
		dir, ok := os.LookupEnv(env.KeyOutDir)
		if !ok || dir == "" {
			return nil, fmt.Errorf("no output directory: pass --out or set %s", env.KeyOutDir)
		}
		outDir = dir
	}
	res, err := build.LoadResult(outDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read build record in %s: %w", outDir, err)
	}
	return res, nil
}
