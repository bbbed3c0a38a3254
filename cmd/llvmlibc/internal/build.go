package internal

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/goplus/llvmlibc/internal/build"
)

var (
	buildSource         string
	buildOut            string
	buildConfig         string
	buildNoScudo        bool
	buildPlaceholders   []string
	buildPlaceholderDir string
	buildFormat         string
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build libc, libm and the startup archive",
	Long: `Build configures the LLVM libc tree under <source>/src/libc, builds every
required target, merges crt1, crti and crtn into libstartup.a and prints the
link directives on stdout.

Newly created placeholder archives make the build fail with exit status 2;
review them, commit them and run the build again.`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func init() {
	f := buildCmd.Flags()
	f.StringVarP(&buildSource, "source", "s", "", "Directory holding src/libc and src/compiler-rt (default $CARGO_MANIFEST_DIR or cwd)")
	f.StringVarP(&buildOut, "out", "o", "", "Output directory (default $OUT_DIR or the user cache dir)")
	f.StringVarP(&buildConfig, "config", "c", "", "YAML file overriding the default libc configuration")
	f.BoolVar(&buildNoScudo, "no-scudo", false, "Build without the scudo allocator")
	f.StringArrayVarP(&buildPlaceholders, "placeholder", "p", nil, "Synthesize an empty lib<name>.a (repeatable)")
	f.StringVar(&buildPlaceholderDir, "placeholder-dir", "", "Directory holding placeholder archives (default the library dir)")
	f.StringVarP(&buildFormat, "format", "f", string(build.FormatCargo), fmt.Sprintf("Link directive format %v", build.Formats))
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	format, err := build.ParseFormat(buildFormat)
	if err != nil {
		return err
	}
	b := build.NewBuilder(build.Options{
		SourceRoot:     buildSource,
		OutDir:         buildOut,
		ConfigFile:     buildConfig,
		NoScudo:        buildNoScudo,
		Placeholders:   buildPlaceholders,
		PlaceholderDir: buildPlaceholderDir,
		Output:         cmd.OutOrStdout(),
		Format:         format,
		Logger:         slog.Default(),
	})
	_, err = b.Build()
	return err
}
