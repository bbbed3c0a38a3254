package internal

import (
	"archive/zip"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goplus/llvmlibc/internal/build"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export <dest>",
	Short: "Copy the built static libraries out of the output directory",
	Long: `Export copies every archive of the last build, placeholders included, into
dest. If dest ends with ".zip" a zip archive is written instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output directory of a previous build (default $OUT_DIR)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	res, err := loadRecord(exportOut)
	if err != nil {
		return err
	}
	files, err := archives(res)
	if err != nil {
		return err
	}
	if err := outputArchives(files, args[0]); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	slog.Info("archives exported", "dest", args[0], "count", len(files))
	return nil
}

// archives lists the static libraries of res: everything in the library
// directory plus placeholders kept elsewhere.
func archives(res *build.Result) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(build.LibDir(res.Root), "*.a"))
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(files))
	for _, f := range files {
		seen[filepath.Base(f)] = true
	}
	for _, p := range res.Placeholders {
		if !seen[filepath.Base(p.Path)] {
			seen[filepath.Base(p.Path)] = true
			files = append(files, p.Path)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no archives found under %s", build.LibDir(res.Root))
	}
	return files, nil
}

// outputArchives writes files to dest.
// If dest ends with ".zip", creates a zip archive; otherwise copies into the directory.
func outputArchives(files []string, dest string) error {
	if strings.HasSuffix(dest, ".zip") {
		return zipFiles(files, dest)
	}
	if err := os.MkdirAll(dest, 0755); err != nil {
		return err
	}
	for _, src := range files {
		if err := copyFile(src, filepath.Join(dest, filepath.Base(src))); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// zipFiles creates a flat zip archive at dest holding files.
func zipFiles(files []string, dest string) error {
	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	if err := writeZip(f, files); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// writeZip writes files to out as a flat zip archive. The central directory
// is only written by Close, so its error is returned.
func writeZip(out io.Writer, files []string) error {
	w := zip.NewWriter(out)
	for _, path := range files {
		if err := addToZip(w, path); err != nil {
			w.Close()
			return err
		}
	}
	return w.Close()
}

func addToZip(w *zip.Writer, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = filepath.Base(path)
	header.Method = zip.Deflate

	writer, err := w.CreateHeader(header)
	if err != nil {
		return err
	}
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()
	_, err = io.Copy(writer, file)
	return err
}
