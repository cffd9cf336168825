package cmd

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/atikulmunna/logformat/internal/output"
	"github.com/atikulmunna/logformat/internal/record"
	"github.com/spf13/cobra"
)

// maxLineSize bounds a single input line.
const maxLineSize = 1 << 20

var formatCmd = &cobra.Command{
	Use:   "format [files...]",
	Short: "Format log lines from files or stdin",
	Long: `Read log lines from the given files (or stdin when none are given), extract
embedded objects and write the result to stdout.

Examples:
  app | logformat format
  logformat format app.log --mode pretty
  logformat format events.ndjson --output json --field msg`,
	RunE: runFormat,
}

func init() {
	rootCmd.AddCommand(formatCmd)
}

func runFormat(cmd *cobra.Command, args []string) error {
	renderer, closeRenderer, err := newRenderer(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer closeRenderer()

	f := newFormatter()

	if len(args) == 0 {
		_, err := formatLines(cmd.InOrStdin(), "-", f, renderer)
		return err
	}

	for _, path := range args {
		file, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open input: %w", err)
		}
		n, err := formatLines(file, path, f, renderer)
		file.Close()
		if err != nil {
			return err
		}
		slog.Debug("formatted file", "path", path, "lines", n)
	}
	return nil
}

// formatLines formats every line of r and hands it to out. It stops at the
// first read or render error.
func formatLines(r io.Reader, source string, f record.Formatter, out output.Renderer) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	n := 0
	for scanner.Scan() {
		entry := f.Format(scanner.Text(), source)
		if err := out.Render(entry); err != nil {
			return n, fmt.Errorf("render line %d of %s: %w", n+1, source, err)
		}
		n++
	}
	if err := scanner.Err(); err != nil {
		return n, fmt.Errorf("read %s: %w", source, err)
	}
	return n, nil
}
