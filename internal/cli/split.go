package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/alnah/go-lecturequiz/internal/segment"
)

func splitCmd(env *Env) *cobra.Command {
	var minLength, maxLength int

	cmd := &cobra.Command{
		Use:   "split <text-file>",
		Short: "Show how a transcript is split into summary segments",
		Long: `Split a text file at sentence boundaries the way the summarizer does
and print every segment with its length in characters. No service is called.`,
		Example: `  lecturequiz split transcript.txt
  lecturequiz split transcript.txt --min 200 --max 600`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runSplit(env, args[0], minLength, maxLength)
		},
	}
	cmd.Flags().IntVar(&minLength, "min", segment.DefaultMinLength, "Minimum segment length in characters")
	cmd.Flags().IntVar(&maxLength, "max", segment.DefaultMaxLength, "Maximum segment length in characters")
	return cmd
}

func runSplit(env *Env, path string, minLength, maxLength int) error {
	// #nosec G304 -- user-specified input file
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s: %w", path, ErrFileNotFound)
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	segments := segment.Split(string(data), minLength, maxLength)
	for i, s := range segments {
		_, _ = fmt.Fprintf(env.Stdout, "--- segment %d/%d (%d chars) ---\n%s\n",
			i+1, len(segments), utf8.RuneCountInString(s), s)
	}
	_, _ = fmt.Fprintf(env.Stderr, "%d segment(s)\n", len(segments))
	return nil
}
