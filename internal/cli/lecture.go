package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/alnah/go-lecturequiz/internal/source"
)

func lectureCmd(env *Env, g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lecture",
		Short: "Manage lectures",
	}
	cmd.AddCommand(
		lectureAddCmd(env, g),
		lectureListCmd(env, g),
		lectureShowCmd(env, g),
	)
	return cmd
}

func lectureAddCmd(env *Env, g *globalFlags) *cobra.Command {
	var (
		courseID uint
		title    string
	)

	cmd := &cobra.Command{
		Use:   "add <audio-ref>",
		Short: "Register a lecture recording",
		Long: `Register a lecture recording under a course.

The audio reference is a local file path or an s3://bucket/key URL.
Local paths are stored as absolute paths.`,
		Example: `  lecturequiz lecture add --course 1 --title "Week 1" week1.mp3
  lecturequiz lecture add --course 1 --title "Week 2" s3://lectures/os/week2.m4a`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := normalizeAudioRef(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := openApp(ctx, env, g)
			if err != nil {
				return err
			}
			defer a.Close()

			l, err := a.store.CreateLecture(ctx, courseID, title, ref)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(env.Stdout, "Lecture %d created: %s (%s)\n", l.ID, l.Title, l.AudioRef)
			return nil
		},
	}
	cmd.Flags().UintVar(&courseID, "course", 0, "Course ID")
	cmd.Flags().StringVarP(&title, "title", "t", "", "Lecture title")
	_ = cmd.MarkFlagRequired("course")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

// normalizeAudioRef validates ref. Local files must exist and are made
// absolute; S3 references are checked when the pipeline runs.
func normalizeAudioRef(ref string) (string, error) {
	r, err := source.ParseRef(ref)
	if err != nil {
		return "", err
	}
	if r.IsS3() {
		return r.String(), nil
	}

	abs, err := filepath.Abs(r.Path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", r.Path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%s: %w", abs, ErrFileNotFound)
		}
		return "", fmt.Errorf("stat %s: %w", abs, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory: %w", abs, source.ErrInvalidRef)
	}
	return abs, nil
}

func lectureListCmd(env *Env, g *globalFlags) *cobra.Command {
	var courseID uint

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List lectures",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, env, g)
			if err != nil {
				return err
			}
			defer a.Close()

			lectures, err := a.store.ListLectures(ctx, courseID)
			if err != nil {
				return err
			}
			writeLectureTable(env.Stdout, lectures)
			return nil
		},
	}
	cmd.Flags().UintVar(&courseID, "course", 0, "Only lectures of this course")
	return cmd
}

func lectureShowCmd(env *Env, g *globalFlags) *cobra.Command {
	var full bool

	cmd := &cobra.Command{
		Use:   "show <lecture-id>",
		Short: "Show a lecture with its transcript, summary and questions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("lecture", args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := openApp(ctx, env, g)
			if err != nil {
				return err
			}
			defer a.Close()

			l, err := a.store.Lecture(ctx, id)
			if err != nil {
				return err
			}
			qs, err := a.store.Questions(ctx, id)
			if err != nil {
				return err
			}
			writeLecture(env.Stdout, l, qs, full)
			return nil
		},
	}
	cmd.Flags().BoolVar(&full, "full", false, "Print the whole transcript")
	return cmd
}
