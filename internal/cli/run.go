package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alnah/go-lecturequiz/internal/logger"
	"github.com/alnah/go-lecturequiz/internal/pipeline"
	"github.com/alnah/go-lecturequiz/internal/quiz"
	"github.com/alnah/go-lecturequiz/internal/source"
	"github.com/alnah/go-lecturequiz/internal/store"
	"github.com/alnah/go-lecturequiz/internal/summarize"
	"github.com/alnah/go-lecturequiz/internal/transcribe"
)

// runOptions holds the question count flags of run and regenerate.
type runOptions struct {
	mcq int
	tf  int
}

func runCmd(env *Env, g *globalFlags) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run <lecture-id>",
		Short: "Transcribe, summarize and generate a quiz for a lecture",
		Long: `Run the whole pipeline for a lecture: the recording is split into
overlapping chunks, transcribed, summarized segment by segment and the
combined summary is turned into quiz questions.

Each stage degrades instead of failing. The exit code is non-zero when no
question could be stored.`,
		Example: `  lecturequiz run 3
  lecturequiz run 3 --mcq 5 --tf 5`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd, env, g, args[0], opts, true)
		},
	}
	addCountFlags(cmd, &opts)
	return cmd
}

func regenerateCmd(env *Env, g *globalFlags) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "regenerate <lecture-id>",
		Short: "Summarize and generate a quiz from the stored transcript",
		Long: `Skip transcription and rebuild the summary and questions from the
transcript already stored on the lecture. New questions are added to the
existing ones.`,
		Example: `  lecturequiz regenerate 3 --mcq 10`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd, env, g, args[0], opts, false)
		},
	}
	addCountFlags(cmd, &opts)
	return cmd
}

func addCountFlags(cmd *cobra.Command, opts *runOptions) {
	cmd.Flags().IntVar(&opts.mcq, "mcq", 0, "Multiple-choice questions to generate (default: pipeline.mcq_count)")
	cmd.Flags().IntVar(&opts.tf, "tf", 0, "True/false questions to generate (default: pipeline.tf_count)")
}

// runPipeline executes run (withAudio) or regenerate.
// Validation order: lecture ID -> counts -> config -> lecture exists -> clients
func runPipeline(cmd *cobra.Command, env *Env, g *globalFlags, arg string, opts runOptions, withAudio bool) error {
	id, err := parseID("lecture", arg)
	if err != nil {
		return err
	}
	if opts.mcq < 0 || opts.tf < 0 {
		return fmt.Errorf("question counts must not be negative: %w", ErrInvalidCount)
	}

	ctx := cmd.Context()
	a, err := openApp(ctx, env, g)
	if err != nil {
		return err
	}
	defer a.Close()

	mcq, tf := a.cfg.Pipeline.MCQCount, a.cfg.Pipeline.TFCount
	if cmd.Flags().Changed("mcq") {
		mcq = opts.mcq
	}
	if cmd.Flags().Changed("tf") {
		tf = opts.tf
	}

	lec, err := a.store.Lecture(ctx, id)
	if err != nil {
		return err
	}

	p, err := buildPipeline(ctx, env, a, withAudio, transcriptionPrompt(ctx, a.store, lec))
	if err != nil {
		return err
	}

	var out pipeline.Outcome
	if withAudio {
		out = p.Run(ctx, id, mcq, tf)
	} else {
		out = p.RunFromTranscript(ctx, id, mcq, tf)
	}
	writeOutcome(env.Stdout, id, out, withAudio)

	if err := ctx.Err(); err != nil {
		return err
	}
	if !out.Summarized || (mcq+tf > 0 && out.Questions() == 0) {
		return fmt.Errorf("lecture %d: %w (see log above)", id, ErrRunIncomplete)
	}
	return nil
}

// buildPipeline wires the stages from configuration. Transcription
// dependencies (FFmpeg, OpenAI key) are only required when withAudio is set.
func buildPipeline(ctx context.Context, env *Env, a *app, withAudio bool, prompt string) (*pipeline.Pipeline, error) {
	cfg := a.cfg
	p := cfg.Pipeline
	language := cfg.OutputLanguage()

	var opts []pipeline.Option
	if withAudio {
		ffmpegPath, err := env.FFmpegResolver.Resolve(ctx, cfg.FFmpegPath)
		if err != nil {
			return nil, err
		}
		env.FFmpegResolver.CheckVersion(ctx, ffmpegPath, logger.WithComponent(a.log, "ffmpeg"))

		chunker, err := env.ChunkerFactory.NewChunker(ffmpegPath, p, logger.WithComponent(a.log, "chunker"))
		if err != nil {
			return nil, err
		}
		tr, err := env.TranscriberFactory.NewTranscriber(cfg, prompt)
		if err != nil {
			return nil, err
		}
		assembler := transcribe.NewAssembler(chunker, tr,
			transcribe.WithParallel(p.Parallel),
			transcribe.WithAssemblerLogger(logger.WithComponent(a.log, "transcribe")),
		)
		resolver := source.NewResolver(
			source.WithS3Config(source.S3Config{
				Region:    cfg.Storage.S3Region,
				Endpoint:  cfg.Storage.S3Endpoint,
				AccessKey: cfg.Storage.S3AccessKey,
				SecretKey: cfg.Storage.S3SecretKey,
			}),
			source.WithLogger(logger.WithComponent(a.log, "source")),
		)
		opts = append(opts, pipeline.WithTranscription(resolver, assembler))
	}

	gen, err := env.GeneratorFactory.NewGenerator(cfg, logger.WithComponent(a.log, "llm"))
	if err != nil {
		return nil, err
	}
	summarizer := summarize.New(gen,
		summarize.WithLanguage(language),
		summarize.WithSegmentBounds(p.SegmentMin, p.SegmentMax),
		summarize.WithParallel(p.Parallel),
		summarize.WithProgress(progressCallback(env.Stderr)),
		summarize.WithLogger(logger.WithComponent(a.log, "summarize")),
	)
	extractor := quiz.NewExtractor(gen,
		quiz.WithLanguage(language),
		quiz.WithMCQRetries(p.MCQRetries),
		quiz.WithTFRetries(p.TFRetries),
		quiz.WithLogger(logger.WithComponent(a.log, "quiz")),
	)

	opts = append(opts, pipeline.WithLogger(logger.WithComponent(a.log, "pipeline")))
	return pipeline.New(a.store, summarizer, extractor, opts...), nil
}

// transcriptionPrompt names the course and lecture so the speech service
// spells domain vocabulary consistently.
func transcriptionPrompt(ctx context.Context, st Store, lec *store.Lecture) string {
	var parts []string
	if c, err := st.Course(ctx, lec.CourseID); err == nil && c.Name != "" {
		parts = append(parts, c.Name)
	}
	if lec.Title != "" {
		parts = append(parts, lec.Title)
	}
	return strings.Join(parts, ": ")
}
