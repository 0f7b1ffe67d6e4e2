package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"unicode/utf8"

	"github.com/alnah/go-lecturequiz/internal/format"
	"github.com/alnah/go-lecturequiz/internal/pipeline"
	"github.com/alnah/go-lecturequiz/internal/quiz"
	"github.com/alnah/go-lecturequiz/internal/store"
)

// transcriptPreview is how many characters of a transcript "lecture show"
// prints without --full.
const transcriptPreview = 500

// progressCallback returns a summarizer progress callback that writes
// status lines to w.
func progressCallback(w io.Writer) func(phase string, current, total int) {
	return func(phase string, current, total int) {
		if phase == "map" {
			_, _ = fmt.Fprintf(w, "  Summarizing segment %d/%d...\n", current, total)
		} else {
			_, _ = fmt.Fprintln(w, "  Combining summaries...")
		}
	}
}

func writeLectureTable(w io.Writer, lectures []store.Lecture) {
	if len(lectures) == 0 {
		_, _ = fmt.Fprintln(w, "No lectures.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tCOURSE\tTITLE\tTRANSCRIPT\tQUIZ")
	for _, l := range lectures {
		_, _ = fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\n",
			l.ID, l.CourseID, l.Title, yesNo(l.Transcript != ""), yesNo(l.QuizGenerated))
	}
	_ = tw.Flush()
}

func writeLecture(w io.Writer, l *store.Lecture, qs []store.Question, full bool) {
	_, _ = fmt.Fprintf(w, "Lecture %d: %s\n", l.ID, l.Title)
	_, _ = fmt.Fprintf(w, "Course:  %d\n", l.CourseID)
	_, _ = fmt.Fprintf(w, "Audio:   %s\n", l.AudioRef)
	_, _ = fmt.Fprintf(w, "Quiz:    %s\n", yesNo(l.QuizGenerated))

	_, _ = fmt.Fprintln(w, "\n## Transcript")
	switch {
	case l.Transcript == "":
		_, _ = fmt.Fprintln(w, "(none)")
	case full || utf8.RuneCountInString(l.Transcript) <= transcriptPreview:
		_, _ = fmt.Fprintln(w, l.Transcript)
	default:
		_, _ = fmt.Fprintf(w, "%s...\n(%d characters, use --full)\n",
			format.Truncate(l.Transcript, transcriptPreview), utf8.RuneCountInString(l.Transcript))
	}

	_, _ = fmt.Fprintln(w, "\n## Summary")
	_, _ = fmt.Fprintln(w, orNone(l.Summary))

	_, _ = fmt.Fprintf(w, "\n## Questions (%d)\n", len(qs))
	for i, q := range qs {
		writeQuestion(w, i+1, q)
	}
}

func writeQuestion(w io.Writer, n int, q store.Question) {
	_, _ = fmt.Fprintf(w, "\n%d. [%s] %s\n", n, q.Concept, q.QuestionText)
	if quiz.Kind(q.QuestionType) == quiz.KindMCQ {
		for _, opt := range []struct{ label, text string }{
			{"A", q.OptionA}, {"B", q.OptionB}, {"C", q.OptionC}, {"D", q.OptionD},
		} {
			_, _ = fmt.Fprintf(w, "   %s) %s\n", opt.label, opt.text)
		}
	}
	_, _ = fmt.Fprintf(w, "   Answer: %s\n", q.CorrectAnswer)
	if q.Explanation != "" {
		_, _ = fmt.Fprintf(w, "   %s\n", q.Explanation)
	}
}

// writeOutcome prints a run report. The transcript line is only meaningful
// when the run transcribed audio.
func writeOutcome(w io.Writer, lectureID uint, out pipeline.Outcome, transcribed bool) {
	_, _ = fmt.Fprintf(w, "Lecture %d (run %s, %s)\n", lectureID, out.RunID, format.Duration(out.Elapsed))

	if transcribed {
		transcript := yesNo(out.Transcribed)
		if n := len(out.FailedChunks); n > 0 {
			transcript += fmt.Sprintf(" (%d chunk(s) failed)", n)
		}
		_, _ = fmt.Fprintf(w, "  Transcript: %s\n", transcript)
	}
	_, _ = fmt.Fprintf(w, "  Summary:    %s\n", yesNo(out.Summarized))
	_, _ = fmt.Fprintf(w, "  Questions:  %d mcq, %d tf\n", out.MCQ, out.TF)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(none)"
	}
	return s
}
