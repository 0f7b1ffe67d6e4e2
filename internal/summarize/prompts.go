package summarize

import (
	"fmt"
	"strings"
)

// Labels the combined summary is asked to use, in order.
const (
	LabelOverview       = "[Overview]"
	LabelLearningPoints = "[Learning Points]"
	LabelOutcomes       = "[Outcomes]"
)

const segmentPrompt = `You are a course summary designer.
Summarize part %d of %d of a lecture transcript. Include:
- A concise overview of the content (one or two sentences)
- 2 to 4 learning points as a bulleted list
Keep the whole summary under about 150 characters.`

const combinePrompt = `You are an instructional design expert. Merge the segment summaries below into one complete course summary using exactly this format:

` + LabelOverview + ` What the lecture covers and why it matters.
` + LabelLearningPoints + ` 4 to 5 learning objectives as a bulleted list.
` + LabelOutcomes + ` What students can do after completing the lecture, in one sentence.

Avoid repetition. Keep the whole summary under about 400 characters.`

// buildSegmentPrompt returns the system prompt for segment index of total.
func buildSegmentPrompt(instruction string, index, total int) string {
	return withInstruction(instruction, fmt.Sprintf(segmentPrompt, index+1, total))
}

// buildCombineInput labels each partial summary with its 1-based segment number.
func buildCombineInput(partials []string) string {
	var b strings.Builder
	for i, p := range partials {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "Segment %d: %s", i+1, p)
	}
	return b.String()
}

func withInstruction(instruction, prompt string) string {
	if instruction == "" {
		return prompt
	}
	return instruction + "\n\n" + prompt
}
