package quiz

import "fmt"

const mcqPrompt = `You are a course quiz author. Write %d multiple-choice questions based on the course summary below.
Output strictly a JSON array and nothing else: no explanation, no code fences.
Every object must contain: concept, question, options (an object with keys A, B, C, D), answer (only A, B, C or D), explanation.`

const mcqStrictSuffix = "\n\nOutput exactly %d multiple-choice questions as a JSON array only, strictly formatted. No explanation, no ```json, no text before or after."

const tfPrompt = `Write %d true/false questions based on the course summary below, in this format:
[
  {
    "concept": "learning concept",
    "question": "statement to judge",
    "answer": "True",
    "explanation": "why the answer is correct"
  }
]
Return JSON only, with no other text.`

const tfStrictSuffix = "\n\nOutput exactly %d true/false questions as a JSON array only. Each answer is \"True\" or \"False\". No explanation, no ```json, no text before or after."

// strictSystem is the system prompt of every retry attempt.
const strictSystem = "You only output JSON."

// rung is one step of an attempt ladder.
type rung struct {
	system      string
	user        string
	temperature float32
}

// ladder returns the prompts for kind, first attempt first. Attempts past
// the end reuse the last rung.
func ladder(kind Kind, instruction, summary string, count int) []rung {
	switch kind {
	case KindTF:
		return []rung{
			{system: withInstruction(instruction, fmt.Sprintf(tfPrompt, count)), user: summary, temperature: 0.3},
			{system: withInstruction(instruction, strictSystem), user: summary + fmt.Sprintf(tfStrictSuffix, count), temperature: 0.1},
		}
	default:
		return []rung{
			{system: withInstruction(instruction, fmt.Sprintf(mcqPrompt, count)), user: summary, temperature: 0.2},
			{system: withInstruction(instruction, strictSystem), user: summary + fmt.Sprintf(mcqStrictSuffix, count), temperature: 0.1},
		}
	}
}

func withInstruction(instruction, prompt string) string {
	if instruction == "" {
		return prompt
	}
	return instruction + "\n\n" + prompt
}
