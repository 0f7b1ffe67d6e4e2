package quiz

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// mcqLabels are the option labels of a multiple-choice question, in order.
var mcqLabels = [4]string{"A", "B", "C", "D"}

// NormalizeMCQ validates decoded items into multiple-choice questions.
// Items missing concept, question, options or answer, with options other
// than exactly A to D (non-empty, each label once in any case), or with an
// answer outside A to D are dropped. Answers are uppercased and explanation defaults to "".
func NormalizeMCQ(items []any, log zerolog.Logger) []Question {
	var out []Question
	for i, it := range items {
		q, err := mcqFromItem(it)
		if err != nil {
			log.Debug().Err(err).Int("item", i).Msg("mcq item dropped")
			continue
		}
		out = append(out, q)
	}
	return out
}

// NormalizeTF validates decoded items into true/false questions. The
// answer may be a JSON bool or one of true/false/t/f/yes/no in any case,
// and is stored as AnswerTrue or AnswerFalse.
func NormalizeTF(items []any, log zerolog.Logger) []Question {
	var out []Question
	for i, it := range items {
		q, err := tfFromItem(it)
		if err != nil {
			log.Debug().Err(err).Int("item", i).Msg("tf item dropped")
			continue
		}
		out = append(out, q)
	}
	return out
}

func mcqFromItem(it any) (Question, error) {
	obj, concept, text, err := commonFields(it)
	if err != nil {
		return Question{}, err
	}

	rawOpts, ok := obj["options"].(map[string]any)
	if !ok {
		return Question{}, errors.New("options missing or not an object")
	}
	if len(rawOpts) != len(mcqLabels) {
		return Question{}, fmt.Errorf("want options A-D, got %d", len(rawOpts))
	}
	opts := make(map[string]string, len(rawOpts))
	for k, v := range rawOpts {
		label := strings.ToUpper(strings.TrimSpace(k))
		if _, dup := opts[label]; dup {
			return Question{}, fmt.Errorf("option %s given twice", label)
		}
		s, ok := scalar(v)
		if !ok || strings.TrimSpace(s) == "" {
			return Question{}, fmt.Errorf("option %q empty", k)
		}
		opts[label] = strings.TrimSpace(s)
	}
	for _, l := range mcqLabels {
		if _, ok := opts[l]; !ok {
			return Question{}, fmt.Errorf("option %s missing", l)
		}
	}

	answer, ok := scalar(obj["answer"])
	answer = strings.ToUpper(strings.TrimSpace(answer))
	if !ok || !slices.Contains(mcqLabels[:], answer) {
		return Question{}, fmt.Errorf("answer %q not in A-D", answer)
	}

	return Question{
		Concept:     concept,
		Text:        text,
		Kind:        KindMCQ,
		Options:     Options{A: opts["A"], B: opts["B"], C: opts["C"], D: opts["D"]},
		Answer:      answer,
		Explanation: explanation(obj),
	}, nil
}

func tfFromItem(it any) (Question, error) {
	obj, concept, text, err := commonFields(it)
	if err != nil {
		return Question{}, err
	}
	answer, ok := truthValue(obj["answer"])
	if !ok {
		return Question{}, fmt.Errorf("answer %v not a truth value", obj["answer"])
	}
	return Question{
		Concept:     concept,
		Text:        text,
		Kind:        KindTF,
		Answer:      answer,
		Explanation: explanation(obj),
	}, nil
}

// commonFields checks the fields shared by every question kind.
func commonFields(it any) (map[string]any, string, string, error) {
	obj, ok := it.(map[string]any)
	if !ok {
		return nil, "", "", fmt.Errorf("item is %T, not an object", it)
	}
	concept, ok := scalar(obj["concept"])
	if !ok {
		return nil, "", "", errors.New("concept missing")
	}
	text, ok := scalar(obj["question"])
	if !ok || strings.TrimSpace(text) == "" {
		return nil, "", "", errors.New("question missing")
	}
	return obj, strings.TrimSpace(concept), strings.TrimSpace(text), nil
}

func explanation(obj map[string]any) string {
	s, _ := scalar(obj["explanation"])
	return strings.TrimSpace(s)
}

// scalar renders a JSON string, number or bool as text. Absent values,
// null, arrays and objects are not scalars.
func scalar(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(x), true
	}
	return "", false
}

func truthValue(v any) (string, bool) {
	if b, ok := v.(bool); ok {
		return tfAnswer(b), true
	}
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "t", "yes":
		return AnswerTrue, true
	case "false", "f", "no":
		return AnswerFalse, true
	}
	return "", false
}

func tfAnswer(b bool) string {
	if b {
		return AnswerTrue
	}
	return AnswerFalse
}
