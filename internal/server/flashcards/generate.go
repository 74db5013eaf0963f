package flashcards

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/studyhall/studyhall/internal/api"
)

const maxSynthesized = 50

var (
	answerKeyRe  = regexp.MustCompile(`(?i)answer\s*keys?`)
	answerRowRe  = regexp.MustCompile(`(\d+)\s*\.\s*([A-D])\b`)
	questionNoRe = regexp.MustCompile(`(?m)(?:^|\n)\s*(\d+)\.\s`)
	choiceRe     = regexp.MustCompile(`\b([A-D])\.\s`)
	spaceRe      = regexp.MustCompile(`\s+`)
	wordRe       = regexp.MustCompile(`[A-Za-z]{5,}`)
)

// GenerateQuestions turns extracted PDF text into four-choice questions.
// Exam-style documents (numbered questions with lettered choices and an
// answer key) are parsed as-is; anything else gets fill-in-the-blank
// questions synthesized from its sentences. Both paths are deterministic for
// a given text.
func GenerateQuestions(text string) []api.QuizQuestion {
	if qs := parseExam(text); len(qs) > 0 {
		return qs
	}
	return synthesize(text)
}

func clean(s string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

// parseExam extracts "1. prompt A. ... B. ... C. ... D. ..." blocks and
// resolves each against the answer-key section. Questions whose answer is
// missing from the key are dropped: grading needs a letter.
func parseExam(text string) []api.QuizQuestion {
	answersSection := text
	questionsText := text
	if loc := answerKeyRe.FindStringIndex(text); loc != nil {
		questionsText = text[:loc[0]]
		answersSection = text[loc[1]:]
	}

	answers := make(map[int]string)
	for _, m := range answerRowRe.FindAllStringSubmatch(answersSection, -1) {
		num, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if _, ok := answers[num]; !ok {
			answers[num] = m[2]
		}
	}
	if len(answers) == 0 {
		return nil
	}

	marks := questionNoRe.FindAllStringSubmatchIndex(questionsText, -1)
	var out []api.QuizQuestion
	for i, m := range marks {
		num, err := strconv.Atoi(questionsText[m[2]:m[3]])
		if err != nil {
			continue
		}
		end := len(questionsText)
		if i+1 < len(marks) {
			end = marks[i+1][0]
		}
		block := questionsText[m[1]:end]

		prompt, choices := splitChoices(block)
		if prompt == "" || len(choices) < 4 {
			continue
		}
		answer, ok := answers[num]
		if !ok {
			continue
		}
		out = append(out, api.QuizQuestion{
			Number:  len(out) + 1,
			Prompt:  prompt,
			Choices: choices,
			Answer:  answer,
		})
	}
	return out
}

// splitChoices slices a question block at its "A. ", "B. ", ... markers.
func splitChoices(block string) (string, map[string]string) {
	marks := choiceRe.FindAllStringSubmatchIndex(block, -1)
	if len(marks) == 0 {
		return clean(block), nil
	}

	prompt := clean(block[:marks[0][0]])
	choices := make(map[string]string, len(marks))
	for i, m := range marks {
		letter := block[m[2]:m[3]]
		end := len(block)
		if i+1 < len(marks) {
			end = marks[i+1][0]
		}
		text := clean(block[m[1]:end])
		if text == "" {
			continue
		}
		if _, ok := choices[letter]; !ok {
			choices[letter] = text
		}
	}
	return prompt, choices
}

// synthesize builds fill-in-the-blank questions from prose. Each eligible
// sentence contributes its longest word as the blank; distractors are the
// blanked words of the following sentences, in ring order.
func synthesize(text string) []api.QuizQuestion {
	type candidate struct {
		sentence string
		keyword  string
	}

	var candidates []candidate
	seen := make(map[string]bool)
	for _, raw := range strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	}) {
		sentence := clean(raw)
		if len(strings.Fields(sentence)) < 6 {
			continue
		}
		keyword := longestWord(sentence)
		if keyword == "" || seen[strings.ToLower(keyword)] {
			continue
		}
		seen[strings.ToLower(keyword)] = true
		candidates = append(candidates, candidate{sentence: sentence, keyword: keyword})
		if len(candidates) == maxSynthesized {
			break
		}
	}
	if len(candidates) < 4 {
		return nil
	}

	letters := []string{"A", "B", "C", "D"}
	out := make([]api.QuizQuestion, 0, len(candidates))
	for i, c := range candidates {
		options := []string{c.keyword}
		for j := 1; j <= 3; j++ {
			options = append(options, candidates[(i+j)%len(candidates)].keyword)
		}
		sort.Strings(options)

		choices := make(map[string]string, 4)
		answer := ""
		for j, opt := range options {
			choices[letters[j]] = opt
			if opt == c.keyword {
				answer = letters[j]
			}
		}

		out = append(out, api.QuizQuestion{
			Number:  i + 1,
			Prompt:  strings.Replace(c.sentence, c.keyword, "____", 1),
			Choices: choices,
			Answer:  answer,
		})
	}
	return out
}

func longestWord(sentence string) string {
	best := ""
	for _, w := range wordRe.FindAllString(sentence, -1) {
		if len(w) > len(best) {
			best = w
		}
	}
	return best
}
