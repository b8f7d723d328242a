package quiz

import (
	"strings"
	"unicode/utf8"
)

const (
	markerCorrect   = '+'
	markerIncorrect = '-'
)

// Parse decodes a question bank.
//
// Blocks are separated by one or more empty lines. A line holding only spaces or
// tabs does not end a block and is skipped. The first line of a block is the
// question text; every following line starting with "+" (correct) or "-"
// (incorrect) is an option whose text follows the marker and one separator
// character. Other lines inside a block are ignored.
func Parse(data []byte) ([]Question, error) {
	if !utf8.Valid(data) {
		return nil, &LoadError{Err: ErrInvalidEncoding}
	}
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	text = strings.TrimPrefix(text, "\ufeff")

	var (
		questions []Question
		block     []string
	)
	flush := func() error {
		if len(block) == 0 {
			return nil
		}
		q, err := parseBlock(block)
		if err != nil {
			return &LoadError{Block: len(questions) + 1, Err: err}
		}
		questions = append(questions, q)
		block = block[:0]
		return nil
	}

	for _, raw := range strings.Split(text, "\n") {
		if raw == "" {
			if err := flush(); err != nil {
				return nil, err
			}
			continue
		}
		if line := strings.TrimSpace(raw); line != "" {
			block = append(block, line)
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, &LoadError{Err: ErrEmptyBank}
	}
	return questions, nil
}

func parseBlock(lines []string) (Question, error) {
	q := Question{Text: lines[0], Correct: -1}
	for _, line := range lines[1:] {
		marker := line[0]
		if marker != markerCorrect && marker != markerIncorrect {
			continue
		}
		opt := optionText(line)
		if opt == "" {
			return Question{}, ErrEmptyOption
		}
		if marker == markerCorrect {
			if q.Correct >= 0 {
				return Question{}, ErrMultipleCorrect
			}
			q.Correct = len(q.Options)
		}
		q.Options = append(q.Options, opt)
	}
	if len(q.Options) == 0 {
		return Question{}, ErrNoOptions
	}
	if q.Correct < 0 {
		return Question{}, ErrNoCorrectOption
	}
	return q, nil
}

// optionText drops the marker and the separator rune that follows it.
func optionText(line string) string {
	rest := line[1:]
	if _, size := utf8.DecodeRuneInString(rest); size > 0 {
		rest = rest[size:]
	}
	return strings.TrimSpace(rest)
}
