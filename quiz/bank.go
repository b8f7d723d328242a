// Package quiz loads question banks, shuffles them and drives per-user quiz sessions.
package quiz

import (
	"errors"
	"fmt"
	"os"
)

// Question is a single multiple-choice question.
// Correct indexes Options and always satisfies 0 <= Correct < len(Options).
type Question struct {
	Text    string
	Options []string
	Correct int
}

// CorrectText returns the text of the correct option.
func (q Question) CorrectText() string {
	if q.Correct < 0 || q.Correct >= len(q.Options) {
		return ""
	}
	return q.Options[q.Correct]
}

var (
	// ErrNoOptions reports a question block without option lines.
	ErrNoOptions = errors.New("question has no options")
	// ErrNoCorrectOption reports a question block without a "+" line.
	ErrNoCorrectOption = errors.New("question has no correct option")
	// ErrMultipleCorrect reports a question block with more than one "+" line.
	ErrMultipleCorrect = errors.New("question has more than one correct option")
	// ErrEmptyOption reports an option line with no text after the marker.
	ErrEmptyOption = errors.New("option text is empty")
	// ErrInvalidEncoding reports a quiz file that is not valid UTF-8.
	ErrInvalidEncoding = errors.New("quiz file is not valid UTF-8")
	// ErrEmptyBank reports a quiz file without any question blocks.
	ErrEmptyBank = errors.New("quiz file has no questions")
)

// LoadError describes why a question bank could not be loaded.
// Block is the 1-based question block number for parse errors and 0 otherwise.
type LoadError struct {
	Quiz  string
	Path  string
	Block int
	Err   error
}

func (e *LoadError) Error() string {
	msg := "load quiz"
	if e.Quiz != "" {
		msg += fmt.Sprintf(" %q", e.Quiz)
	}
	if e.Path != "" {
		msg += " from " + e.Path
	}
	if e.Block > 0 {
		msg += fmt.Sprintf(": block %d", e.Block)
	}
	return msg + ": " + e.Err.Error()
}

func (e *LoadError) Unwrap() error { return e.Err }

// LoadFile reads and parses the question bank stored at path.
// Every failure is returned as *LoadError carrying the quiz name and path.
func LoadFile(name, path string) ([]Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Quiz: name, Path: path, Err: err}
	}
	questions, err := Parse(data)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.Quiz, le.Path = name, path
			return nil, le
		}
		return nil, &LoadError{Quiz: name, Path: path, Err: err}
	}
	return questions, nil
}
