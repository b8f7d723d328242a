package quiz

// Step is a state of the quiz conversation.
type Step string

const (
	// StepIdle means the user has no active conversation.
	StepIdle Step = "idle"
	// StepChoosing means the user was shown the quiz menu and must pick a quiz.
	StepChoosing Step = "choosing_test"
	// StepAnswering means the user is answering questions of the selected quiz.
	StepAnswering Step = "answering"
)

// Session is the per-user conversation state.
// Questions is the user's own shuffled copy, except in shared-order mode where every
// session reads the same cached slice. Either way it is never modified.
type Session struct {
	Step      Step
	Quiz      string
	Questions []Question
	Current   int
	Score     int
}

// Question returns the question awaiting an answer.
func (s Session) Question() (Question, bool) {
	if s.Step != StepAnswering || s.Current < 0 || s.Current >= len(s.Questions) {
		return Question{}, false
	}
	return s.Questions[s.Current], true
}

// Done reports whether every question has been answered.
func (s Session) Done() bool {
	return s.Step == StepAnswering && s.Current >= len(s.Questions)
}
