package quiz

import (
	"math/rand/v2"
	"slices"
	"testing"
)

func sampleQuestions(t *testing.T) []Question {
	t.Helper()
	qs, err := Parse([]byte(sampleBank + "\nLast\n- one\n- two\n- three\n+ four\n- five\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return qs
}

func TestShufflePreservesCorrectOption(t *testing.T) {
	canonical := sampleQuestions(t)
	r := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 200; i++ {
		for _, q := range canonical {
			got := ShuffleOptions(q, r)
			if got.Options[got.Correct] != q.CorrectText() {
				t.Fatalf("correct option lost: %+v from %+v", got, q)
			}
			if !sameMultiset(got.Options, q.Options) {
				t.Fatalf("options changed: %q vs %q", got.Options, q.Options)
			}
		}
	}
}

func TestShuffleOptionsWithDuplicateTexts(t *testing.T) {
	q := Question{Text: "dup", Options: []string{"same", "same", "other"}, Correct: 1}
	r := rand.New(rand.NewPCG(7, 7))
	for i := 0; i < 50; i++ {
		got := ShuffleOptions(q, r)
		if got.Correct < 0 || got.Options[got.Correct] != "same" {
			t.Fatalf("bad mapping: %+v", got)
		}
	}
}

func TestShuffleIsPermutationAndLeavesInputIntact(t *testing.T) {
	canonical := sampleQuestions(t)
	snapshot := make([]Question, len(canonical))
	for i, q := range canonical {
		snapshot[i] = Question{Text: q.Text, Options: slices.Clone(q.Options), Correct: q.Correct}
	}

	r := rand.New(rand.NewPCG(42, 99))
	for i := 0; i < 100; i++ {
		out := Shuffle(canonical, r)
		if len(out) != len(canonical) {
			t.Fatalf("len = %d, want %d", len(out), len(canonical))
		}
		var gotTexts, wantTexts []string
		for j := range out {
			gotTexts = append(gotTexts, out[j].Text)
			wantTexts = append(wantTexts, canonical[j].Text)
		}
		if !sameMultiset(gotTexts, wantTexts) {
			t.Fatalf("not a permutation: %q", gotTexts)
		}
	}

	for i := range canonical {
		if canonical[i].Text != snapshot[i].Text || canonical[i].Correct != snapshot[i].Correct ||
			!slices.Equal(canonical[i].Options, snapshot[i].Options) {
			t.Fatalf("canonical bank mutated at %d: %+v", i, canonical[i])
		}
	}
}

func TestShuffleNilRandUsesGlobalSource(t *testing.T) {
	out := Shuffle(sampleQuestions(t), nil)
	for _, q := range out {
		if q.Correct < 0 || q.Correct >= len(q.Options) {
			t.Fatalf("invalid correct index: %+v", q)
		}
	}
}

func sameMultiset(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	x, y := slices.Clone(a), slices.Clone(b)
	slices.Sort(x)
	slices.Sort(y)
	return slices.Equal(x, y)
}
