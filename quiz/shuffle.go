package quiz

import "math/rand/v2"

// permute runs an unbiased Fisher-Yates shuffle using r, or the global source when r is nil.
func permute(r *rand.Rand, n int, swap func(i, j int)) {
	if r == nil {
		rand.Shuffle(n, swap)
		return
	}
	r.Shuffle(n, swap)
}

// ShuffleOptions returns a copy of q with its options reordered uniformly at random.
// Correct follows the original correct option, not its text, so duplicate texts stay unambiguous.
func ShuffleOptions(q Question, r *rand.Rand) Question {
	type option struct {
		orig int
		text string
	}
	opts := make([]option, len(q.Options))
	for i, text := range q.Options {
		opts[i] = option{orig: i, text: text}
	}
	permute(r, len(opts), func(i, j int) { opts[i], opts[j] = opts[j], opts[i] })

	out := Question{Text: q.Text, Options: make([]string, len(opts)), Correct: -1}
	for i, o := range opts {
		out.Options[i] = o.text
		if o.orig == q.Correct {
			out.Correct = i
		}
	}
	return out
}

// ShuffleQuestions returns the questions in a new random order.
// The returned slice is fresh but shares each question's Options with qs.
func ShuffleQuestions(qs []Question, r *rand.Rand) []Question {
	out := make([]Question, len(qs))
	copy(out, qs)
	permute(r, len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// Shuffle returns a deep copy of qs with both question order and option order randomized.
// qs itself is never modified.
func Shuffle(qs []Question, r *rand.Rand) []Question {
	out := ShuffleQuestions(qs, r)
	for i := range out {
		out[i] = ShuffleOptions(out[i], r)
	}
	return out
}
