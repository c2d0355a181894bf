package wordgame

import "time"

// Result is one recorded attempt.
type Result struct {
	Clue    string        `json:"clue"`
	Answer  string        `json:"answer"`
	Given   string        `json:"given"`
	Taken   time.Duration `json:"taken"`
	Correct bool          `json:"correct"`
}

// Summary aggregates the recorded attempts.
type Summary struct {
	Total       int           `json:"total"`
	Correct     int           `json:"correct"`
	Wrong       int           `json:"wrong"`
	Accuracy    float64       `json:"accuracy"`
	AverageTime time.Duration `json:"average_time"`
	History     []Result      `json:"history"`
}

// Stats records every guess, pass and timeout of a game.
type Stats struct {
	history []Result
}

func (s *Stats) add(w Word, given string, taken time.Duration, correct bool) {
	s.history = append(s.history, Result{
		Clue:    w.Clue,
		Answer:  w.Answer,
		Given:   given,
		Taken:   taken,
		Correct: correct,
	})
}

func (s *Stats) summary() Summary {
	sum := Summary{Total: len(s.history), History: append([]Result(nil), s.history...)}
	if sum.Total == 0 {
		return sum
	}
	var total time.Duration
	for _, r := range s.history {
		if r.Correct {
			sum.Correct++
		}
		total += r.Taken
	}
	sum.Wrong = sum.Total - sum.Correct
	sum.Accuracy = float64(sum.Correct) / float64(sum.Total) * 100
	sum.AverageTime = total / time.Duration(sum.Total)
	return sum
}
