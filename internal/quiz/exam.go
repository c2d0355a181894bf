package quiz

import (
	"errors"
	"math/rand/v2"
	"slices"
	"time"
)

const (
	DefaultTotalTime    = 30 * time.Minute
	DefaultQuestionTime = 60 * time.Second

	questionPoints = 2
	finalPoints    = 5
)

var (
	ErrFinished          = errors.New("exam is finished")
	ErrJokerUsed         = errors.New("joker already used")
	ErrNotMultipleChoice = errors.New("joker only applies to multiple-choice questions")
	ErrNoQuestions       = errors.New("exam has no questions")
)

// ExamConfig sets the exam clocks. Zero values take the defaults.
type ExamConfig struct {
	TotalTime    time.Duration
	QuestionTime time.Duration
}

// Exam is one exam session. It is not safe for concurrent use.
type Exam struct {
	questions []Question
	answers   []string
	removed   [][]string
	current   int

	jokerUsed    bool
	questionTime time.Duration
	totalLeft    time.Duration
	questionLeft time.Duration
	finished     bool
}

// NewExam shuffles the regular questions with rng (nil uses the global source)
// and appends the first bonus question, if any, as the final question.
func NewExam(regular, bonus []Question, cfg ExamConfig, rng *rand.Rand) (*Exam, error) {
	if cfg.TotalTime <= 0 {
		cfg.TotalTime = DefaultTotalTime
	}
	if cfg.QuestionTime <= 0 {
		cfg.QuestionTime = DefaultQuestionTime
	}

	qs := slices.Clone(regular)
	shuffle := rand.Shuffle
	if rng != nil {
		shuffle = rng.Shuffle
	}
	shuffle(len(qs), func(i, j int) { qs[i], qs[j] = qs[j], qs[i] })
	if len(bonus) > 0 {
		qs = append(qs, bonus[0])
	}
	if len(qs) == 0 {
		return nil, ErrNoQuestions
	}

	return &Exam{
		questions:    qs,
		answers:      make([]string, len(qs)),
		removed:      make([][]string, len(qs)),
		questionTime: cfg.QuestionTime,
		totalLeft:    cfg.TotalTime,
		questionLeft: cfg.QuestionTime,
	}, nil
}

// View is what the exam taker sees of the current question.
type View struct {
	Index        int           `json:"index"`
	Total        int           `json:"total"`
	Question     string        `json:"question"`
	Kind         Kind          `json:"kind"`
	Options      []string      `json:"options,omitempty"`
	Answer       string        `json:"answer,omitempty"`
	JokerUsed    bool          `json:"joker_used"`
	TotalLeft    time.Duration `json:"total_left"`
	QuestionLeft time.Duration `json:"question_left"`
	Finished     bool          `json:"finished"`
}

// Current describes the current question without its correct answer.
func (e *Exam) Current() View {
	q := e.questions[e.current]
	var opts []string
	for _, o := range q.Options {
		if !slices.Contains(e.removed[e.current], o) {
			opts = append(opts, o)
		}
	}
	return View{
		Index:        e.current,
		Total:        len(e.questions),
		Question:     q.Text,
		Kind:         q.Kind,
		Options:      opts,
		Answer:       e.answers[e.current],
		JokerUsed:    e.jokerUsed,
		TotalLeft:    e.totalLeft,
		QuestionLeft: e.questionLeft,
		Finished:     e.finished,
	}
}

// Answer records an answer for the current question, replacing any earlier one.
// An empty answer clears it.
func (e *Exam) Answer(answer string) error {
	if e.finished {
		return ErrFinished
	}
	e.answers[e.current] = answer
	return nil
}

// Next moves forward and reports whether the position changed.
func (e *Exam) Next() bool {
	if e.finished || e.current >= len(e.questions)-1 {
		return false
	}
	e.current++
	e.questionLeft = e.questionTime
	return true
}

// Prev moves back and reports whether the position changed.
func (e *Exam) Prev() bool {
	if e.finished || e.current == 0 {
		return false
	}
	e.current--
	e.questionLeft = e.questionTime
	return true
}

// Joker removes two wrong options from the current multiple-choice question.
// It can be used once per exam.
func (e *Exam) Joker(rng *rand.Rand) ([]string, error) {
	if e.finished {
		return nil, ErrFinished
	}
	if e.jokerUsed {
		return nil, ErrJokerUsed
	}
	q := e.questions[e.current]
	if !q.MultipleChoice() {
		return nil, ErrNotMultipleChoice
	}

	var wrong []string
	for _, o := range q.Options {
		if o != q.Correct {
			wrong = append(wrong, o)
		}
	}
	shuffle := rand.Shuffle
	if rng != nil {
		shuffle = rng.Shuffle
	}
	shuffle(len(wrong), func(i, j int) { wrong[i], wrong[j] = wrong[j], wrong[i] })
	if len(wrong) > 2 {
		wrong = wrong[:2]
	}

	e.removed[e.current] = wrong
	e.jokerUsed = true
	if slices.Contains(wrong, e.answers[e.current]) {
		e.answers[e.current] = ""
	}
	return wrong, nil
}

// Tick advances both clocks by d. Each spent question clock moves to the next
// question and the remainder of d keeps running there; a spent total clock
// finishes the exam. It reports whether the exam is finished.
func (e *Exam) Tick(d time.Duration) bool {
	if e.finished {
		return true
	}
	e.totalLeft -= d
	if e.totalLeft <= 0 {
		e.totalLeft = 0
		e.finished = true
		return true
	}
	e.questionLeft -= d
	for e.questionLeft <= 0 {
		overflow := e.questionLeft
		// The last question stays open until the total clock runs out.
		e.Next()
		e.questionLeft = e.questionTime + overflow
	}
	return false
}

// Finish ends the exam early.
func (e *Exam) Finish() {
	e.finished = true
}

// Finished reports whether the exam has ended.
func (e *Exam) Finished() bool {
	return e.finished
}

// Review is the graded outcome of one question.
type Review struct {
	Question string `json:"question"`
	Given    string `json:"given"`
	Correct  string `json:"correct"`
	OK       bool   `json:"ok"`
	Points   int    `json:"points"`
}

// Result is the graded exam.
type Result struct {
	Total      int      `json:"total"`
	Correct    int      `json:"correct"`
	Wrong      int      `json:"wrong"`
	Unanswered int      `json:"unanswered"`
	Score      int      `json:"score"`
	MaxScore   int      `json:"max_score"`
	Percent    float64  `json:"percent"`
	Reviews    []Review `json:"reviews"`
}

// Result grades the answers given so far. The final question is worth
// finalPoints, every other one questionPoints. Wrong counts every question
// not answered correctly, unanswered ones included.
func (e *Exam) Result() Result {
	r := Result{Total: len(e.questions), Reviews: make([]Review, 0, len(e.questions))}
	for i, q := range e.questions {
		points := questionPoints
		if i == len(e.questions)-1 {
			points = finalPoints
		}
		r.MaxScore += points

		rv := Review{Question: q.Text, Given: e.answers[i], Correct: q.Correct}
		switch {
		case q.IsCorrect(e.answers[i]):
			rv.OK = true
			rv.Points = points
			r.Correct++
			r.Score += points
		case e.answers[i] == "":
			r.Unanswered++
		}
		r.Reviews = append(r.Reviews, rv)
	}
	r.Wrong = r.Total - r.Correct
	if r.Total > 0 {
		r.Percent = float64(r.Correct) / float64(r.Total) * 100
	}
	return r
}
