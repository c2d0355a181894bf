// Package wordgame runs a timed clue-and-answer word game with jokers and passes.
package wordgame

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	DefaultScore        = 100
	DefaultRights       = 3
	DefaultJokers       = 2
	DefaultPasses       = 2
	DefaultQuestionTime = 30 * time.Second

	correctPoints = 10
	wrongPenalty  = 10
	jokerCost     = 5
	passCost      = 5
)

var (
	ErrGameOver = errors.New("game is over")
	ErrNoJokers = errors.New("no jokers left")
	ErrNoPasses = errors.New("no passes left")
)

var lower = cases.Lower(language.Turkish)

// Word is a clue and the single word that answers it.
type Word struct {
	Clue   string `json:"clue" yaml:"clue"`
	Answer string `json:"-" yaml:"answer"`
}

// DefaultWords is the built-in word list.
var DefaultWords = []Word{
	{"Gökyüzünden yağan su damlacıkları", "yağmur"},
	{"Haftanın ilk günü", "pazartesi"},
	{"İnsanların yaşadığı gezegen", "dünya"},
	{"Gece gökyüzünde parlayan cisimler", "yıldız"},
	{"Denizde yaşayan omurgalı hayvan", "balık"},
	{"Yazın en sıcak ay", "temmuz"},
	{"Okullarda ders veren kişi", "öğretmen"},
	{"Kırtasiyede yazı yazmak için alınan araç", "kalem"},
	{"Evlerin üstünü örten yapı", "çatı"},
	{"İnsanların dinlenmek için kullandığı mobilya", "koltuk"},
}

// Config sets the starting resources. Zero values take the defaults.
type Config struct {
	Score        int
	Rights       int
	Jokers       int
	Passes       int
	QuestionTime time.Duration
}

// Outcome is how a question ended, or the result of a guess.
type Outcome string

const (
	Correct  Outcome = "correct"
	Wrong    Outcome = "wrong"
	Passed   Outcome = "passed"
	TimedOut Outcome = "timed_out"
)

// Feedback describes the effect of one move.
type Feedback struct {
	Outcome    Outcome `json:"outcome"`
	Delta      int     `json:"delta"`
	Bonus      int     `json:"bonus,omitempty"`
	Answer     string  `json:"answer,omitempty"`      // revealed once the question is lost
	LengthHint int     `json:"length_hint,omitempty"` // answer length when a guess had the wrong length
	GameOver   bool    `json:"game_over"`
}

// Game is one play-through. It is not safe for concurrent use.
type Game struct {
	words        []Word
	index        int
	score        int
	rights       int
	jokers       int
	passes       int
	questionTime time.Duration
	elapsed      time.Duration
	over         bool
	reason       string
	stats        Stats
}

// New starts a game over words in order.
func New(words []Word, cfg Config) *Game {
	if cfg.Score == 0 {
		cfg.Score = DefaultScore
	}
	if cfg.Rights <= 0 {
		cfg.Rights = DefaultRights
	}
	if cfg.Jokers <= 0 {
		cfg.Jokers = DefaultJokers
	}
	if cfg.Passes <= 0 {
		cfg.Passes = DefaultPasses
	}
	if cfg.QuestionTime <= 0 {
		cfg.QuestionTime = DefaultQuestionTime
	}
	g := &Game{
		words:        words,
		score:        cfg.Score,
		rights:       cfg.Rights,
		jokers:       cfg.Jokers,
		passes:       cfg.Passes,
		questionTime: cfg.QuestionTime,
	}
	if len(words) == 0 {
		g.end("no questions")
	}
	return g
}

// View is the visible game state.
type View struct {
	Index    int           `json:"index"`
	Total    int           `json:"total"`
	Clue     string        `json:"clue,omitempty"`
	Score    int           `json:"score"`
	Rights   int           `json:"rights"`
	Jokers   int           `json:"jokers"`
	Passes   int           `json:"passes"`
	TimeLeft time.Duration `json:"time_left"`
	Over     bool          `json:"over"`
	Reason   string        `json:"reason,omitempty"`
}

// Current returns the visible state.
func (g *Game) Current() View {
	v := View{
		Index:    g.index,
		Total:    len(g.words),
		Score:    g.score,
		Rights:   g.rights,
		Jokers:   g.jokers,
		Passes:   g.passes,
		TimeLeft: max(g.questionTime-g.elapsed, 0),
		Over:     g.over,
		Reason:   g.reason,
	}
	if !g.over {
		v.Clue = g.words[g.index].Clue
	}
	return v
}

// Guess checks an answer against the current word. A correct guess scores
// correctPoints plus a speed bonus of half the unused seconds and moves on.
// A wrong guess costs points and a right but keeps the question.
func (g *Game) Guess(answer string) (Feedback, error) {
	if g.over {
		return Feedback{}, ErrGameOver
	}
	w := g.words[g.index]
	given := lower.String(strings.TrimSpace(answer))
	want := lower.String(w.Answer)
	taken := g.elapsed

	if given == want {
		bonus := max(0, int((g.questionTime-taken).Seconds()/2))
		g.score += correctPoints + bonus
		g.stats.add(w, given, taken, true)
		fb := Feedback{Outcome: Correct, Delta: correctPoints + bonus, Bonus: bonus}
		fb.GameOver = g.advance()
		return fb, nil
	}

	g.stats.add(w, given, taken, false)
	g.score -= wrongPenalty
	g.rights--
	fb := Feedback{Outcome: Wrong, Delta: -wrongPenalty}
	if n := len([]rune(want)); len([]rune(given)) != n {
		fb.LengthHint = n
	}
	if g.rights <= 0 {
		g.end("no rights left")
		fb.Answer = w.Answer
		fb.GameOver = true
	}
	return fb, nil
}

// Pass skips the current word at a cost and records it as a miss.
func (g *Game) Pass() (Feedback, error) {
	if g.over {
		return Feedback{}, ErrGameOver
	}
	if g.passes <= 0 {
		return Feedback{}, ErrNoPasses
	}
	w := g.words[g.index]
	g.passes--
	g.score -= passCost
	g.stats.add(w, "", 0, false)
	fb := Feedback{Outcome: Passed, Delta: -passCost, Answer: w.Answer}
	fb.GameOver = g.advance()
	return fb, nil
}

// Tick advances the question clock. Every time it runs out the question is
// lost like a wrong answer and the game moves on, with the rest of d running
// on the next question. It returns one feedback per timed-out question.
func (g *Game) Tick(d time.Duration) []Feedback {
	var out []Feedback
	g.elapsed += d
	for !g.over && g.elapsed >= g.questionTime {
		overflow := g.elapsed - g.questionTime
		w := g.words[g.index]
		g.stats.add(w, "", g.questionTime, false)
		g.score -= wrongPenalty
		g.rights--
		fb := Feedback{Outcome: TimedOut, Delta: -wrongPenalty, Answer: w.Answer}
		if g.rights <= 0 {
			g.end("time ran out with no rights left")
			fb.GameOver = true
		} else {
			fb.GameOver = g.advance()
			g.elapsed = overflow
		}
		out = append(out, fb)
	}
	return out
}

// HintKind names a joker hint style.
type HintKind string

const (
	HintFirstLast HintKind = "first_last"
	HintVowels    HintKind = "vowels"
	HintPattern   HintKind = "pattern"
)

var hintKinds = []HintKind{HintFirstLast, HintVowels, HintPattern}

// Hint is what a joker reveals.
type Hint struct {
	Kind HintKind `json:"kind"`
	Text string   `json:"text"`
}

// Joker spends a joker on a randomly styled hint for the current word.
// A nil rng uses the global source.
func (g *Game) Joker(rng *rand.Rand) (Hint, error) {
	if g.over {
		return Hint{}, ErrGameOver
	}
	if g.jokers <= 0 {
		return Hint{}, ErrNoJokers
	}
	intn := rand.IntN
	if rng != nil {
		intn = rng.IntN
	}
	g.jokers--
	g.score -= jokerCost
	kind := hintKinds[intn(len(hintKinds))]
	return Hint{Kind: kind, Text: MakeHint(kind, lower.String(g.words[g.index].Answer))}, nil
}

const vowels = "aeıioöuü"

// MakeHint renders a hint of the given kind for word.
func MakeHint(kind HintKind, word string) string {
	r := []rune(word)
	if len(r) == 0 {
		return ""
	}
	switch kind {
	case HintFirstLast:
		return fmt.Sprintf("starts with %q and ends with %q", r[0], r[len(r)-1])
	case HintVowels:
		var vs []string
		for _, c := range r {
			if strings.ContainsRune(vowels, c) {
				vs = append(vs, string(c))
			}
		}
		return "vowels: " + strings.Join(vs, ", ")
	default:
		pattern := make([]string, len(r))
		for i, c := range r {
			pattern[i] = "_"
			if i == 0 || i == len(r)-1 {
				pattern[i] = string(c)
			}
		}
		return "pattern: " + strings.Join(pattern, " ")
	}
}

// Over reports whether the game has ended.
func (g *Game) Over() bool {
	return g.over
}

// Score returns the current score.
func (g *Game) Score() int {
	return g.score
}

// Stats returns a summary of every finished question.
func (g *Game) Stats() Summary {
	return g.stats.summary()
}

func (g *Game) advance() bool {
	g.index++
	g.elapsed = 0
	if g.index >= len(g.words) {
		g.index = len(g.words) - 1
		g.end("all questions answered")
	}
	return g.over
}

func (g *Game) end(reason string) {
	g.over = true
	g.reason = reason
}
