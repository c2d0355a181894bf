package wordgame

import (
	"errors"
	"math/rand/v2"
	"testing"
	"time"
)

var testWords = []Word{
	{Clue: "first", Answer: "yağmur"},
	{Clue: "second", Answer: "İzmir"},
	{Clue: "third", Answer: "kalem"},
}

func TestGame_CorrectWithBonus(t *testing.T) {
	g := New(testWords, Config{})
	g.Tick(10 * time.Second)

	fb, err := g.Guess("  YAĞMUR ")
	if err != nil {
		t.Fatal(err)
	}
	// 10 points plus (30-10)/2 bonus.
	if fb.Outcome != Correct || fb.Bonus != 10 || fb.Delta != 20 {
		t.Errorf("feedback = %+v", fb)
	}
	if g.Score() != 120 {
		t.Errorf("score = %d, want 120", g.Score())
	}
	if v := g.Current(); v.Clue != "second" || v.TimeLeft != DefaultQuestionTime {
		t.Errorf("view = %+v", v)
	}
}

func TestGame_TurkishCaseFolding(t *testing.T) {
	g := New(testWords[1:2], Config{})
	fb, err := g.Guess("izmir")
	if err != nil {
		t.Fatal(err)
	}
	if fb.Outcome != Correct {
		t.Errorf("İzmir not matched by izmir: %+v", fb)
	}
	if !fb.GameOver || !g.Over() {
		t.Error("game should end after the last word")
	}
}

func TestGame_WrongAnswers(t *testing.T) {
	g := New(testWords, Config{})
	tests := []struct {
		guess      string
		lengthHint int
		gameOver   bool
	}{
		{"yagmur", 0, false},
		{"kar", 6, false},
		{"dolu", 6, true},
	}
	for _, tt := range tests {
		fb, err := g.Guess(tt.guess)
		if err != nil {
			t.Fatal(err)
		}
		if fb.Outcome != Wrong || fb.LengthHint != tt.lengthHint || fb.GameOver != tt.gameOver {
			t.Errorf("Guess(%q) = %+v", tt.guess, fb)
		}
	}
	if g.Score() != 70 {
		t.Errorf("score = %d, want 70", g.Score())
	}
	if _, err := g.Guess("yağmur"); !errors.Is(err, ErrGameOver) {
		t.Errorf("Guess after game over = %v", err)
	}
	if s := g.Stats(); s.Total != 3 || s.Wrong != 3 || s.Accuracy != 0 {
		t.Errorf("stats = %+v", s)
	}
}

func TestGame_JokerAndPass(t *testing.T) {
	g := New(testWords, Config{})
	rng := rand.New(rand.NewPCG(7, 7))

	for range DefaultJokers {
		h, err := g.Joker(rng)
		if err != nil {
			t.Fatal(err)
		}
		if h.Text == "" {
			t.Errorf("empty hint %+v", h)
		}
	}
	if _, err := g.Joker(rng); !errors.Is(err, ErrNoJokers) {
		t.Errorf("third joker = %v", err)
	}

	for range DefaultPasses {
		fb, err := g.Pass()
		if err != nil {
			t.Fatal(err)
		}
		if fb.Outcome != Passed || fb.Delta != -passCost {
			t.Errorf("pass feedback = %+v", fb)
		}
	}
	if _, err := g.Pass(); !errors.Is(err, ErrNoPasses) {
		t.Errorf("third pass = %v", err)
	}
	if g.Score() != 100-2*jokerCost-2*passCost {
		t.Errorf("score = %d", g.Score())
	}
	if v := g.Current(); v.Clue != "third" {
		t.Errorf("clue = %q, want third", v.Clue)
	}
}

func TestGame_Timeout(t *testing.T) {
	g := New(testWords, Config{Rights: 1})
	if fbs := g.Tick(29 * time.Second); len(fbs) != 0 {
		t.Fatalf("timed out early: %+v", fbs)
	}
	fbs := g.Tick(time.Second)
	if len(fbs) != 1 {
		t.Fatalf("got %d timeouts, want 1", len(fbs))
	}
	if fb := fbs[0]; fb.Outcome != TimedOut || !fb.GameOver || fb.Answer != "yağmur" {
		t.Errorf("timeout feedback = %+v", fb)
	}
	s := g.Stats()
	if s.Total != 1 || s.AverageTime != DefaultQuestionTime {
		t.Errorf("stats = %+v", s)
	}
}

func TestGame_TickCarriesOverflow(t *testing.T) {
	tests := []struct {
		name         string
		gap          time.Duration
		wantTimeouts int
		wantIndex    int
		wantLeft     time.Duration
		wantOver     bool
	}{
		{"no timeout", 20 * time.Second, 0, 0, 10 * time.Second, false},
		{"one and a half questions", 45 * time.Second, 1, 1, 15 * time.Second, false},
		{"two questions and change", 70 * time.Second, 2, 2, 20 * time.Second, false},
		{"rights run out", 95 * time.Second, 3, 2, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(testWords, Config{})
			fbs := g.Tick(tt.gap)
			if len(fbs) != tt.wantTimeouts {
				t.Fatalf("timeouts = %d, want %d", len(fbs), tt.wantTimeouts)
			}
			v := g.Current()
			if v.Index != tt.wantIndex || v.TimeLeft != tt.wantLeft || v.Over != tt.wantOver {
				t.Errorf("view = %+v, want index=%d left=%v over=%v", v, tt.wantIndex, tt.wantLeft, tt.wantOver)
			}
			if want := DefaultScore - tt.wantTimeouts*wrongPenalty; g.Score() != want {
				t.Errorf("score = %d, want %d", g.Score(), want)
			}
		})
	}
}

func TestMakeHint(t *testing.T) {
	tests := []struct {
		kind HintKind
		word string
		want string
	}{
		{HintFirstLast, "öğretmen", `starts with 'ö' and ends with 'n'`},
		{HintVowels, "öğretmen", "vowels: ö, e, e"},
		{HintPattern, "kalem", "pattern: k _ _ _ m"},
		{HintPattern, "", ""},
	}
	for _, tt := range tests {
		if got := MakeHint(tt.kind, tt.word); got != tt.want {
			t.Errorf("MakeHint(%s, %q) = %q, want %q", tt.kind, tt.word, got, tt.want)
		}
	}
}

func TestNew_Empty(t *testing.T) {
	g := New(nil, Config{})
	if !g.Over() {
		t.Error("game without words should be over")
	}
	if v := g.Current(); v.Clue != "" || !v.Over {
		t.Errorf("view = %+v", v)
	}
}
