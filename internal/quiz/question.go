// Package quiz stores exam questions and runs timed exam sessions over them.
package quiz

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// Kind selects a question pool.
type Kind string

const (
	Test  Kind = "test"  // multiple choice
	Open  Kind = "open"  // free text
	Bonus Kind = "bonus" // free text, asked last
)

// Kinds lists every pool in table order.
var Kinds = []Kind{Test, Open, Bonus}

func (k Kind) table() (string, error) {
	switch k {
	case Test:
		return "test_questions", nil
	case Open:
		return "open_questions", nil
	case Bonus:
		return "bonus_questions", nil
	}
	return "", fmt.Errorf("unknown question kind %q", k)
}

// Options is a multiple-choice option list stored as a JSON array.
type Options []string

// Value implements driver.Valuer.
func (o Options) Value() (driver.Value, error) {
	if o == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(o))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (o *Options) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*o = nil
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("cannot scan %T into Options", src)
	}
	var opts []string
	if err := json.Unmarshal(raw, &opts); err != nil {
		return fmt.Errorf("failed to decode options: %w", err)
	}
	if len(opts) == 0 {
		opts = nil
	}
	*o = opts
	return nil
}

// Question is one stored question. Correct is never sent to exam takers.
type Question struct {
	ID      int64   `db:"id" json:"id" yaml:"-"`
	Kind    Kind    `db:"-" json:"kind" yaml:"-"`
	Text    string  `db:"question" json:"question" yaml:"question"`
	Options Options `db:"options" json:"options,omitempty" yaml:"options"`
	Correct string  `db:"correct" json:"-" yaml:"correct"`
}

// MultipleChoice reports whether the question has options to pick from.
func (q Question) MultipleChoice() bool {
	return len(q.Options) > 0
}

// Validate checks a question before it is stored.
func (q Question) Validate(kind Kind) error {
	if strings.TrimSpace(q.Text) == "" {
		return fmt.Errorf("question text must not be empty")
	}
	if strings.TrimSpace(q.Correct) == "" {
		return fmt.Errorf("question %q has no correct answer", q.Text)
	}
	if kind != Test {
		return nil
	}
	// The joker removes two wrong options, so three is the minimum.
	if len(q.Options) < 3 {
		return fmt.Errorf("test question %q needs at least 3 options, got %d", q.Text, len(q.Options))
	}
	if !slices.Contains(q.Options, q.Correct) {
		return fmt.Errorf("test question %q: correct answer %q is not an option", q.Text, q.Correct)
	}
	return nil
}

// IsCorrect compares an answer ignoring case and surrounding or repeated whitespace.
func (q Question) IsCorrect(answer string) bool {
	return answer != "" && normalize(answer) == normalize(q.Correct)
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
