// Package labels turns labelled prediction files into confusion counts.
package labels

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/kerim47/quantdesk/internal/analytics"
)

// Column names looked up case-insensitively in the header row.
const (
	TrueColumn      = "true_label"
	PredictedColumn = "predicted_label"
)

var (
	positiveNames = []string{"1", "true", "yes", "positive", "pos"}
	negativeNames = []string{"0", "false", "no", "negative", "neg"}
)

// CountsFromCSV reads a CSV with true_label and predicted_label columns and
// tallies a binary confusion matrix. The positive class is the label spelled
// like a positive ("1", "true", "yes", "positive"), else the label that is not
// spelled like a negative, else the label that sorts last. More than two
// distinct labels is a validation error.
func CountsFromCSV(r io.Reader) (analytics.Counts, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return analytics.Counts{}, &analytics.ValidationError{Field: "csv", Reason: "file is empty"}
	}
	if err != nil {
		return analytics.Counts{}, fmt.Errorf("failed to read header: %w", err)
	}
	trueIdx, predIdx := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case TrueColumn:
			trueIdx = i
		case PredictedColumn:
			predIdx = i
		}
	}
	if trueIdx < 0 || predIdx < 0 {
		return analytics.Counts{}, &analytics.ValidationError{
			Field:  "csv",
			Reason: fmt.Sprintf("columns %q and %q are required", TrueColumn, PredictedColumn),
		}
	}

	type pair struct{ actual, predicted string }
	var rows []pair
	seen := map[string]bool{}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return analytics.Counts{}, fmt.Errorf("failed to read line %d: %w", line, err)
		}
		p := pair{normalize(rec[trueIdx]), normalize(rec[predIdx])}
		if p.actual == "" || p.predicted == "" {
			return analytics.Counts{}, &analytics.ValidationError{Field: "csv", Reason: fmt.Sprintf("line %d has an empty label", line)}
		}
		seen[p.actual] = true
		seen[p.predicted] = true
		rows = append(rows, p)
	}

	if len(seen) > 2 {
		return analytics.Counts{}, &analytics.ValidationError{
			Field:  "csv",
			Reason: fmt.Sprintf("multi-class labels detected (%d classes); only binary data is supported", len(seen)),
		}
	}
	positive := positiveLabel(seen)

	var c analytics.Counts
	for _, p := range rows {
		actual, predicted := p.actual == positive, p.predicted == positive
		switch {
		case actual && predicted:
			c.TP++
		case !actual && predicted:
			c.FP++
		case actual && !predicted:
			c.FN++
		default:
			c.TN++
		}
	}
	return c, nil
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// positiveLabel returns "" when every seen label is a negative.
func positiveLabel(seen map[string]bool) string {
	labels := make([]string, 0, len(seen))
	for l := range seen {
		if slices.Contains(positiveNames, l) {
			return l
		}
		labels = append(labels, l)
	}
	slices.Sort(labels)

	var others []string
	for _, l := range labels {
		if !slices.Contains(negativeNames, l) {
			others = append(others, l)
		}
	}
	switch {
	case len(others) == 1:
		return others[0]
	case len(others) == 0:
		return ""
	default:
		return labels[len(labels)-1]
	}
}
