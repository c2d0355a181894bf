package labels

import (
	"errors"
	"strings"
	"testing"

	"github.com/kerim47/quantdesk/internal/analytics"
)

func TestCountsFromCSV(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  analytics.Counts
	}{
		{
			name:  "numeric labels",
			input: "true_label,predicted_label\n1,1\n1,0\n0,1\n0,0\n0,0\n",
			want:  analytics.Counts{TP: 1, FP: 1, FN: 1, TN: 2},
		},
		{
			name:  "extra columns and mixed case",
			input: "id, True_Label ,score,Predicted_Label\n1,Yes,0.9,yes\n2,no,0.1,YES\n",
			want:  analytics.Counts{TP: 1, FP: 1},
		},
		{
			name:  "named classes fall back to sort order",
			input: "true_label,predicted_label\ncat,dog\ndog,dog\ncat,cat\n",
			want:  analytics.Counts{TP: 1, FP: 1, TN: 1},
		},
		{
			name:  "negative class only",
			input: "true_label,predicted_label\n0,0\n0,0\n",
			want:  analytics.Counts{TN: 2},
		},
		{
			name:  "unnamed class against a negative",
			input: "true_label,predicted_label\nspam,no\nno,no\n",
			want:  analytics.Counts{FN: 1, TN: 1},
		},
		{
			name:  "header only",
			input: "true_label,predicted_label\n",
			want:  analytics.Counts{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CountsFromCSV(strings.NewReader(tt.input))
			if err != nil {
				t.Fatalf("CountsFromCSV: %v", err)
			}
			if got != tt.want {
				t.Errorf("CountsFromCSV() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestCountsFromCSV_Errors(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		validation bool
	}{
		{"empty file", "", true},
		{"missing column", "true_label,guess\n1,1\n", true},
		{"multi-class", "true_label,predicted_label\na,b\nc,a\n", true},
		{"empty label", "true_label,predicted_label\n1,\n", true},
		{"ragged row", "true_label,predicted_label\n1,0,1\n", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CountsFromCSV(strings.NewReader(tt.input))
			if err == nil {
				t.Fatal("expected error")
			}
			if got := errors.Is(err, analytics.ErrValidation); got != tt.validation {
				t.Errorf("errors.Is(ErrValidation) = %v, want %v (err: %v)", got, tt.validation, err)
			}
		})
	}
}
