package analytics

import "math"

// Counts holds the four outcome counts of a binary classifier.
type Counts struct {
	TP int `json:"tp"`
	FP int `json:"fp"`
	FN int `json:"fn"`
	TN int `json:"tn"`
}

// Total returns the number of classified samples.
func (c Counts) Total() int { return c.TP + c.FP + c.FN + c.TN }

// Validate rejects negative counts.
func (c Counts) Validate() error {
	for _, f := range []struct {
		name string
		v    int
	}{{"tp", c.TP}, {"fp", c.FP}, {"fn", c.FN}, {"tn", c.TN}} {
		if f.v < 0 {
			return invalid(f.name, "must not be negative, got %d", f.v)
		}
	}
	return nil
}

// Metric is one derived record: a name, its value and the formula used.
type Metric struct {
	Name    string  `json:"name"`
	Value   float64 `json:"value"`
	Formula string  `json:"formula"`
}

// Metric names, in output order.
const (
	MetricTotal            = "total"
	MetricSensitivity      = "sensitivity (tpr)"
	MetricSpecificity      = "specificity (spc)"
	MetricPrecision        = "precision (ppv)"
	MetricNPV              = "negative predictive value (npv)"
	MetricFPR              = "false positive rate (fpr)"
	MetricFNR              = "false negative rate (fnr)"
	MetricFDR              = "false discovery rate (fdr)"
	MetricAccuracy         = "accuracy (acc)"
	MetricF1               = "f1 score"
	MetricMCC              = "matthews correlation coefficient (mcc)"
	MetricBalancedAccuracy = "balanced accuracy"
	MetricKappa            = "kappa score"
)

// ConfusionMetrics derives the standard binary-classification metrics. Every
// ratio with a zero denominator is 0, so the all-zero matrix yields total 0 and
// every ratio 0.
func ConfusionMetrics(c Counts) ([]Metric, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	tp, fp, fn, tn := float64(c.TP), float64(c.FP), float64(c.FN), float64(c.TN)
	p, n := tp+fn, tn+fp
	total := p + n

	mcc := safeDiv(tp*tn-fp*fn, math.Sqrt((tp+fp)*(tp+fn)*(tn+fp)*(tn+fn)))
	balanced := (safeDiv(tp, p) + safeDiv(tn, n)) / 2

	observed := safeDiv(tp+tn, total)
	expected := safeDiv((tp+fn)*(tp+fp)+(tn+fp)*(tn+fn), total*total)
	kappa := safeDiv(observed-expected, 1-expected)

	return []Metric{
		{MetricTotal, total, "tp + fp + fn + tn"},
		{MetricSensitivity, safeDiv(tp, p), "tp / (tp + fn)"},
		{MetricSpecificity, safeDiv(tn, n), "tn / (tn + fp)"},
		{MetricPrecision, safeDiv(tp, tp+fp), "tp / (tp + fp)"},
		{MetricNPV, safeDiv(tn, tn+fn), "tn / (tn + fn)"},
		{MetricFPR, safeDiv(fp, n), "fp / (fp + tn)"},
		{MetricFNR, safeDiv(fn, p), "fn / (tp + fn)"},
		{MetricFDR, safeDiv(fp, tp+fp), "fp / (fp + tp)"},
		{MetricAccuracy, safeDiv(tp+tn, total), "(tp + tn) / (p + n)"},
		{MetricF1, safeDiv(2*tp, 2*tp+fp+fn), "2tp / (2tp + fp + fn)"},
		{MetricMCC, mcc, "(tp*tn - fp*fn) / sqrt((tp+fp)(tp+fn)(tn+fp)(tn+fn))"},
		{MetricBalancedAccuracy, balanced, "(tp / (tp + fn) + tn / (tn + fp)) / 2"},
		{MetricKappa, kappa, "(observed_accuracy - expected_accuracy) / (1 - expected_accuracy)"},
	}, nil
}

// Lookup returns the value of the named metric.
func Lookup(metrics []Metric, name string) (float64, bool) {
	for _, m := range metrics {
		if m.Name == name {
			return m.Value, true
		}
	}
	return 0, false
}
