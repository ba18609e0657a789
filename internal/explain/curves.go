package explain

import (
	"math"
	"sort"
)

// ROCPoint is one operating point of the receiver operating characteristic.
type ROCPoint struct {
	Threshold float64 `json:"threshold"`
	FPR       float64 `json:"fpr"`
	TPR       float64 `json:"tpr"`
}

// ROCCurve carries the full curve plus its area. HasData is false when the
// evaluation set lacks both classes, in which case the curve is empty.
type ROCCurve struct {
	Points  []ROCPoint `json:"points"`
	AUC     float64    `json:"auc"`
	HasData bool       `json:"has_data"`
}

// PRPoint is one operating point of the precision-recall curve.
type PRPoint struct {
	Threshold float64 `json:"threshold"`
	Recall    float64 `json:"recall"`
	Precision float64 `json:"precision"`
}

// PRCurve carries the precision-recall curve plus average precision.
type PRCurve struct {
	Points           []PRPoint `json:"points"`
	AveragePrecision float64   `json:"average_precision"`
	HasData          bool      `json:"has_data"`
}

// ConfusionMatrix tallies predictions against ground truth at a fixed
// decision threshold, with the derived quality metrics.
type ConfusionMatrix struct {
	Threshold      float64 `json:"threshold"`
	TruePositives  int     `json:"true_positives"`
	FalsePositives int     `json:"false_positives"`
	TrueNegatives  int     `json:"true_negatives"`
	FalseNegatives int     `json:"false_negatives"`
	Accuracy       float64 `json:"accuracy"`
	Precision      float64 `json:"precision"`
	Recall         float64 `json:"recall"`
	F1             float64 `json:"f1"`
	HasData        bool    `json:"has_data"`
}

// Attribution is the mean absolute contribution of one feature to the
// model's pre-sigmoid score across the evaluation set.
type Attribution struct {
	Feature string  `json:"feature"`
	Weight  float64 `json:"weight"`
	Mean    float64 `json:"mean_abs_contribution"`
	Share   float64 `json:"share"`
}

// classCounts returns the number of positive and negative ground-truth
// labels in the scored set.
func classCounts(scored []Scored) (positives, negatives int) {
	for _, s := range scored {
		if s.Label == 1 {
			positives++
		} else {
			negatives++
		}
	}
	return positives, negatives
}

// sortByScoreDesc returns a copy ordered by descending score.
func sortByScoreDesc(scored []Scored) []Scored {
	sorted := append([]Scored(nil), scored...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})
	return sorted
}

// ROC sweeps every distinct score as a threshold and computes the
// characteristic, anchored at (0,0) and (1,1). AUC is the trapezoidal
// integral. Both classes must be present; otherwise HasData is false.
func ROC(scored []Scored) ROCCurve {
	positives, negatives := classCounts(scored)
	if positives == 0 || negatives == 0 {
		return ROCCurve{Points: []ROCPoint{}}
	}

	sorted := sortByScoreDesc(scored)

	points := []ROCPoint{{Threshold: math.Inf(1), FPR: 0, TPR: 0}}
	tp, fp := 0, 0
	for i := 0; i < len(sorted); {
		threshold := sorted[i].Score
		// Consume every sample tied at this score before emitting a point.
		for i < len(sorted) && sorted[i].Score == threshold {
			if sorted[i].Label == 1 {
				tp++
			} else {
				fp++
			}
			i++
		}
		points = append(points, ROCPoint{
			Threshold: threshold,
			FPR:       float64(fp) / float64(negatives),
			TPR:       float64(tp) / float64(positives),
		})
	}

	auc := 0.0
	for i := 1; i < len(points); i++ {
		auc += (points[i].FPR - points[i-1].FPR) * (points[i].TPR + points[i-1].TPR) / 2
	}

	return ROCCurve{Points: points, AUC: auc, HasData: true}
}

// PR sweeps every distinct score as a threshold and computes the
// precision-recall curve. Average precision is the step-wise integral
// over recall. Requires at least one positive label.
func PR(scored []Scored) PRCurve {
	positives, _ := classCounts(scored)
	if positives == 0 {
		return PRCurve{Points: []PRPoint{}}
	}

	sorted := sortByScoreDesc(scored)

	var points []PRPoint
	tp, fp := 0, 0
	for i := 0; i < len(sorted); {
		threshold := sorted[i].Score
		for i < len(sorted) && sorted[i].Score == threshold {
			if sorted[i].Label == 1 {
				tp++
			} else {
				fp++
			}
			i++
		}
		points = append(points, PRPoint{
			Threshold: threshold,
			Recall:    float64(tp) / float64(positives),
			Precision: float64(tp) / float64(tp+fp),
		})
	}

	ap := 0.0
	prevRecall := 0.0
	for _, p := range points {
		ap += (p.Recall - prevRecall) * p.Precision
		prevRecall = p.Recall
	}

	return PRCurve{Points: points, AveragePrecision: ap, HasData: true}
}

// Confusion tallies the scored set at the given threshold. A score at or
// above the threshold is a positive prediction. Undefined ratios (zero
// denominators) come back as zero rather than NaN.
func Confusion(scored []Scored, threshold float64) ConfusionMatrix {
	matrix := ConfusionMatrix{Threshold: threshold}
	if len(scored) == 0 {
		return matrix
	}

	for _, s := range scored {
		predicted := s.Score >= threshold
		switch {
		case predicted && s.Label == 1:
			matrix.TruePositives++
		case predicted && s.Label == 0:
			matrix.FalsePositives++
		case !predicted && s.Label == 0:
			matrix.TrueNegatives++
		default:
			matrix.FalseNegatives++
		}
	}

	total := float64(len(scored))
	matrix.Accuracy = float64(matrix.TruePositives+matrix.TrueNegatives) / total
	if matrix.TruePositives+matrix.FalsePositives > 0 {
		matrix.Precision = float64(matrix.TruePositives) / float64(matrix.TruePositives+matrix.FalsePositives)
	}
	if matrix.TruePositives+matrix.FalseNegatives > 0 {
		matrix.Recall = float64(matrix.TruePositives) / float64(matrix.TruePositives+matrix.FalseNegatives)
	}
	if matrix.Precision+matrix.Recall > 0 {
		matrix.F1 = 2 * matrix.Precision * matrix.Recall / (matrix.Precision + matrix.Recall)
	}
	matrix.HasData = true
	return matrix
}

// Attributions ranks features by the mean absolute contribution
// |w_i * x_i| to the pre-sigmoid score across the evaluation set,
// strongest first, capped to top entries (top <= 0 means everything).
// Share normalizes each contribution against the total so the values
// sum to one when any contribution is nonzero.
func Attributions(model *Model, samples []Sample, top int) []Attribution {
	if len(samples) == 0 {
		return []Attribution{}
	}

	means := make([]float64, len(model.Features))
	for _, sample := range samples {
		for i := range model.Features {
			means[i] += math.Abs(model.Weights[i] * sample.Features[i])
		}
	}

	total := 0.0
	for i := range means {
		means[i] /= float64(len(samples))
		total += means[i]
	}

	result := make([]Attribution, len(model.Features))
	for i, name := range model.Features {
		share := 0.0
		if total > 0 {
			share = means[i] / total
		}
		result[i] = Attribution{
			Feature: name,
			Weight:  model.Weights[i],
			Mean:    means[i],
			Share:   share,
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Mean != result[j].Mean {
			return result[i].Mean > result[j].Mean
		}
		return result[i].Feature < result[j].Feature
	})

	if top > 0 && len(result) > top {
		result = result[:top]
	}
	return result
}
