package query

import (
	"math"
	"sort"

	"icuboard/pkg/contracts/domain"
)

// Summarize computes descriptive statistics of ValueNum over the filtered
// view. An empty view yields HasData=false with zero placeholders; it is
// the caller's job to present that as "no data" rather than a zero
// measurement.
func Summarize(observations []domain.Observation) domain.SummaryStats {
	if len(observations) == 0 {
		return domain.SummaryStats{}
	}

	values := make([]float64, len(observations))
	for i, obs := range observations {
		values[i] = obs.ValueNum
	}
	sort.Float64s(values)

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var sqDiff float64
	for _, v := range values {
		d := v - mean
		sqDiff += d * d
	}
	stdDev := 0.0
	if len(values) > 1 {
		stdDev = math.Sqrt(sqDiff / float64(len(values)-1))
	}

	return domain.SummaryStats{
		Count:   len(values),
		HasData: true,
		Mean:    mean,
		Median:  median(values),
		Min:     values[0],
		Max:     values[len(values)-1],
		StdDev:  stdDev,
	}
}

// median expects values to be sorted.
func median(values []float64) float64 {
	n := len(values)
	if n%2 == 1 {
		return values[n/2]
	}
	return (values[n/2-1] + values[n/2]) / 2
}

// UniqueStays counts the distinct ICU stays in the view.
func UniqueStays(observations []domain.Observation) int {
	seen := make(map[int64]struct{})
	for _, obs := range observations {
		seen[obs.ICUStayID] = struct{}{}
	}
	return len(seen)
}

// ValueCounts returns the label distribution of the view, most frequent
// first, capped to top entries (top <= 0 means everything). Ties break
// alphabetically for stable output.
func ValueCounts(observations []domain.Observation, top int) []domain.ValueCount {
	counts := make(map[string]int)
	for _, obs := range observations {
		counts[obs.Label]++
	}

	result := make([]domain.ValueCount, 0, len(counts))
	for value, count := range counts {
		result = append(result, domain.ValueCount{Value: value, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Value < result[j].Value
	})

	if top > 0 && len(result) > top {
		result = result[:top]
	}
	return result
}

// Histogram buckets ValueNum into bins equal-width bins spanning
// [min, max]. The top edge is inclusive so the maximum lands in the last
// bin. An empty view yields no bins; a view with a single distinct value
// yields one bin containing every row.
func Histogram(observations []domain.Observation, bins int) []domain.HistogramBin {
	if len(observations) == 0 || bins <= 0 {
		return []domain.HistogramBin{}
	}

	min, max := observations[0].ValueNum, observations[0].ValueNum
	for _, obs := range observations[1:] {
		if obs.ValueNum < min {
			min = obs.ValueNum
		}
		if obs.ValueNum > max {
			max = obs.ValueNum
		}
	}

	if min == max {
		return []domain.HistogramBin{{Low: min, High: max, Count: len(observations)}}
	}

	width := (max - min) / float64(bins)
	result := make([]domain.HistogramBin, bins)
	for i := range result {
		result[i].Low = min + float64(i)*width
		result[i].High = min + float64(i+1)*width
	}
	result[bins-1].High = max

	for _, obs := range observations {
		idx := int((obs.ValueNum - min) / width)
		if idx >= bins {
			idx = bins - 1
		}
		result[idx].Count++
	}
	return result
}

// HourlyTrend computes the mean ValueNum grouped by hour of day of the
// chart time. Hours with no observations are omitted; entries come out
// ordered by hour.
func HourlyTrend(observations []domain.Observation) []domain.TrendPoint {
	sums := make(map[int]float64)
	counts := make(map[int]int)
	for _, obs := range observations {
		hour := obs.ChartTime.Hour()
		sums[hour] += obs.ValueNum
		counts[hour]++
	}

	hours := make([]int, 0, len(counts))
	for hour := range counts {
		hours = append(hours, hour)
	}
	sort.Ints(hours)

	result := make([]domain.TrendPoint, 0, len(hours))
	for _, hour := range hours {
		result = append(result, domain.TrendPoint{
			Hour:  hour,
			Mean:  sums[hour] / float64(counts[hour]),
			Count: counts[hour],
		})
	}
	return result
}

// correlationColumns are the numeric columns of the view, in matrix order.
var correlationColumns = []string{"valuenum", "icu_hours", "los"}

// Correlation computes pairwise Pearson coefficients over the numeric
// columns. Pairs without variance on either side are reported with
// Defined=false and a zero cell instead of NaN.
func Correlation(observations []domain.Observation) domain.CorrelationMatrix {
	n := len(correlationColumns)
	matrix := domain.CorrelationMatrix{
		Columns: append([]string(nil), correlationColumns...),
		Cells:   make([][]float64, n),
		Defined: make([][]bool, n),
	}
	for i := range matrix.Cells {
		matrix.Cells[i] = make([]float64, n)
		matrix.Defined[i] = make([]bool, n)
	}

	if len(observations) == 0 {
		return matrix
	}

	series := [][]float64{
		make([]float64, len(observations)),
		make([]float64, len(observations)),
		make([]float64, len(observations)),
	}
	for i, obs := range observations {
		series[0][i] = obs.ValueNum
		series[1][i] = obs.ICUHours
		series[2][i] = obs.LOS
	}

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			r, ok := pearson(series[i], series[j])
			matrix.Cells[i][j] = r
			matrix.Defined[i][j] = ok
		}
	}
	return matrix
}

// pearson returns the Pearson correlation coefficient of two equal-length
// series, and false when either side has zero variance.
func pearson(x, y []float64) (float64, bool) {
	n := float64(len(x))
	if n == 0 {
		return 0, false
	}

	var sumX, sumY float64
	for i := range x {
		sumX += x[i]
		sumY += y[i]
	}
	meanX, meanY := sumX/n, sumY/n

	var cov, varX, varY float64
	for i := range x {
		dx, dy := x[i]-meanX, y[i]-meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}

	if varX == 0 || varY == 0 {
		return 0, false
	}
	return cov / math.Sqrt(varX*varY), true
}
