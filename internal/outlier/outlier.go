// Package outlier implements the robust statistics used to reject bad
// price observations before they reach the median fusion step.
package outlier

import (
	"math"
	"sort"

	"github.com/hwpriced/oracle/internal/common"
)

// Median returns the median of a float64 slice, mean of the two middle
// values for even length, the middle value for odd length. Does not
// mutate the input.
func Median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// MedianOfObservations extracts prices and returns their median.
func MedianOfObservations(obs []common.Observation) float64 {
	if len(obs) == 0 {
		return 0
	}
	prices := make([]float64, len(obs))
	for i, o := range obs {
		prices[i] = o.Price
	}
	return Median(prices)
}

// MADFilterOptions configures the MAD outlier filter.
type MADFilterOptions struct {
	Threshold float64 // default 3
}

// DefaultMADOptions returns spec.md §4.3's default threshold of 3.
func DefaultMADOptions() MADFilterOptions {
	return MADFilterOptions{Threshold: 3}
}

// MADFilter rejects observations whose modified z-score exceeds the
// threshold. Fewer than 3 observations are returned unchanged.
func MADFilter(obs []common.Observation, opts MADFilterOptions) []common.Observation {
	if len(obs) < 3 {
		return obs
	}
	if opts.Threshold <= 0 {
		opts = DefaultMADOptions()
	}

	m := MedianOfObservations(obs)
	deviations := make([]float64, len(obs))
	for i, o := range obs {
		deviations[i] = math.Abs(o.Price - m)
	}
	d := Median(deviations)
	effective := d
	if effective <= 0 {
		effective = 0.01 * m
	}
	if effective <= 0 {
		// m is also zero/negative; every observation is equidistant from
		// the median at zero deviation, nothing can be rejected safely.
		return obs
	}

	kept := make([]common.Observation, 0, len(obs))
	for _, o := range obs {
		z := math.Abs(o.Price-m) / (1.4826 * effective)
		if z <= opts.Threshold {
			kept = append(kept, o)
		}
	}
	return kept
}

// IQRFilterOptions configures the IQR outlier filter.
type IQRFilterOptions struct {
	K float64 // default 1.5
}

// DefaultIQROptions returns spec.md §4.3's default multiplier of 1.5.
func DefaultIQROptions() IQRFilterOptions {
	return IQRFilterOptions{K: 1.5}
}

// IQRFilter rejects observations outside [Q1-k*IQR, Q3+k*IQR]. Requires at
// least 4 observations; fewer are returned unchanged.
func IQRFilter(obs []common.Observation, opts IQRFilterOptions) []common.Observation {
	if len(obs) < 4 {
		return obs
	}
	if opts.K <= 0 {
		opts = DefaultIQROptions()
	}

	sorted := append([]common.Observation(nil), obs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Price < sorted[j].Price })

	n := len(sorted)
	q1 := sorted[n/4].Price
	q3 := sorted[(3*n)/4].Price
	iqr := q3 - q1
	lower := q1 - opts.K*iqr
	upper := q3 + opts.K*iqr

	kept := make([]common.Observation, 0, len(obs))
	for _, o := range obs {
		if o.Price >= lower && o.Price <= upper {
			kept = append(kept, o)
		}
	}
	return kept
}
