package engine

import (
	"fmt"
	"math"

	"aligned-dataset/internal/types"
)

// OutlierSigma is how many standard deviations above the mean a sequence
// may be before it is dropped.
const OutlierSigma = 1.0

// FilterResult is the outcome of FilterOutliers.
type FilterResult struct {
	Kept      []types.Sequence
	Dropped   int
	Threshold float64
	Before    types.LengthStats
	After     types.LengthStats
}

// ComputeStats returns the mean, population standard deviation and
// maximum of lengths.
func ComputeStats(lengths []int) types.LengthStats {
	st := types.LengthStats{Count: len(lengths)}
	if len(lengths) == 0 {
		return st
	}
	var sum float64
	for _, l := range lengths {
		sum += float64(l)
		if l > st.Max {
			st.Max = l
		}
	}
	st.Mean = sum / float64(len(lengths))
	var sq float64
	for _, l := range lengths {
		d := float64(l) - st.Mean
		sq += d * d
	}
	st.Std = math.Sqrt(sq / float64(len(lengths)))
	return st
}

func lengths(seqs []types.Sequence) []int {
	out := make([]int, len(seqs))
	for i, s := range seqs {
		out[i] = s.Length
	}
	return out
}

// FilterOutliers drops every sequence longer than mean + OutlierSigma*std
// of the input lengths. Survivors keep their relative order; the input
// slice is not modified.
func FilterOutliers(seqs []types.Sequence) (*FilterResult, error) {
	if len(seqs) == 0 {
		return nil, fmt.Errorf("%w: no sequences to filter", types.ErrEmptyPool)
	}
	res := &FilterResult{Before: ComputeStats(lengths(seqs))}
	res.Threshold = res.Before.Mean + OutlierSigma*res.Before.Std

	res.Kept = make([]types.Sequence, 0, len(seqs))
	for _, s := range seqs {
		if float64(s.Length) > res.Threshold {
			continue
		}
		res.Kept = append(res.Kept, s)
	}
	res.Dropped = len(seqs) - len(res.Kept)
	if len(res.Kept) == 0 {
		return nil, fmt.Errorf("%w: every sequence exceeds the length threshold %.2f", types.ErrEmptyPool, res.Threshold)
	}
	res.After = ComputeStats(lengths(res.Kept))
	return res, nil
}
