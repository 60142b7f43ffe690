package engine

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aligned-dataset/internal/index"
	"aligned-dataset/internal/types"
)

func seqsOfLen(ls ...int) []types.Sequence {
	out := make([]types.Sequence, len(ls))
	for i, l := range ls {
		out[i] = types.Sequence{Element: "E", Text: fmt.Sprintf("s%d", i), Length: l}
	}
	return out
}

func TestComputeStats(t *testing.T) {
	st := ComputeStats([]int{2, 4, 4, 4, 5, 5, 7, 9})
	assert.Equal(t, 8, st.Count)
	assert.InDelta(t, 5.0, st.Mean, 1e-12)
	assert.InDelta(t, 2.0, st.Std, 1e-12)
	assert.Equal(t, 9, st.Max)

	assert.Equal(t, types.LengthStats{}, ComputeStats(nil))
}

func TestFilterOutliers(t *testing.T) {
	res, err := FilterOutliers(seqsOfLen(2, 4, 4, 4, 5, 5, 7, 9))
	require.NoError(t, err)
	assert.InDelta(t, 7.0, res.Threshold, 1e-12)
	assert.Equal(t, 1, res.Dropped)
	require.Len(t, res.Kept, 7)
	for i, s := range res.Kept {
		assert.Equal(t, fmt.Sprintf("s%d", i), s.Text, "relative order kept")
	}
	assert.Equal(t, 7, res.After.Max)
}

func TestFilterOutliers_AdjacentOutliers(t *testing.T) {
	res, err := FilterOutliers(seqsOfLen(1, 1, 1, 1, 1, 1, 1, 1, 50, 50))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Dropped)
	for _, s := range res.Kept {
		assert.Equal(t, 1, s.Length)
	}
	assert.Equal(t, 1, res.After.Max)
	assert.InDelta(t, 0.0, res.After.Std, 1e-12)
}

func TestFilterOutliers_OrderIndependent(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	ls := make([]int, 200)
	for i := range ls {
		ls[i] = 1 + rng.Intn(40)
		if i%17 == 0 {
			ls[i] = 200
		}
	}
	seqs := seqsOfLen(ls...)
	base, err := FilterOutliers(seqs)
	require.NoError(t, err)

	survivors := func(r *FilterResult) map[string]bool {
		m := make(map[string]bool, len(r.Kept))
		for _, s := range r.Kept {
			m[s.Text] = true
		}
		return m
	}
	want := survivors(base)
	for _, s := range seqs {
		assert.Equal(t, float64(s.Length) <= base.Threshold, want[s.Text], s.Text)
	}

	for trial := 0; trial < 5; trial++ {
		shuffled := append([]types.Sequence(nil), seqs...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		got, err := FilterOutliers(shuffled)
		require.NoError(t, err)
		assert.Equal(t, want, survivors(got))
	}
}

func TestFilterOutliers_Empty(t *testing.T) {
	_, err := FilterOutliers(nil)
	require.ErrorIs(t, err, types.ErrEmptyPool)
}

func TestQuotas(t *testing.T) {
	assert.Equal(t, Quota{Train: 8, Validate: 1, Test: 1}, Quotas(10, 0.1, 0.1))
	assert.Equal(t, Quota{Train: 9}, Quotas(9, 0.1, 0.1))
	assert.Equal(t, Quota{Train: 13, Validate: 5, Test: 7}, Quotas(25, 0.2, 0.3))
}

// scripted replays fixed draws and records the bounds it was asked for.
type scripted struct {
	draws []int
	asked []int
}

func (s *scripted) Intn(n int) int {
	s.asked = append(s.asked, n)
	v := s.draws[0]
	s.draws = s.draws[1:]
	return v
}

func TestDrawBucket(t *testing.T) {
	tests := []struct {
		name  string
		st    QuotaState
		draw  int
		want  types.Split
		bound int
	}{
		{"all open validate", QuotaState{}, 1, types.Validate, 3},
		{"all open test", QuotaState{}, 2, types.Test, 3},
		{"validate met", QuotaState{ValidateMet: true}, 1, types.Test, 2},
		{"validate met train", QuotaState{ValidateMet: true}, 0, types.Train, 2},
		{"test met", QuotaState{TestMet: true}, 1, types.Validate, 2},
		{"train met", QuotaState{TrainMet: true}, 0, types.Validate, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &scripted{draws: []int{tt.draw}}
			assert.Equal(t, tt.want, DrawBucket(src, tt.st))
			assert.Equal(t, []int{tt.bound}, src.asked)
		})
	}

	src := &scripted{}
	assert.Equal(t, types.Train, DrawBucket(src, QuotaState{ValidateMet: true, TestMet: true}))
	assert.Equal(t, types.Test, DrawBucket(src, QuotaState{TrainMet: true, ValidateMet: true}))
	assert.Empty(t, src.asked, "a single open split consumes no draw")
}

func alignedPool(elements, perElement, sentences int) ([]types.Sentence, []types.Sequence) {
	var sents []types.Sentence
	var seqs []types.Sequence
	for e := 0; e < elements; e++ {
		el := types.Element(fmt.Sprintf("el%d", e))
		for j := 0; j < sentences; j++ {
			sents = append(sents, types.Sentence{Element: el, Tokens: types.Tokens{string(el), fmt.Sprint(j)}})
		}
		for j := 0; j < perElement; j++ {
			seqs = append(seqs, types.Sequence{Element: el, Text: fmt.Sprintf("%s seq %d", el, j), Length: 3})
		}
	}
	return sents, seqs
}

func TestPartition_ExactQuotas(t *testing.T) {
	sents, seqs := alignedPool(6, 17, 4)
	cfg := PartitionConfig{AlignedSentences: 5, ValidateFraction: 0.1, TestFraction: 0.15}

	for seed := int64(1); seed <= 20; seed++ {
		p := NewPartitioner(index.NewCursorStore(sents), cfg, rand.New(rand.NewSource(seed)))
		ds, q, err := p.Partition(seqs)
		require.NoError(t, err)

		assert.Equal(t, 10, len(ds.Validate), "seed %d", seed)
		assert.Equal(t, 15, len(ds.Test), "seed %d", seed)
		assert.Equal(t, len(seqs)-25, len(ds.Train), "seed %d", seed)
		assert.Equal(t, Quota{Train: 77, Validate: 10, Test: 15}, q)
		assert.Equal(t, len(seqs), ds.Len())
	}
}

func TestPartition_RecordsAreAligned(t *testing.T) {
	sents, seqs := alignedPool(3, 5, 2)
	p := NewPartitioner(index.NewCursorStore(sents), PartitionConfig{AlignedSentences: 3}, rand.New(rand.NewSource(3)))
	ds, _, err := p.Partition(seqs)
	require.NoError(t, err)

	seen := make(map[string]bool)
	for _, split := range types.Splits {
		for _, rec := range ds.Bucket(split) {
			require.Len(t, rec.Sentences, 3)
			for _, s := range rec.Sentences {
				assert.Equal(t, string(rec.Element), s[0])
			}
			assert.Equal(t, string(rec.Element), rec.Sequence[0])
			seen[fmt.Sprint(rec.Sequence)] = true
		}
	}
	assert.Len(t, seen, len(seqs), "every sequence used exactly once")
}

func TestPartition_Deterministic(t *testing.T) {
	sents, seqs := alignedPool(4, 9, 3)
	cfg := PartitionConfig{AlignedSentences: 4, ValidateFraction: 0.2, TestFraction: 0.2}
	run := func() *types.Dataset {
		p := NewPartitioner(index.NewCursorStore(sents), cfg, rand.New(rand.NewSource(99)))
		ds, _, err := p.Partition(seqs)
		require.NoError(t, err)
		return ds
	}
	assert.Equal(t, run(), run())
}

func TestPartition_PoolUntouched(t *testing.T) {
	sents, seqs := alignedPool(2, 3, 1)
	orig := append([]types.Sequence(nil), seqs...)
	p := NewPartitioner(index.NewCursorStore(sents), PartitionConfig{AlignedSentences: 1}, rand.New(rand.NewSource(1)))
	_, _, err := p.Partition(seqs)
	require.NoError(t, err)
	assert.Equal(t, orig, seqs)
}

func TestPartition_Errors(t *testing.T) {
	sents, seqs := alignedPool(1, 2, 1)
	store := index.NewCursorStore(sents)
	rng := rand.New(rand.NewSource(1))

	_, _, err := NewPartitioner(store, PartitionConfig{AlignedSentences: 1}, rng).Partition(nil)
	require.ErrorIs(t, err, types.ErrEmptyPool)

	orphan := append(seqs, types.Sequence{Element: "missing", Text: "x", Length: 1})
	_, _, err = NewPartitioner(store, PartitionConfig{AlignedSentences: 1}, rng).Partition(orphan)
	require.ErrorIs(t, err, types.ErrConfiguration)
	assert.Contains(t, err.Error(), "missing")

	_, _, err = NewPartitioner(store, PartitionConfig{}, rng).Partition(seqs)
	require.ErrorIs(t, err, types.ErrInvalidOption)
}
