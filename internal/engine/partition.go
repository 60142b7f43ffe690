package engine

import (
	"fmt"
	"math"
	"slices"

	"aligned-dataset/internal/corpus"
	"aligned-dataset/internal/index"
	"aligned-dataset/internal/types"
)

// Source is the random draw used by the partitioner. *rand.Rand satisfies it.
type Source interface {
	Intn(n int) int
}

// PartitionConfig controls how the pool is split.
type PartitionConfig struct {
	AlignedSentences int
	ValidateFraction float64
	TestFraction     float64
}

// Quota is the fixed number of records each split receives.
type Quota struct {
	Train    int `json:"train"`
	Validate int `json:"validate"`
	Test     int `json:"test"`
}

// Quotas sizes the splits for a pool of n sequences: validate and test get
// the floor of their fraction, train takes the rest.
func Quotas(n int, validate, test float64) Quota {
	q := Quota{
		Validate: int(math.Floor(validate * float64(n))),
		Test:     int(math.Floor(test * float64(n))),
	}
	q.Train = n - q.Validate - q.Test
	return q
}

func (q Quota) of(s types.Split) int {
	switch s {
	case types.Validate:
		return q.Validate
	case types.Test:
		return q.Test
	default:
		return q.Train
	}
}

// QuotaState records which splits have reached their quota.
type QuotaState struct {
	TrainMet    bool
	ValidateMet bool
	TestMet     bool
}

// Support lists the splits still open, in train, validate, test order.
func (st QuotaState) Support() []types.Split {
	out := make([]types.Split, 0, 3)
	if !st.TrainMet {
		out = append(out, types.Train)
	}
	if !st.ValidateMet {
		out = append(out, types.Validate)
	}
	if !st.TestMet {
		out = append(out, types.Test)
	}
	return out
}

// DrawBucket picks the destination of the next record uniformly among the
// open splits. With a single open split no draw is consumed.
//
//	open splits              draw
//	train, validate, test    Intn(3): 0 train, 1 validate, 2 test
//	train, test              Intn(2): 0 train, 1 test
//	train, validate          Intn(2): 0 train, 1 validate
//	one split                that split
func DrawBucket(rng Source, st QuotaState) types.Split {
	support := st.Support()
	switch len(support) {
	case 0:
		return types.Train
	case 1:
		return support[0]
	default:
		return support[rng.Intn(len(support))]
	}
}

// Partitioner consumes a sequence pool into an aligned dataset.
type Partitioner struct {
	store *index.CursorStore
	cfg   PartitionConfig
	rng   Source
}

// NewPartitioner wires a partitioner to its cursor store and random source.
func NewPartitioner(store *index.CursorStore, cfg PartitionConfig, rng Source) *Partitioner {
	return &Partitioner{store: store, cfg: cfg, rng: rng}
}

// Partition assigns every sequence of pool to a split, pairing each with
// the next AlignedSentences sentences of its element. Sequences are taken
// in random order; validate and test end up with exactly their quota.
// The pool slice itself is left untouched.
func (p *Partitioner) Partition(pool []types.Sequence) (*types.Dataset, Quota, error) {
	if len(pool) == 0 {
		return nil, Quota{}, fmt.Errorf("%w: nothing to partition", types.ErrEmptyPool)
	}
	if p.cfg.AlignedSentences < 1 {
		return nil, Quota{}, fmt.Errorf("%w: aligned sentence count must be >= 1, got %d", types.ErrInvalidOption, p.cfg.AlignedSentences)
	}

	elements := make([]types.Element, len(pool))
	for i, s := range pool {
		elements[i] = s.Element
	}
	if err := p.store.Validate(elements); err != nil {
		return nil, Quota{}, err
	}

	q := Quotas(len(pool), p.cfg.ValidateFraction, p.cfg.TestFraction)
	remaining := slices.Clone(pool)
	var counts [3]int
	ds := &types.Dataset{}

	for len(remaining) > 0 {
		i := p.rng.Intn(len(remaining))
		split := DrawBucket(p.rng, QuotaState{
			TrainMet:    counts[types.Train] >= q.of(types.Train),
			ValidateMet: counts[types.Validate] >= q.of(types.Validate),
			TestMet:     counts[types.Test] >= q.of(types.Test),
		})

		seq := remaining[i]
		remaining = slices.Delete(remaining, i, i+1)

		sents, err := p.store.Fetch(seq.Element, p.cfg.AlignedSentences)
		if err != nil {
			return nil, Quota{}, err
		}
		ds.Append(split, types.AlignedRecord{
			Element:   seq.Element,
			Sequence:  corpus.Tokenize(seq.Text),
			Sentences: sents,
		})
		counts[split]++
	}
	return ds, q, nil
}
