// Package pipeline runs the alignment job end to end: vocabulary, outlier
// filter, partition, matrix encoding and the staged write of every output.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"time"

	"aligned-dataset/internal/config"
	"aligned-dataset/internal/corpus"
	"aligned-dataset/internal/engine"
	"aligned-dataset/internal/index"
	"aligned-dataset/internal/matrix"
	"aligned-dataset/internal/storage"
	"aligned-dataset/internal/types"
	"aligned-dataset/internal/vocab"
)

// Summary reports what a run produced.
type Summary struct {
	Seed           int64
	VocabularySize int
	MaxSentence    int
	Filter         *engine.FilterResult
	Quota          engine.Quota
	Wraps          map[types.Element]int
	Stray          int
	RunID          uint64 // 0 when no manifest is kept
}

// Run executes one job. Nothing is written unless every phase succeeds;
// outputs land together, then the run is appended to the manifest. Once the
// outputs are in place the run succeeds; a failure to append the manifest
// entry is only logged.
func Run(ctx context.Context, cfg config.Config, logger *log.Logger) (*Summary, error) {
	if logger == nil {
		logger = log.New(os.Stderr, "", log.LstdFlags)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	sum := &Summary{}

	v, err := buildVocabulary(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("vocabulary: %w", err)
	}
	sum.VocabularySize = v.Size()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pool, err := corpus.LoadSentences(cfg.WikipediaSentences, cfg.Encoding)
	if err != nil {
		return nil, fmt.Errorf("sentences: %w", err)
	}
	sum.MaxSentence = pool.MaxTokens
	logger.Printf("[corpus] %d reference sentences, max sentence length %d", len(pool.Sentences), pool.MaxTokens)
	if pool.LengthMismatches > 0 {
		logger.Printf("[corpus] warning: %d wiki_sentences_length entries disagree with the token count", pool.LengthMismatches)
	}

	seqs, err := corpus.LoadSequences(cfg.RedditSequences, cfg.Encoding)
	if err != nil {
		return nil, fmt.Errorf("sequences: %w", err)
	}
	res, err := engine.FilterOutliers(seqs)
	if err != nil {
		return nil, fmt.Errorf("filter: %w", err)
	}
	sum.Filter = res
	logger.Printf("[filter] %d sequences, threshold %.2f, dropped %d", res.Before.Count, res.Threshold, res.Dropped)
	logger.Printf("[filter] mean %.2f max %d std %.2f", res.After.Mean, res.After.Max, res.After.Std)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sum.Seed = cfg.Seed
	if sum.Seed == 0 {
		sum.Seed = time.Now().UnixNano()
		logger.Printf("[partition] derived seed %d", sum.Seed)
	}
	store := index.NewCursorStore(pool.Sentences)
	sum.Stray = store.Stray()
	if sum.Stray > 0 {
		logger.Printf("[partition] %d sentences lie outside their element's first run and are never served", sum.Stray)
	}
	p := engine.NewPartitioner(store, engine.PartitionConfig{
		AlignedSentences: cfg.AlignedSentences,
		ValidateFraction: cfg.ValidateFraction,
		TestFraction:     cfg.TestFraction,
	}, rand.New(rand.NewSource(sum.Seed)))
	ds, q, err := p.Partition(res.Kept)
	if err != nil {
		return nil, fmt.Errorf("partition: %w", err)
	}
	sum.Quota = q
	sum.Wraps = wraps(store, res.Kept)
	for _, el := range sortedElements(sum.Wraps) {
		logger.Printf("[partition] element %s: cursor wrapped %d times", el, sum.Wraps[el])
	}
	logger.Printf("[partition] train=%d validate=%d test=%d", len(ds.Train), len(ds.Validate), len(ds.Test))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seqArrays, sentArrays, err := encode(ds, v, cfg.AlignedSentences, res.After.Max, pool.MaxTokens)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	logger.Printf("[encode] sequence width %d, sentence width %d", res.After.Max, pool.MaxTokens)

	// Opened before staging: a manifest that cannot be opened leaves no
	// outputs behind.
	var m *storage.ManifestStore
	if cfg.Manifest != "" {
		if m, err = openManifest(cfg.Manifest); err != nil {
			return nil, fmt.Errorf("manifest: %w", err)
		}
		defer m.Close()
	}

	if err := writeOutputs(cfg, v, seqArrays, sentArrays); err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	logger.Printf("[storage] wrote %s, %s, %s", cfg.RedditOutput, cfg.WikipediaOutput, cfg.Dictionary)

	if m != nil {
		id, err := record(m, cfg, sum, ds, v)
		if err != nil {
			logger.Printf("[storage] warning: outputs written but run not recorded in %s: %v", cfg.Manifest, err)
			return sum, nil
		}
		sum.RunID = id
		logger.Printf("[storage] recorded run %d in %s", id, cfg.Manifest)
	}
	return sum, nil
}

func openManifest(path string) (*storage.ManifestStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return storage.OpenManifest(path)
}

func buildVocabulary(cfg config.Config, logger *log.Logger) (*vocab.Vocabulary, error) {
	wiki, err := corpus.ReadTokens(cfg.Wikipedia, cfg.Encoding)
	if err != nil {
		return nil, err
	}
	reddit, err := corpus.ReadTokens(cfg.Reddit, cfg.Encoding)
	if err != nil {
		return nil, err
	}
	logger.Printf("[vocab] words: wikipedia %d, reddit %d, aggregated %d", len(wiki), len(reddit), len(wiki)+len(reddit))

	b := vocab.NewBuilder()
	b.Consume(wiki, vocab.Trusted)
	logger.Printf("[vocab] size after wikipedia: %d", b.Size())
	b.Consume(reddit, vocab.Untrusted)
	v := b.Finish(cfg.Padding)
	logger.Printf("[vocab] size: %d", v.Size())
	return v, nil
}

func wraps(store *index.CursorStore, seqs []types.Sequence) map[types.Element]int {
	out := make(map[types.Element]int)
	for _, s := range seqs {
		if n := store.Wraps(s.Element); n > 0 {
			out[s.Element] = n
		}
	}
	return out
}

func sortedElements(m map[types.Element]int) []types.Element {
	out := make([]types.Element, 0, len(m))
	for el := range m {
		out = append(out, el)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func encode(ds *types.Dataset, v *vocab.Vocabulary, n, seqCols, sentCols int) (seqs, sents []storage.NamedArray, err error) {
	for _, split := range types.Splits {
		recs := ds.Bucket(split)
		sm, err := matrix.EncodeSequences(recs, v, seqCols)
		if err != nil {
			return nil, nil, fmt.Errorf("%s sequences: %w", split, err)
		}
		wm, err := matrix.EncodeSentences(recs, v, n, sentCols)
		if err != nil {
			return nil, nil, fmt.Errorf("%s sentences: %w", split, err)
		}
		seqs = append(seqs, storage.NamedArray{Name: split.String(), Matrix: sm})
		sents = append(sents, storage.NamedArray{Name: split.String(), Matrix: wm})
	}
	return seqs, sents, nil
}

func writeOutputs(cfg config.Config, v *vocab.Vocabulary, seqs, sents []storage.NamedArray) (err error) {
	st, err := storage.Stage(cfg.RedditOutput, cfg.WikipediaOutput, cfg.Dictionary)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = st.Abort()
		}
	}()

	if err := storage.WriteContainer(st.Path(cfg.RedditOutput), seqs); err != nil {
		return err
	}
	if err := storage.WriteContainer(st.Path(cfg.WikipediaOutput), sents); err != nil {
		return err
	}
	f, err := os.Create(st.Path(cfg.Dictionary))
	if err != nil {
		return err
	}
	if err := vocab.WriteDictionary(f, v); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return st.Commit()
}

func record(m *storage.ManifestStore, cfg config.Config, sum *Summary, ds *types.Dataset, v *vocab.Vocabulary) (uint64, error) {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, n := range sum.Wraps {
		total += n
	}
	run := &storage.RunManifest{
		Time:           time.Now().UTC(),
		Seed:           sum.Seed,
		Config:         raw,
		VocabularySize: sum.VocabularySize,
		MaxSentence:    sum.MaxSentence,
		MaxSequence:    sum.Filter.After.Max,
		Filtered:       sum.Filter.Dropped,
		Splits: map[string]int{
			types.Train.String():    len(ds.Train),
			types.Validate.String(): len(ds.Validate),
			types.Test.String():     len(ds.Test),
		},
		Wraps: total,
		Outputs: map[string]string{
			"reddit":     cfg.RedditOutput,
			"wikipedia":  cfg.WikipediaOutput,
			"dictionary": cfg.Dictionary,
		},
	}
	return m.RecordRun(run, v.Words())
}
