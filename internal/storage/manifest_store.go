package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

var (
	bucketRuns       = []byte("runs")
	bucketVocabulary = []byte("vocabulary")
)

// RunManifest describes one completed run.
type RunManifest struct {
	ID             uint64            `json:"id"`
	Time           time.Time         `json:"time"`
	Seed           int64             `json:"seed"`
	Config         json.RawMessage   `json:"config"`
	VocabularySize int               `json:"vocabulary_size"`
	MaxSentence    int               `json:"max_sentence_tokens"`
	MaxSequence    int               `json:"max_sequence_tokens"`
	Filtered       int               `json:"filtered_out"`
	Splits         map[string]int    `json:"splits"`
	Wraps          int               `json:"cursor_wraps"`
	Outputs        map[string]string `json:"outputs"`
}

// ManifestStore keeps the run history and the latest vocabulary in bbolt.
type ManifestStore struct {
	db *bbolt.DB
}

// OpenManifest opens or creates the manifest database at path.
func OpenManifest(path string) (*ManifestStore, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, err
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketRuns); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists(bucketVocabulary); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &ManifestStore{db: db}, nil
}

func runKey(id uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, id)
	return k
}

// RecordRun appends run under a fresh id and replaces the stored
// vocabulary with words, where words[i] has id i+1. The assigned id is
// returned and set on run.
func (s *ManifestStore) RecordRun(run *RunManifest, words []string) (uint64, error) {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketRuns)
		id, err := b.NextSequence()
		if err != nil {
			return err
		}
		run.ID = id
		data, err := json.Marshal(run)
		if err != nil {
			return err
		}
		if err := b.Put(runKey(id), data); err != nil {
			return err
		}

		if err := tx.DeleteBucket(bucketVocabulary); err != nil {
			return err
		}
		vb, err := tx.CreateBucket(bucketVocabulary)
		if err != nil {
			return err
		}
		for i, w := range words {
			v := make([]byte, 4)
			binary.BigEndian.PutUint32(v, uint32(i+1))
			if err := vb.Put([]byte(w), v); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return run.ID, nil
}

// Runs returns every recorded run, oldest first.
func (s *ManifestStore) Runs() ([]RunManifest, error) {
	var out []RunManifest
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketRuns).ForEach(func(k, v []byte) error {
			var r RunManifest
			if err := json.Unmarshal(v, &r); err != nil {
				return fmt.Errorf("run %d: %w", binary.BigEndian.Uint64(k), err)
			}
			out = append(out, r)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// LookupWord returns the id word had in the most recent run.
func (s *ManifestStore) LookupWord(word string) (int, bool, error) {
	var (
		id    int
		found bool
	)
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketVocabulary).Get([]byte(word))
		if v == nil {
			return nil
		}
		if len(v) != 4 {
			return fmt.Errorf("vocabulary entry %q: bad value length %d", word, len(v))
		}
		id, found = int(binary.BigEndian.Uint32(v)), true
		return nil
	})
	return id, found, err
}

// Close closes the database.
func (s *ManifestStore) Close() error {
	return s.db.Close()
}
