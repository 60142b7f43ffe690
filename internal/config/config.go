package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"aligned-dataset/internal/corpus"
	"aligned-dataset/internal/types"
)

// Config is the resolved, read-only configuration of one run.
// Keys keep the historical option names so existing invocations and
// config files carry over unchanged.
type Config struct {
	Reddit             string  `yaml:"reddit" json:"reddit"`
	RedditSequences    string  `yaml:"redditSequences" json:"redditSequences"`
	Wikipedia          string  `yaml:"wikipedia" json:"wikipedia"`
	WikipediaSentences string  `yaml:"wikipediaSentences" json:"wikipediaSentences"`
	Padding            bool    `yaml:"padding" json:"padding"`
	AlignedSentences   int     `yaml:"alignedSentences" json:"alignedSentences"`
	RedditOutput       string  `yaml:"redditOutput" json:"redditOutput"`
	WikipediaOutput    string  `yaml:"wikipediaOutput" json:"wikipediaOutput"`
	Dictionary         string  `yaml:"dictionary" json:"dictionary"`
	ValidateFraction   float64 `yaml:"validate" json:"validate"`
	TestFraction       float64 `yaml:"test" json:"test"`
	Encoding           string  `yaml:"encoding" json:"encoding"`

	// Seed drives every random draw of the partitioner. 0 means "derive one
	// from the clock"; the derived value is logged and recorded.
	Seed int64 `yaml:"seed" json:"seed"`
	// Manifest is the bbolt run history path. Empty disables it.
	Manifest string `yaml:"manifest" json:"manifest"`
}

// Defaults returns the stock configuration.
func Defaults() Config {
	return Config{
		Reddit:             "../Data/Reddit/Sequences.txt",
		RedditSequences:    "../Data/Reddit/Sequences.json",
		Wikipedia:          "../Data/Wikipedia/Summaries.txt",
		WikipediaSentences: "../Data/Wikipedia/Sentences.json",
		Padding:            true,
		AlignedSentences:   20,
		RedditOutput:       "../Aligned-Dataset/reddit.h5",
		WikipediaOutput:    "../Aligned-Dataset/wikipedia.h5",
		Dictionary:         "../Aligned-Dataset/dictionary.json",
		ValidateFraction:   0.1,
		TestFraction:       0.1,
		Encoding:           "utf-8",
		Manifest:           "../Aligned-Dataset/manifest.db",
	}
}

// LoadFile reads a YAML config file on top of base. Keys absent from the
// file keep their base value; unknown keys are rejected.
func LoadFile(path string, base Config) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return base, fmt.Errorf("%w: config file: %v", types.ErrInvalidOption, err)
	}
	defer f.Close()
	return decode(f, base)
}

func decode(r io.Reader, base Config) (Config, error) {
	cfg := base
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return base, nil
		}
		return base, fmt.Errorf("%w: config file: %v", types.ErrInvalidOption, err)
	}
	return cfg, nil
}

// Parse resolves the configuration from command-line arguments:
// Defaults, then the optional -config file, then every flag that was set
// explicitly.
func Parse(name string, args []string, output io.Writer) (Config, error) {
	def := Defaults()
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	if output != nil {
		fs.SetOutput(output)
	}

	var path string
	fs.StringVar(&path, "config", "", "YAML config file; explicit flags override its values")

	over := def
	fs.StringVar(&over.Reddit, "reddit", def.Reddit, "raw reddit corpus (whitespace tokenized)")
	fs.StringVar(&over.RedditSequences, "redditSequences", def.RedditSequences, "JSON object element -> list of raw sequences")
	fs.StringVar(&over.Wikipedia, "wikipedia", def.Wikipedia, "raw wikipedia corpus (whitespace tokenized)")
	fs.StringVar(&over.WikipediaSentences, "wikipediaSentences", def.WikipediaSentences, "JSON with wiki_sentences, wiki_elements, wiki_sentences_length")
	fs.BoolVar(&over.Padding, "padding", def.Padding, "reserve a <PAD> id and pad matrices with it")
	fs.IntVar(&over.AlignedSentences, "alignedSentences", def.AlignedSentences, "reference sentences aligned with each sequence")
	fs.StringVar(&over.RedditOutput, "redditOutput", def.RedditOutput, "array container for sequence matrices")
	fs.StringVar(&over.WikipediaOutput, "wikipediaOutput", def.WikipediaOutput, "array container for sentence matrices")
	fs.StringVar(&over.Dictionary, "dictionary", def.Dictionary, "vocabulary dictionary JSON output")
	fs.Float64Var(&over.ValidateFraction, "validate", def.ValidateFraction, "fraction of sequences placed in the validate split")
	fs.Float64Var(&over.TestFraction, "test", def.TestFraction, "fraction of sequences placed in the test split")
	fs.StringVar(&over.Encoding, "encoding", def.Encoding, "text encoding of every input file")
	fs.Int64Var(&over.Seed, "seed", def.Seed, "random seed (0 derives one from the clock)")
	fs.StringVar(&over.Manifest, "manifest", def.Manifest, "bbolt run manifest (empty disables)")

	if err := fs.Parse(args); err != nil {
		return def, fmt.Errorf("%w: %v", types.ErrInvalidOption, err)
	}
	if fs.NArg() > 0 {
		return def, fmt.Errorf("%w: unexpected arguments %q", types.ErrInvalidOption, fs.Args())
	}

	cfg := def
	if path != "" {
		var err error
		if cfg, err = LoadFile(path, def); err != nil {
			return def, err
		}
	}
	fs.Visit(func(f *flag.Flag) { overlay(&cfg, &over, f.Name) })

	return cfg, cfg.Validate()
}

func overlay(dst, src *Config, name string) {
	switch name {
	case "reddit":
		dst.Reddit = src.Reddit
	case "redditSequences":
		dst.RedditSequences = src.RedditSequences
	case "wikipedia":
		dst.Wikipedia = src.Wikipedia
	case "wikipediaSentences":
		dst.WikipediaSentences = src.WikipediaSentences
	case "padding":
		dst.Padding = src.Padding
	case "alignedSentences":
		dst.AlignedSentences = src.AlignedSentences
	case "redditOutput":
		dst.RedditOutput = src.RedditOutput
	case "wikipediaOutput":
		dst.WikipediaOutput = src.WikipediaOutput
	case "dictionary":
		dst.Dictionary = src.Dictionary
	case "validate":
		dst.ValidateFraction = src.ValidateFraction
	case "test":
		dst.TestFraction = src.TestFraction
	case "encoding":
		dst.Encoding = src.Encoding
	case "seed":
		dst.Seed = src.Seed
	case "manifest":
		dst.Manifest = src.Manifest
	}
}

// Validate checks option ranges and required paths.
func (c Config) Validate() error {
	paths := []struct{ name, val string }{
		{"reddit", c.Reddit},
		{"redditSequences", c.RedditSequences},
		{"wikipedia", c.Wikipedia},
		{"wikipediaSentences", c.WikipediaSentences},
		{"redditOutput", c.RedditOutput},
		{"wikipediaOutput", c.WikipediaOutput},
		{"dictionary", c.Dictionary},
	}
	for _, p := range paths {
		if strings.TrimSpace(p.val) == "" {
			return fmt.Errorf("%w: %s path is empty", types.ErrInvalidOption, p.name)
		}
	}
	outputs := map[string]string{}
	for _, p := range paths[4:] {
		clean := filepath.Clean(p.val)
		if prev, ok := outputs[clean]; ok {
			return fmt.Errorf("%w: %s and %s name the same file", types.ErrInvalidOption, prev, p.name)
		}
		outputs[clean] = p.name
	}
	if c.AlignedSentences < 1 {
		return fmt.Errorf("%w: alignedSentences must be >= 1, got %d", types.ErrInvalidOption, c.AlignedSentences)
	}
	if c.ValidateFraction < 0 || c.ValidateFraction > 1 {
		return fmt.Errorf("%w: validate fraction %v outside [0,1]", types.ErrInvalidOption, c.ValidateFraction)
	}
	if c.TestFraction < 0 || c.TestFraction > 1 {
		return fmt.Errorf("%w: test fraction %v outside [0,1]", types.ErrInvalidOption, c.TestFraction)
	}
	if c.ValidateFraction+c.TestFraction > 1 {
		return fmt.Errorf("%w: validate+test fractions exceed 1 (%v)", types.ErrInvalidOption, c.ValidateFraction+c.TestFraction)
	}
	if _, err := corpus.ResolveEncoding(c.Encoding); err != nil {
		return fmt.Errorf("%w: %v", types.ErrInvalidOption, err)
	}
	return nil
}
