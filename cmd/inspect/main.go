// inspect reads back the outputs of an aligned-dataset run.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"aligned-dataset/internal/matrix"
	"aligned-dataset/internal/storage"
	"aligned-dataset/internal/vocab"
)

func main() {
	var (
		container  = flag.String("container", "", "array container to inspect")
		dictionary = flag.String("dictionary", "", "dictionary JSON used to decode rows")
		array      = flag.String("array", "train", "array to decode: train | validate | test")
		row        = flag.Int("row", -1, "row to decode (needs -container and -dictionary)")
		manifest   = flag.String("manifest", "", "bbolt run manifest to list")
		word       = flag.String("word", "", "look a word up in the manifest's latest vocabulary")
	)
	flag.Parse()

	if *container == "" && *manifest == "" {
		log.Fatalf("error: -container or -manifest is required")
	}

	if *container != "" {
		c, err := storage.OpenContainer(*container)
		if err != nil {
			log.Fatalf("failed to open container: %v", err)
		}
		defer c.Close()

		for _, name := range c.Names() {
			rows, cols, _ := c.Shape(name)
			fmt.Printf("%s\t%d x %d\n", name, rows, cols)
		}

		if *row >= 0 {
			if *dictionary == "" {
				log.Fatalf("error: -row needs -dictionary")
			}
			decodeRow(c, *dictionary, *array, *row)
		}
	}

	if *manifest != "" {
		m, err := storage.OpenManifest(*manifest)
		if err != nil {
			log.Fatalf("failed to open manifest: %v", err)
		}
		defer m.Close()

		if *word != "" {
			id, ok, err := m.LookupWord(*word)
			if err != nil {
				log.Fatalf("lookup error: %v", err)
			}
			if !ok {
				fmt.Printf("%s\tnot in vocabulary\n", *word)
			} else {
				fmt.Printf("%s\t%d\n", *word, id)
			}
			return
		}

		runs, err := m.Runs()
		if err != nil {
			log.Fatalf("read runs: %v", err)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(runs); err != nil {
			log.Fatalf("encode runs: %v", err)
		}
	}
}

func decodeRow(c *storage.Container, dictPath, name string, i int) {
	f, err := os.Open(dictPath)
	if err != nil {
		log.Fatalf("failed to open dictionary: %v", err)
	}
	defer f.Close()
	v, err := vocab.ReadDictionary(f)
	if err != nil {
		log.Fatalf("dictionary error: %v", err)
	}

	m, err := c.Array(name)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if i >= m.Rows {
		log.Fatalf("row %d out of range: %s has %d rows", i, name, m.Rows)
	}
	fmt.Printf("%s[%d]\t%v\n", name, i, m.Row(i))
	fmt.Printf("%s[%d]\t%q\n", name, i, matrix.DecodeRow(m.Row(i), v))
}
