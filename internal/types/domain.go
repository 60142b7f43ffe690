package types

// Element is the topic key shared by reference sentences and the sequences
// that discuss that topic.
type Element string

// Tokens is a whitespace-tokenized piece of text.
type Tokens []string

// Sentence is one entry of the reference sentence pool.
type Sentence struct {
	Element Element `json:"element"`
	Tokens  Tokens  `json:"tokens"`
}

// Sequence is one conversational sequence tagged with its element.
type Sequence struct {
	Element Element `json:"element"`
	Text    string  `json:"text"`
	Length  int     `json:"length"` // whitespace token count of Text
}

// Split names a dataset partition.
type Split int

const (
	Train Split = iota
	Validate
	Test
)

// Splits lists the partitions in output order.
var Splits = [...]Split{Train, Validate, Test}

func (s Split) String() string {
	switch s {
	case Train:
		return "train"
	case Validate:
		return "validate"
	case Test:
		return "test"
	default:
		return "unknown"
	}
}

// AlignedRecord pairs a sequence with the reference sentences aligned to it.
type AlignedRecord struct {
	Element   Element  `json:"element"`
	Sequence  Tokens   `json:"sequence"`
	Sentences []Tokens `json:"sentences"`
}

// Dataset holds the three partitions in the order records were assigned.
type Dataset struct {
	Train    []AlignedRecord `json:"train"`
	Validate []AlignedRecord `json:"validate"`
	Test     []AlignedRecord `json:"test"`
}

// Bucket returns the records of split s.
func (d *Dataset) Bucket(s Split) []AlignedRecord {
	switch s {
	case Validate:
		return d.Validate
	case Test:
		return d.Test
	default:
		return d.Train
	}
}

// Append adds rec to split s.
func (d *Dataset) Append(s Split, rec AlignedRecord) {
	switch s {
	case Validate:
		d.Validate = append(d.Validate, rec)
	case Test:
		d.Test = append(d.Test, rec)
	default:
		d.Train = append(d.Train, rec)
	}
}

// Len is the total record count across partitions.
func (d *Dataset) Len() int {
	return len(d.Train) + len(d.Validate) + len(d.Test)
}

// LengthStats summarises sequence token lengths.
type LengthStats struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
	Max   int     `json:"max"`
}
