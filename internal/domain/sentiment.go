package domain

import "fmt"

// Classification thresholds. Scores exactly on a threshold are Neutral.
const (
	PositiveThreshold = 0.25
	NegativeThreshold = -0.25
)

// Category is the sentiment label assigned to a post.
type Category int

const (
	Positive Category = iota
	Neutral
	Negative
)

// Categories lists every category in display order.
var Categories = [...]Category{Positive, Neutral, Negative}

func (c Category) String() string {
	switch c {
	case Positive:
		return "Positive"
	case Neutral:
		return "Neutral"
	case Negative:
		return "Negative"
	default:
		return fmt.Sprintf("Category(%d)", int(c))
	}
}

// MarshalText encodes the category as its label.
func (c Category) MarshalText() ([]byte, error) {
	switch c {
	case Positive, Neutral, Negative:
		return []byte(c.String()), nil
	default:
		return nil, fmt.Errorf("invalid category %d", int(c))
	}
}

// UnmarshalText decodes a category label.
func (c *Category) UnmarshalText(text []byte) error {
	cat, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = cat
	return nil
}

// ParseCategory returns the category with the given label.
func ParseCategory(label string) (Category, error) {
	for _, c := range Categories {
		if c.String() == label {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown category %q", label)
}

// Classify maps a sentiment score to a category.
func Classify(score float64) Category {
	switch {
	case score > PositiveThreshold:
		return Positive
	case score < NegativeThreshold:
		return Negative
	default:
		return Neutral
	}
}

// SentimentResult is the oracle's verdict for one text: Score in [-1, 1] and
// Magnitude >= 0.
type SentimentResult struct {
	Score     float64
	Magnitude float64
}
