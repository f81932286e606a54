package aggregate

import (
	"regexp"
	"sort"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/blackmichael/bluesense/internal/domain"
)

const (
	// TopTermsPerCategory caps the terms reported for each category.
	TopTermsPerCategory = 10

	minTermLength = 3
)

var wordPattern = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// stopWords are dropped from term counts.
var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "this": {}, "that": {}, "for": {}, "you": {}, "but": {},
	"not": {}, "with": {}, "are": {}, "have": {}, "from": {}, "they": {}, "will": {},
	"has": {}, "can": {}, "was": {}, "were": {}, "what": {}, "when": {}, "who": {},
	"how": {}, "all": {}, "their": {}, "there": {}, "been": {}, "would": {},
	"could": {}, "should": {}, "your": {}, "his": {}, "her": {}, "our": {},
	"just": {}, "more": {}, "some": {}, "like": {}, "very": {}, "much": {},
	"then": {}, "than": {}, "also": {},
}

// TermCount is a term and the number of times it occurs.
type TermCount struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}

// CategoryTerms holds the most common terms of one category.
type CategoryTerms struct {
	Category domain.Category `json:"category"`
	Terms    []TermCount     `json:"terms"`
}

// TermsByCategory counts terms in the cleaned text of each category present
// in rs and keeps the TopTermsPerCategory most frequent, ties broken by first
// occurrence. Categories with no posts are omitted. It returns
// ErrInsufficientData when rs yields no terms at all.
func TermsByCategory(rs domain.ResultSet) ([]CategoryTerms, error) {
	lower := cases.Lower(language.Und)

	var (
		result []CategoryTerms
		total  int
	)
	for _, cat := range domain.Categories {
		present := false
		counter := newTermCounter()
		for _, p := range rs {
			if p.Category != cat {
				continue
			}
			present = true
			counter.addAll(Tokenize(lower.String(p.CleanedText)))
		}
		if !present {
			continue
		}
		top := counter.top(TopTermsPerCategory)
		total += len(top)
		result = append(result, CategoryTerms{Category: cat, Terms: top})
	}

	if total == 0 {
		return nil, ErrInsufficientData
	}
	return result, nil
}

// Tokenize splits already lower-cased text into word tokens of at least three
// runes, dropping stop words.
func Tokenize(text string) []string {
	words := wordPattern.FindAllString(text, -1)
	tokens := make([]string, 0, len(words))
	for _, w := range words {
		if utf8.RuneCountInString(w) < minTermLength {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		tokens = append(tokens, w)
	}
	return tokens
}

// termCounter counts terms while remembering first-seen order.
type termCounter struct {
	order  []string
	counts map[string]int
}

func newTermCounter() *termCounter {
	return &termCounter{counts: make(map[string]int)}
}

func (c *termCounter) addAll(terms []string) {
	for _, t := range terms {
		if _, seen := c.counts[t]; !seen {
			c.order = append(c.order, t)
		}
		c.counts[t]++
	}
}

func (c *termCounter) top(n int) []TermCount {
	all := make([]TermCount, len(c.order))
	for i, t := range c.order {
		all[i] = TermCount{Term: t, Count: c.counts[t]}
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Count > all[j].Count
	})
	if len(all) > n {
		all = all[:n]
	}
	return all
}
