// Package search ranks menu items against free-text queries such as
// "/search pepperoni" or the food line of a quick order.
//
// Scoring is Jaccard similarity between token sets:
// score = |Q ∩ D| / |Q ∪ D|. Tokens are Unicode words, case-folded, with
// a trailing plural "s" dropped so "pizzas" finds "Pizza". An Index is
// immutable after construction and safe for concurrent use.
package search

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// Doc is one searchable document. ID is echoed back in results.
type Doc struct {
	ID   uint
	Text string
}

// Result is a ranked document with its similarity score.
type Result struct {
	ID    uint
	Text  string
	Score float64
}

// Index is implemented by all search indices.
type Index interface {
	TopK(query string, k int) []Result
	Len() int
}

// Option configures NewIndex.
type Option func(*options)

type options struct {
	stopwords map[string]struct{}
}

// WithStopwords ignores the given words in documents and queries. Words go
// through the same folding as document text.
func WithStopwords(words []string) Option {
	return func(o *options) {
		m := make(map[string]struct{}, len(words))
		for _, w := range words {
			for t := range tokenize(w, nil) {
				m[t] = struct{}{}
			}
		}
		if len(m) > 0 {
			o.stopwords = m
		}
	}
}

type entry struct {
	id     uint
	text   string
	runes  int
	tokens map[string]struct{}
}

type index struct {
	stop    map[string]struct{}
	entries []entry
}

// NewIndex builds an Index over docs. Documents left with no tokens are
// skipped.
func NewIndex(docs []Doc, opts ...Option) Index {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	ix := &index{stop: o.stopwords, entries: make([]entry, 0, len(docs))}
	for _, d := range docs {
		text := strings.Join(strings.Fields(d.Text), " ")
		toks := tokenize(text, o.stopwords)
		if len(toks) == 0 {
			continue
		}
		ix.entries = append(ix.entries, entry{
			id:     d.ID,
			text:   text,
			runes:  utf8.RuneCountInString(text),
			tokens: toks,
		})
	}
	return ix
}

func (ix *index) Len() int { return len(ix.entries) }

// TopK returns up to k matches, best first. Ties go to the shorter text,
// then the lower id. A non-positive k means 3.
func (ix *index) TopK(query string, k int) []Result {
	if len(ix.entries) == 0 {
		return nil
	}
	q := tokenize(query, ix.stop)
	if len(q) == 0 {
		return nil
	}
	if k <= 0 {
		k = 3
	}

	var hits []Result
	var lens []int
	for _, e := range ix.entries {
		shared := intersect(q, e.tokens)
		if shared == 0 {
			continue
		}
		hits = append(hits, Result{
			ID:    e.id,
			Text:  e.text,
			Score: float64(shared) / float64(len(q)+len(e.tokens)-shared),
		})
		lens = append(lens, e.runes)
	}
	if len(hits) == 0 {
		return nil
	}

	order := make([]int, len(hits))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		x, y := order[a], order[b]
		switch {
		case hits[x].Score != hits[y].Score:
			return hits[x].Score > hits[y].Score
		case lens[x] != lens[y]:
			return lens[x] < lens[y]
		}
		return hits[x].ID < hits[y].ID
	})

	out := make([]Result, 0, min(k, len(hits)))
	for _, i := range order[:min(k, len(hits))] {
		out = append(out, hits[i])
	}
	return out
}

var wordRE = regexp.MustCompile(`\p{L}+\p{N}*|\p{N}+`)

// tokenize folds case, splits into words, drops stop words and trims
// simple plurals.
func tokenize(s string, stop map[string]struct{}) map[string]struct{} {
	// A Caser is stateful, so each call gets its own.
	words := wordRE.FindAllString(cases.Fold().String(s), -1)
	if len(words) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		w = singular(w)
		if _, skip := stop[w]; skip {
			continue
		}
		out[w] = struct{}{}
	}
	return out
}

// singular drops one trailing "s" from words longer than three letters,
// except after another "s".
func singular(w string) string {
	if len(w) > 3 && strings.HasSuffix(w, "s") && !strings.HasSuffix(w, "ss") {
		return w[:len(w)-1]
	}
	return w
}

func intersect(a, b map[string]struct{}) int {
	if len(a) > len(b) {
		a, b = b, a
	}
	n := 0
	for t := range a {
		if _, ok := b[t]; ok {
			n++
		}
	}
	return n
}
