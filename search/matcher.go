package search

import (
	"sort"
	"strings"
	"sync"

	"partstream/models"

	"github.com/agnivade/levenshtein"
)

// Match is a catalog product paired with its dissimilarity score
// (0 = perfect, 1 = unrelated).
type Match struct {
	Product models.Product
	Score   float64
}

// Matcher is a typo-tolerant index over the product catalog. It matches the
// query against name, code and category, case-insensitively and allowing
// minor misspellings. The index is explicitly owned state: callers must
// Rebuild it whenever the catalog changes.
type Matcher struct {
	mu      sync.RWMutex
	entries []indexEntry

	// Acceptance threshold on the 0-1 dissimilarity scale; lower is stricter.
	Threshold float64
	// Distance caps how far into a field a match is considered.
	Distance int
}

type indexEntry struct {
	product models.Product
	fields  []string
}

// NewMatcher creates an empty matcher with the tuned defaults
func NewMatcher() *Matcher {
	return &Matcher{
		Threshold: 0.3,
		Distance:  100,
	}
}

// Rebuild replaces the index contents with the given catalog
func (m *Matcher) Rebuild(catalog []models.Product) {
	entries := make([]indexEntry, 0, len(catalog))
	for _, p := range catalog {
		entries = append(entries, indexEntry{
			product: p,
			fields: []string{
				strings.ToLower(p.Name),
				strings.ToLower(p.Code),
				strings.ToLower(p.Category),
			},
		})
	}

	m.mu.Lock()
	m.entries = entries
	m.mu.Unlock()
}

// Size returns the number of indexed products
func (m *Matcher) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Search returns accepted matches ordered best first
func (m *Matcher) Search(query string) []Match {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var matches []Match
	for _, entry := range m.entries {
		score := m.scoreEntry(query, entry)
		if score <= m.Threshold {
			matches = append(matches, Match{Product: entry.product, Score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score < matches[j].Score
	})

	return matches
}

// scoreEntry is the best score across the entry's fields
func (m *Matcher) scoreEntry(query string, entry indexEntry) float64 {
	best := 1.0
	for _, field := range entry.fields {
		if field == "" {
			continue
		}
		if score := m.scoreField(query, field); score < best {
			best = score
		}
	}
	return best
}

// scoreField computes the dissimilarity between the query and one field.
// Exact substrings score near zero with a small location penalty; otherwise
// the best edit distance of a query-sized window sliding over the field is
// normalized by the query length.
func (m *Matcher) scoreField(query, field string) float64 {
	if idx := strings.Index(field, query); idx >= 0 {
		penalty := float64(idx) / float64(m.Distance)
		if penalty > 1 {
			penalty = 1
		}
		return 0.1 * penalty
	}

	qLen := len(query)
	if qLen >= len(field) {
		return normalizedDistance(query, field, qLen)
	}

	limit := len(field)
	if limit > m.Distance+qLen {
		limit = m.Distance + qLen
	}

	best := 1.0
	// Window widths around the query length absorb single insert/delete typos
	for _, width := range []int{qLen - 1, qLen, qLen + 1} {
		if width < 1 || width > limit {
			continue
		}
		for start := 0; start+width <= limit; start++ {
			score := normalizedDistance(query, field[start:start+width], qLen)
			if score < best {
				best = score
			}
		}
	}

	return best
}

func normalizedDistance(query, window string, qLen int) float64 {
	d := levenshtein.ComputeDistance(query, window)
	score := float64(d) / float64(qLen)
	if score > 1 {
		score = 1
	}
	return score
}
