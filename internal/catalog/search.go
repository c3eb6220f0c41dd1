package catalog

import (
	"context"
	"sort"
	"strings"
	"unicode"

	"github.com/hbollon/go-edlib"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// FuzzyThreshold is the minimum Jaro-Winkler similarity for a fuzzy title match.
const FuzzyThreshold = 0.85

const (
	titleMatchScore       = 1.0
	descriptionMatchScore = 0.9
)

// SearchResult is an item matched by Search with its relevance score in (0, 1].
type SearchResult struct {
	Item  *Item   `json:"item"`
	Score float64 `json:"score"`
}

// Search finds items whose title or description matches query.
// Matching ignores case and accents. Substring hits on the title rank first,
// then description hits, then fuzzy title matches. Ties keep creation order.
// limit <= 0 returns every match.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	q := normalizeText(query)
	if q == "" {
		return nil, invalid("query: required")
	}

	items, err := listItems(ctx, s.db, ItemFilter{})
	if err != nil {
		return nil, err
	}

	var results []SearchResult
	for _, it := range items {
		if score := matchScore(q, it); score > 0 {
			results = append(results, SearchResult{Item: it, Score: score})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func matchScore(q string, it *Item) float64 {
	title := normalizeText(it.Title)
	if strings.Contains(title, q) {
		return titleMatchScore
	}
	if strings.Contains(normalizeText(it.Description), q) {
		return descriptionMatchScore
	}

	best := float64(edlib.JaroWinklerSimilarity(q, title))
	// single-word queries are also compared against each title word
	if !strings.Contains(q, " ") {
		for _, word := range strings.Fields(title) {
			if sim := float64(edlib.JaroWinklerSimilarity(q, word)); sim > best {
				best = sim
			}
		}
	}
	if best >= FuzzyThreshold {
		// keep fuzzy hits strictly below exact ones
		return best * descriptionMatchScore
	}
	return 0
}

// normalizeText lowercases s, strips accents and keeps only letters, digits
// and single spaces.
func normalizeText(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	s, _, _ = transform.String(t, strings.ToLower(s))

	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
