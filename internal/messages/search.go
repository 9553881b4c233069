package messages

import (
	"github.com/sahilm/fuzzy"
)

// Match is a fuzzy search hit.
type Match struct {
	Category Category
	Message  string
	// MatchedIndexes are byte offsets into Message that matched the query.
	MatchedIndexes []int
	Score          int
}

type entry struct {
	cat Category
	msg string
}

type entries []entry

func (e entries) String(i int) string { return e[i].msg }
func (e entries) Len() int            { return len(e) }

// Search fuzzy-matches query against every message in the catalog, best
// matches first.
func (c *Catalog) Search(query string) []Match {
	var all entries
	for _, cat := range Categories() {
		for _, m := range c.Messages(cat) {
			all = append(all, entry{cat: cat, msg: m})
		}
	}

	found := fuzzy.FindFrom(query, all)
	out := make([]Match, 0, len(found))
	for _, f := range found {
		out = append(out, Match{
			Category:       all[f.Index].cat,
			Message:        f.Str,
			MatchedIndexes: f.MatchedIndexes,
			Score:          f.Score,
		})
	}
	return out
}
