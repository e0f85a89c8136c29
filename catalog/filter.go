package catalog

import (
	"sort"
	"strings"
)

// AllGenres is the genre filter value that matches every title
const AllGenres = "All"

// Query narrows a list of titles by free text and genre
type Query struct {
	Text  string
	Genre string
}

// FilterByGenre returns the titles tagged with the named genre, keeping their order
func FilterByGenre(titles []Title, name string) []Title {
	out := make([]Title, 0, len(titles))
	for _, t := range titles {
		if t.HasGenre(name) {
			out = append(out, t)
		}
	}
	return out
}

// Search returns the titles whose name contains q.Text (case-insensitive)
// and that carry q.Genre. An empty genre or AllGenres matches everything.
func Search(titles []Title, q Query) []Title {
	text := strings.ToLower(strings.TrimSpace(q.Text))
	out := make([]Title, 0, len(titles))
	for _, t := range titles {
		if text != "" && !strings.Contains(strings.ToLower(t.Title), text) {
			continue
		}
		if q.Genre != "" && q.Genre != AllGenres && !t.HasGenre(q.Genre) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// TopRated returns up to n titles ordered by ranking value, highest first.
// Ties keep their original order. n <= 0 returns every title.
func TopRated(titles []Title, n int) []Title {
	out := make([]Title, len(titles))
	copy(out, titles)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Ranking.Value > out[j].Ranking.Value
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Genres collects the distinct genres used by titles in first-seen order
func Genres(titles []Title) []Genre {
	seen := make(map[string]bool)
	out := []Genre{}
	for _, t := range titles {
		for _, g := range t.Genres {
			if seen[g.Name] {
				continue
			}
			seen[g.Name] = true
			out = append(out, g)
		}
	}
	return out
}
