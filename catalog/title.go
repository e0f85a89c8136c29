package catalog

// Genre is a genre tag attached to a title
type Genre struct {
	ID   int    `json:"genre_id"`
	Name string `json:"genre_name"`
}

// Ranking is the numeric score of a title plus its display label
type Ranking struct {
	Value float64 `json:"ranking_value"`
	Name  string  `json:"ranking_name"`
}

// Title is a catalog entry (anime or movie).
// Field names match the records the browser client keeps in local storage.
type Title struct {
	ID          string  `json:"imdb_id"`
	Title       string  `json:"title"`
	PosterPath  string  `json:"poster_path"`
	Genres      []Genre `json:"genre"`
	Ranking     Ranking `json:"ranking"`
	AdminReview string  `json:"admin_review,omitempty"`
	YouTubeID   string  `json:"youtube_id,omitempty"`
}

// HasGenre reports whether the title is tagged with the named genre
func (t Title) HasGenre(name string) bool {
	for _, g := range t.Genres {
		if g.Name == name {
			return true
		}
	}
	return false
}

// HasVideo reports whether a trailer can be played for the title
func (t Title) HasVideo() bool {
	return t.YouTubeID != ""
}
