package model

// Movie is the normalized view of a movie returned by the metadata
// provider.  Runtime is in minutes and may be zero when the provider
// does not know it.
type Movie struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Runtime     int    `json:"runtime"`
	PosterPath  string `json:"poster_path"`
	Overview    string `json:"overview,omitempty"`
	ReleaseDate string `json:"release_date,omitempty"`
}

// MovieSummary is the denormalized snapshot embedded in a watch party at
// creation time.  It is never refreshed afterwards.
type MovieSummary struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	Runtime    int    `json:"runtime"`
	PosterPath string `json:"poster_path"`
}

// Summary returns the snapshot stored on watch parties and buckets.
func (m Movie) Summary() MovieSummary {
	return MovieSummary{ID: m.ID, Title: m.Title, Runtime: m.Runtime, PosterPath: m.PosterPath}
}
