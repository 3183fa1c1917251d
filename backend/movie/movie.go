package movie

import "unicode/utf8"

const (
	// MaxTitleLen is the longest accepted movie title, in characters.
	MaxTitleLen = 60
	// YearLen is the number of characters a release year renders as.
	YearLen = 4
)

// Movie represents one watchlist entry.
type Movie struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	Year  string `json:"year"`
}

type Database interface {
	GetMovies() ([]Movie, error)
	GetMovie(id int) (*Movie, error)
	AddMovie(title, year string) error
	UpdateMovie(id int, title, year string) error
	DeleteMovie(id int) error
}

// ValidTitle reports whether a submitted title is non-empty and within bounds.
func ValidTitle(title string) bool {
	return title != "" && utf8.RuneCountInString(title) <= MaxTitleLen
}

// ValidNewYear accepts any non-empty year up to four characters. The create
// form is historically laxer than the edit form; see ValidEditYear.
func ValidNewYear(year string) bool {
	return year != "" && utf8.RuneCountInString(year) <= YearLen
}

// ValidEditYear demands exactly four characters.
func ValidEditYear(year string) bool {
	return utf8.RuneCountInString(year) == YearLen
}
