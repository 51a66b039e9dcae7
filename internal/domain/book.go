package domain

// Author, Category and Tag are flat read views of book metadata. The
// repository returns them fully populated; nothing here ever touches
// live database rows.
type Author struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Book is the read DTO the scoring core works with. MeanRating and
// RatingsCount are aggregated at query time.
type Book struct {
	ID           int64      `json:"id"`
	Title        string     `json:"title"`
	Year         int        `json:"year,omitempty"`
	Authors      []Author   `json:"authors"`
	Categories   []Category `json:"categories"`
	Tags         []Tag      `json:"tags"`
	MeanRating   float64    `json:"mean_rating"`
	RatingsCount int        `json:"ratings_count"`
}

// AuthorNames returns the author display names in declaration order.
func (b *Book) AuthorNames() []string {
	names := make([]string, 0, len(b.Authors))
	for _, a := range b.Authors {
		names = append(names, a.Name)
	}
	return names
}

// PrimaryCategory returns the first category name, or "" when the book
// has none.
func (b *Book) PrimaryCategory() string {
	if len(b.Categories) == 0 {
		return ""
	}
	return b.Categories[0].Name
}
