package domain

import (
	"fmt"
	"strings"
)

// Show is a TV show tracked on Trakt. Listeners receive it whenever the
// library copy of a show is refreshed or dropped.
type Show struct {
	TVDBID string `json:"tvdb_id"`
	Title  string `json:"title"`
	Year   int    `json:"year,omitempty"`
}

// NewShow creates a validated Show.
func NewShow(tvdbID, title string, year int) (Show, error) {
	show := Show{
		TVDBID: strings.TrimSpace(tvdbID),
		Title:  strings.TrimSpace(title),
		Year:   year,
	}

	if err := show.Validate(); err != nil {
		return Show{}, err
	}

	return show, nil
}

// Validate checks that the show can be identified.
func (s Show) Validate() error {
	if s.TVDBID == "" {
		return fmt.Errorf("%w: %w", ErrValidation, ErrEmptyShowID)
	}
	if s.Title == "" {
		return fmt.Errorf("%w: %w", ErrValidation, ErrEmptyShowTitle)
	}
	return nil
}

// String returns "Title (Year)" or just the title when the year is unknown.
func (s Show) String() string {
	if s.Year > 0 {
		return fmt.Sprintf("%s (%d)", s.Title, s.Year)
	}
	return s.Title
}
