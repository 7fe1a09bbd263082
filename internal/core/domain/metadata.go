package domain

import "time"

type ImageMetadata struct {
	Path      string            `json:"path"`
	Tags      map[string]string `json:"tags"`
	DateTaken time.Time         `json:"date_taken,omitempty"`
}

func (m ImageMetadata) HasDateTaken() bool {
	return !m.DateTaken.IsZero()
}

// YearTaken returns 0 when the date is unknown.
func (m ImageMetadata) YearTaken() int {
	if m.DateTaken.IsZero() {
		return 0
	}
	return m.DateTaken.Year()
}
