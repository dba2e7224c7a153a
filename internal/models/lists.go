package models

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// StringList decodes from a JSON array, from a string holding a JSON array,
// or from a single plain string.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*l = nil
		return nil
	}

	var values []any

	if err := json.Unmarshal(data, &values); err == nil {
		*l = stringify(values)
		return nil
	}

	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("expected an array or a string")
	}

	if raw == nil || *raw == "" {
		*l = nil
		return nil
	}

	if err := json.Unmarshal([]byte(*raw), &values); err == nil {
		*l = stringify(values)
		return nil
	}

	*l = StringList{*raw}
	return nil
}

func stringify(values []any) StringList {
	out := make(StringList, 0, len(values))
	for _, v := range values {
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok {
			out = append(out, s)
			continue
		}
		out = append(out, fmt.Sprint(v))
	}
	return out
}

// Clean trims every entry and drops the empty ones, keeping order.
func Clean(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Unique removes duplicates, keeping the first occurrence of each value.
func Unique(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func nilIfBlank(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// Normalize trims the title so that a blank one fails validation.
func (r *HandleBookRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
}

// Book converts the request into a book owned by userId. Blank optional
// strings become null and tags are de-duplicated. Authors are stored as
// sent. Status defaults to to_read.
func (r *HandleBookRequest) Book(userId uuid.UUID) *Book {
	status := r.Status
	if status == "" {
		status = StatusToRead
	}

	return &Book{
		UserId:           userId,
		Title:            strings.TrimSpace(r.Title),
		Authors:          []string(r.Authors),
		Isbn:             nilIfBlank(r.Isbn),
		Publisher:        nilIfBlank(r.Publisher),
		Year:             r.Year,
		CoverUrl:         nilIfBlank(r.CoverUrl),
		Category:         nilIfBlank(r.Category),
		Tags:             Unique(Clean(r.Tags)),
		DescriptionNotes: nilIfBlank(r.DescriptionNotes),
		Status:           status,
		Rating:           r.Rating,
		TotalPages:       r.TotalPages,
		CurrentPage:      r.CurrentPage,
		StartDate:        nilIfBlank(r.StartDate),
		EndDate:          nilIfBlank(r.EndDate),
	}
}
