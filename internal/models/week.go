// Package models defines the domain types for weekboard.
package models

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Defaults applied when a collection is generated or a week is reset.
const (
	DefaultCount       = 16
	DefaultTitlePrefix = "Week"
	DefaultBadge       = "New"
	DefaultLinkType    = "link"
)

// Week is one entry of the collection. The JSON keys match the stored blob.
type Week struct {
	Number      string   `json:"number"`
	Title       string   `json:"title"`
	Subtitle    string   `json:"subtitle"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Links       []Link   `json:"links"`
	Badge       string   `json:"badge"`
}

// Link is a labelled URL attached to a week.
type Link struct {
	Text string `json:"text"`
	URL  string `json:"url"`
	Type string `json:"type"` // "link" unless the editor says otherwise
}

// Fields holds the editable part of a week. Number and badge are not editable.
type Fields struct {
	Title       string
	Subtitle    string
	Description string
	Tags        []string
	Links       []Link
}

// Template produces default weeks.
type Template struct {
	TitlePrefix string
	Badge       string
}

// DefaultTemplate returns the template used when no configuration overrides it.
func DefaultTemplate() Template {
	return Template{TitlePrefix: DefaultTitlePrefix, Badge: DefaultBadge}
}

// FormatNumber returns the zero-padded two-digit label for position i (1-based).
func FormatNumber(i int) string {
	return fmt.Sprintf("%02d", i)
}

// Title applies the title template to a number label ("03" -> "Week 3").
// Labels that are not numeric are used as-is.
func (t Template) Title(number string) string {
	label := number
	if n, err := strconv.Atoi(strings.TrimSpace(number)); err == nil {
		label = strconv.Itoa(n)
	}
	if t.TitlePrefix == "" {
		return label
	}
	return t.TitlePrefix + " " + label
}

// Week returns a default week carrying the given number.
func (t Template) Week(number string) Week {
	return Week{
		Number: number,
		Title:  t.Title(number),
		Tags:   []string{},
		Links:  []Link{},
		Badge:  t.Badge,
	}
}

// Collection returns count default weeks numbered "01".."NN".
func (t Template) Collection(count int) []Week {
	out := make([]Week, 0, count)
	for i := 1; i <= count; i++ {
		out = append(out, t.Week(FormatNumber(i)))
	}
	return out
}

// Clone returns a deep copy of w.
func (w Week) Clone() Week {
	c := w
	c.Tags = append([]string{}, w.Tags...)
	c.Links = append([]Link{}, w.Links...)
	return c
}

// Normalize replaces nil slices with empty ones so the week serializes with
// [] instead of null.
func (w *Week) Normalize() {
	if w.Tags == nil {
		w.Tags = []string{}
	}
	if w.Links == nil {
		w.Links = []Link{}
	}
}

// Fields returns the editable part of w.
func (w Week) Fields() Fields {
	c := w.Clone()
	return Fields{
		Title:       c.Title,
		Subtitle:    c.Subtitle,
		Description: c.Description,
		Tags:        c.Tags,
		Links:       c.Links,
	}
}

// Apply overwrites the editable fields of w, leaving Number and Badge alone.
func (w *Week) Apply(f Fields) {
	w.Title = f.Title
	w.Subtitle = f.Subtitle
	w.Description = f.Description
	w.Tags = append([]string{}, f.Tags...)
	w.Links = append([]Link{}, f.Links...)
}

// HasTag reports whether tag is one of the week's tags.
func (w Week) HasTag(tag string) bool {
	return slices.Contains(w.Tags, tag)
}
