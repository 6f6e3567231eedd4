// Package render turns the week collection into a declarative board that any
// front end can draw, and into a server-side HTML page.
package render

import (
	"github.com/starford/weekboard/internal/models"
)

// Board is everything a client needs to draw the page.
type Board struct {
	Sections []Section `json:"sections"`
	Active   string    `json:"active"`
	Cards    []Card    `json:"cards"`
}

// Card is one week as displayed. Empty optional parts are omitted.
type Card struct {
	Index       int          `json:"index"`
	Number      string       `json:"number"`
	Title       string       `json:"title"`
	Subtitle    string       `json:"subtitle,omitempty"`
	Badge       string       `json:"badge"`
	Description string       `json:"description,omitempty"`
	Tags        []string     `json:"tags,omitempty"`
	Links       []LinkButton `json:"links,omitempty"`
}

// LinkButton opens URL in a new tab.
type LinkButton struct {
	Text string `json:"text"`
	URL  string `json:"url"`
	Type string `json:"type"`
}

// Build renders weeks into a board. Card.Index is the position in weeks, which
// is what the edit session expects.
func Build(weeks []models.Week, nav *Nav) Board {
	cards := make([]Card, len(weeks))
	for i, w := range weeks {
		cards[i] = cardFor(i, w)
	}
	b := Board{Cards: cards}
	if nav != nil {
		b.Sections = nav.Sections()
		b.Active = nav.Active()
	}
	return b
}

// FilterByTag keeps only the cards carrying tag. Indexes are preserved.
func FilterByTag(b Board, tag string) Board {
	if tag == "" {
		return b
	}
	kept := make([]Card, 0, len(b.Cards))
	for _, c := range b.Cards {
		for _, t := range c.Tags {
			if t == tag {
				kept = append(kept, c)
				break
			}
		}
	}
	b.Cards = kept
	return b
}

func cardFor(index int, w models.Week) Card {
	c := Card{
		Index:       index,
		Number:      w.Number,
		Title:       w.Title,
		Subtitle:    w.Subtitle,
		Badge:       w.Badge,
		Description: w.Description,
	}
	if len(w.Tags) > 0 {
		c.Tags = append([]string{}, w.Tags...)
	}
	for _, l := range w.Links {
		c.Links = append(c.Links, LinkButton(l))
	}
	return c
}
