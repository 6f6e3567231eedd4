// Package codec converts week fields to and from the flat text used by the
// edit form.
//
// Decoding is permissive and lossy: empty tags and link lines with fewer than
// two parts are dropped without an error. A value that contains its own
// delimiter ("," in a tag, "|" or a newline in a link) does not survive an
// encode/decode round trip.
package codec

import (
	"strings"

	"github.com/starford/weekboard/internal/models"
)

const (
	tagSep      = ","
	tagJoin     = ", "
	linkLineSep = "\n"
	linkPartSep = "|"
)

// Form is the flat text representation of a week as presented for editing.
type Form struct {
	Number      string `json:"number"`
	Title       string `json:"title"`
	Subtitle    string `json:"subtitle"`
	Description string `json:"description"`
	Tags        string `json:"tags"`
	Links       string `json:"links"`
}

// EncodeForm fills a form from a week.
func EncodeForm(w models.Week) Form {
	return Form{
		Number:      w.Number,
		Title:       w.Title,
		Subtitle:    w.Subtitle,
		Description: w.Description,
		Tags:        EncodeTags(w.Tags),
		Links:       EncodeLinks(w.Links),
	}
}

// DecodeForm parses a submitted form into editable fields. Form.Number is
// ignored; the number of a week never changes through the form.
func DecodeForm(f Form) models.Fields {
	return models.Fields{
		Title:       f.Title,
		Subtitle:    f.Subtitle,
		Description: f.Description,
		Tags:        DecodeTags(f.Tags),
		Links:       DecodeLinks(f.Links),
	}
}

// EncodeTags joins tags with ", ".
func EncodeTags(tags []string) string {
	return strings.Join(tags, tagJoin)
}

// DecodeTags splits on ",", trims each piece and drops empty pieces.
func DecodeTags(s string) []string {
	out := []string{}
	if s == "" {
		return out
	}
	for _, piece := range strings.Split(s, tagSep) {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			continue
		}
		out = append(out, piece)
	}
	return out
}

// EncodeLinks writes one "text|url|type" line per link.
func EncodeLinks(links []models.Link) string {
	lines := make([]string, len(links))
	for i, l := range links {
		lines[i] = strings.Join([]string{l.Text, l.URL, l.Type}, linkPartSep)
	}
	return strings.Join(lines, linkLineSep)
}

// DecodeLinks parses "text|url[|type]" lines. Blank lines are skipped, lines
// with fewer than two parts are dropped and a missing or empty type becomes
// models.DefaultLinkType.
func DecodeLinks(s string) []models.Link {
	out := []models.Link{}
	if s == "" {
		return out
	}
	for _, line := range strings.Split(s, linkLineSep) {
		if strings.TrimSpace(line) == "" {
			continue
		}
		parts := strings.Split(line, linkPartSep)
		if len(parts) < 2 {
			continue
		}
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		link := models.Link{Text: parts[0], URL: parts[1], Type: models.DefaultLinkType}
		if len(parts) > 2 && parts[2] != "" {
			link.Type = parts[2]
		}
		out = append(out, link)
	}
	return out
}
