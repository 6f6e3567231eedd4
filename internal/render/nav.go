package render

import (
	"fmt"
	"sync"

	"github.com/starford/weekboard/internal/apperr"
)

// Section is one tab of the page.
type Section struct {
	ID     string `json:"id"`
	Active bool   `json:"active"`
}

// DefaultSections are the tabs shown when none are configured.
var DefaultSections = []string{"weeks", "resources", "about"}

// Nav tracks which content section is active. Exactly one is active at a time.
type Nav struct {
	mu       sync.Mutex
	sections []string
	active   string
}

// NewNav creates a Nav over the given section ids with the first one active.
func NewNav(sections ...string) *Nav {
	if len(sections) == 0 {
		sections = DefaultSections
	}
	return &Nav{
		sections: append([]string{}, sections...),
		active:   sections[0],
	}
}

// Activate makes page the active section.
func (n *Nav) Activate(page string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, s := range n.sections {
		if s == page {
			n.active = page
			return nil
		}
	}
	return fmt.Errorf("%w: section %q", apperr.ErrNotFound, page)
}

// Active returns the active section id.
func (n *Nav) Active() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.active
}

// Sections returns every section with its active flag.
func (n *Nav) Sections() []Section {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Section, len(n.sections))
	for i, s := range n.sections {
		out[i] = Section{ID: s, Active: s == n.active}
	}
	return out
}
