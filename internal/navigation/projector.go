// Package navigation projects the static menus onto a role.
package navigation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roadassist/portal/internal/identity"
	"github.com/roadassist/portal/internal/routes"
)

// DefaultPrimaryItems is the number of entries rendered inline.
const DefaultPrimaryItems = 6

// Projection is the visible navigation for one role.
type Projection struct {
	Primary  []Entry
	Overflow []Entry
	// Mobile is the full filtered list shown in the mobile sheet.
	Mobile []Entry
}

// HasOverflow reports whether the overflow disclosure should render.
func (p Projection) HasOverflow() bool {
	return len(p.Overflow) > 0
}

// Project keeps the entries that list role, in their original order, and
// splits them after the first k.
func Project(entries []Entry, role identity.Role, k int) Projection {
	if k < 0 {
		k = 0
	}
	visible := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.Roles.Has(role) {
			visible = append(visible, e)
		}
	}
	split := k
	if split > len(visible) {
		split = len(visible)
	}
	return Projection{
		Primary:  visible[:split:split],
		Overflow: append([]Entry(nil), visible[split:]...),
		Mobile:   visible,
	}
}

// MarkActive returns a copy of entries with the entry owning path flagged.
// The longest matching entry path wins.
func MarkActive(entries []Entry, path string) []Entry {
	out := clone(entries)
	best := -1
	for i, e := range out {
		out[i].Active = false
		if e.Path == path || strings.HasPrefix(path, strings.TrimSuffix(e.Path, "/")+"/") {
			if best < 0 || len(e.Path) > len(out[best].Path) {
				best = i
			}
		}
	}
	if best >= 0 {
		out[best].Active = true
	}
	return out
}

// Validate checks that every entry has a known icon, points at a registered
// route, and lists only roles that route admits.
func Validate(entries []Entry) error {
	var errs []error
	for _, e := range entries {
		if _, ok := e.Icon.Symbol(); !ok {
			errs = append(errs, fmt.Errorf("navigation: %q: unknown icon %s", e.Label, e.Icon))
		}
		d, ok := routes.Lookup(e.Path)
		if !ok {
			errs = append(errs, fmt.Errorf("navigation: %q: unregistered path %s", e.Label, e.Path))
			continue
		}
		if e.Roles.Empty() {
			errs = append(errs, fmt.Errorf("navigation: %q: no roles", e.Label))
		}
		for _, role := range e.Roles {
			if !d.Allows(role) {
				errs = append(errs, fmt.Errorf("navigation: %q: route %s excludes %s", e.Label, e.Path, role))
			}
		}
	}
	return errors.Join(errs...)
}
