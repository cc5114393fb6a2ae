// Package theme resolves the effective light/dark mode for a request.
package theme

import (
	"fmt"
	"strings"

	"github.com/roadassist/portal/internal/routes"
)

// Preference is the persisted user choice.
type Preference string

const (
	PreferenceLight  Preference = "light"
	PreferenceDark   Preference = "dark"
	PreferenceSystem Preference = "system"
)

// ParsePreference normalises raw. An empty value means system.
func ParsePreference(raw string) (Preference, error) {
	switch p := Preference(strings.ToLower(strings.TrimSpace(raw))); p {
	case "":
		return PreferenceSystem, nil
	case PreferenceLight, PreferenceDark, PreferenceSystem:
		return p, nil
	default:
		return "", fmt.Errorf("theme: unknown preference %q", raw)
	}
}

// Resolved is the effective mode for one render.
type Resolved string

const (
	Light Resolved = "light"
	Dark  Resolved = "dark"
)

// Classifier splits paths into public and private.
type Classifier struct {
	public  []string
	private []string
}

// NewClassifier builds a Classifier. The root path "/" only ever matches
// itself; any path under a private prefix is private.
func NewClassifier(public []string, private ...string) Classifier {
	return Classifier{
		public:  append([]string(nil), public...),
		private: append([]string(nil), private...),
	}
}

// DefaultClassifier classifies against the route table.
func DefaultClassifier() Classifier {
	return NewClassifier(routes.PublicPaths(), routes.PrivatePrefix)
}

// IsPublic reports whether path belongs to the public site.
func (c Classifier) IsPublic(path string) bool {
	for _, prefix := range c.private {
		if hasPathPrefix(path, prefix) {
			return false
		}
	}
	for _, prefix := range c.public {
		if prefix == "/" {
			if path == "/" {
				return true
			}
			continue
		}
		if hasPathPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Resolve computes the effective theme for path.
func (c Classifier) Resolve(pref Preference, path string, osPrefersDark bool) Resolved {
	if c.IsPublic(path) {
		return Light
	}
	switch pref {
	case PreferenceDark:
		return Dark
	case PreferenceLight:
		return Light
	default:
		if osPrefersDark {
			return Dark
		}
		return Light
	}
}

// Resolve uses DefaultClassifier.
func Resolve(pref Preference, path string, osPrefersDark bool) Resolved {
	return DefaultClassifier().Resolve(pref, path, osPrefersDark)
}

func hasPathPrefix(path, prefix string) bool {
	prefix = strings.TrimSuffix(prefix, "/")
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}
