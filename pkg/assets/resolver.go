package assets

import (
	"regexp"
	"strings"

	"github.com/medikart/medikart-client/pkg/types"
)

var absoluteURLPattern = regexp.MustCompile(`(?i)^https?://`)

// Resolver maps raw image references onto fully qualified URLs. It only
// computes strings; it never fetches or validates that a URL is reachable.
type Resolver struct {
	serverOrigin string
}

// New builds a resolver for the given server origin, typically
// config.APIConfig.ServerOrigin().
func New(serverOrigin string) *Resolver {
	return &Resolver{serverOrigin: strings.TrimSuffix(serverOrigin, "/")}
}

// Resolve maps a single reference. The second return is false when the
// reference is empty and the caller should render a placeholder.
func (r *Resolver) Resolve(ref string) (string, bool) {
	if ref == "" {
		return "", false
	}
	if absoluteURLPattern.MatchString(ref) {
		return ref, true
	}
	if strings.HasPrefix(ref, "/") {
		return r.serverOrigin + ref, true
	}
	// Bare storage keys, e.g. "uploads/abc.jpg".
	return r.serverOrigin + "/" + ref, true
}

// PrimaryImage picks the display image for a medicine: the first entry of
// the structured image list wins, the legacy flat field is the fallback.
func (r *Resolver) PrimaryImage(m types.Medicine) (string, bool) {
	if len(m.Images) > 0 {
		if resolved, ok := r.Resolve(m.Images[0].URL); ok {
			return resolved, true
		}
	}
	return r.Resolve(m.ImageURL)
}

// Initials derives the placeholder block shown when no image resolves.
func Initials(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Medicine"
	}
	runes := []rune(name)
	if len(runes) > 2 {
		runes = runes[:2]
	}
	return strings.ToUpper(string(runes))
}
