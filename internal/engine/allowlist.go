package engine

import (
	"strings"

	"github.com/denamwangi/katy-trail-live/internal/model"
)

// Allowlist resolves sightings to tracked-tag identities. Matching is
// case-insensitive everywhere, but the identity returned always carries
// the casing from the operator's configuration, so window keys stay
// stable no matter how a tag advertises itself packet to packet.
type Allowlist struct {
	canonical []string
	byFolded  map[string]string // lower(entry) -> canonical
	byUpper   map[string]string // upper(entry) -> canonical
	exact     map[string]string
}

func NewAllowlist(entries []string) *Allowlist {
	a := &Allowlist{
		byFolded: make(map[string]string, len(entries)),
		byUpper:  make(map[string]string, len(entries)),
		exact:    make(map[string]string, len(entries)),
	}
	for _, raw := range entries {
		entry := strings.TrimSpace(raw)
		if entry == "" {
			continue
		}
		folded := strings.ToLower(entry)
		if _, dup := a.byFolded[folded]; dup {
			// Same identity in different casing, keep the first.
			continue
		}
		a.canonical = append(a.canonical, entry)
		a.byFolded[folded] = entry
		a.byUpper[strings.ToUpper(entry)] = entry
		a.exact[entry] = entry
	}
	return a
}

func (a *Allowlist) Len() int {
	return len(a.canonical)
}

// Tags returns the tracked identities in configured order.
func (a *Allowlist) Tags() []string {
	out := make([]string, len(a.canonical))
	copy(out, a.canonical)
	return out
}

// Resolve runs the matcher chain in order: advertised name (exact, then
// case-folded), advertised service identifiers, then the hardware address
// as a fallback for tags that advertise a fixed pre-registered address.
// First match wins.
func (a *Allowlist) Resolve(s model.Sighting) (string, bool) {
	for _, match := range []func(model.Sighting) (string, bool){
		a.matchNameExact,
		a.matchNameFolded,
		a.matchServiceIDs,
		a.matchAddress,
	} {
		if tag, ok := match(s); ok {
			return tag, true
		}
	}
	return "", false
}

func (a *Allowlist) matchNameExact(s model.Sighting) (string, bool) {
	if s.Name == "" {
		return "", false
	}
	tag, ok := a.exact[s.Name]
	return tag, ok
}

func (a *Allowlist) matchNameFolded(s model.Sighting) (string, bool) {
	if s.Name == "" {
		return "", false
	}
	tag, ok := a.byFolded[strings.ToLower(s.Name)]
	return tag, ok
}

func (a *Allowlist) matchServiceIDs(s model.Sighting) (string, bool) {
	for _, id := range s.ServiceIDs {
		if id == "" {
			continue
		}
		if tag, ok := a.byUpper[strings.ToUpper(id)]; ok {
			return tag, true
		}
	}
	return "", false
}

func (a *Allowlist) matchAddress(s model.Sighting) (string, bool) {
	if s.Address == "" {
		return "", false
	}
	tag, ok := a.byUpper[strings.ToUpper(s.Address)]
	return tag, ok
}
