// Package matcher pairs markets listed on two venues that describe the same
// real-world event.
package matcher

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/alanyoungcy/arbscanner/internal/domain"
)

// prefixRunes is how much of a normalized question has to appear in the
// other for a fuzzy match.
const prefixRunes = 20

// Matcher pairs venue-A and venue-B snapshots, first through a curated table
// and then by question similarity. It holds no mutable state.
type Matcher struct {
	pairs []domain.EventPair
}

// New returns a Matcher using the given pairing table. A nil table falls
// back to domain.DefaultEventPairs.
func New(pairs []domain.EventPair) *Matcher {
	if pairs == nil {
		pairs = domain.DefaultEventPairs()
	}
	cp := make([]domain.EventPair, len(pairs))
	copy(cp, pairs)
	return &Matcher{pairs: cp}
}

// Pairs returns a copy of the pairing table.
func (m *Matcher) Pairs() []domain.EventPair {
	cp := make([]domain.EventPair, len(m.pairs))
	copy(cp, m.pairs)
	return cp
}

// Match returns the table matches, in table order, followed by the fuzzy
// matches of venue-A snapshots the table did not use.
func (m *Matcher) Match(venueA, venueB []domain.MarketSnapshot) []domain.MatchedEvent {
	byIDA := indexByID(venueA)
	byIDB := indexByID(venueB)

	usedA := make(map[string]bool)
	usedB := make(map[string]bool)
	var out []domain.MatchedEvent

	for _, p := range m.pairs {
		a := lookup(venueA, byIDA, p.VenueAID)
		b := lookup(venueB, byIDB, p.VenueBID)
		if a == nil && b == nil {
			continue
		}
		if a != nil {
			usedA[a.ID] = true
		}
		if b != nil {
			usedB[b.ID] = true
		}
		out = append(out, domain.MatchedEvent{
			ID:        p.VenueAID + "-" + p.VenueBID,
			EventName: p.EventName,
			VenueA:    a,
			VenueB:    b,
		})
	}

	lower := cases.Lower(language.Und)
	normB := make([]string, len(venueB))
	for i := range venueB {
		normB[i] = normalize(lower, venueB[i].Question)
	}

	for i := range venueA {
		a := &venueA[i]
		if usedA[a.ID] {
			continue
		}
		qa := normalize(lower, a.Question)
		for j := range venueB {
			b := &venueB[j]
			if usedB[b.ID] {
				continue
			}
			if !similar(qa, normB[j]) {
				continue
			}
			ca, cb := *a, *b
			out = append(out, domain.MatchedEvent{
				ID:        a.ID + "-" + b.ID,
				EventName: a.Question,
				VenueA:    &ca,
				VenueB:    &cb,
			})
			break
		}
	}
	return out
}

func indexByID(ms []domain.MarketSnapshot) map[string]int {
	idx := make(map[string]int, len(ms))
	for i := range ms {
		if _, dup := idx[ms[i].ID]; !dup {
			idx[ms[i].ID] = i
		}
	}
	return idx
}

func lookup(ms []domain.MarketSnapshot, idx map[string]int, id string) *domain.MarketSnapshot {
	if id == "" {
		return nil
	}
	i, ok := idx[id]
	if !ok {
		return nil
	}
	cp := ms[i]
	return &cp
}

func normalize(lower cases.Caser, s string) string {
	return strings.TrimSpace(lower.String(s))
}

// similar reports whether two normalized questions are equal or either
// contains the leading prefixRunes runes of the other.
// Known weakness: the rule misses reworded questions and pairs unrelated
// ones that share a long preamble. Keep it as is; existing pairings rely on it.
func similar(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	if a == b {
		return true
	}
	return strings.Contains(b, prefix(a)) || strings.Contains(a, prefix(b))
}

func prefix(s string) string {
	r := []rune(s)
	if len(r) > prefixRunes {
		r = r[:prefixRunes]
	}
	return string(r)
}
