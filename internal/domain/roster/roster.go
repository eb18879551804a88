// Package roster defines the participant data model: an opaque identifier
// plus a mapping from attribute name to attribute value, and the structural
// validation that runs before any attribute is normalized.
package roster

import (
	"context"
	"fmt"
	"strings"

	"github.com/okian/cuju/internal/domain/dedupe"
	"github.com/okian/cuju/internal/domain/engineerr"
)

// MinParticipants is the smallest roster the engine will accept (spec: N >= 3).
const MinParticipants = 3

// ListSuffix marks an attribute name as multi-valued: its cell accepts either
// a JSON array or a semicolon-delimited string, both producing the same
// admissible value set.
const ListSuffix = "_list"

// Participant is one row of the roster. Attributes holds raw JSON-decoded
// values: string, bool, float64 (numbers), or []any / string for multi-value
// (ListSuffix) attributes.
type Participant struct {
	ID         string
	Attributes map[string]any
}

// Roster is an ordered sequence of participants. Order is preserved end to
// end so symmetry-broken assignments remain deterministic for a given input.
type Roster []Participant

// IsList reports whether attribute name denotes a multi-valued cell.
func IsList(attr string) bool {
	return strings.HasSuffix(attr, ListSuffix)
}

// Validate checks structural shape: minimum size and duplicate identifiers.
// dedupeSize bounds the identifier guard's memory (<=0 means unbounded,
// appropriate for the common case of one small roster per solve); a positive
// value protects the process against a single pathologically large payload.
// Per-constraint attribute coverage (MissingAttribute, EmptyDomain,
// NonNumericAttribute) is the Attribute Normalizer's job, since it requires
// knowing which attributes are actually referenced by the constraint spec.
func (r Roster) Validate(dedupeSize int) error {
	if len(r) < MinParticipants {
		return fmt.Errorf("%w: roster has %d participants, need at least %d", engineerr.ErrBadRequest, len(r), MinParticipants)
	}
	seen := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(dedupeSize))
	ctx := context.Background()
	for _, p := range r {
		if strings.TrimSpace(p.ID) == "" {
			return fmt.Errorf("%w: participant missing identifier", engineerr.ErrBadRequest)
		}
		if seen.SeenAndRecord(ctx, p.ID) {
			return fmt.Errorf("%w: duplicate participant id %q", engineerr.ErrBadRequest, p.ID)
		}
	}
	return nil
}

// RawValues returns the unparsed representation of attr for participant p:
// for list attributes, a slice of strings; otherwise, the single scalar.
// A missing attribute yields ok == false.
func RawValues(p Participant, attr string) (values []any, ok bool) {
	v, present := p.Attributes[attr]
	if !present {
		return nil, false
	}
	if !IsList(attr) {
		return []any{v}, true
	}
	switch t := v.(type) {
	case []any:
		return t, true
	case string:
		parts := strings.Split(t, ";")
		out := make([]any, 0, len(parts))
		for _, part := range parts {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			out = append(out, part)
		}
		return out, true
	default:
		return []any{t}, true
	}
}
