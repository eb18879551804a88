// Package constraintspec declares the weighted constraint records the
// engine compiles against a roster: attribute name, kind, and weight.
package constraintspec

import (
	"fmt"

	"github.com/okian/cuju/internal/domain/engineerr"
	"github.com/okian/cuju/internal/domain/roster"
)

// Kind enumerates the four constraint encodings the Constraint Compiler
// understands.
type Kind string

// Supported constraint kinds.
const (
	Cluster        Kind = "cluster"
	ClusterNumeric Kind = "cluster_numeric"
	Different      Kind = "different"
	Diversify      Kind = "diversify"
)

func (k Kind) valid() bool {
	switch k {
	case Cluster, ClusterNumeric, Different, Diversify:
		return true
	default:
		return false
	}
}

// Constraint is one weighted objective term over a single attribute.
type Constraint struct {
	Attribute string
	Kind      Kind
	Weight    float64
}

// Spec is the ordered sequence of constraints compiled into one model.
type Spec []Constraint

// Validate checks that every constraint names a supported kind, carries a
// positive weight, and references an attribute present on every participant.
// It does not inspect attribute values; that is the Attribute Normalizer's
// responsibility (EmptyDomain, NonNumericAttribute).
func (s Spec) Validate(r roster.Roster) error {
	for _, c := range s {
		if !c.Kind.valid() {
			return fmt.Errorf("%w: unknown constraint kind %q", engineerr.ErrBadRequest, c.Kind)
		}
		if c.Weight <= 0 {
			return fmt.Errorf("%w: constraint %s/%s has non-positive weight %v", engineerr.ErrBadRequest, c.Attribute, c.Kind, c.Weight)
		}
		for _, p := range r {
			if _, ok := p.Attributes[c.Attribute]; !ok {
				return fmt.Errorf("%w: attribute %q missing on participant %q", engineerr.ErrBadRequest, c.Attribute, p.ID)
			}
		}
	}
	return nil
}
