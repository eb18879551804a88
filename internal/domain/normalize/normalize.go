// Package normalize implements the Attribute Normalizer: it converts raw
// roster attribute cells into the canonical encodings the Constraint
// Compiler builds against — stable integer category ids with per-participant
// admissible sets for discrete attributes, and bounded integers for numeric
// attributes — plus the population priors diversify needs.
package normalize

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/okian/cuju/internal/domain/constraintspec"
	"github.com/okian/cuju/internal/domain/engineerr"
	"github.com/okian/cuju/internal/domain/roster"
)

// Discrete is the canonical encoding of one discrete attribute.
type Discrete struct {
	Attribute string
	// Values holds V(A): the distinct observed values, in stable id order.
	Values []string
	// Admissible[i] holds S(i,A): the value ids admissible for participant i.
	Admissible [][]int
	// PopCount[v] is |{i : v in S(i,A)}|, used by diversify.
	PopCount []int
}

// Numeric is the canonical encoding of one numeric attribute used by
// cluster_numeric.
type Numeric struct {
	Attribute string
	// Values[i] is the rounded integer value for participant i.
	Values []int64
	Min    int64
	Max    int64
}

// Set normalizes every attribute referenced by spec against r. Discrete
// results are keyed by attribute name for cluster/different/diversify;
// Numeric results are keyed by attribute name for cluster_numeric.
type Set struct {
	Discrete map[string]Discrete
	Numeric  map[string]Numeric
}

// Build runs the normalizer over every attribute spec references. It
// assumes spec.Validate(r) and r.Validate() have already passed (attribute
// presence and roster shape), and focuses on value-level concerns: empty
// domains and non-numeric coercion.
func Build(r roster.Roster, spec constraintspec.Spec) (Set, error) {
	out := Set{
		Discrete: make(map[string]Discrete),
		Numeric:  make(map[string]Numeric),
	}
	for _, c := range spec {
		switch c.Kind {
		case constraintspec.ClusterNumeric:
			if _, done := out.Numeric[c.Attribute]; done {
				continue
			}
			n, err := buildNumeric(r, c.Attribute)
			if err != nil {
				return Set{}, err
			}
			out.Numeric[c.Attribute] = n
		case constraintspec.Cluster, constraintspec.Different, constraintspec.Diversify:
			if _, done := out.Discrete[c.Attribute]; done {
				continue
			}
			d, err := buildDiscrete(r, c.Attribute)
			if err != nil {
				return Set{}, err
			}
			out.Discrete[c.Attribute] = d
		}
	}
	return out, nil
}

func buildDiscrete(r roster.Roster, attr string) (Discrete, error) {
	valueSet := make(map[string]struct{})
	raw := make([][]string, len(r))
	for i, p := range r {
		vals, ok := roster.RawValues(p, attr)
		if !ok {
			return Discrete{}, fmt.Errorf("%w: attribute %q missing on participant %q", engineerr.ErrBadRequest, attr, p.ID)
		}
		strs := make([]string, 0, len(vals))
		for _, v := range vals {
			s := canonicalString(v)
			strs = append(strs, s)
			valueSet[s] = struct{}{}
		}
		raw[i] = strs
	}
	if len(valueSet) == 0 {
		return Discrete{}, fmt.Errorf("%w: attribute %q has no observed values", engineerr.ErrEmptyDomain, attr)
	}

	values := make([]string, 0, len(valueSet))
	for v := range valueSet {
		values = append(values, v)
	}
	sort.Strings(values)

	index := make(map[string]int, len(values))
	for id, v := range values {
		index[v] = id
	}

	admissible := make([][]int, len(r))
	popCount := make([]int, len(values))
	for i, strs := range raw {
		ids := make([]int, 0, len(strs))
		present := make(map[int]struct{}, len(strs))
		for _, s := range strs {
			id := index[s]
			if _, dup := present[id]; dup {
				continue
			}
			present[id] = struct{}{}
			ids = append(ids, id)
			popCount[id]++
		}
		sort.Ints(ids)
		admissible[i] = ids
	}

	return Discrete{Attribute: attr, Values: values, Admissible: admissible, PopCount: popCount}, nil
}

func buildNumeric(r roster.Roster, attr string) (Numeric, error) {
	values := make([]int64, len(r))
	min, max := int64(math.MaxInt64), int64(math.MinInt64)
	for i, p := range r {
		raw, ok := p.Attributes[attr]
		if !ok {
			return Numeric{}, fmt.Errorf("%w: attribute %q missing on participant %q", engineerr.ErrBadRequest, attr, p.ID)
		}
		n, err := coerceInt(raw)
		if err != nil {
			return Numeric{}, fmt.Errorf("%w: attribute %q on participant %q: %s", engineerr.ErrNonNumericAttribute, attr, p.ID, err)
		}
		values[i] = n
		if n < min {
			min = n
		}
		if n > max {
			max = n
		}
	}
	return Numeric{Attribute: attr, Values: values, Min: min, Max: max}, nil
}

// coerceInt rounds half to even, matching the specification's requirement
// for numeric-cluster coercion.
func coerceInt(v any) (int64, error) {
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0, fmt.Errorf("non-finite value %v", t)
		}
		return int64(math.RoundToEven(t)), nil
	case int:
		return int64(t), nil
	case int64:
		return t, nil
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0, fmt.Errorf("value %q is not numeric", t)
		}
		return int64(math.RoundToEven(f)), nil
	default:
		return 0, fmt.Errorf("value %v (%T) is not numeric", v, v)
	}
}

func canonicalString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return "false"
	case float64:
		if t == math.Trunc(t) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'g', -1, 64)
	default:
		return fmt.Sprintf("%v", t)
	}
}
