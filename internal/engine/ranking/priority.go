// internal/engine/ranking/priority.go
package ranking

import "fmt"

// Factor identifies one tie-break criterion in the ranking cascade.
type Factor string

const (
	FactorAvailability Factor = "availability"
	FactorDistance     Factor = "distance"
	FactorScore        Factor = "score"
)

var knownFactors = map[Factor]bool{
	FactorAvailability: true,
	FactorDistance:     true,
	FactorScore:        true,
}

// PriorityOrder is a bounded ordered set of 1-3 distinct factors. The
// left-most factor decides first; later factors only break ties.
type PriorityOrder struct {
	factors []Factor
}

// DefaultPriorityOrder is the dispatch default: availability first,
// proximity second, composite score last.
func DefaultPriorityOrder() PriorityOrder {
	return PriorityOrder{factors: []Factor{FactorAvailability, FactorDistance, FactorScore}}
}

// NewPriorityOrder builds a validated order from explicit factors.
func NewPriorityOrder(factors ...Factor) (PriorityOrder, error) {
	if len(factors) == 0 {
		return PriorityOrder{}, fmt.Errorf("priority order must contain at least one factor")
	}
	seen := make(map[Factor]bool, len(factors))
	for _, f := range factors {
		if !knownFactors[f] {
			return PriorityOrder{}, fmt.Errorf("unknown priority factor %q", f)
		}
		if seen[f] {
			return PriorityOrder{}, fmt.Errorf("duplicate priority factor %q", f)
		}
		seen[f] = true
	}
	return PriorityOrder{factors: append([]Factor(nil), factors...)}, nil
}

// ParsePriorityOrder validates a raw string list from a ranking request.
// An absent list falls back to the default order.
func ParsePriorityOrder(raw []string) (PriorityOrder, error) {
	if len(raw) == 0 {
		return DefaultPriorityOrder(), nil
	}
	factors := make([]Factor, len(raw))
	for i, s := range raw {
		factors[i] = Factor(s)
	}
	return NewPriorityOrder(factors...)
}

// Factors returns a copy of the current cascade order.
func (p PriorityOrder) Factors() []Factor {
	return append([]Factor(nil), p.factors...)
}

func (p PriorityOrder) Len() int {
	return len(p.factors)
}

func (p PriorityOrder) Contains(f Factor) bool {
	for _, existing := range p.factors {
		if existing == f {
			return true
		}
	}
	return false
}

// Insert places a factor at the given position. Inserting a factor that
// is already present swaps its old slot with the target slot instead of
// duplicating it. Positions are clamped to the valid range.
func (p *PriorityOrder) Insert(f Factor, position int) error {
	if !knownFactors[f] {
		return fmt.Errorf("unknown priority factor %q", f)
	}

	existing := -1
	for i, current := range p.factors {
		if current == f {
			existing = i
			break
		}
	}

	if existing >= 0 {
		target := clampIndex(position, len(p.factors)-1)
		p.factors[existing], p.factors[target] = p.factors[target], p.factors[existing]
		return nil
	}

	target := clampIndex(position, len(p.factors))
	p.factors = append(p.factors, "")
	copy(p.factors[target+1:], p.factors[target:])
	p.factors[target] = f
	return nil
}

// Remove drops a factor. At least one factor must always remain.
func (p *PriorityOrder) Remove(f Factor) error {
	if len(p.factors) <= 1 {
		return fmt.Errorf("priority order cannot go below one factor")
	}
	for i, current := range p.factors {
		if current == f {
			p.factors = append(p.factors[:i], p.factors[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("priority factor %q not present", f)
}

// Strings returns the order as raw identifiers for the wire.
func (p PriorityOrder) Strings() []string {
	out := make([]string, len(p.factors))
	for i, f := range p.factors {
		out[i] = string(f)
	}
	return out
}

func clampIndex(i, max int) int {
	if i < 0 {
		return 0
	}
	if i > max {
		return max
	}
	return i
}
