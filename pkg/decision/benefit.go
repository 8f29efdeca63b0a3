package decision

import "fmt"

// Benefit is the ordered value used to rank candidate assignments. It is
// either a finite float or the distinguished Infinite top element used
// for hard constraints (MustRun, unmet minimum resources). Infinite is
// not a sentinel float: two Infinites are always equal and Infinite
// compares above every finite value regardless of representation.
type Benefit struct {
	infinite bool
	value    float64
}

// Finite wraps a scalar benefit.
func Finite(v float64) Benefit { return Benefit{value: v} }

// Infinite is the top element of the benefit order.
func Infinite() Benefit { return Benefit{infinite: true} }

// IsInfinite reports whether b is the top element.
func (b Benefit) IsInfinite() bool { return b.infinite }

// Value returns the finite scalar; 0 for Infinite.
func (b Benefit) Value() float64 {
	if b.infinite {
		return 0
	}
	return b.value
}

// Compare returns -1, 0 or +1 as b orders below, equal to, or above o.
func (b Benefit) Compare(o Benefit) int {
	switch {
	case b.infinite && o.infinite:
		return 0
	case b.infinite:
		return 1
	case o.infinite:
		return -1
	case b.value < o.value:
		return -1
	case b.value > o.value:
		return 1
	default:
		return 0
	}
}

func (b Benefit) String() string {
	if b.infinite {
		return "inf"
	}
	return fmt.Sprintf("%.3f", b.value)
}
