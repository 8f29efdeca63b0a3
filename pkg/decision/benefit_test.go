package decision_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/TheRev45/IzziAutomationAIP/pkg/decision"
)

func TestInfiniteBeatsEveryFinite(t *testing.T) {
	for _, v := range []float64{-1e18, 0, 0.001, 42, 1e18} {
		assert.Equal(t, 1, decision.Infinite().Compare(decision.Finite(v)))
		assert.Equal(t, -1, decision.Finite(v).Compare(decision.Infinite()))
	}
}

func TestTwoInfinitesAreEqual(t *testing.T) {
	assert.Equal(t, 0, decision.Infinite().Compare(decision.Infinite()))
}

func TestFinitesCompareByValue(t *testing.T) {
	assert.Equal(t, -1, decision.Finite(1).Compare(decision.Finite(2)))
	assert.Equal(t, 1, decision.Finite(2).Compare(decision.Finite(1)))
	assert.Equal(t, 0, decision.Finite(1.5).Compare(decision.Finite(1.5)))
	// Small fractional differences must still order.
	assert.Equal(t, 1, decision.Finite(1.01).Compare(decision.Finite(1.001)))
}

// compare(a, b) == -compare(b, a) over a representative grid.
func TestCompareIsAntisymmetric(t *testing.T) {
	values := []decision.Benefit{
		decision.Infinite(),
		decision.Finite(-3),
		decision.Finite(0),
		decision.Finite(0.5),
		decision.Finite(7),
	}
	for _, a := range values {
		for _, b := range values {
			assert.Equal(t, a.Compare(b), -b.Compare(a), "a=%v b=%v", a, b)
		}
	}
}
