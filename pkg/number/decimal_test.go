package number

import (
	"testing"

	"github.com/bmizerany/assert"
)

func TestCeil(t *testing.T) {
	data := map[string]string{
		"0.10304":     "0.11",
		"0.100000001": "0.11",
		"0.108":       "0.11",
	}

	for k, v := range data {
		t.Run(k, func(t *testing.T) {
			c := Ceil(Decimal(k), 2)
			assert.Equal(t, v, c.String(), "should be ceil")
		})
	}
}

func TestDivFloor(t *testing.T) {
	data := map[string][3]string{
		"repeating": {"1", "3", "0.33333333"},
		"carry":     {"2", "3", "0.66666666"},
		"exact":     {"1", "4", "0.25"},
	}

	for k, v := range data {
		t.Run(k, func(t *testing.T) {
			q := DivFloor(Decimal(v[0]), Decimal(v[1]), 8)
			assert.Equal(t, v[2], q.String(), "quotient should truncate toward zero")
		})
	}
}

func TestPeriodicRate(t *testing.T) {
	r := PeriodicRate(800, 12)
	assert.Equal(t, "0.0066666666666666", r.String())

	assert.Equal(t, "0", PeriodicRate(0, 12).String())
}

func TestDailyRate(t *testing.T) {
	r := DailyRate(365)
	assert.Equal(t, "0.0001", r.String())
}
