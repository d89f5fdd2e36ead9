package utils

import (
	"math"
	"testing"
)

func TestFiniteXY(t *testing.T) {
	cases := []struct {
		name string
		x, y float64
		want bool
	}{
		{"both finite", 1, -2.5, true},
		{"zero", 0, 0, true},
		{"nan x", math.NaN(), 0, false},
		{"nan y", 0, math.NaN(), false},
		{"positive inf", math.Inf(1), 0, false},
		{"negative inf", 0, math.Inf(-1), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := FiniteXY(tc.x, tc.y); got != tc.want {
				t.Errorf("FiniteXY(%v, %v) = %v, want %v", tc.x, tc.y, got, tc.want)
			}
		})
	}
}
