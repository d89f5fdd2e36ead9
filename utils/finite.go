package utils

import "math"

// FiniteXY は両座標が有限値（NaN・Infでない）かを返します。
func FiniteXY(x, y float64) bool {
	return IsFinite(x) && IsFinite(y)
}

func IsFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
