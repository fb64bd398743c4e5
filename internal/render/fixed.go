package render

import (
	"math"
	"math/big"
	"strconv"
	"strings"
)

// exactPrec bits hold any finite float64 below 1e21, scaled by 10^digits, plus one half.
const exactPrec = 2048

// ToFixed formats x with exactly digits fractional digits the way browsers
// format Number.prototype.toFixed: the exact binary value is rounded half up
// (away from zero), a negative value that rounds to zero keeps its sign, and
// magnitudes of 1e21 and above fall back to the shortest representation.
// digits must be between 0 and 100.
func ToFixed(x float64, digits int) string {
	if digits < 0 || digits > 100 {
		panic("render: ToFixed digits out of range: " + strconv.Itoa(digits))
	}
	if math.IsNaN(x) {
		return "NaN"
	}
	sign := ""
	if x < 0 {
		sign = "-"
		x = -x
	}
	if math.IsInf(x, 1) {
		return sign + "Infinity"
	}
	if x >= 1e21 {
		return sign + strconv.FormatFloat(x, 'g', -1, 64)
	}

	scale := new(big.Float).SetPrec(exactPrec).SetInt(
		new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil))
	y := new(big.Float).SetPrec(exactPrec).SetFloat64(x)
	y.Mul(y, scale)
	y.Add(y, big.NewFloat(0.5))
	n, _ := y.Int(nil)

	m := n.String()
	if digits == 0 {
		return sign + m
	}
	if len(m) <= digits {
		m = strings.Repeat("0", digits+1-len(m)) + m
	}
	return sign + m[:len(m)-digits] + "." + m[len(m)-digits:]
}
