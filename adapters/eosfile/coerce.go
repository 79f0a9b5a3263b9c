package eosfile

import (
	"math"
	"strconv"
	"strings"
)

// Coerce parses one cell as a finite float64. Empty cells, NaN, infinities and
// anything strconv rejects report ok=false and are treated as missing.
// Fortran double-precision exponents (1.5D+02) are accepted.
func Coerce(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	if strings.ContainsAny(s, "dD") {
		s = strings.NewReplacer("D", "E", "d", "e").Replace(s)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
