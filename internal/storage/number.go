package storage

import (
	"math"
	"strconv"
	"strings"
)

// Number is a float64 that survives JSON round trips even when it is NaN or
// infinite. Non-finite values are written as the strings "NaN", "+Inf" and
// "-Inf".
type Number float64

func (n Number) MarshalJSON() ([]byte, error) {
	f := float64(n)
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte(strconv.Quote(s)), nil
	}
	return []byte(s), nil
}

func (n *Number) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		*n = Number(math.NaN())
		return nil
	}
	f, err := strconv.ParseFloat(strings.Trim(s, `"`), 64)
	if err != nil {
		return err
	}
	*n = Number(f)
	return nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
