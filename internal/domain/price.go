package domain

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// Price is a non-negative monetary amount held as a count of
// ten-thousandths, so four decimal places are exact. JSON carries it as a
// plain number; anything past the fourth decimal is rounded half away from
// zero on decode.
type Price int64

// PriceFromFloat rounds to four decimal places.
func PriceFromFloat(f float64) Price {
	return Price(math.Round(f * 10000))
}

func (p Price) Float() float64 {
	return float64(p) / 10000
}

// String renders the shortest decimal form, e.g. "4.99", "0", "1.2345".
func (p Price) String() string {
	s := strconv.FormatFloat(p.Float(), 'f', -1, 64)
	return s
}

func (p Price) MarshalJSON() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Price) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return errors.New("price must be a number")
	}
	*p = PriceFromFloat(f)
	return nil
}
