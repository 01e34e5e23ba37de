// Package numeric accepts JSON values that clients send either as numbers or
// as numeric strings and normalizes them to float64.
package numeric

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Number is a JSON value that may arrive as 5.5, "5.5" or null.
// Raw keeps the original text until Float is called.
type Number struct {
	Raw   string
	Valid bool
}

func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = Number{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = Number{Raw: strings.TrimSpace(s), Valid: true}
		return nil
	}
	*n = Number{Raw: string(data), Valid: true}
	return nil
}

func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	f, err := n.Float()
	if err != nil {
		return nil, err
	}
	return json.Marshal(f)
}

// Float parses the value. An empty string counts as invalid input.
func (n Number) Float() (float64, error) {
	if !n.Valid {
		return 0, fmt.Errorf("missing number")
	}
	return Parse(n.Raw)
}

func Of(f float64) Number {
	return Number{Raw: decimal.NewFromFloat(f).String(), Valid: true}
}

func Parse(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("empty number")
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", raw)
	}
	f := d.InexactFloat64()
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, fmt.Errorf("number %q is out of range", raw)
	}
	return f, nil
}
