package ingest

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Text accepts a JSON string or number; anything else decodes to "".
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	*t = ""
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(strings.TrimSpace(s))
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		*t = Text(data)
	}
	return nil
}

// Amount is a lenient money value: number, numeric string or null.
// Unparseable values decode to zero instead of failing the record.
type Amount struct {
	decimal.Decimal
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	a.Decimal = decimal.Zero

	s := unquote(data)
	if s == "" {
		return nil
	}
	if d, err := decimal.NewFromString(s); err == nil {
		a.Decimal = d
	}
	return nil
}

// Quantity is a lenient float: number, numeric string or null. NaN and
// infinities decode to zero like any other unusable value.
type Quantity float64

func (q *Quantity) UnmarshalJSON(data []byte) error {
	*q = 0

	s := unquote(data)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	*q = Quantity(f)
	return nil
}

func unquote(data []byte) string {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		return ""
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		var out string
		if err := json.Unmarshal([]byte(s), &out); err != nil {
			return ""
		}
		s = strings.TrimSpace(out)
	}
	return s
}

// NormalizeDate reduces date and timestamp strings to YYYY-MM-DD. It returns
// "" when the value does not start with a valid calendar date.
func NormalizeDate(value string) string {
	value = strings.TrimSpace(value)
	if len(value) < 10 {
		return ""
	}
	day := value[:10]
	if _, err := time.Parse("2006-01-02", day); err != nil {
		return ""
	}
	return day
}
