package cart

import (
	"math"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// MaxQuantity bounds a single row so totals stay exact and counters cannot wrap.
const MaxQuantity = math.MaxInt32

// CoerceQuantity clamps n into [1, MaxQuantity]. Zero and negative become 1.
func CoerceQuantity(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxQuantity {
		return MaxQuantity
	}
	return n
}

func addQuantity(current, delta int) int {
	if current > MaxQuantity-delta {
		return MaxQuantity
	}
	return current + delta
}

// ParseQuantity reads the leading integer of raw the way a browser's parseInt does:
// leading whitespace and one sign are allowed, parsing stops at the first non-digit.
// "3.7" is 3, "12abc" is 12. Anything without leading digits yields 1, as does any
// result below 1.
func ParseQuantity(raw string) int {
	s := strings.TrimLeftFunc(raw, unicode.IsSpace)
	negative := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		negative = s[0] == '-'
		s = s[1:]
	}

	n, digits := 0, 0
	for digits < len(s) && s[digits] >= '0' && s[digits] <= '9' {
		d := int(s[digits] - '0')
		if n > (MaxQuantity-d)/10 {
			n = MaxQuantity
		} else {
			n = n*10 + d
		}
		digits++
	}
	if digits == 0 || negative {
		return 1
	}
	return CoerceQuantity(n)
}

// ParseAmount reads a money or percentage value typed by the operator. Like a browser's
// parseFloat it takes the longest numeric prefix after leading whitespace; a comma is
// accepted as the decimal separator when no dot is present. Invalid input yields zero.
func ParseAmount(raw string) decimal.Decimal {
	d, _ := LookupAmount(raw)
	return d
}

// LookupAmount is ParseAmount that also reports whether raw held a number at all.
func LookupAmount(raw string) (decimal.Decimal, bool) {
	s := strings.TrimLeftFunc(raw, unicode.IsSpace)
	if !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}

	end := numericPrefix(s)
	if end == 0 {
		return decimal.Zero, false
	}
	num := s[:end]
	if strings.HasPrefix(strings.TrimLeft(num, "+-"), ".") {
		sign := num[:len(num)-len(strings.TrimLeft(num, "+-"))]
		num = sign + "0" + num[len(sign):]
	}
	d, err := decimal.NewFromString(num)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// numericPrefix returns the length of the longest prefix shaped like
// [sign] digits [. digits] [e [sign] digits], requiring at least one digit.
func numericPrefix(s string) int {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	intDigits := countDigits(s[i:])
	i += intDigits
	fracDigits := 0
	if i < len(s) && s[i] == '.' {
		fracDigits = countDigits(s[i+1:])
		if fracDigits > 0 {
			i += 1 + fracDigits
		}
	}
	if intDigits == 0 && fracDigits == 0 {
		return 0
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		if exp := countDigits(s[j:]); exp > 0 && exp <= 3 {
			i = j + exp
		}
	}
	return i
}

func countDigits(s string) int {
	n := 0
	for n < len(s) && s[n] >= '0' && s[n] <= '9' {
		n++
	}
	return n
}
