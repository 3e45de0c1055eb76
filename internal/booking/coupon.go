package booking

import (
	"strconv"
	"strings"
)

// CouponType selects how a coupon discounts the subtotal.
type CouponType string

const (
	// CouponPercent scales the subtotal by (100-Value)/100.
	CouponPercent CouponType = "PERCENT"
	// CouponFixed subtracts Value cents, floored at zero.
	CouponFixed CouponType = "FIXED"
)

// Coupon is a discount applied to a session's subtotal. Applying a coupon is
// a pure computation over money; it never touches seat state.
type Coupon struct {
	Code  string
	Type  CouponType
	Value int64
}

// Apply returns the discounted total in cents. Unknown coupon types leave
// the subtotal unchanged.
func (c Coupon) Apply(subtotalCents int64) int64 {
	switch c.Type {
	case CouponPercent:
		return subtotalCents * (100 - c.Value) / 100
	case CouponFixed:
		total := subtotalCents - c.Value
		if total < 0 {
			return 0
		}
		return total
	default:
		return subtotalCents
	}
}

// CouponBook is a read-only coupon lookup keyed by upper-cased code. Coupon
// administration is owned elsewhere; the session only needs resolution.
type CouponBook map[string]Coupon

// Lookup resolves a code case-insensitively.
func (b CouponBook) Lookup(code string) (Coupon, bool) {
	c, ok := b[strings.ToUpper(strings.TrimSpace(code))]
	return c, ok
}

// ParseCouponBook builds a book from a comma-separated env value of
// CODE:TYPE:VALUE entries, e.g. "SAVE10:PERCENT:10,FLAT5:FIXED:500".
// Malformed entries are skipped.
func ParseCouponBook(raw string) CouponBook {
	book := CouponBook{}
	for _, entry := range strings.Split(raw, ",") {
		parts := strings.Split(strings.TrimSpace(entry), ":")
		if len(parts) != 3 {
			continue
		}
		code := strings.ToUpper(strings.TrimSpace(parts[0]))
		typ := CouponType(strings.ToUpper(strings.TrimSpace(parts[1])))
		if code == "" || (typ != CouponPercent && typ != CouponFixed) {
			continue
		}
		value, err := strconv.ParseInt(strings.TrimSpace(parts[2]), 10, 64)
		if err != nil || value < 0 {
			continue
		}
		if typ == CouponPercent && value > 100 {
			continue
		}
		book[code] = Coupon{Code: code, Type: typ, Value: value}
	}
	return book
}
