package services

import (
	"fmt"
	"strings"

	"github.com/tbourn/tapeat-bot/internal/utils"
)

// QuickOrder is a structured order block typed as a single message:
//
//	Margherita Pizza
//	2
//	0911223344
//	John
//	Dorm 5
//	Block B
//	214          (optional room)
type QuickOrder struct {
	Food     string
	Quantity int
	Phone    string
	Name     string
	Dorm     string
	Block    string
	Room     string
}

// Quick-order line names, reported back when a line is rejected.
const (
	FieldFood     = "food"
	FieldQuantity = "quantity"
	FieldPhone    = "phone"
	FieldName     = "name"
	FieldDorm     = "dorm"
	FieldBlock    = "block"
)

// LooksLikeQuickOrder reports whether text has enough lines to be attempted
// as a quick order.
func LooksLikeQuickOrder(text string) bool {
	return len(strings.Split(strings.TrimSpace(text), "\n")) >= 6
}

// ParseQuickOrder splits and validates a quick-order block. Errors wrap
// ErrMalformedOrder and name the first offending line. maxQty <= 0 means no
// upper bound.
func ParseQuickOrder(text string, maxQty int) (QuickOrder, string, error) {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	if len(lines) < 6 {
		return QuickOrder{}, "", fmt.Errorf("%w: need at least 6 lines, got %d", ErrMalformedOrder, len(lines))
	}
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}

	q := QuickOrder{
		Food:     lines[0],
		Quantity: utils.AtoiDefault(lines[1], 0),
		Phone:    NormalizePhone(lines[2]),
		Name:     lines[3],
		Dorm:     lines[4],
		Block:    lines[5],
	}
	if len(lines) > 6 && keyword(lines[6]) != "skip" {
		q.Room = lines[6]
	}

	switch {
	case q.Food == "":
		return q, FieldFood, fmt.Errorf("%w: empty food line", ErrMalformedOrder)
	case q.Quantity < 1 || (maxQty > 0 && q.Quantity > maxQty):
		return q, FieldQuantity, fmt.Errorf("%w: quantity %q", ErrMalformedOrder, lines[1])
	case !ValidPhone(lines[2]):
		return q, FieldPhone, fmt.Errorf("%w: phone", ErrMalformedOrder)
	case !ValidName(q.Name):
		return q, FieldName, fmt.Errorf("%w: name", ErrMalformedOrder)
	case q.Dorm == "":
		return q, FieldDorm, fmt.Errorf("%w: empty dorm", ErrMalformedOrder)
	case q.Block == "":
		return q, FieldBlock, fmt.Errorf("%w: empty block", ErrMalformedOrder)
	}
	return q, "", nil
}
