package services

import (
	"fmt"
	"math/rand/v2"
	"regexp"
)

// NewOrderCode returns a short human-shareable code such as "TAP4821K":
// the prefix TAP, four digits in 1000..9999, and one uppercase letter.
// Codes are random, not sequential; uniqueness is enforced by the store
// and collisions are retried by IntakeService.
func NewOrderCode() string {
	return fmt.Sprintf("TAP%04d%c", 1000+rand.IntN(9000), rune('A'+rand.IntN(26)))
}

var orderCodeRE = regexp.MustCompile(`^TAP\d{4}[A-Z]?$`)

// ValidOrderCode reports whether s has the order-code shape.
func ValidOrderCode(s string) bool { return orderCodeRE.MatchString(s) }
