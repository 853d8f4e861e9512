package orders

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// OrderCandidate is a parsed but not yet persisted order line.
type OrderCandidate struct {
	ProductName string
	Amount      int64
}

// Two accepted shapes, tried in order:
//
//	"Cafe sua da - 52k"
//	"Cafe sua da 52k"
//
// The price must close the message. The name is the non-greedy remainder, so
// "A - B - 30k" keeps "A - B" as the product name.
var (
	reDashAmount  = regexp.MustCompile(`(?i)^(.+?)\s*-\s*([0-9]+)k$`)
	reSpaceAmount = regexp.MustCompile(`(?i)^(.+?)\s+([0-9]+)k$`)
)

// ParseOrder extracts an order from one message line. ok=false means the text
// is not an order (chit-chat, headers); that is the common case, not a fault.
func ParseOrder(text string) (OrderCandidate, bool) {
	m := reDashAmount.FindStringSubmatch(text)
	if m == nil {
		m = reSpaceAmount.FindStringSubmatch(text)
	}
	if m == nil {
		return OrderCandidate{}, false
	}

	name := strings.TrimSpace(m[1])
	if name == "" {
		return OrderCandidate{}, false
	}

	n, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return OrderCandidate{}, false
	}

	// Rounded, not truncated, so a future fractional suffix keeps working.
	amount := int64(math.Round(float64(n) * 1000))

	return OrderCandidate{ProductName: name, Amount: amount}, true
}
