package orders

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/yourname/orderbot/internal/domain"
)

var viPrinter = message.NewPrinter(language.Vietnamese)

// FormatDailyTotalMessage renders the pinned summary for one chat.
//
// The empty-summary check is intentionally asymmetric: the short message is
// only returned when the chat has ever recorded an order. Matches the
// behavior consumers already rely on; do not "fix" without a product call.
func (p *Processor) FormatDailyTotalMessage(ctx context.Context, totals []DailyTotal, chatID int64) (string, error) {
	hasOrders, err := p.store.HasOrders(ctx, chatID)
	if err != nil {
		return "", fmt.Errorf("probe orders for chat %d: %w", chatID, err)
	}
	if len(totals) == 0 && hasOrders {
		return "No orders recorded today.", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 *Daily Order Summary* 📊\n %s \n\n", p.now().In(p.loc).Format("2/1/2006"))

	var grandTotal int64
	for _, t := range totals {
		fmt.Fprintf(&b, "👤 *%s*\n", displayName(t))
		fmt.Fprintf(&b, "💰 Total: %sk (%s VND)\n", kilo(t.TotalAmount), viPrinter.Sprintf("%d", t.TotalAmount))
		fmt.Fprintf(&b, "🛒 Orders: %d\n\n", t.OrderCount)
		b.WriteString("📝 *Order Details (giá chưa giảm)*:\n")

		sorted := make([]domain.Order, len(t.Orders))
		copy(sorted, t.Orders)
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Amount > sorted[j].Amount })
		for _, o := range sorted {
			if o.ChatID == 0 {
				continue
			}
			fmt.Fprintf(&b, "- %s: %sk\n", o.ProductName, kilo(o.Amount))
		}

		b.WriteString("\n")
		grandTotal += t.TotalAmount
	}

	fmt.Fprintf(&b, "*GRAND TOTAL: %sk (%s VND)*", kilo(grandTotal), viPrinter.Sprintf("%d", grandTotal))
	return b.String(), nil
}

func displayName(t DailyTotal) string {
	if t.Username != nil && *t.Username != "" {
		return *t.Username
	}
	full := strings.TrimSpace(deref(t.FirstName) + " " + deref(t.LastName))
	if full != "" {
		return full
	}
	return fmt.Sprintf("User %d", t.UserID)
}

// kilo renders an amount in thousands with one decimal, "52k" style.
func kilo(amount int64) string {
	return fmt.Sprintf("%.1f", float64(amount)/1000)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
