package tui

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/devbush/stockdesk/internal/domain"
)

var printer = message.NewPrinter(language.English)

// FormatCount formats a number with K/M suffix
// Examples: 892 -> "892", 1234 -> "1.2K", 1500000 -> "1.5M"
func FormatCount(count int64) string {
	if count >= 1000000 {
		return fmt.Sprintf("%.1fM", float64(count)/1000000)
	}
	if count >= 1000 {
		return fmt.Sprintf("%.1fK", float64(count)/1000)
	}
	return fmt.Sprintf("%d", count)
}

// FormatInt formats n with thousands separators: 12345 -> "12,345"
func FormatInt(n int) string {
	return printer.Sprintf("%d", n)
}

// FormatMoney formats an amount with two decimals and separators
func FormatMoney(f float64) string {
	return printer.Sprintf("%.2f", f)
}

// FormatDate formats a date as "Jan 15" style
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "---"
	}
	return t.Format("Jan 2")
}

// FormatDateTime formats a timestamp in local time, minute precision
func FormatDateTime(t time.Time) string {
	if t.IsZero() {
		return "---"
	}
	return t.Local().Format("2006-01-02 15:04")
}

// Truncate shortens s to n runes, ending with "..."
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

// FormatTxLine formats a transaction as a single line for pickers
// Example: "2025-01-15 09:30  IN   P-001  Widget            12"
func FormatTxLine(t *domain.Transaction, maxNameLen int) string {
	name := Truncate(t.ProductName, maxNameLen)
	nameFmt := fmt.Sprintf("%%-%ds", maxNameLen)

	dir := "IN "
	if t.Type == domain.TxOut {
		dir = "OUT"
	}

	return fmt.Sprintf("%s  %s  %-10s %s %6s",
		FormatDateTime(t.OccurredAt), dir, t.ProductCode,
		fmt.Sprintf(nameFmt, name), FormatInt(t.Quantity))
}
