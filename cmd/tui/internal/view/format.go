package view

import (
	"context"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// requestTimeout bounds one screen action; the store client has its own,
// shorter, per-request timeout.
const requestTimeout = 20 * time.Second

var printer = message.NewPrinter(language.MustParse("en-IN"))

var (
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	faintStyle = lipgloss.NewStyle().Faint(true)
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
)

// FormatAmount renders an amount in rupees with Indian digit grouping.
func FormatAmount(d decimal.Decimal) string {
	return printer.Sprintf("₹%v", number.Decimal(d.InexactFloat64(), number.Scale(2)))
}

// FormatRecordAmount formats a stored amount, falling back to the raw text
// when it is not a number.
func FormatRecordAmount(amount string) string {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return amount
	}

	return FormatAmount(d)
}

// FormatDate formats a time.Time into YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Local().Format("2006-01-02")
}

// RequestCtx returns a context with the standard timeout for store calls.
func RequestCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout)
}
