package kpi

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Formatter renders amounts and counts for one locale and currency.
type Formatter struct {
	printer  *message.Printer
	currency string
}

// NewFormatter returns a formatter for locale (BCP 47, e.g. "en-IN").
// An unparseable locale falls back to English.
func NewFormatter(locale, currency string) *Formatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	return &Formatter{printer: message.NewPrinter(tag), currency: currency}
}

// DefaultFormatter formats in English without a currency prefix.
func DefaultFormatter() *Formatter {
	return NewFormatter("en", "")
}

// Currency returns the configured currency code.
func (f *Formatter) Currency() string {
	return f.currency
}

// Amount formats d with two decimals and thousand separators.
// Example: 1234567.5 → "1,234,567.50".
func (f *Formatter) Amount(d decimal.Decimal) string {
	fixed := d.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")

	whole, err := decimal.NewFromString(intPart)
	if err != nil {
		return d.StringFixed(2)
	}
	out := f.printer.Sprintf("%d", whole.IntPart()) + "." + frac
	if d.IsNegative() && !d.Round(2).IsZero() {
		out = "-" + out
	}
	return out
}

// Money is Amount prefixed with the currency code, when one is set.
func (f *Formatter) Money(d decimal.Decimal) string {
	if f.currency == "" {
		return f.Amount(d)
	}
	return f.currency + " " + f.Amount(d)
}

// Count formats n with thousand separators.
func (f *Formatter) Count(n int) string {
	return f.printer.Sprintf("%d", n)
}

// Percent formats a ratio (0.25 → "25.0%"). A zero denominator yields "-".
func (f *Formatter) Percent(num, den decimal.Decimal) string {
	if den.IsZero() {
		return "-"
	}
	return num.Div(den).Mul(decimal.NewFromInt(100)).StringFixed(1) + "%"
}
