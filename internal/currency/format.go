package currency

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// MinorPerMajor is the number of minor units in one major currency unit.
const MinorPerMajor = 100

// Formatter renders minor-unit amounts as locale-grouped currency strings.
type Formatter struct {
	Tag     language.Tag
	Symbol  string
	Decimal string
}

// USD formats amounts using US conventions, e.g. 173000 -> "$1,730.00".
var USD = Formatter{Tag: language.AmericanEnglish, Symbol: "$", Decimal: "."}

// New builds a formatter from a BCP 47 locale, a currency symbol and a decimal separator.
func New(locale, symbol, decimal string) (Formatter, error) {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		return USD, nil
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return Formatter{}, fmt.Errorf("parse currency locale %q: %w", locale, err)
	}
	if decimal == "" {
		decimal = "."
	}
	return Formatter{Tag: tag, Symbol: symbol, Decimal: decimal}, nil
}

// Format converts an amount in minor units into a display string.
func (f Formatter) Format(minor int64) string {
	if f.Tag == language.Und && f.Symbol == "" && f.Decimal == "" {
		f = USD
	}
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	major := message.NewPrinter(f.Tag).Sprintf("%d", minor/MinorPerMajor)
	return fmt.Sprintf("%s%s%s%s%02d", sign, f.Symbol, major, f.Decimal, minor%MinorPerMajor)
}

// String identifies the formatter configuration; equal strings format identically.
func (f Formatter) String() string {
	return f.Tag.String() + "|" + f.Symbol + "|" + f.Decimal
}
