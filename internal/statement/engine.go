package statement

import (
	"fmt"
	"strings"

	"github.com/noah-isme/backend-theater/internal/currency"
	"github.com/noah-isme/backend-theater/internal/theater"
)

// Money represents a monetary value stored in minor units.
type Money = int64

// Pricing constants, in minor units for amounts and in seats for thresholds.
const (
	TragedyBaseAmount      Money = 40000
	TragedyAudienceLimit         = 30
	TragedyExtraPerHead    Money = 1000
	ComedyBaseAmount       Money = 30000
	ComedyAudienceLimit          = 20
	ComedyOverCapacityFee  Money = 10000
	ComedyOverCapacityHead Money = 500
	ComedyPerHead          Money = 300

	BaseCreditThreshold = 30
	ComedyCreditDivisor = 5
)

// Formatter converts minor units into a display string.
type Formatter interface {
	Format(minor int64) string
}

// Line is the priced result for one performance.
type Line struct {
	PlayID        string
	PlayName      string
	Genre         theater.Genre
	Audience      int
	Amount        Money
	VolumeCredits int
}

// Statement aggregates every priced line of an invoice.
type Statement struct {
	Customer           string
	Lines              []Line
	TotalAmount        Money
	TotalVolumeCredits int
}

// Engine prices a single invoice against a play lookup. It never mutates its inputs.
type Engine struct {
	invoice   theater.Invoice
	plays     theater.Plays
	formatter Formatter
}

// New constructs an engine. A nil formatter renders amounts in US dollars.
func New(invoice theater.Invoice, plays theater.Plays, formatter Formatter) *Engine {
	if formatter == nil {
		formatter = currency.USD
	}
	return &Engine{invoice: invoice, plays: plays, formatter: formatter}
}

// ResolvePlay returns the play a performance references.
func (e *Engine) ResolvePlay(perf theater.Performance) (theater.Play, error) {
	play, ok := e.plays.Lookup(perf.PlayID)
	if !ok {
		return theater.Play{}, &UnknownPlayError{PlayID: perf.PlayID}
	}
	return play, nil
}

// AmountFor prices one performance in minor units.
func (e *Engine) AmountFor(perf theater.Performance) (Money, error) {
	play, err := e.ResolvePlay(perf)
	if err != nil {
		return 0, err
	}
	return amount(play, perf.Audience)
}

// VolumeCreditsFor returns the loyalty credits earned by one performance.
func (e *Engine) VolumeCreditsFor(perf theater.Performance) (int, error) {
	play, err := e.ResolvePlay(perf)
	if err != nil {
		return 0, err
	}
	return volumeCredits(play, perf.Audience)
}

// TotalAmount sums AmountFor over the invoice, stopping at the first error.
func (e *Engine) TotalAmount() (Money, error) {
	var total Money
	for _, perf := range e.invoice.Performances {
		amt, err := e.AmountFor(perf)
		if err != nil {
			return 0, err
		}
		if total, err = addChecked(total, amt); err != nil {
			return 0, err
		}
	}
	return total, nil
}

// TotalVolumeCredits sums VolumeCreditsFor over the invoice, stopping at the first error.
func (e *Engine) TotalVolumeCredits() (int, error) {
	var total int
	for _, perf := range e.invoice.Performances {
		credits, err := e.VolumeCreditsFor(perf)
		if err != nil {
			return 0, err
		}
		if total, err = addChecked(total, credits); err != nil {
			return 0, err
		}
	}
	return total, nil
}

// Statement prices every performance in invoice order.
func (e *Engine) Statement() (Statement, error) {
	st := Statement{
		Customer: e.invoice.Customer,
		Lines:    make([]Line, 0, len(e.invoice.Performances)),
	}
	for _, perf := range e.invoice.Performances {
		play, err := e.ResolvePlay(perf)
		if err != nil {
			return Statement{}, err
		}
		amt, err := amount(play, perf.Audience)
		if err != nil {
			return Statement{}, err
		}
		credits, err := volumeCredits(play, perf.Audience)
		if err != nil {
			return Statement{}, err
		}
		st.Lines = append(st.Lines, Line{
			PlayID:        perf.PlayID,
			PlayName:      play.Name,
			Genre:         play.Genre(),
			Audience:      perf.Audience,
			Amount:        amt,
			VolumeCredits: credits,
		})
		if st.TotalAmount, err = addChecked(st.TotalAmount, amt); err != nil {
			return Statement{}, err
		}
		if st.TotalVolumeCredits, err = addChecked(st.TotalVolumeCredits, credits); err != nil {
			return Statement{}, err
		}
	}
	return st, nil
}

// Render produces the plain-text statement.
func (e *Engine) Render() (string, error) {
	st, err := e.Statement()
	if err != nil {
		return "", err
	}
	return st.Render(e.formatter), nil
}

// Render formats an already priced statement.
func (s Statement) Render(f Formatter) string {
	if f == nil {
		f = currency.USD
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Statement for %s\n", s.Customer)
	for _, line := range s.Lines {
		fmt.Fprintf(&b, "  %s: %s (%d seats)\n", line.PlayName, f.Format(line.Amount), line.Audience)
	}
	fmt.Fprintf(&b, "Amount owed is %s\n", f.Format(s.TotalAmount))
	fmt.Fprintf(&b, "You earned %d credits\n", s.TotalVolumeCredits)
	return b.String()
}

func amount(play theater.Play, audience int) (Money, error) {
	switch play.Genre() {
	case theater.GenreTragedy:
		if audience <= TragedyAudienceLimit {
			return TragedyBaseAmount, nil
		}
		extra, err := mulChecked(TragedyExtraPerHead, Money(audience-TragedyAudienceLimit))
		if err != nil {
			return 0, err
		}
		return addChecked(TragedyBaseAmount, extra)
	case theater.GenreComedy:
		result, err := mulChecked(ComedyPerHead, Money(audience))
		if err != nil {
			return 0, err
		}
		if result, err = addChecked(result, ComedyBaseAmount); err != nil {
			return 0, err
		}
		if audience <= ComedyAudienceLimit {
			return result, nil
		}
		over, err := mulChecked(ComedyOverCapacityHead, Money(audience-ComedyAudienceLimit))
		if err != nil {
			return 0, err
		}
		if over, err = addChecked(over, ComedyOverCapacityFee); err != nil {
			return 0, err
		}
		return addChecked(result, over)
	case theater.GenreUnrecognized:
		return 0, &UnknownPlayTypeError{Type: play.Type}
	}
	panic(fmt.Sprintf("statement: genre %d outside the closed set", play.Genre()))
}

func addChecked[T ~int | ~int64](a, b T) (T, error) {
	r := a + b
	if (b > 0 && r < a) || (b < 0 && r > a) {
		return 0, ErrOverflow
	}
	return r, nil
}

func mulChecked[T ~int | ~int64](a, b T) (T, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	r := a * b
	if r/b != a || (b == -1 && r == a) {
		return 0, ErrOverflow
	}
	return r, nil
}

func volumeCredits(play theater.Play, audience int) (int, error) {
	credits := max(audience-BaseCreditThreshold, 0)
	if play.Genre() != theater.GenreComedy {
		return credits, nil
	}
	return addChecked(credits, audience/ComedyCreditDivisor)
}
