package theater

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// MaxAudience is the largest seat count accepted for one performance.
const MaxAudience = 1_000_000

// LoadInvoices decodes a JSON array of invoices.
func LoadInvoices(r io.Reader) ([]Invoice, error) {
	if r == nil {
		return nil, errors.New("nil invoice reader")
	}
	var invoices []Invoice
	if err := json.NewDecoder(r).Decode(&invoices); err != nil {
		return nil, fmt.Errorf("decode invoices: %w", err)
	}
	for i, inv := range invoices {
		for j, perf := range inv.Performances {
			if perf.Audience < 0 || perf.Audience > MaxAudience {
				return nil, fmt.Errorf("invoice %d performance %d: audience %d outside [0, %d]", i, j, perf.Audience, MaxAudience)
			}
		}
	}
	return invoices, nil
}

// LoadPlays decodes a JSON object keyed by play identifier.
func LoadPlays(r io.Reader) (Plays, error) {
	if r == nil {
		return nil, errors.New("nil plays reader")
	}
	plays := Plays{}
	if err := json.NewDecoder(r).Decode(&plays); err != nil {
		return nil, fmt.Errorf("decode plays: %w", err)
	}
	return plays, nil
}
