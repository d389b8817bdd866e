// Package earnings holds the call-metadata domain: which company,
// which fiscal period, and how outputs are named.
package earnings

import (
	"fmt"
	"strings"
)

// Quarter is a fiscal quarter, Q1 through Q4.
type Quarter int

const (
	Q1 Quarter = iota + 1
	Q2
	Q3
	Q4
)

func (q Quarter) String() string {
	if q < Q1 || q > Q4 {
		return fmt.Sprintf("Quarter(%d)", int(q))
	}
	return fmt.Sprintf("Q%d", int(q))
}

// ParseQuarter accepts "q1".."q4" (any case) or a bare digit "1".."4".
func ParseQuarter(s string) (Quarter, error) {
	normalized := strings.ToUpper(strings.TrimSpace(s))
	normalized = strings.TrimPrefix(normalized, "Q")
	switch normalized {
	case "1":
		return Q1, nil
	case "2":
		return Q2, nil
	case "3":
		return Q3, nil
	case "4":
		return Q4, nil
	default:
		return 0, fmt.Errorf("invalid quarter %q (expected Q1, Q2, Q3 or Q4)", s)
	}
}

// CallMeta identifies one earnings call.
type CallMeta struct {
	Ticker  string
	Year    int
	Quarter Quarter
}

// Validate rejects metadata that would produce garbage downstream.
func (m CallMeta) Validate() error {
	ticker := strings.TrimSpace(m.Ticker)
	if ticker == "" {
		return fmt.Errorf("ticker must not be empty")
	}
	if len(ticker) > 10 {
		return fmt.Errorf("ticker %q is longer than 10 characters", ticker)
	}
	if m.Year < 1980 || m.Year > 2100 {
		return fmt.Errorf("year %d is outside the plausible range 1980-2100", m.Year)
	}
	if m.Quarter < Q1 || m.Quarter > Q4 {
		return fmt.Errorf("quarter must be Q1-Q4")
	}
	return nil
}

// Slug names the call for output files, e.g. "AAPL-2025-Q4".
func (m CallMeta) Slug() string {
	return fmt.Sprintf("%s-%d-%s", strings.ToUpper(strings.TrimSpace(m.Ticker)), m.Year, m.Quarter)
}

// Label is the human-readable form, e.g. "AAPL Q4 2025".
func (m CallMeta) Label() string {
	return fmt.Sprintf("%s %s %d", strings.ToUpper(strings.TrimSpace(m.Ticker)), m.Quarter, m.Year)
}
