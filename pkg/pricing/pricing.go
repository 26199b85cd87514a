// Package pricing estimates the USD cost of model calls from token counts.
package pricing

import "strings"

// Rate is a price in USD per million tokens.
type Rate struct {
	InputPerMTok  float64
	OutputPerMTok float64
}

type entry struct {
	family string
	rate   Rate
}

// Table maps model families to rates. Families are matched as substrings of
// the model name in registration order; unknown models use the fallback.
type Table struct {
	entries  []entry
	fallback Rate
}

// New creates an empty table with the given fallback rate.
func New(fallback Rate) *Table {
	return &Table{fallback: fallback}
}

// Default returns the built-in Claude price list.
func Default() *Table {
	return New(Rate{InputPerMTok: 3, OutputPerMTok: 15}).
		Set("opus", Rate{InputPerMTok: 15, OutputPerMTok: 75}).
		Set("claude-3-haiku", Rate{InputPerMTok: 0.25, OutputPerMTok: 1.25}).
		Set("haiku", Rate{InputPerMTok: 0.8, OutputPerMTok: 4}).
		Set("sonnet", Rate{InputPerMTok: 3, OutputPerMTok: 15})
}

// Set registers a rate for a model family and returns the table for chaining.
func (t *Table) Set(family string, r Rate) *Table {
	t.entries = append(t.entries, entry{family: strings.ToLower(family), rate: r})
	return t
}

// Rate returns the rate applied to model.
func (t *Table) Rate(model string) Rate {
	m := strings.ToLower(model)
	for _, e := range t.entries {
		if strings.Contains(m, e.family) {
			return e.rate
		}
	}
	return t.fallback
}

// Cost returns the USD cost of a call.
func (t *Table) Cost(model string, inputTokens, outputTokens int) float64 {
	r := t.Rate(model)
	return (float64(inputTokens)*r.InputPerMTok + float64(outputTokens)*r.OutputPerMTok) / 1_000_000
}
