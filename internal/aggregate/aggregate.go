// Package aggregate derives the statistics shown for an analyzed query:
// temporal trend, term frequency by category, score/magnitude partitions,
// score distribution and summary counts.
//
// Every derivation is a pure function of a domain.ResultSet. When its input
// cannot support a result it returns ErrInsufficientData, a normal terminal
// state the presentation layer explains instead of drawing an empty chart.
package aggregate

import "errors"

// ErrInsufficientData reports that a result set lacks what a derivation
// needs. Like io.EOF it marks a state, not a failure.
var ErrInsufficientData = errors.New("insufficient data")
