package model

import (
	"errors"
	"fmt"
)

var (
	// ErrAssetNotFound is returned when the provider has no record of a ticker.
	ErrAssetNotFound = errors.New("asset not found")
	// ErrInsufficientHistory is returned when fewer than two distinct
	// timestamps are available for fitting.
	ErrInsufficientHistory = errors.New("insufficient history")
	// ErrUnorderedHistory is returned when timestamps are not strictly increasing.
	ErrUnorderedHistory = errors.New("timestamps not strictly increasing")
	// ErrInvalidRequest marks malformed caller input.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrModelFit marks a history the model could not fit or predict from.
	ErrModelFit = errors.New("model fit failed")
)

// LookupError reports a ticker the upstream source does not know.
type LookupError struct {
	Ticker string
	Source string
	Reason string
}

func (e *LookupError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s: %s: asset not found", e.Source, e.Ticker)
	}
	return fmt.Sprintf("%s: %s: asset not found: %s", e.Source, e.Ticker, e.Reason)
}

func (e *LookupError) Unwrap() error { return ErrAssetNotFound }

// HistoryError points at the row that broke a history invariant.
type HistoryError struct {
	Index int
	Err   error
}

func (e *HistoryError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Index, e.Err)
}

func (e *HistoryError) Unwrap() error { return e.Err }
