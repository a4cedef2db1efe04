// Package enrichment fetches the best-effort facts attached to a lead: the
// USD to EUR exchange rate and a short trivia string.
package enrichment

import (
	"context"
	"errors"
	"fmt"
)

// Sources, used in logs and metric labels.
const (
	SourceFX      = "fx"
	SourceFunFact = "fun_fact"
)

// DefaultFunFactMaxChars is the stored fact length limit.
const DefaultFunFactMaxChars = 80

var (
	ErrUpstream  = errors.New("enrichment upstream error")
	ErrMalformed = errors.New("enrichment response malformed")
)

// Service fetches enrichment facts.
type Service interface {
	ExchangeRate(ctx context.Context) (float64, error)
	FunFact(ctx context.Context, maxChars int) (string, error)
}

// UpstreamError describes a well-formed but unusable upstream answer. It is
// never retried.
type UpstreamError struct {
	Source string
	Status int
	cause  error
}

func (e *UpstreamError) Error() string {
	if e == nil {
		return "enrichment upstream error"
	}
	if e.cause == nil {
		return fmt.Sprintf("%s upstream error (status=%d)", e.Source, e.Status)
	}
	return fmt.Sprintf("%s upstream error (status=%d): %v", e.Source, e.Status, e.cause)
}

func (e *UpstreamError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Outcome is the result of one enrichment fetch.
type Outcome[T any] struct {
	Value T
	Err   error
}

func (o Outcome[T]) OK() bool { return o.Err == nil }

// Facts holds the outcome of each fetch.
type Facts struct {
	FX      Outcome[float64]
	FunFact Outcome[string]
}
