// Package lead validates, stores and enriches inbound scheduling requests.
package lead

import (
	"errors"
	"time"
)

var (
	ErrNotFound    = errors.New("lead not found")
	ErrStoreClosed = errors.New("lead store closed")
)

// Submission is an inbound scheduling request as received.
type Submission struct {
	Name           string
	Phone          string
	PreferredStart string
	PreferredEnd   *string
	Reason         string
	UTCOffset      *string
	CallID         *string
}

// Lead is a persisted submission plus the fields the service derives.
// Pointer fields are nullable.
type Lead struct {
	ID              int64
	Name            string
	Phone           string
	NormalizedPhone *string
	PreferredStart  string
	PreferredEnd    *string
	Reason          string
	UTCOffset       *string
	CallID          *string
	CreatedAt       time.Time
	FXUSDEUR        *float64
	FunFactShort    *string
}

// Stage names the pipeline position of a submission.
type Stage string

const (
	StageReceived       Stage = "received"
	StageValidated      Stage = "validated"
	StagePersistedBare  Stage = "persisted_bare"
	StageEnriching      Stage = "enriching"
	StagePersistedFinal Stage = "persisted_final"
	StageResponded      Stage = "responded"
	StageRejected       Stage = "rejected"
)

func ptr[T any](v T) *T { return &v }
