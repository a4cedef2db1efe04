package lead

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/janisto/lead-intake/internal/platform/timeutil"
	"github.com/janisto/lead-intake/internal/service/phone"
)

// Validation failure codes.
const (
	InvalidName           = "InvalidName"
	InvalidPhone          = "InvalidPhone"
	InvalidScheduleWindow = "InvalidScheduleWindow"
	InvalidReason         = "InvalidReason"
)

// Field names as they appear on the wire.
const (
	FieldName           = "name"
	FieldPhone          = "phone"
	FieldPreferredStart = "preferred_start"
	FieldPreferredEnd   = "preferred_end"
	FieldReason         = "reason"
)

const (
	MinNameChars   = 3
	MinNameTokens  = 2
	MinPhoneDigits = 10
	MaxPhoneDigits = 15
	MinReasonChars = 5
	MaxReasonChars = 200
	MinLeadTime    = 48 * time.Hour
)

// FieldError is one failed rule.
type FieldError struct {
	Field   string
	Code    string
	Message string
	Value   any
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Field, e.Code, e.Message)
}

// ValidationError lists every rule a submission failed.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Error()
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Codes returns the failure code of each field error, in order.
func (e *ValidationError) Codes() []string {
	codes := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		codes[i] = f.Code
	}
	return codes
}

// Has reports whether field failed with code.
func (e *ValidationError) Has(field, code string) bool {
	for _, f := range e.Fields {
		if f.Field == field && f.Code == code {
			return true
		}
	}
	return false
}

// Validated is a submission that passed every rule, with the name trimmed
// and the window parsed to UTC.
type Validated struct {
	Submission
	Start time.Time
	End   *time.Time
}

// Validator checks submissions. Now defaults to time.Now.
type Validator struct {
	Now func() time.Time
}

// Validate evaluates every rule and returns all failures together.
func (v Validator) Validate(s Submission) (Validated, error) {
	now := time.Now
	if v.Now != nil {
		now = v.Now
	}
	earliest := now().UTC().Add(MinLeadTime)

	var errs []FieldError
	fail := func(field, code, msg string, value any) {
		errs = append(errs, FieldError{Field: field, Code: code, Message: msg, Value: value})
	}

	name := strings.TrimSpace(s.Name)
	if utf8.RuneCountInString(name) < MinNameChars || len(strings.Fields(name)) < MinNameTokens {
		fail(FieldName, InvalidName, "name must have at least two words and three characters", s.Name)
	}

	if n := phone.DigitCount(s.Phone); n < MinPhoneDigits || n > MaxPhoneDigits {
		fail(FieldPhone, InvalidPhone, fmt.Sprintf("phone must have %d to %d digits", MinPhoneDigits, MaxPhoneDigits), s.Phone)
	}

	start, startErr := timeutil.ParseISO8601(s.PreferredStart)
	switch {
	case startErr != nil:
		fail(FieldPreferredStart, InvalidScheduleWindow, "preferred_start must be an ISO 8601 date-time", s.PreferredStart)
	case !start.After(earliest):
		fail(FieldPreferredStart, InvalidScheduleWindow, "appointment must be more than 48 hours in the future", s.PreferredStart)
	}

	var end *time.Time
	if s.PreferredEnd != nil {
		e, err := timeutil.ParseISO8601(*s.PreferredEnd)
		switch {
		case err != nil:
			fail(FieldPreferredEnd, InvalidScheduleWindow, "preferred_end must be an ISO 8601 date-time", *s.PreferredEnd)
		case startErr == nil && !e.After(start):
			fail(FieldPreferredEnd, InvalidScheduleWindow, "preferred_end must be after preferred_start", *s.PreferredEnd)
		default:
			end = &e
		}
	}

	if n := utf8.RuneCountInString(s.Reason); n < MinReasonChars || n > MaxReasonChars {
		fail(FieldReason, InvalidReason, fmt.Sprintf("reason must be %d to %d characters", MinReasonChars, MaxReasonChars), s.Reason)
	}

	if len(errs) > 0 {
		return Validated{}, &ValidationError{Fields: errs}
	}

	out := Validated{Submission: s, Start: start, End: end}
	out.Name = name
	return out, nil
}
