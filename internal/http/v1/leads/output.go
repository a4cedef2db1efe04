package leads

import "github.com/janisto/lead-intake/internal/platform/timeutil"

// CreateResult is the confirmation for an accepted lead.
type CreateResult struct {
	Status string `json:"status" doc:"Always ok" example:"ok"`
	ID     int64  `json:"id" doc:"Lead id" example:"17"`
}

// LeadCreateOutput is the response wrapper for lead creation.
type LeadCreateOutput struct {
	Body CreateResult
}

// Lead is the API representation of a stored lead.
type Lead struct {
	ID              int64         `json:"id" example:"17"`
	Name            string        `json:"name" example:"John Doe"`
	Phone           string        `json:"phone" example:"+1 415 555 2671"`
	NormalizedPhone *string       `json:"normalized_phone" nullable:"true" doc:"E.164 form, null when the number is not valid" example:"+14155552671"`
	PreferredStart  string        `json:"preferred_start" example:"2026-03-13T15:00:00Z"`
	PreferredEnd    *string       `json:"preferred_end" nullable:"true"`
	Reason          string        `json:"reason" example:"Severe headache"`
	UTCOffset       *string       `json:"utc_offset" nullable:"true"`
	CallID          *string       `json:"call_id" nullable:"true"`
	CreatedAt       timeutil.Time `json:"created_at" doc:"Creation time (RFC 3339, UTC)" example:"2026-03-10T12:00:00.000Z"`
	FXUSDEUR        *float64      `json:"fx_usd_eur" nullable:"true" doc:"USD to EUR rate at creation, null when unavailable" example:"0.92"`
	FunFactShort    *string       `json:"fun_fact_short" nullable:"true" doc:"Trivia of at most 80 characters, null when unavailable"`
}

// LeadListOutput is the response wrapper with pagination Link header.
type LeadListOutput struct {
	Link string `header:"Link" doc:"RFC 8288 pagination links"`
	Body []Lead
}
