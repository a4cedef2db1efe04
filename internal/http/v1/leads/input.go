package leads

import "github.com/janisto/lead-intake/internal/platform/pagination"

// LeadCreateBody is the webhook payload. Keys outside the declared fields
// are accepted and dropped.
type LeadCreateBody struct {
	_ struct{} `json:"-" additionalProperties:"true"`

	Name           string  `json:"name" doc:"Caller's full name, at least two words" example:"John Doe"`
	Phone          string  `json:"phone" doc:"Phone number in any format, 10 to 15 digits" example:"+1 415 555 2671"`
	PreferredStart string  `json:"preferred_start" doc:"ISO 8601 start of the preferred window, more than 48 hours ahead" example:"2026-03-13T15:00:00Z"`
	PreferredEnd   *string `json:"preferred_end,omitempty" nullable:"true" doc:"ISO 8601 end of the preferred window, after preferred_start" example:"2026-03-13T16:00:00Z"`
	Reason         string  `json:"reason" doc:"Reason for the appointment" example:"Severe headache"`
	UTCOffset      *string `json:"utc_offset,omitempty" nullable:"true" doc:"Caller's UTC offset as reported by the assistant" example:"-07:00"`
	CallID         *string `json:"call_id,omitempty" nullable:"true" doc:"Voice call id for correlation" example:"call_7f3a"`
}

// LeadCreateInput is the request for creating a lead.
type LeadCreateInput struct {
	Body LeadCreateBody
}

// LeadListInput defines query parameters for listing leads.
type LeadListInput struct {
	pagination.Params
}
