// Package phone turns free-form phone input into E.164.
package phone

import (
	"context"
	"strings"

	"github.com/nyaruka/phonenumbers"
	"go.uber.org/zap"

	applog "github.com/janisto/lead-intake/internal/platform/logging"
)

// DefaultRegion is assumed for numbers without a country code.
const DefaultRegion = "US"

// Clean keeps digits and a leading '+'.
func Clean(raw string) string {
	raw = strings.TrimSpace(raw)
	var b strings.Builder
	b.Grow(len(raw))
	for i, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Normalize returns the E.164 form of raw, or nil when raw does not parse as
// a valid number. region is used when raw carries no country code.
func Normalize(raw, region string) *string {
	e164, ok := normalize(raw, region)
	if !ok {
		return nil
	}
	return &e164
}

func normalize(raw, region string) (string, bool) {
	cleaned := Clean(raw)
	if cleaned == "" || cleaned == "+" {
		return "", false
	}
	if region == "" {
		region = DefaultRegion
	}
	num, err := phonenumbers.Parse(cleaned, strings.ToUpper(region))
	if err != nil {
		return "", false
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", false
	}
	return phonenumbers.Format(num, phonenumbers.E164), true
}

// Normalizer binds a default region and logs failures at debug level.
type Normalizer struct {
	Region string
}

func NewNormalizer(region string) Normalizer {
	if region == "" {
		region = DefaultRegion
	}
	return Normalizer{Region: strings.ToUpper(region)}
}

func (n Normalizer) Normalize(ctx context.Context, raw string) *string {
	out := Normalize(raw, n.Region)
	if out == nil {
		applog.LogDebug(ctx, "phone normalization failed",
			zap.String("region", n.Region),
			zap.Int("digits", DigitCount(raw)),
		)
	}
	return out
}

// DigitCount counts ASCII digits in s.
func DigitCount(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			n++
		}
	}
	return n
}
