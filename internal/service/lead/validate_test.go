package lead

import (
	"errors"
	"strings"
	"testing"
	"time"
)

var fixedNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func validSubmission() Submission {
	return Submission{
		Name:           "John Doe",
		Phone:          "+14155552671",
		PreferredStart: fixedNow.Add(72 * time.Hour).Format(time.RFC3339),
		Reason:         "Severe headache",
	}
}

func validator() Validator {
	return Validator{Now: func() time.Time { return fixedNow }}
}

func mustValidationError(t *testing.T, err error) *ValidationError {
	t.Helper()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %T: %v", err, err)
	}
	return verr
}

func TestValidateAcceptsValidSubmission(t *testing.T) {
	s := validSubmission()
	s.Name = "  John Doe  "
	end := fixedNow.Add(73 * time.Hour).Format(time.RFC3339)
	s.PreferredEnd = &end

	v, err := validator().Validate(s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Name != "John Doe" {
		t.Fatalf("expected trimmed name, got %q", v.Name)
	}
	if !v.Start.Equal(fixedNow.Add(72*time.Hour)) || v.Start.Location() != time.UTC {
		t.Fatalf("unexpected start %v", v.Start)
	}
	if v.End == nil || !v.End.Equal(fixedNow.Add(73*time.Hour)) {
		t.Fatalf("unexpected end %v", v.End)
	}
	if v.PreferredStart != s.PreferredStart {
		t.Fatal("raw preferred_start must be kept")
	}
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		name  string
		value string
		ok    bool
	}{
		{"two words", "John Doe", true},
		{"three words", "Mary Jane Watson", true},
		{"single word", "Madonna", false},
		{"three chars two tokens", "J D", true},
		{"two chars", "JD", false},
		{"whitespace only", "   ", false},
		{"padded single word", "   Cher   ", false},
		{"tab separated", "Ana\tLopez", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSubmission()
			s.Name = tt.value
			_, err := validator().Validate(s)
			if tt.ok {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !mustValidationError(t, err).Has(FieldName, InvalidName) {
				t.Fatalf("expected InvalidName, got %v", err)
			}
		})
	}
}

func TestValidatePhoneDigitCount(t *testing.T) {
	tests := []struct {
		value string
		ok    bool
	}{
		{"1234", false},
		{"123456789", false},
		{"1234567890", true},
		{"(415) 555-2671", true},
		{"+44 20 7946 0958", true},
		{"123456789012345", true},
		{"1234567890123456", false},
		{"phone", false},
	}
	for _, tt := range tests {
		s := validSubmission()
		s.Phone = tt.value
		_, err := validator().Validate(s)
		if tt.ok && err != nil {
			t.Fatalf("phone %q: unexpected error: %v", tt.value, err)
		}
		if !tt.ok && (err == nil || !mustValidationError(t, err).Has(FieldPhone, InvalidPhone)) {
			t.Fatalf("phone %q: expected InvalidPhone, got %v", tt.value, err)
		}
	}
}

func TestValidatePreferredStart(t *testing.T) {
	tests := []struct {
		name  string
		value string
		ok    bool
	}{
		{"exactly 48h", fixedNow.Add(48 * time.Hour).Format(time.RFC3339), false},
		{"48h and a second", fixedNow.Add(48*time.Hour + time.Second).Format(time.RFC3339), true},
		{"past", fixedNow.Add(-time.Hour).Format(time.RFC3339), false},
		{"tomorrow", fixedNow.Add(24 * time.Hour).Format(time.RFC3339), false},
		{"z suffix", "2026-03-13T12:00:00Z", true},
		{"naive assumed utc", "2026-03-13T12:00:00", true},
		{"naive at boundary", "2026-03-12T12:00:00", false},
		{"offset shifts past boundary", "2026-03-12T13:00:00+02:00", false},
		{"offset shifts beyond boundary", "2026-03-12T11:00:00-02:00", true},
		{"date only", "2026-03-20", true},
		{"garbage", "next tuesday", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSubmission()
			s.PreferredStart = tt.value
			_, err := validator().Validate(s)
			if tt.ok {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !mustValidationError(t, err).Has(FieldPreferredStart, InvalidScheduleWindow) {
				t.Fatalf("expected InvalidScheduleWindow, got %v", err)
			}
		})
	}
}

func TestValidatePreferredEnd(t *testing.T) {
	start := fixedNow.Add(72 * time.Hour)
	tests := []struct {
		name string
		end  *string
		ok   bool
	}{
		{"absent", nil, true},
		{"after start", ptr(start.Add(time.Minute).Format(time.RFC3339)), true},
		{"equal to start", ptr(start.Format(time.RFC3339)), false},
		{"before start", ptr(start.Add(-time.Hour).Format(time.RFC3339)), false},
		{"same instant other offset", ptr(start.In(time.FixedZone("", 3600)).Format(time.RFC3339)), false},
		{"unparseable", ptr("soon"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSubmission()
			s.PreferredEnd = tt.end
			_, err := validator().Validate(s)
			if tt.ok {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !mustValidationError(t, err).Has(FieldPreferredEnd, InvalidScheduleWindow) {
				t.Fatalf("expected InvalidScheduleWindow on preferred_end, got %v", err)
			}
		})
	}
}

func TestValidateEndSkippedWhenStartInvalid(t *testing.T) {
	s := validSubmission()
	s.PreferredStart = "bad"
	s.PreferredEnd = ptr(fixedNow.Add(96 * time.Hour).Format(time.RFC3339))

	verr := mustValidationError(t, func() error { _, err := validator().Validate(s); return err }())
	if verr.Has(FieldPreferredEnd, InvalidScheduleWindow) {
		t.Fatal("preferred_end must not be compared against an unparseable start")
	}
}

func TestValidateReasonLength(t *testing.T) {
	tests := []struct {
		value string
		ok    bool
	}{
		{"Pain", false},
		{"Pains", true},
		{strings.Repeat("a", 200), true},
		{strings.Repeat("a", 201), false},
		{"Dolor de cabeza fuerte ñ", true},
		{"ééé", false},
	}
	for _, tt := range tests {
		s := validSubmission()
		s.Reason = tt.value
		_, err := validator().Validate(s)
		if tt.ok && err != nil {
			t.Fatalf("reason %q: unexpected error: %v", tt.value, err)
		}
		if !tt.ok && (err == nil || !mustValidationError(t, err).Has(FieldReason, InvalidReason)) {
			t.Fatalf("reason %q: expected InvalidReason, got %v", tt.value, err)
		}
	}
}

func TestValidateCollectsAllFailures(t *testing.T) {
	s := Submission{Name: "X", Phone: "1234", PreferredStart: "nope", Reason: "no"}
	verr := mustValidationError(t, func() error { _, err := validator().Validate(s); return err }())

	want := []string{InvalidName, InvalidPhone, InvalidScheduleWindow, InvalidReason}
	got := verr.Codes()
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
	if !strings.Contains(verr.Error(), "name: InvalidName") {
		t.Fatalf("unexpected message %q", verr.Error())
	}
}

func TestValidateCapturesNowOnce(t *testing.T) {
	calls := 0
	v := Validator{Now: func() time.Time {
		calls++
		return fixedNow
	}}
	s := validSubmission()
	s.PreferredEnd = ptr(fixedNow.Add(80 * time.Hour).Format(time.RFC3339))
	if _, err := v.Validate(s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected clock to be read once, got %d", calls)
	}
}
