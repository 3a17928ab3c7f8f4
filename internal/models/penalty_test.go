package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/cinereview/backend/internal/apperrors"
)

func TestValidatePenaltyTerms(t *testing.T) {
	tests := []struct {
		name     string
		severity Severity
		days     int
		wantErr  bool
	}{
		{"low one day", SeverityLow, 1, false},
		{"medium week", SeverityMedium, 7, false},
		{"high full year", SeverityHigh, 365, false},
		{"zero days", SeverityLow, 0, true},
		{"negative days", SeverityLow, -3, true},
		{"over a year", SeverityHigh, 366, true},
		{"far over a year", SeverityMedium, 400, true},
		{"unknown severity", Severity("extreme"), 7, true},
		{"empty severity", Severity(""), 7, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePenaltyTerms(tt.severity, tt.days)
			if tt.wantErr {
				assert.ErrorIs(t, err, apperrors.ErrValidation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPenalty_Expiry(t *testing.T) {
	created := time.Date(2024, 1, 10, 9, 30, 0, 0, time.UTC)
	p := Penalty{CreatedAt: created, DurationDays: 7, Active: true}

	assert.Equal(t, time.Date(2024, 1, 17, 9, 30, 0, 0, time.UTC), p.ExpiresAt())
	assert.True(t, p.IsActiveAt(created))
	assert.True(t, p.IsActiveAt(created.Add(6*24*time.Hour)))
	assert.False(t, p.IsActiveAt(p.ExpiresAt()))

	p.Active = false
	assert.False(t, p.IsActiveAt(created))
}
