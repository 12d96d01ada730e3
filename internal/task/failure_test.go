package task

import (
	"errors"
	"fmt"
	"testing"

	"github.com/phrazzld/smartmark/internal/domain"
	"github.com/phrazzld/smartmark/internal/generation"
	"github.com/stretchr/testify/assert"
)

func TestFailureMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		err    error
		locale domain.Locale
		want   string
	}{
		{"nil", nil, domain.LocaleEnglish, ""},
		{"missing key", ErrMissingAPIKey, domain.LocaleEnglish, domain.LocaleEnglish.Message(domain.MsgAPIKeyMissing)},
		{"invalid config", fmt.Errorf("wrap: %w", generation.ErrInvalidConfig), domain.LocaleEnglish, domain.LocaleEnglish.Message(domain.MsgAPIKeyMissing)},
		{"unauthorized", generation.ErrUnauthorized, domain.LocaleChinese, domain.LocaleChinese.Message(domain.MsgAPIKeyInvalid)},
		{"rate limited", fmt.Errorf("after 3 attempts: %w", generation.ErrRateLimited), domain.LocaleEnglish, domain.LocaleEnglish.Message(domain.MsgRateLimited)},
		{"timeout", generation.ErrTimeout, domain.LocaleEnglish, domain.LocaleEnglish.Message(domain.MsgTimeout)},
		{"extraction", ErrContentExtraction, domain.LocaleEnglish, domain.LocaleEnglish.Message(domain.MsgContentExtraction)},
		{"status text", errors.New("upstream answered HTTP 429"), domain.LocaleEnglish, domain.LocaleEnglish.Message(domain.MsgRateLimited)},
		{"timed out text", errors.New("request timed out"), domain.LocaleChinese, domain.LocaleChinese.Message(domain.MsgTimeout)},
		{"unknown", errors.New("model overloaded"), domain.LocaleEnglish, "model overloaded"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, FailureMessage(tc.err, tc.locale))
		})
	}
}

func TestFailureMessageRedactsUnknownErrors(t *testing.T) {
	t.Parallel()

	err := errors.New("provider rejected payload for key sk-abcdefghijklmnopqrstuvwx")
	msg := FailureMessage(err, domain.LocaleEnglish)
	assert.NotContains(t, msg, "sk-abcdefghijklmnopqrstuvwx")
	assert.Contains(t, msg, "provider rejected payload")
}

func TestIsConfigError(t *testing.T) {
	t.Parallel()
	assert.True(t, IsConfigError(ErrMissingAPIKey))
	assert.True(t, IsConfigError(fmt.Errorf("x: %w", generation.ErrInvalidConfig)))
	assert.False(t, IsConfigError(generation.ErrRateLimited))
}
