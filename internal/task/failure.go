package task

import (
	"errors"
	"strings"

	"github.com/phrazzld/smartmark/internal/domain"
	"github.com/phrazzld/smartmark/internal/generation"
	"github.com/phrazzld/smartmark/internal/redact"
)

var failureSentinels = []struct {
	err error
	key domain.MessageKey
}{
	{ErrMissingAPIKey, domain.MsgAPIKeyMissing},
	{generation.ErrInvalidConfig, domain.MsgAPIKeyMissing},
	{generation.ErrUnauthorized, domain.MsgAPIKeyInvalid},
	{generation.ErrRateLimited, domain.MsgRateLimited},
	{generation.ErrTimeout, domain.MsgTimeout},
	{ErrContentExtraction, domain.MsgContentExtraction},
}

// Substrings of error text from providers that do not use the sentinels.
var failureSubstrings = []struct {
	substr string
	key    domain.MessageKey
}{
	{"api key", domain.MsgAPIKeyInvalid},
	{"unauthorized", domain.MsgAPIKeyInvalid},
	{"401", domain.MsgAPIKeyInvalid},
	{"rate limit", domain.MsgRateLimited},
	{"429", domain.MsgRateLimited},
	{"timeout", domain.MsgTimeout},
	{"timed out", domain.MsgTimeout},
	{"extraction", domain.MsgContentExtraction},
}

// FailureMessage maps an enrichment error to the message stored in aiError.
// Unknown errors keep their own text with credentials redacted.
func FailureMessage(err error, locale domain.Locale) string {
	if err == nil {
		return ""
	}
	for _, s := range failureSentinels {
		if errors.Is(err, s.err) {
			return locale.Message(s.key)
		}
	}

	text := strings.ToLower(err.Error())
	for _, s := range failureSubstrings {
		if strings.Contains(text, s.substr) {
			return locale.Message(s.key)
		}
	}
	return redact.Error(err)
}
