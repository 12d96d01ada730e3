package domain

// MessageKey names a user-facing string shown in place of raw errors or
// missing AI output.
type MessageKey string

// Known user-facing messages
const (
	MsgAPIKeyMissing     MessageKey = "api_key_missing"
	MsgAPIKeyInvalid     MessageKey = "api_key_invalid"
	MsgRateLimited       MessageKey = "rate_limited"
	MsgTimeout           MessageKey = "timeout"
	MsgContentExtraction MessageKey = "content_extraction_failed"
	MsgNoSummary         MessageKey = "no_summary"
	MsgUncategorized     MessageKey = "uncategorized"
	MsgFallbackTag       MessageKey = "fallback_tag"
	MsgUngrounded        MessageKey = "ungrounded_answer"
)

var messages = map[Locale]map[MessageKey]string{
	LocaleEnglish: {
		MsgAPIKeyMissing:     "API key missing. Configure an AI provider in settings.",
		MsgAPIKeyInvalid:     "API key is invalid or expired.",
		MsgRateLimited:       "The AI provider rate limit was reached. Try again later.",
		MsgTimeout:           "The AI request timed out.",
		MsgContentExtraction: "Content extraction failed.",
		MsgNoSummary:         "No summary available.",
		MsgUncategorized:     "Uncategorized",
		MsgFallbackTag:       "unsorted",
		MsgUngrounded:        "The page content does not contain enough information to answer this question.",
	},
	LocaleChinese: {
		MsgAPIKeyMissing:     "缺少 API 密钥，请在设置中配置 AI 服务。",
		MsgAPIKeyInvalid:     "API 密钥无效或已过期。",
		MsgRateLimited:       "已达到 AI 服务的速率限制，请稍后重试。",
		MsgTimeout:           "AI 请求超时。",
		MsgContentExtraction: "内容提取失败。",
		MsgNoSummary:         "暂无摘要。",
		MsgUncategorized:     "未分类",
		MsgFallbackTag:       "未整理",
		MsgUngrounded:        "页面内容中没有足够的信息来回答这个问题。",
	},
}

// Message returns the localized string, falling back to English.
func (l Locale) Message(key MessageKey) string {
	if msg, ok := messages[l][key]; ok {
		return msg
	}
	return messages[LocaleEnglish][key]
}
