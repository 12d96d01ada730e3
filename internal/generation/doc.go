// Package generation defines the AI completion boundary used by the enrichment
// pipeline and the content features (ask and quiz).
//
// A Completer turns a prompt into completion text for one provider. Providers
// live in internal/platform (openai-compatible chat completions and Gemini);
// Router picks one by the configured provider name. CompleteWithRetry adds the
// transient-error retry policy. The rest of the package builds prompts from
// embedded templates and parses model output into validated domain values,
// degrading to defaults rather than failing when the output is malformed.
package generation
