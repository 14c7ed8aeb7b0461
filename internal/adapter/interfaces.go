// Package adapter holds the thin shims to the out-of-core collaborators:
// the local language model, speech-to-text, and the ethics detector. Each is
// consumed through a narrow interface; the core never depends on their
// implementations.
package adapter

import "context"

// LLM is the loopback language-model service. Prompts and responses are
// never logged. All calls honor the caller's context deadline and fail with
// ErrTimeout instead of blocking.
type LLM interface {
	// Available reports whether the service answers on its pinned loopback
	// address.
	Available(ctx context.Context) bool

	// Generate produces a completion for prompt using model. The model must
	// be on the compiled-in allowlist.
	Generate(ctx context.Context, model, prompt string) (string, error)

	// PolishText rewrites already de-identified text for readability. It
	// must never receive original note text.
	PolishText(ctx context.Context, deidentified string) (string, error)
}

// SpeechToText transcribes recorded audio. Audio bytes stay in memory; the
// transcript is treated as raw note input and passes through the sanitizer
// before persistence.
type SpeechToText interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// EthicsDetector scans note text and returns detection IDs only. The
// evidence text stays inside the detector; the core stores and audits the
// IDs.
type EthicsDetector interface {
	Scan(ctx context.Context, noteText string) (detectionIDs []string, err error)
}
