package llm

import "context"

// ResponseKind tags the shape of a generation result. Providers return one
// of three variants and the query pipeline resolves them by explicit match
// instead of probing fields.
type ResponseKind int

const (
	// PlainText: the provider returned a single string.
	PlainText ResponseKind = iota
	// StructuredContent: the provider returned distinct textual parts.
	StructuredContent
	// Unknown: anything else; Raw is serialized as a last resort.
	Unknown
)

type Response struct {
	Kind  ResponseKind
	Text  string
	Parts []string
	Raw   any
}

type Provider interface {
	Generate(ctx context.Context, prompt string) (Response, error)
}
