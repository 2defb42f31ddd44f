package ports

import "context"

type NarratorMessage struct {
	Role    string
	Content string
}

type NarrationRequest struct {
	Messages    []NarratorMessage
	Temperature float32
}

// Narrator is the external generative text provider. The returned text is
// untrusted and may not conform to the output contract; callers validate.
// Streaming providers must buffer the full candidate before returning.
type Narrator interface {
	Generate(ctx context.Context, req NarrationRequest) (string, error)
}
