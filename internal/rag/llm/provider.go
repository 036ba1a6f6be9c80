package llm

import "context"

// Provider is the primary text generator: one user message in, one completion out.
type Provider interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// MultimodalProvider is the optional alternate provider used for slide text and images.
type MultimodalProvider interface {
	GenerateText(ctx context.Context, prompt string, model string) (string, error)
	// GenerateImage returns the path of the saved image file.
	GenerateImage(ctx context.Context, model string, prompt string) (string, error)
}
