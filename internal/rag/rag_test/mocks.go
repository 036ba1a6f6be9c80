package rag_test

import (
	"context"
	"sync"

	"github.com/akolanti/notex/internal/rag/deepinsight"
)

// MockLLM implements llm.Provider and records every prompt it receives.
type MockLLM struct {
	OnComplete func(ctx context.Context, prompt string) (string, error)

	mu      sync.Mutex
	Prompts []string
}

func (m *MockLLM) Complete(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.Prompts = append(m.Prompts, prompt)
	m.mu.Unlock()
	if m.OnComplete != nil {
		return m.OnComplete(ctx, prompt)
	}
	return "mocked llm response", nil
}

func (m *MockLLM) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Prompts)
}

// MockMultimodal implements llm.MultimodalProvider.
type MockMultimodal struct {
	OnGenerateText  func(ctx context.Context, prompt string, model string) (string, error)
	OnGenerateImage func(ctx context.Context, model string, prompt string) (string, error)

	mu           sync.Mutex
	ImagePrompts []string
	TextModels   []string
}

func (m *MockMultimodal) GenerateText(ctx context.Context, prompt string, model string) (string, error) {
	m.mu.Lock()
	m.TextModels = append(m.TextModels, model)
	m.mu.Unlock()
	if m.OnGenerateText != nil {
		return m.OnGenerateText(ctx, prompt, model)
	}
	return "mocked multimodal text", nil
}

func (m *MockMultimodal) GenerateImage(ctx context.Context, model string, prompt string) (string, error) {
	m.mu.Lock()
	m.ImagePrompts = append(m.ImagePrompts, prompt)
	m.mu.Unlock()
	if m.OnGenerateImage != nil {
		return m.OnGenerateImage(ctx, model, prompt)
	}
	return "data/uploads/infograph_1.png", nil
}

// MockTool implements rag.ToolInvoker.
type MockTool struct {
	OnInvoke func(ctx context.Context, input string) deepinsight.Result
	Inputs   []string
}

func (m *MockTool) Invoke(ctx context.Context, input string) deepinsight.Result {
	m.Inputs = append(m.Inputs, input)
	if m.OnInvoke != nil {
		return m.OnInvoke(ctx, input)
	}
	return deepinsight.Result{Kind: deepinsight.Success, Report: "tool report"}
}
