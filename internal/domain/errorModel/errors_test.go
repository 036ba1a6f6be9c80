package errorModel

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantCode  int
		wantRetry bool
	}{
		{"nil", nil, http.StatusOK, false},
		{"invalid", InvalidRequest("unknown type %q", "poem"), http.StatusBadRequest, false},
		{"slides", fmt.Errorf("deck: %w", ErrTooManySlides), http.StatusBadRequest, false},
		{"not found", fmt.Errorf("notebook x: %w", ErrNotFound), http.StatusNotFound, false},
		{"not configured", NotConfigured("gemini client"), http.StatusServiceUnavailable, false},
		{"provider", ProviderFailure("openai", errors.New("quota")), http.StatusBadGateway, true},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, retry := Classify(tt.err)
			if code != tt.wantCode || retry != tt.wantRetry {
				t.Errorf("Classify() = (%d, %v), want (%d, %v)", code, retry, tt.wantCode, tt.wantRetry)
			}
		})
	}
}

func TestProviderFailure_KeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := ProviderFailure("openai", cause)
	if !errors.Is(err, cause) || !errors.Is(err, ErrProviderFailure) {
		t.Fatalf("expected both sentinel and cause in chain: %v", err)
	}
	if !strings.Contains(err.Error(), "openai") {
		t.Errorf("provider name missing from %q", err.Error())
	}
}
