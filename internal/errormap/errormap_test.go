package errormap

import "testing"

func TestClassify(t *testing.T) {
	cases := []struct {
		name       string
		err        DriverError
		wantKind   Kind
		wantStatus int
	}{
		{
			name:       "openai server_error triggers retry",
			err:        DriverError{Provider: "openai", Code: "server_error", Message: "boom"},
			wantKind:   KindRateLimit,
			wantStatus: 429,
		},
		{
			name:       "openai rate limit on tokens is not retryable",
			err:        DriverError{Provider: "openai", Code: "rate_limit_exceeded", Type: "tokens", Message: "too big"},
			wantKind:   KindRequestTooLarge,
			wantStatus: 413,
		},
		{
			name:       "openai rate limit otherwise is retryable backpressure",
			err:        DriverError{Provider: "openai", Code: "rate_limit_exceeded", Type: "requests", Message: "slow down"},
			wantKind:   KindRateLimit,
			wantStatus: 429,
		},
		{
			name:       "pre-stream transport error is overloaded",
			err:        DriverError{Provider: "google", Transport: true, Phase: PhasePreStream, Message: "dial tcp: refused"},
			wantKind:   KindOverloaded,
			wantStatus: 503,
		},
		{
			name:       "post-headers transport error has no status",
			err:        DriverError{Provider: "google", Transport: true, Phase: PhasePostHeaders, Message: "connection reset"},
			wantKind:   KindOverloaded,
			wantStatus: 0,
		},
		{
			name:       "any other provider error passes through at 400",
			err:        DriverError{Provider: "xai", Message: "invalid model"},
			wantKind:   KindAPIError,
			wantStatus: 400,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(tc.err)
			if got.Kind != tc.wantKind {
				t.Fatalf("Kind = %q, want %q", got.Kind, tc.wantKind)
			}
			if got.HTTPStatus != tc.wantStatus {
				t.Fatalf("HTTPStatus = %d, want %d", got.HTTPStatus, tc.wantStatus)
			}
		})
	}
}

func TestClassificationBody(t *testing.T) {
	c := Classify(DriverError{Provider: "xai", Message: "invalid model"})
	body := c.Body()
	if body.Type != "error" {
		t.Fatalf("Type = %q, want error", body.Type)
	}
	if body.Error.Type != string(KindAPIError) {
		t.Fatalf("Error.Type = %q, want %q", body.Error.Type, KindAPIError)
	}
	if body.Error.Message != "invalid model" {
		t.Fatalf("Error.Message = %q, want invalid model", body.Error.Message)
	}
}
