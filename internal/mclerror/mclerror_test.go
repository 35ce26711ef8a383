package mclerror

import (
	"errors"
	"testing"
)

func TestFromStatusTable(t *testing.T) {
	tests := []struct {
		status int
		want   Kind
	}{
		{200, OK},
		{201, Created},
		{206, PartialContent},
		{400, BadRequest},
		{401, Unauthorized},
		{403, Forbidden},
		{404, NotFound},
		{409, Conflict},
		{412, PreconditionFail},
		{413, RequestPayloadTooLarge},
		{429, TooManyRequests},
		{500, ServerFail},
		{503, ServerFail},
		{418, UnexpectedResultCode},
		{200 + 1000, UnexpectedResultCode},
	}
	for _, tt := range tests {
		if got := FromStatus(tt.status); got != tt.want {
			t.Errorf("FromStatus(%d) = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestFromHTTPStatusSuccessIsNil(t *testing.T) {
	if err := FromHTTPStatus(200, "corr", ""); err != nil {
		t.Fatalf("expected nil for 200, got %v", err)
	}
	if err := FromHTTPStatus(201, "corr", ""); err != nil {
		t.Fatalf("expected nil for 201, got %v", err)
	}
}

func TestFromHTTPStatusFailureCarriesContext(t *testing.T) {
	err := FromHTTPStatus(401, "abc123", `{"error":"invalid_token"}`)
	if err == nil {
		t.Fatal("expected non-nil error for 401")
	}
	if err.Kind != Unauthorized {
		t.Errorf("Kind = %q, want %q", err.Kind, Unauthorized)
	}
	if err.Correlation != "abc123" {
		t.Errorf("Correlation = %q, want %q", err.Correlation, "abc123")
	}
	if err.Body == "" {
		t.Error("expected body to be retained")
	}
}

func TestErrorIsMatchesOnKindOnly(t *testing.T) {
	a := New(NotOnboarded, "agent has no client_id yet")
	b := New(NotOnboarded, "a different message entirely")
	if !errors.Is(a, b) {
		t.Error("expected errors with the same Kind to match via errors.Is")
	}

	c := New(AlreadyOnboarded, "")
	if errors.Is(a, c) {
		t.Error("expected errors with different Kind to not match")
	}
}

func TestWrapUnwraps(t *testing.T) {
	cause := errors.New("dial tcp: no such host")
	err := Wrap(CouldNotResolveHost, "resolving host", cause)
	if !errors.Is(err, cause) {
		t.Error("expected Unwrap to expose the underlying cause")
	}
}

func TestKindOf(t *testing.T) {
	if got := KindOf(nil); got != "" {
		t.Errorf("KindOf(nil) = %q, want empty", got)
	}
	if got := KindOf(errors.New("plain error")); got != "" {
		t.Errorf("KindOf(plain error) = %q, want empty", got)
	}
	if got := KindOf(New(CredentialsNotLoaded, "")); got != CredentialsNotLoaded {
		t.Errorf("KindOf(*Error) = %q, want %q", got, CredentialsNotLoaded)
	}
	wrapped := Wrap(CouldNotConnect, "connecting", New(CredentialsNotLoaded, "inner"))
	if got := KindOf(wrapped); got != CouldNotConnect {
		t.Errorf("KindOf(wrapped) = %q, want outermost Kind %q", got, CouldNotConnect)
	}
}
