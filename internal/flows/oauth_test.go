package flows

import (
	"context"
	"errors"
	"testing"
)

type callbackHarness struct {
	verifier      string
	hasVerifier   bool
	cleared       int
	exchangeCalls int
	exchangeCode  string
	exchangeVer   string
	exchangeErr   error
	adoptCalls    int
	adopted       bool
	adoptErr      error
}

func (h *callbackHarness) deps() CallbackDeps {
	return CallbackDeps{
		Verifier: func(context.Context) (string, bool) {
			return h.verifier, h.hasVerifier
		},
		ClearVerifier: func(context.Context) {
			h.cleared++
		},
		Exchange: func(_ context.Context, code, verifier string) error {
			h.exchangeCalls++
			h.exchangeCode = code
			h.exchangeVer = verifier
			return h.exchangeErr
		},
		AdoptActiveSession: func(context.Context) (bool, error) {
			h.adoptCalls++
			return h.adopted, h.adoptErr
		},
	}
}

func TestRunStartStoresVerifierBeforeURL(t *testing.T) {
	var order []string

	res := RunStart(context.Background(), "/checkout", StartDeps{
		PersistReturnURL: func(_ context.Context, u string) {
			order = append(order, "return-url:"+u)
		},
		AuthorizeURL: func(context.Context) (string, string, error) {
			order = append(order, "authorize")
			return "https://id.example.com/authorize?x=1", "verifier-1", nil
		},
		StoreVerifier: func(_ context.Context, v string) {
			order = append(order, "store:"+v)
		},
	})

	if res.Err != nil {
		t.Fatalf("start failed: %v", res.Err)
	}
	if res.URL != "https://id.example.com/authorize?x=1" {
		t.Fatalf("unexpected url %q", res.URL)
	}
	want := []string{"return-url:/checkout", "authorize", "store:verifier-1"}
	if len(order) != len(want) {
		t.Fatalf("unexpected call order %v", order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("call %d = %q, want %q", i, order[i], want[i])
		}
	}
}

func TestRunStartAuthorizeFailure(t *testing.T) {
	stored := false
	boom := errors.New("provider down")

	res := RunStart(context.Background(), "", StartDeps{
		AuthorizeURL: func(context.Context) (string, string, error) {
			return "", "", boom
		},
		StoreVerifier: func(context.Context, string) {
			stored = true
		},
	})

	if !errors.Is(res.Err, boom) {
		t.Fatalf("expected authorize error, got %v", res.Err)
	}
	if stored {
		t.Fatalf("verifier must not be stored when no URL was produced")
	}
}

func TestRunCallbackMissingCode(t *testing.T) {
	h := &callbackHarness{hasVerifier: true, verifier: "v"}

	res := RunCallback(context.Background(), "https://app.example.com/callback", h.deps())

	if res.Outcome != CallbackMissingCode {
		t.Fatalf("outcome = %v, want missing code", res.Outcome)
	}
	if h.exchangeCalls != 0 {
		t.Fatalf("exchange must never run without a code")
	}
	if h.cleared != 1 {
		t.Fatalf("verifier cleared %d times, want 1", h.cleared)
	}
}

func TestRunCallbackDeniedConsent(t *testing.T) {
	h := &callbackHarness{}

	res := RunCallback(context.Background(),
		"https://app.example.com/callback?error=access_denied&error_description=user+denied",
		h.deps())

	if res.Outcome != CallbackMissingCode {
		t.Fatalf("outcome = %v, want missing code", res.Outcome)
	}
	if res.ProviderError != "user denied" {
		t.Fatalf("provider error = %q", res.ProviderError)
	}
}

func TestRunCallbackExchangesStoredVerifier(t *testing.T) {
	h := &callbackHarness{hasVerifier: true, verifier: "verifier-1"}

	res := RunCallback(context.Background(), "https://app.example.com/callback?code=abc123", h.deps())

	if res.Outcome != CallbackExchanged {
		t.Fatalf("outcome = %v, want exchanged", res.Outcome)
	}
	if h.exchangeCode != "abc123" || h.exchangeVer != "verifier-1" {
		t.Fatalf("exchange called with code=%q verifier=%q", h.exchangeCode, h.exchangeVer)
	}
	if h.cleared != 1 {
		t.Fatalf("verifier cleared %d times, want 1", h.cleared)
	}
	if h.adoptCalls != 0 {
		t.Fatalf("adoption must not be probed when the verifier is present")
	}
}

func TestRunCallbackAdoptsProviderSession(t *testing.T) {
	h := &callbackHarness{adopted: true}

	res := RunCallback(context.Background(), "https://app.example.com/callback?code=abc123", h.deps())

	if res.Outcome != CallbackAdopted {
		t.Fatalf("outcome = %v, want adopted", res.Outcome)
	}
	if h.exchangeCalls != 0 {
		t.Fatalf("exchange must not run when the provider session is adopted")
	}
	if h.cleared != 1 {
		t.Fatalf("verifier cleared %d times, want 1", h.cleared)
	}
}

func TestRunCallbackStateLost(t *testing.T) {
	h := &callbackHarness{}

	res := RunCallback(context.Background(), "https://app.example.com/callback?code=abc123", h.deps())

	if res.Outcome != CallbackStateLost {
		t.Fatalf("outcome = %v, want state lost", res.Outcome)
	}
	if h.adoptCalls != 1 {
		t.Fatalf("adoption probed %d times, want 1", h.adoptCalls)
	}
	if h.cleared != 1 {
		t.Fatalf("verifier cleared %d times, want 1", h.cleared)
	}
}

func TestRunCallbackExchangeFailure(t *testing.T) {
	boom := errors.New("invalid grant")
	h := &callbackHarness{hasVerifier: true, verifier: "v", exchangeErr: boom}

	res := RunCallback(context.Background(), "https://app.example.com/callback?code=abc123", h.deps())

	if res.Outcome != CallbackExchangeFailed {
		t.Fatalf("outcome = %v, want exchange failed", res.Outcome)
	}
	if !errors.Is(res.Err, boom) {
		t.Fatalf("expected raw exchange error, got %v", res.Err)
	}
	if h.exchangeCalls != 1 {
		t.Fatalf("exchange ran %d times, want exactly 1 (codes are single-use)", h.exchangeCalls)
	}
	if h.cleared != 1 {
		t.Fatalf("verifier cleared %d times, want 1", h.cleared)
	}
}
