package flows

import (
	"context"
	"net/url"
)

// StartDeps captures the sign-in initiation dependencies.
type StartDeps struct {
	PersistReturnURL func(ctx context.Context, returnURL string)
	AuthorizeURL     func(ctx context.Context) (authURL, verifier string, err error)
	StoreVerifier    func(ctx context.Context, verifier string)
}

type StartResult struct {
	URL string
	Err error
}

// RunStart builds the authorization redirect. The verifier is stored before
// the URL is handed back; the caller must not redirect until this returns.
func RunStart(ctx context.Context, returnURL string, deps StartDeps) StartResult {
	if returnURL != "" && deps.PersistReturnURL != nil {
		deps.PersistReturnURL(ctx, returnURL)
	}

	authURL, verifier, err := deps.AuthorizeURL(ctx)
	if err != nil {
		return StartResult{Err: err}
	}

	deps.StoreVerifier(ctx, verifier)

	return StartResult{URL: authURL}
}

// CallbackOutcome classifies how the callback concluded. The root package
// translates outcomes into its error taxonomy.
type CallbackOutcome int

const (
	// CallbackExchanged means the code was exchanged with the stored verifier.
	CallbackExchanged CallbackOutcome = iota
	// CallbackAdopted means the provider already held a session, typically
	// because it auto-exchanged the code before this handler ran.
	CallbackAdopted
	// CallbackMissingCode means the callback URI carried no code parameter.
	CallbackMissingCode
	// CallbackStateLost means the verifier could not be recovered and the
	// provider held no session to adopt.
	CallbackStateLost
	// CallbackExchangeFailed means the provider rejected the exchange.
	CallbackExchangeFailed
)

// CallbackDeps captures the callback handling dependencies. Exchange and
// AdoptActiveSession perform session adoption as a side effect; the flow
// only sequences and classifies.
type CallbackDeps struct {
	Verifier           func(ctx context.Context) (string, bool)
	ClearVerifier      func(ctx context.Context)
	Exchange           func(ctx context.Context, code, verifier string) error
	AdoptActiveSession func(ctx context.Context) (bool, error)
}

type CallbackResult struct {
	Outcome       CallbackOutcome
	Code          string
	ProviderError string
	Err           error
}

// RunCallback drives the post-redirect half of the OAuth flow. The verifier
// is cleared on every path, success or failure, so no stale state can
// poison the next attempt. Exchange is never retried: authorization codes
// are single-use.
func RunCallback(ctx context.Context, currentURI string, deps CallbackDeps) CallbackResult {
	defer deps.ClearVerifier(ctx)

	code, providerErr := parseCallbackURI(currentURI)
	if code == "" {
		return CallbackResult{Outcome: CallbackMissingCode, ProviderError: providerErr}
	}

	verifier, ok := deps.Verifier(ctx)
	if !ok {
		adopted, err := deps.AdoptActiveSession(ctx)
		if adopted {
			return CallbackResult{Outcome: CallbackAdopted, Code: code}
		}
		return CallbackResult{Outcome: CallbackStateLost, Code: code, Err: err}
	}

	if err := deps.Exchange(ctx, code, verifier); err != nil {
		return CallbackResult{Outcome: CallbackExchangeFailed, Code: code, Err: err}
	}

	return CallbackResult{Outcome: CallbackExchanged, Code: code}
}

// parseCallbackURI pulls the code and any provider error description out of
// the callback URI. A denied consent arrives as error/error_description
// with no code.
func parseCallbackURI(currentURI string) (code, providerErr string) {
	u, err := url.Parse(currentURI)
	if err != nil {
		return "", ""
	}

	q := u.Query()
	code = q.Get("code")

	providerErr = q.Get("error_description")
	if providerErr == "" {
		providerErr = q.Get("error")
	}

	return code, providerErr
}
