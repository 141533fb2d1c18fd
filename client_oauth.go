package authkit

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/cartsmith/authkit/internal/flows"
)

// SignInWithOAuth describes the signinwithoauth operation and its observable behavior.
//
// SignInWithOAuth may return an error when input validation, dependency calls, or security checks fail.
// SignInWithOAuth does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) SignInWithOAuth(ctx context.Context, provider string) (*OAuthStart, error) {
	if c == nil || c.provider == nil {
		return nil, ErrClientNotReady
	}

	flowID := uuid.NewString()
	returnURL := returnURLFromContext(ctx)

	result := flows.RunStart(ctx, returnURL, flows.StartDeps{
		PersistReturnURL: func(ctx context.Context, url string) {
			if err := c.creds.Set(ctx, c.returnURLKey(), url); err != nil {
				c.log.Warn().Err(err).Msg("return url persist failed")
				c.metricInc(MetricStorageSwallowed)
			}
		},
		AuthorizeURL: func(ctx context.Context) (string, string, error) {
			redirect, err := c.provider.OAuthAuthorizeURL(ctx, provider, c.config.Provider.RedirectURL)
			if err != nil {
				return "", "", err
			}
			return redirect.URL, redirect.Verifier, nil
		},
		StoreVerifier: func(ctx context.Context, verifier string) {
			c.vault.Store(ctx, verifier)
		},
	})

	if result.Err != nil {
		wrapped := wrapProvider(ErrOAuthInitiation, result.Err)
		c.metricInc(MetricOAuthInitFailure)
		c.emitAudit(ctx, auditEventOAuthInitFailure, false, "", provider, flowID, wrapped, nil)
		return nil, wrapped
	}

	c.metricInc(MetricOAuthInitiated)
	c.emitAudit(ctx, auditEventOAuthInitiated, true, "", provider, flowID, nil, func() map[string]string {
		md := map[string]string{}
		if returnURL != "" {
			md["return_url"] = returnURL
		}
		return md
	})

	return &OAuthStart{URL: result.URL, FlowID: flowID}, nil
}

// HandleOAuthCallback describes the handleoauthcallback operation and its observable behavior.
//
// HandleOAuthCallback may return an error when input validation, dependency calls, or security checks fail.
// HandleOAuthCallback does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) HandleOAuthCallback(ctx context.Context, currentURI string) (*OAuthCallbackResult, error) {
	if c == nil || c.provider == nil {
		return nil, ErrClientNotReady
	}

	result := flows.RunCallback(ctx, currentURI, flows.CallbackDeps{
		Verifier: func(ctx context.Context) (string, bool) {
			return c.vault.Get(ctx)
		},
		ClearVerifier: func(ctx context.Context) {
			c.vault.Clear(ctx)
		},
		Exchange: func(ctx context.Context, code, verifier string) error {
			ps, err := c.provider.ExchangeCode(ctx, code, verifier)
			if err != nil {
				return err
			}
			if ps == nil || !ps.Session.Valid() {
				return fmt.Errorf("provider returned no session for code exchange")
			}
			c.adoptProviderSession(ctx, ps, true)
			c.upsertProfile(ctx, ps.User)
			return nil
		},
		AdoptActiveSession: func(ctx context.Context) (bool, error) {
			ps, err := c.provider.ActiveSession(ctx)
			if err != nil {
				return false, err
			}
			if ps == nil || !ps.Session.Valid() {
				return false, nil
			}
			c.adoptProviderSession(ctx, ps, true)
			c.upsertProfile(ctx, ps.User)
			return true, nil
		},
	})

	switch result.Outcome {
	case flows.CallbackExchanged:
		c.metricInc(MetricOAuthCallbackSuccess)
		c.emitAudit(ctx, auditEventOAuthCallbackSuccess, true, c.currentUserID(), "", "", nil, nil)
		return c.callbackResult(ctx), nil

	case flows.CallbackAdopted:
		c.metricInc(MetricOAuthSessionAdopted)
		c.emitAudit(ctx, auditEventOAuthSessionAdopted, true, c.currentUserID(), "", "", nil, nil)
		return c.callbackResult(ctx), nil

	case flows.CallbackMissingCode:
		err := ErrOAuthMissingCode
		if result.ProviderError != "" {
			err = fmt.Errorf("%w: %s", ErrOAuthMissingCode, result.ProviderError)
		}
		c.metricInc(MetricOAuthCallbackFailure)
		c.emitAudit(ctx, auditEventOAuthCallbackFailure, false, "", "", "", err, func() map[string]string {
			md := map[string]string{}
			if result.ProviderError != "" {
				md["provider_error"] = result.ProviderError
			}
			return md
		})
		return nil, err

	case flows.CallbackStateLost:
		c.metricInc(MetricOAuthStateLost)
		c.emitAudit(ctx, auditEventOAuthCallbackFailure, false, "", "", "", ErrOAuthStateLost, nil)
		return nil, ErrOAuthStateLost

	default:
		wrapped := wrapProvider(ErrOAuthExchange, result.Err)
		c.metricInc(MetricOAuthCallbackFailure)
		c.emitAudit(ctx, auditEventOAuthCallbackFailure, false, "", "", "", wrapped, nil)
		return nil, wrapped
	}
}

// callbackResult packages the freshly adopted session together with the
// return destination persisted when the flow started. The stored return URL
// is single use.
func (c *Client) callbackResult(ctx context.Context) *OAuthCallbackResult {
	out := &OAuthCallbackResult{}

	if s, ok := c.snapshot(); ok {
		out.Session = c.sessionInfo(s)
	}

	key := c.returnURLKey()
	if url, ok, err := c.creds.Get(ctx, key); err == nil && ok {
		out.ReturnURL = url
	}
	if err := c.creds.Remove(ctx, key); err != nil {
		c.log.Warn().Err(err).Msg("return url cleanup failed")
		c.metricInc(MetricStorageSwallowed)
	}

	return out
}

func (c *Client) returnURLKey() string {
	return c.config.Storage.KeyPrefix + ".return-url"
}

func (c *Client) currentUserID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.user == nil {
		return ""
	}
	return c.user.ID
}
