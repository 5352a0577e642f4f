// Package auth drives the Linear OAuth authorization-code flow. The flow
// never redirects by itself: handlers translate its typed failures into
// redirects carrying an error code.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/draftwire/draftwire/internal/session"
	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
)

// Linear OAuth endpoints.
const (
	defaultAuthURL  = "https://linear.app/oauth/authorize"
	defaultTokenURL = "https://api.linear.app/oauth/token"
)

// Failure codes surfaced to the app origin as ?error=<code>.
const (
	CodeProviderDenied      = "provider_denied"
	CodeMissingParameter    = "missing_parameter"
	CodeInvalidState        = "invalid_state"
	CodeTokenExchangeFailed = "token_exchange_failed"
)

// FlowError is a typed OAuth failure. Code is stable and machine-readable;
// Detail carries upstream status/body where available.
type FlowError struct {
	Code   string
	Detail string
}

func (e *FlowError) Error() string {
	if e.Detail == "" {
		return "auth: " + e.Code
	}
	return fmt.Sprintf("auth: %s: %s", e.Code, e.Detail)
}

// Opts holds parameters for creating a Flow.
type Opts struct {
	Store        *session.Store
	ClientID     string
	ClientSecret string
	RedirectURL  string
	AuthURL      string // defaults to the Linear authorize endpoint
	TokenURL     string // defaults to the Linear token endpoint
}

// Flow performs the two externally-triggered transitions of the
// authorization-code exchange, using the session store for CSRF state.
type Flow struct {
	store *session.Store
	cfg   *oauth2.Config
}

// New creates a Flow.
func New(opts Opts) (*Flow, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("auth: store is required")
	}
	if opts.ClientID == "" || opts.ClientSecret == "" {
		return nil, fmt.Errorf("auth: client id and secret are required")
	}
	authURL := opts.AuthURL
	if authURL == "" {
		authURL = defaultAuthURL
	}
	tokenURL := opts.TokenURL
	if tokenURL == "" {
		tokenURL = defaultTokenURL
	}
	return &Flow{
		store: opts.Store,
		cfg: &oauth2.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			RedirectURL:  opts.RedirectURL,
			Scopes:       []string{"read", "issues:create"},
			Endpoint: oauth2.Endpoint{
				AuthURL:   authURL,
				TokenURL:  tokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
	}, nil
}

// Start issues a fresh CSRF state cookie and returns the provider
// authorization URL for a redirect response.
func (f *Flow) Start(c *gin.Context) (string, error) {
	state, err := f.store.IssueOAuthState(c)
	if err != nil {
		return "", err
	}
	return f.cfg.AuthCodeURL(state), nil
}

// Callback validates the provider callback, exchanges the code for an
// access token, and stores the token in the session. Any failure is a
// *FlowError; the caller turns it into a redirect with the error code.
func (f *Flow) Callback(ctx context.Context, c *gin.Context, code, state, providerError string) error {
	if providerError != "" {
		return &FlowError{Code: CodeProviderDenied, Detail: providerError}
	}
	if code == "" || state == "" {
		return &FlowError{Code: CodeMissingParameter}
	}
	if !f.store.ConsumeOAuthState(c, state) {
		return &FlowError{Code: CodeInvalidState}
	}
	token, err := f.cfg.Exchange(ctx, code)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) {
			return &FlowError{
				Code:   CodeTokenExchangeFailed,
				Detail: fmt.Sprintf("status %d: %s", re.Response.StatusCode, string(re.Body)),
			}
		}
		return &FlowError{Code: CodeTokenExchangeFailed, Detail: err.Error()}
	}
	f.store.SetAccessToken(c, token.AccessToken)
	return nil
}
