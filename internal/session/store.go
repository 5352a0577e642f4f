package session

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Cookie names and lifetimes.
const (
	accessTokenCookie = "dw_access_token"
	oauthStateCookie  = "dw_oauth_state"

	accessTokenMaxAge = 7 * 24 * 60 * 60 // seconds
	oauthStateMaxAge  = 10 * 60
)

// Store reads and writes the signed session cookies on a request. Cookies
// are httpOnly and SameSite=Lax; the Secure flag follows the deployment
// environment.
type Store struct {
	codec  *Codec
	secure bool
}

// NewStore creates a Store backed by codec. secure controls the cookie
// Secure flag and should be true in production.
func NewStore(codec *Codec, secure bool) *Store {
	return &Store{codec: codec, secure: secure}
}

// AccessToken returns the verified access token from the request, or ""
// when the cookie is missing or fails verification.
func (s *Store) AccessToken(c *gin.Context) string {
	blob, err := c.Cookie(accessTokenCookie)
	if err != nil {
		return ""
	}
	token, ok := s.codec.Verify(blob)
	if !ok {
		return ""
	}
	return token
}

// SetAccessToken writes the signed access-token cookie (≈7 days).
func (s *Store) SetAccessToken(c *gin.Context, token string) {
	s.setCookie(c, accessTokenCookie, s.codec.Sign(token), accessTokenMaxAge)
}

// ClearAccessToken deletes the access-token cookie.
func (s *Store) ClearAccessToken(c *gin.Context) {
	s.setCookie(c, accessTokenCookie, "", -1)
}

// IssueOAuthState generates a fresh random nonce, stores it as a signed
// short-lived cookie, and returns the plaintext nonce for embedding in the
// outbound authorization URL.
func (s *Store) IssueOAuthState(c *gin.Context) (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("session: generate state: %w", err)
	}
	state := hex.EncodeToString(buf)
	s.setCookie(c, oauthStateCookie, s.codec.Sign(state), oauthStateMaxAge)
	return state, nil
}

// ConsumeOAuthState verifies the stored nonce against provided and deletes
// the cookie. The nonce is single-use: the cookie is removed on success,
// so a second callback with the same state fails. Returns false when the
// cookie is missing, unverifiable, or does not match.
func (s *Store) ConsumeOAuthState(c *gin.Context, provided string) bool {
	blob, err := c.Cookie(oauthStateCookie)
	if err != nil {
		return false
	}
	stored, ok := s.codec.Verify(blob)
	if !ok || provided == "" || stored != provided {
		return false
	}
	s.setCookie(c, oauthStateCookie, "", -1)
	return true
}

func (s *Store) setCookie(c *gin.Context, name, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, maxAge, "/", "", s.secure, true)
}
