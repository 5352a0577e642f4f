package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/draftwire/draftwire/internal/auth"
)

func (s *server) handleAuthStart(c *gin.Context) {
	redirectURL, err := s.opts.Flow.Start(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Redirect(http.StatusFound, redirectURL)
}

func (s *server) handleAuthCallback(c *gin.Context) {
	err := s.opts.Flow.Callback(
		c.Request.Context(),
		c,
		c.Query("code"),
		c.Query("state"),
		c.Query("error"),
	)
	if err != nil {
		var fe *auth.FlowError
		code := auth.CodeTokenExchangeFailed
		if errors.As(err, &fe) {
			code = fe.Code
		}
		c.Redirect(http.StatusFound, s.origin()+"/?error="+code)
		return
	}
	c.Redirect(http.StatusFound, s.origin()+"/")
}

func (s *server) handleAuthStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"connected": s.opts.Store.AccessToken(c) != ""})
}

func (s *server) handleAuthLogout(c *gin.Context) {
	s.opts.Store.ClearAccessToken(c)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *server) origin() string {
	return strings.TrimRight(s.opts.Origin, "/")
}
