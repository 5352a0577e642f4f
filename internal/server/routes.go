package server

import "github.com/gin-gonic/gin"

// registerRoutes sets up all routes on the gin router.
func (s *server) registerRoutes(router *gin.Engine) {
	// Realtime handshake and stateless model calls.
	router.GET("/signed-url", s.handleSignedURL)
	router.POST("/intent", s.handleIntent)
	router.POST("/mockup", s.handleMockup)

	// Ticket pipeline.
	router.POST("/transcript", s.handleTranscript)
	router.GET("/tickets", s.handleTicketList)
	router.POST("/tickets/:id/select", s.handleTicketSelect)
	router.POST("/tickets/:id/retry", s.handleTicketRetry)
	router.POST("/tickets/:id/export", s.handleTicketExport)

	// Issue tracker passthrough.
	router.POST("/linear/issues", s.handleCreateIssue)

	// OAuth flow and session.
	router.GET("/auth/linear/start", s.handleAuthStart)
	router.GET("/auth/linear/callback", s.handleAuthCallback)
	router.GET("/auth/linear/status", s.handleAuthStatus)
	router.POST("/auth/linear/logout", s.handleAuthLogout)
}
