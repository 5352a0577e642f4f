package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/draftwire/draftwire/internal/llm"
	"github.com/draftwire/draftwire/internal/models"
)

func (s *server) handleSignedURL(c *gin.Context) {
	url, err := s.opts.Realtime.SignedURL(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"signedUrl": url})
}

type intentRequest struct {
	Transcript string `json:"transcript"`
}

func (s *server) handleIntent(c *gin.Context) {
	var req intentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Transcript == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "transcript is required"})
		return
	}
	result, err := s.opts.Classify.ClassifyIntent(c.Request.Context(), req.Transcript)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"isUiRequest": result.IsUIRequest,
		"confidence":  result.Confidence,
		"component":   result.Component,
		"intent":      result.Intent,
		"context":     result.Context,
	})
}

type mockupRequest struct {
	Component   string   `json:"component"`
	Intent      string   `json:"intent"`
	Context     string   `json:"context"`
	BrandColors []string `json:"brandColors"`
}

func (s *server) handleMockup(c *gin.Context) {
	var req mockupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Component == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "component is required"})
		return
	}
	if req.Intent == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "intent is required"})
		return
	}
	variants, err := s.opts.Generate.GenerateMockups(c.Request.Context(), llm.MockupRequest{
		Component:   req.Component,
		Intent:      req.Intent,
		Context:     req.Context,
		BrandColors: req.BrandColors,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	out := make([]gin.H, len(variants))
	for i, v := range variants {
		out[i] = gin.H{"name": v.Name, "html": v.HTML, "css": v.CSS}
	}
	c.JSON(http.StatusOK, gin.H{"variants": out})
}

type transcriptRequest struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
	IsFinal bool   `json:"isFinal"`
}

func (s *server) handleTranscript(c *gin.Context) {
	var req transcriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}
	speaker := models.Speaker(req.Speaker)
	if speaker == "" {
		speaker = models.SpeakerUser
	}
	s.opts.Pipeline.HandleTranscript(models.TranscriptEvent{
		ID:        uuid.NewString(),
		Speaker:   speaker,
		Text:      req.Text,
		IsFinal:   req.IsFinal,
		Timestamp: time.Now(),
	})
	c.JSON(http.StatusAccepted, gin.H{"accepted": true})
}
