package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/draftwire/draftwire/internal/export"
	"github.com/draftwire/draftwire/internal/models"
	"github.com/draftwire/draftwire/internal/ticket"
	"github.com/draftwire/draftwire/internal/tracker"
)

// ticketJSON is the wire shape for one ticket.
type ticketJSON struct {
	ID                   string        `json:"id"`
	Status               string        `json:"status"`
	Intent               intentJSON    `json:"intent"`
	Variants             []variantJSON `json:"variants"`
	SelectedVariantIndex *int          `json:"selectedVariantIndex"`
	ExportedLocation     string        `json:"exportedLocation,omitempty"`
	CreatedAt            string        `json:"createdAt"`
}

type intentJSON struct {
	ID         string  `json:"id"`
	Confidence float64 `json:"confidence"`
	Component  string  `json:"component"`
	Intent     string  `json:"intent"`
	Context    string  `json:"context"`
	SourceText string  `json:"sourceText"`
}

type variantJSON struct {
	Name string `json:"name"`
	HTML string `json:"html"`
	CSS  string `json:"css"`
}

func toTicketJSON(t *models.Ticket) ticketJSON {
	variants := make([]variantJSON, len(t.Variants))
	for i, v := range t.Variants {
		variants[i] = variantJSON{Name: v.Name, HTML: v.Markup, CSS: v.Style}
	}
	return ticketJSON{
		ID:     t.ID,
		Status: t.Status,
		Intent: intentJSON{
			ID:         t.Intent.ID,
			Confidence: t.Intent.Confidence,
			Component:  t.Intent.Component,
			Intent:     t.Intent.Intent,
			Context:    t.Intent.Context,
			SourceText: t.Intent.SourceText,
		},
		Variants:             variants,
		SelectedVariantIndex: t.SelectedVariant,
		ExportedLocation:     t.ExportedLocation,
		CreatedAt:            t.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func (s *server) handleTicketList(c *gin.Context) {
	tickets, err := s.opts.Machine.Tickets()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	out := make([]ticketJSON, len(tickets))
	for i := range tickets {
		out[i] = toTicketJSON(&tickets[i])
	}
	c.JSON(http.StatusOK, gin.H{"tickets": out})
}

type selectRequest struct {
	Index int `json:"index"`
}

func (s *server) handleTicketSelect(c *gin.Context) {
	var req selectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	id := c.Param("id")
	if err := s.opts.Machine.SelectVariant(id, req.Index); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ticket.ErrNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	t, err := s.opts.Machine.Ticket(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, toTicketJSON(t))
}

func (s *server) handleTicketRetry(c *gin.Context) {
	id := c.Param("id")
	err := s.opts.Machine.Retry(id)
	switch {
	case errors.Is(err, ticket.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ticket.ErrNotPending):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusAccepted, gin.H{"accepted": true})
	}
}

func (s *server) handleTicketExport(c *gin.Context) {
	id := c.Param("id")
	t, err := s.opts.Machine.BeginExport(id)
	switch {
	case errors.Is(err, ticket.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	case errors.Is(err, ticket.ErrNotReady):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	token := s.opts.Store.AccessToken(c)
	issue, err := s.opts.Gateway.Export(c.Request.Context(), t, token)
	if err != nil {
		s.opts.Machine.FailExport(id)
		if errors.Is(err, export.ErrUnauthenticated) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := s.opts.Machine.MarkExported(id, issue.URL); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	s.opts.Notifier.TicketExported(c.Request.Context(), t, issue.URL)
	c.JSON(http.StatusOK, gin.H{"id": issue.ID, "url": issue.URL})
}

type createIssueRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	TeamID      string   `json:"teamId"`
	AssigneeID  string   `json:"assigneeId"`
	ProjectID   string   `json:"projectId"`
	LabelIDs    []string `json:"labelIds"`
	Priority    int      `json:"priority"`
}

func (s *server) handleCreateIssue(c *gin.Context) {
	var req createIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return
	}
	if req.Description == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "description is required"})
		return
	}

	token := s.opts.Store.AccessToken(c)
	issue, err := s.opts.Gateway.CreateIssue(c.Request.Context(), token, tracker.IssueRequest{
		TeamID:      req.TeamID,
		Title:       req.Title,
		Description: req.Description,
		AssigneeID:  req.AssigneeID,
		ProjectID:   req.ProjectID,
		LabelIDs:    req.LabelIDs,
		Priority:    req.Priority,
	})
	if err != nil {
		if errors.Is(err, export.ErrUnauthenticated) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": issue.ID, "url": issue.URL})
}
