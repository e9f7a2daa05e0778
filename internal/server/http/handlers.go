package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"northdesk/internal/assistant"
	"northdesk/internal/observability"
	"northdesk/internal/rag"
)

// AssistService is the routing surface the API exposes. Satisfied by
// *assistant.Router.
type AssistService interface {
	Assist(ctx context.Context, message string) (assistant.Response, error)
	Ask(ctx context.Context, question string) (assistant.RagAnswer, error)
	Chat(ctx context.Context, message string) (string, error)
}

// IngestService loads documents into the vector store. Satisfied by
// *rag.Ingestor.
type IngestService interface {
	Ingest(ctx context.Context, source, text string) (rag.IngestStats, error)
}

type apiHandler struct {
	assist AssistService
	ingest IngestService
	obs    *observability.Observability
	logger *observability.Logger
}

func newAPIHandler(assist AssistService, ingest IngestService, obs *observability.Observability) *apiHandler {
	return &apiHandler{
		assist: assist,
		ingest: ingest,
		obs:    obs,
		logger: obs.Logger.With("component", "api"),
	}
}

func (h *apiHandler) register(engine *gin.Engine) {
	engine.GET("/healthz", h.handleHealth)

	api := engine.Group("/api")
	api.POST("/assist", h.handleAssist)
	api.POST("/ask", h.handleAsk)
	api.POST("/chat", h.handleChat)
	api.POST("/ingest", h.handleIngest)
}

type messageRequest struct {
	Message string `json:"message"`
}

type questionRequest struct {
	Question string `json:"question"`
}

type ingestRequest struct {
	Source string `json:"source"`
	Text   string `json:"text"`
}

type chatResponse struct {
	Answer string `json:"answer"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *apiHandler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleAssist routes one message. A missing or blank message is not an
// error: it routes like any other non-ticket, non-retrieval input.
func (h *apiHandler) handleAssist(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	ctx := c.Request.Context()
	var resp assistant.Response
	err := h.obs.Step(ctx, observability.SpanAssist, func(ctx context.Context) error {
		var err error
		resp, err = h.assist.Assist(ctx, req.Message)
		return err
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "assist failed", "error", err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *apiHandler) handleAsk(c *gin.Context) {
	var req questionRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Question == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "question is required"})
		return
	}

	ctx := c.Request.Context()
	answer, err := h.assist.Ask(ctx, req.Question)
	if err != nil {
		h.logger.ErrorContext(ctx, "ask failed", "error", err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, answer)
}

func (h *apiHandler) handleChat(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Message == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "message is required"})
		return
	}

	ctx := c.Request.Context()
	answer, err := h.assist.Chat(ctx, req.Message)
	if err != nil {
		h.logger.ErrorContext(ctx, "chat failed", "error", err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, chatResponse{Answer: answer})
}

func (h *apiHandler) handleIngest(c *gin.Context) {
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	ctx := c.Request.Context()
	var stats rag.IngestStats
	err := h.obs.Step(ctx, observability.SpanIngest, func(ctx context.Context) error {
		var err error
		stats, err = h.ingest.Ingest(ctx, req.Source, req.Text)
		return err
	})
	if err != nil {
		// Blank source/text are caller mistakes, not server faults.
		if errors.Is(err, rag.ErrInvalidIngest) {
			c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		h.logger.ErrorContext(ctx, "ingest failed", "error", err, "source", req.Source)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, stats)
}
