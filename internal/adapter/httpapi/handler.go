package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"docqa/internal/domain"
	"docqa/internal/usecase"
)

// Handler exposes the QA usecases over HTTP.
type Handler struct {
	answerUsecase usecase.AnswerUsecase
	readiness     func(ctx context.Context) error
	logger        *slog.Logger
}

// NewHandler builds the HTTP handler. readiness is called by /readyz and
// may be nil when there is nothing to probe.
func NewHandler(answerUsecase usecase.AnswerUsecase, readiness func(ctx context.Context) error, logger *slog.Logger) *Handler {
	return &Handler{
		answerUsecase: answerUsecase,
		readiness:     readiness,
		logger:        logger,
	}
}

// RegisterRoutes mounts all routes on the echo instance.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/v1/qa/answer", h.AnswerQuestion)
	e.POST("/v1/qa/answer/stream", h.StreamAnswer)
	e.GET("/healthz", h.Healthz)
	e.GET("/readyz", h.Readyz)
}

type answerRequest struct {
	Query   string           `json:"query"`
	TopK    int              `json:"top_k"`
	Method  string           `json:"method"`
	History []historyMessage `json:"history"`
}

type historyMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (r answerRequest) toInput() (usecase.AnswerInput, error) {
	method := domain.RetrievalMethod(r.Method)
	switch method {
	case "", domain.MethodHybrid, domain.MethodDense, domain.MethodSparse:
	default:
		return usecase.AnswerInput{}, fmt.Errorf("unknown retrieval method %q", r.Method)
	}

	history := make([]domain.Message, 0, len(r.History))
	for _, m := range r.History {
		history = append(history, domain.Message{Role: m.Role, Content: m.Content})
	}

	return usecase.AnswerInput{
		Query:   r.Query,
		TopK:    r.TopK,
		Method:  method,
		History: history,
	}, nil
}

// Answer a question with grounded evidence
// (POST /v1/qa/answer)
func (h *Handler) AnswerQuestion(ctx echo.Context) error {
	var req answerRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if req.Query == "" {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "missing query"})
	}

	input, err := req.toInput()
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	output, err := h.answerUsecase.Execute(ctx.Request().Context(), input)
	if err != nil {
		h.logger.Error("answer_request_failed", slog.String("error", err.Error()))
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return ctx.JSON(http.StatusOK, output)
}

// Stream an answer as server-sent events
// (POST /v1/qa/answer/stream)
func (h *Handler) StreamAnswer(ctx echo.Context) error {
	var req answerRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if req.Query == "" {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "missing query"})
	}

	input, err := req.toInput()
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	resp := ctx.Response()
	resp.Header().Set("Content-Type", "text/event-stream")
	resp.Header().Set("Cache-Control", "no-cache")
	resp.Header().Set("Connection", "keep-alive")
	resp.WriteHeader(http.StatusOK)

	for event := range h.answerUsecase.Stream(ctx.Request().Context(), input) {
		if err := writeSSE(resp, event); err != nil {
			h.logger.Warn("stream_client_gone", slog.String("error", err.Error()))
			return nil
		}
		resp.Flush()
	}
	return nil
}

func writeSSE(resp *echo.Response, event usecase.StreamEvent) error {
	data, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("marshal stream payload: %w", err)
	}
	_, err = fmt.Fprintf(resp, "event: %s\ndata: %s\n\n", event.Kind, data)
	return err
}

// Liveness probe
// (GET /healthz)
func (h *Handler) Healthz(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Readiness probe, checks downstream dependencies
// (GET /readyz)
func (h *Handler) Readyz(ctx echo.Context) error {
	if h.readiness != nil {
		if err := h.readiness(ctx.Request().Context()); err != nil {
			return ctx.JSON(http.StatusServiceUnavailable, map[string]string{"status": "not ready", "error": err.Error()})
		}
	}
	return ctx.JSON(http.StatusOK, map[string]string{"status": "ready"})
}
