package httpapi

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/usecase"
)

type stubAnswerUsecase struct {
	output *usecase.AnswerOutput
	err    error
	events []usecase.StreamEvent

	gotInput usecase.AnswerInput
}

func (s *stubAnswerUsecase) Execute(_ context.Context, input usecase.AnswerInput) (*usecase.AnswerOutput, error) {
	s.gotInput = input
	return s.output, s.err
}

func (s *stubAnswerUsecase) Stream(_ context.Context, input usecase.AnswerInput) <-chan usecase.StreamEvent {
	s.gotInput = input
	events := make(chan usecase.StreamEvent, len(s.events))
	for _, event := range s.events {
		events <- event
	}
	close(events)
	return events
}

func testHandlerLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func serveJSON(h *Handler, method, path, body string) *httptest.ResponseRecorder {
	e := echo.New()
	h.RegisterRoutes(e)
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAnswerQuestion_ReturnsAnswer(t *testing.T) {
	stub := &stubAnswerUsecase{output: &usecase.AnswerOutput{
		AnswerID:   "a-1",
		Query:      "what is raft",
		Answer:     "Raft is a consensus algorithm.",
		Confidence: 0.82,
	}}
	handler := NewHandler(stub, nil, testHandlerLogger())

	rec := serveJSON(handler, http.MethodPost, "/v1/qa/answer",
		`{"query": "what is raft", "top_k": 3, "method": "hybrid"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"answer":"Raft is a consensus algorithm."`)
	assert.Equal(t, "what is raft", stub.gotInput.Query)
	assert.Equal(t, 3, stub.gotInput.TopK)
}

func TestAnswerQuestion_RejectsMissingQuery(t *testing.T) {
	handler := NewHandler(&stubAnswerUsecase{}, nil, testHandlerLogger())

	rec := serveJSON(handler, http.MethodPost, "/v1/qa/answer", `{"top_k": 3}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnswerQuestion_RejectsUnknownMethod(t *testing.T) {
	handler := NewHandler(&stubAnswerUsecase{}, nil, testHandlerLogger())

	rec := serveJSON(handler, http.MethodPost, "/v1/qa/answer",
		`{"query": "q", "method": "cosmic"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnswerQuestion_UsecaseFailure(t *testing.T) {
	handler := NewHandler(&stubAnswerUsecase{err: errors.New("boom")}, nil, testHandlerLogger())

	rec := serveJSON(handler, http.MethodPost, "/v1/qa/answer", `{"query": "q"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestStreamAnswer_WritesSSEEvents(t *testing.T) {
	stub := &stubAnswerUsecase{events: []usecase.StreamEvent{
		{Kind: usecase.StreamEventKindMeta, Payload: usecase.StreamMeta{AnswerID: "a-2"}},
		{Kind: usecase.StreamEventKindDelta, Payload: "partial"},
		{Kind: usecase.StreamEventKindDone, Payload: usecase.StreamMeta{AnswerID: "a-2"}},
	}}
	handler := NewHandler(stub, nil, testHandlerLogger())

	rec := serveJSON(handler, http.MethodPost, "/v1/qa/answer/stream", `{"query": "q"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Contains(t, body, "event: meta\ndata: {\"answer_id\":\"a-2\"")
	assert.Contains(t, body, "event: delta\ndata: \"partial\"\n\n")
	assert.Contains(t, body, "event: done\n")
}

func TestHealthz(t *testing.T) {
	handler := NewHandler(&stubAnswerUsecase{}, nil, testHandlerLogger())

	rec := serveJSON(handler, http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyz_ReportsDependencyFailure(t *testing.T) {
	handler := NewHandler(&stubAnswerUsecase{}, func(context.Context) error {
		return errors.New("db unreachable")
	}, testHandlerLogger())

	rec := serveJSON(handler, http.MethodGet, "/readyz", "")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestReadyz_OKWithoutProbe(t *testing.T) {
	handler := NewHandler(&stubAnswerUsecase{}, nil, testHandlerLogger())

	rec := serveJSON(handler, http.MethodGet, "/readyz", "")

	assert.Equal(t, http.StatusOK, rec.Code)
}
