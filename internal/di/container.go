package di

import (
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"docqa/internal/adapter/httpapi"
	"docqa/internal/adapter/llmapi"
	"docqa/internal/adapter/repository"
	"docqa/internal/infra/config"
	"docqa/internal/infra/httpclient"
	"docqa/internal/usecase"
	"docqa/internal/usecase/evaluation"
	"docqa/internal/usecase/retrieval"
)

// ApplicationComponents holds the wired object graph.
type ApplicationComponents struct {
	AnswerUsecase usecase.AnswerUsecase
	Handler       *httpapi.Handler
}

// NewApplicationComponents wires adapters, retrieval, evaluation and the
// reflection loop into the answer usecase and its HTTP handler.
func NewApplicationComponents(cfg *config.Config, pool *pgxpool.Pool, log *slog.Logger) *ApplicationComponents {
	httpClient := httpclient.NewPooledClient(time.Duration(cfg.LLMTimeoutSeconds) * time.Second)

	chatClient := llmapi.NewChatClient(llmapi.ChatConfig{
		BaseURL:           cfg.LLMBaseURL,
		APIKey:            cfg.LLMAPIKey,
		Model:             cfg.ChatModel,
		RequestsPerSecond: cfg.LLMRequestsPerSec,
		MaxAttempts:       uint(cfg.LLMMaxAttempts),
	}, httpClient, log)

	embedder := llmapi.NewEmbedder(llmapi.EmbedConfig{
		BaseURL:     cfg.LLMBaseURL,
		APIKey:      cfg.LLMAPIKey,
		Model:       cfg.EmbeddingModel,
		MaxAttempts: uint(cfg.LLMMaxAttempts),
	}, httpClient, log)

	chunkRepo := repository.NewChunkRepository(pool, cfg.CandidateLimit, log)

	fusion := retrieval.NewFusionEngine(retrieval.DefaultDenseWeight, retrieval.DefaultSparseWeight, log)
	denseSearcher := retrieval.NewDenseSearcher(embedder, chunkRepo, retrieval.DefaultSimilarityFloor, log)
	sparseRetriever := retrieval.NewSparseRetriever(log)
	retriever := retrieval.NewHybridRetriever(denseSearcher, sparseRetriever, chunkRepo, fusion, log)

	lexicon := evaluation.DefaultLexicon()
	retrievalEval := evaluation.NewRetrievalEvaluator(cfg.MinRetrievalQual, lexicon, log)

	var judge evaluation.JudgeClient
	if cfg.JudgeEnabled {
		judge = llmapi.NewLLMJudge(chatClient, log)
	}
	generationEval := evaluation.NewGenerationEvaluator(judge, lexicon, log)

	promptBuilder := usecase.NewEvidencePromptBuilder()
	generator := usecase.NewLLMGenerator(promptBuilder, chatClient, log)

	controller := usecase.NewSelfRAGController(
		retriever,
		generator,
		retrievalEval,
		generationEval,
		log,
		usecase.WithMaxIterations(cfg.MaxIterations),
		usecase.WithQualityThresholds(cfg.MinRetrievalQual, cfg.MinGenerationQual),
	)

	answerUsecase := usecase.NewAnswerUsecase(controller, retriever, generator, retrievalEval, log)

	handler := httpapi.NewHandler(answerUsecase, pool.Ping, log)

	return &ApplicationComponents{
		AnswerUsecase: answerUsecase,
		Handler:       handler,
	}
}
