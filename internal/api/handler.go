package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/emicklei/go-restful/v3"
	"github.com/rs/zerolog"

	"github.com/aismail/findoc-agent/internal/api/middleware"
	"github.com/aismail/findoc-agent/internal/document"
)

// Analyzer is the handler-facing subset of the retrieval engine.
type Analyzer interface {
	Analyze(ctx context.Context, path, query string, topK int) (string, error)
}

type AnalyzeRequest struct {
	Path  string `json:"path" description:"Filesystem path to the document (PDF)"`
	Query string `json:"query" description:"Question to answer from the document"`
	TopK  int    `json:"top_k" description:"Number of passages to retrieve (default 7)"`
}

type AnalyzeResponse struct {
	Answer string `json:"answer"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

type Handler struct {
	analyzer Analyzer
	logger   *zerolog.Logger
}

func NewHandler(analyzer Analyzer, logger *zerolog.Logger) *Handler {
	return &Handler{
		analyzer: analyzer,
		logger:   logger,
	}
}

// POST /api/v1/analyze
// Body: AnalyzeRequest
// Returns: AnalyzeResponse
func (h *Handler) Analyze(req *restful.Request, resp *restful.Response) {
	var analyzeRequest AnalyzeRequest
	if err := req.ReadEntity(&analyzeRequest); err != nil {
		h.logger.Error().Err(err).Msg("Failed to parse request body")
		middleware.HandleError(resp, err, http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(analyzeRequest.Path) == "" {
		middleware.HandleError(resp, errors.New("path is required"), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(analyzeRequest.Query) == "" {
		middleware.HandleError(resp, errors.New("query is required"), http.StatusBadRequest)
		return
	}

	h.logger.Info().
		Str("path", analyzeRequest.Path).
		Str("query", analyzeRequest.Query).
		Int("top_k", analyzeRequest.TopK).
		Msg("Start document analysis")

	ctx := req.Request.Context()
	answer, err := h.analyzer.Analyze(ctx, analyzeRequest.Path, analyzeRequest.Query, analyzeRequest.TopK)
	if err != nil {
		h.logger.Error().Err(err).Str("path", analyzeRequest.Path).Msg("Document analysis failed")
		if errors.Is(err, document.ErrEmptyDocument) {
			middleware.HandleError(resp, err, http.StatusUnprocessableEntity)
			return
		}
		middleware.HandleError(resp, err, http.StatusInternalServerError)
		return
	}

	h.logger.Info().
		Str("path", analyzeRequest.Path).
		Int("answer_length", len(answer)).
		Msg("Document analysis complete")

	resp.WriteHeaderAndEntity(http.StatusOK, AnalyzeResponse{Answer: answer})
}

// Health handler GET /api/v1/health
func (h *Handler) Health(req *restful.Request, resp *restful.Response) {
	healthResponse := HealthResponse{
		Status:  "ok",
		Version: "1.0.0",
	}

	resp.WriteHeaderAndEntity(http.StatusOK, healthResponse)
}
