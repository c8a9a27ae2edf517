package handler

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edusmart-import-api/internal/dto"
	"github.com/noah-isme/edusmart-import-api/internal/models"
	"github.com/noah-isme/edusmart-import-api/internal/service"
	appErrors "github.com/noah-isme/edusmart-import-api/pkg/errors"
	"github.com/noah-isme/edusmart-import-api/pkg/response"
)

type batchManager interface {
	Generate(ctx context.Context, req dto.GenerateBatchesRequest) (*models.BatchGenerationResult, error)
	Analyze(ctx context.Context, academicYear string, semester int) (*models.BatchAnalysis, error)
	RosterExport(ctx context.Context, batchName, format string) (*service.RosterFile, error)
}

// BatchHandler exposes cohort generation, analysis and roster downloads.
type BatchHandler struct {
	batches batchManager
}

// NewBatchHandler constructs handler.
func NewBatchHandler(batches batchManager) *BatchHandler {
	return &BatchHandler{batches: batches}
}

type generateBatchesResponse struct {
	Success bool                          `json:"success"`
	Message string                        `json:"message"`
	Details *models.BatchGenerationResult `json:"details"`
}

type batchAnalysisResponse struct {
	Success  bool                  `json:"success"`
	Analysis *models.BatchAnalysis `json:"analysis"`
}

// Generate godoc
// @Summary Group enrolled students into batches
// @Tags Batches
// @Accept json
// @Produce json
// @Param payload body dto.GenerateBatchesRequest true "Academic term"
// @Success 200 {object} generateBatchesResponse
// @Failure 400 {object} response.Failure
// @Failure 500 {object} response.Failure
// @Router /api/upload/generate-batches [post]
func (h *BatchHandler) Generate(c *gin.Context) {
	var req dto.GenerateBatchesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInput, "Academic year and semester are required"))
		return
	}
	result, err := h.batches.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, generateBatchesResponse{Success: result.Success, Message: result.Message, Details: result})
}

// Analysis godoc
// @Summary Batch readiness for a term
// @Tags Batches
// @Produce json
// @Param academicYear path string true "Academic year"
// @Param semester path int true "Semester"
// @Success 200 {object} batchAnalysisResponse
// @Failure 400 {object} response.Failure
// @Router /api/upload/batch-analysis/{academicYear}/{semester} [get]
func (h *BatchHandler) Analysis(c *gin.Context) {
	semester, err := strconv.Atoi(c.Param("semester"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInput, "Academic year and semester are required"))
		return
	}
	analysis, err := h.batches.Analyze(c.Request.Context(), c.Param("academicYear"), semester)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, batchAnalysisResponse{Success: true, Analysis: analysis})
}

// Roster godoc
// @Summary Download a batch roster
// @Tags Batches
// @Produce octet-stream
// @Param name path string true "Batch name"
// @Param format query string false "csv, pdf or xlsx"
// @Success 200 {file} file
// @Failure 404 {object} response.Failure
// @Router /api/upload/batches/{name}/roster [get]
func (h *BatchHandler) Roster(c *gin.Context) {
	file, err := h.batches.RosterExport(c.Request.Context(), c.Param("name"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Data)
}
