package handler

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/edusmart-import-api/internal/dto"
	"github.com/noah-isme/edusmart-import-api/internal/importer"
	"github.com/noah-isme/edusmart-import-api/internal/models"
	"github.com/noah-isme/edusmart-import-api/internal/service"
	appErrors "github.com/noah-isme/edusmart-import-api/pkg/errors"
	"github.com/noah-isme/edusmart-import-api/pkg/export"
	"github.com/noah-isme/edusmart-import-api/pkg/response"
)

const uploadFormField = "csvFile"

type importRunner interface {
	Import(ctx context.Context, req service.ImportRequest) (*models.ImportResult, error)
	History(ctx context.Context, entityType string, limit int) ([]models.ImportRun, error)
}

type uploadStager interface {
	Stage(original string, r io.Reader) (string, error)
	Discard(name string)
}

type statsProvider interface {
	Get(ctx context.Context) (*models.UploadStats, error)
}

// UploadHandler exposes CSV upload, template download and import statistics.
type UploadHandler struct {
	imports   importRunner
	staging   uploadStager
	stats     statsProvider
	validator *validator.Validate
	logger    *zap.Logger
	maxBytes  int64
}

// NewUploadHandler constructs the handler. maxBytes bounds an uploaded file.
func NewUploadHandler(imports importRunner, staging uploadStager, stats statsProvider, validate *validator.Validate, logger *zap.Logger, maxBytes int64) *UploadHandler {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxBytes <= 0 {
		maxBytes = 10 * 1024 * 1024
	}
	return &UploadHandler{imports: imports, staging: staging, stats: stats, validator: validate, logger: logger, maxBytes: maxBytes}
}

type uploadResponse struct {
	Success bool                 `json:"success"`
	Message string               `json:"message"`
	Details *models.ImportResult `json:"details"`
}

// Upload godoc
// @Summary Import a CSV file
// @Tags Upload
// @Accept multipart/form-data
// @Produce json
// @Param type path string true "Entity type"
// @Param csvFile formData file true "CSV file"
// @Success 200 {object} uploadResponse
// @Failure 400 {object} response.Failure
// @Failure 500 {object} response.Failure
// @Router /api/upload/{type} [post]
func (h *UploadHandler) Upload(c *gin.Context) {
	entityType := c.Param("type")
	if !importer.IsSupported(entityType) {
		response.Error(c, appErrors.Clone(appErrors.ErrInput, fmt.Sprintf("Unsupported upload type '%s'. Supported types: %s", entityType, strings.Join(importer.SupportedTypes(), ", "))))
		return
	}

	header, err := c.FormFile(uploadFormField)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInput, "No file uploaded"))
		return
	}
	if header.Size > h.maxBytes {
		response.Error(c, appErrors.Clone(appErrors.ErrFileTooLarge, fmt.Sprintf("File too large. Maximum size is %dMB", h.maxBytes/(1024*1024))))
		return
	}
	if !declaredCSV(header) {
		response.Error(c, appErrors.Clone(appErrors.ErrInput, "Only CSV files are allowed"))
		return
	}

	file, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrImportFailed.Code, appErrors.ErrImportFailed.Status, appErrors.ErrImportFailed.Message))
		return
	}
	defer file.Close()

	isText, err := textContent(file)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrImportFailed.Code, appErrors.ErrImportFailed.Status, appErrors.ErrImportFailed.Message))
		return
	}
	if !isText {
		response.Error(c, appErrors.Clone(appErrors.ErrInput, "Only CSV files are allowed"))
		return
	}

	staged, err := h.staging.Stage(header.Filename, io.LimitReader(file, h.maxBytes))
	if err != nil {
		h.logger.Error("failed to stage upload", zap.String("filename", header.Filename), zap.Error(err))
		response.Error(c, appErrors.Wrap(err, appErrors.ErrImportFailed.Code, appErrors.ErrImportFailed.Status, appErrors.ErrImportFailed.Message))
		return
	}

	actor := ""
	if claims := claimsFromContext(c); claims != nil {
		actor = claims.UserID
	}
	result, err := h.imports.Import(c.Request.Context(), service.ImportRequest{
		EntityType: entityType,
		StagedName: staged,
		Filename:   header.Filename,
		ActorID:    actor,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, uploadResponse{Success: true, Message: result.Message(), Details: result})
}

func declaredCSV(header *multipart.FileHeader) bool {
	if strings.EqualFold(filepath.Ext(header.Filename), ".csv") {
		return true
	}
	contentType := strings.ToLower(header.Header.Get("Content-Type"))
	return strings.HasPrefix(contentType, "text/csv")
}

// textContent sniffs the head of the upload and rewinds it.
func textContent(file multipart.File) (bool, error) {
	detected, err := mimetype.DetectReader(file)
	if err != nil {
		return false, fmt.Errorf("detect upload type: %w", err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return false, fmt.Errorf("rewind upload: %w", err)
	}
	for m := detected; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true, nil
		}
	}
	return false, nil
}

// Template godoc
// @Summary Download a sample import file
// @Tags Upload
// @Produce text/csv
// @Param type path string true "Entity type"
// @Param format query string false "csv or xlsx"
// @Success 200 {file} file
// @Failure 400 {object} map[string]interface{}
// @Router /api/upload/templates/{type} [get]
func (h *UploadHandler) Template(c *gin.Context) {
	entityType := c.Param("type")
	body, ok := importer.Template(entityType)
	if !ok {
		response.JSON(c, http.StatusBadRequest, gin.H{
			"success":        false,
			"message":        "Template not found",
			"availableTypes": importer.TemplateTypes(),
		})
		return
	}

	format := strings.ToLower(c.DefaultQuery("format", string(export.FormatCSV)))
	if format == string(export.FormatCSV) {
		response.Attachment(c, entityType+"_template.csv", "text/csv", []byte(body))
		return
	}
	if format != string(export.FormatXLSX) {
		response.Error(c, appErrors.Clone(appErrors.ErrInput, fmt.Sprintf("Unsupported template format '%s'. Use csv or xlsx", format)))
		return
	}

	rows, err := importer.TemplateRows(entityType)
	if err != nil {
		response.Error(c, err)
		return
	}
	renderer := export.NewXLSXExporter()
	data, err := renderer.Render(export.Dataset{Title: entityType, Headers: rows[0], Rows: rows[1:]})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, entityType+"_template"+renderer.Extension(), renderer.ContentType(), data)
}

// Stats godoc
// @Summary Imported record counters
// @Tags Upload
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/upload/stats [get]
func (h *UploadHandler) Stats(c *gin.Context) {
	stats, err := h.stats.Get(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"success": true, "stats": stats})
}

// History godoc
// @Summary Recent import runs
// @Tags Upload
// @Produce json
// @Param type query string false "Entity type"
// @Param limit query int false "Maximum runs (1-100)"
// @Success 200 {object} map[string]interface{}
// @Router /api/upload/history [get]
func (h *UploadHandler) History(c *gin.Context) {
	var query dto.ImportHistoryQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInput, "Invalid history query"))
		return
	}
	if err := h.validator.Struct(query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInput, "limit must be between 1 and 100"))
		return
	}
	runs, err := h.imports.History(c.Request.Context(), query.Type, query.Limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"success": true, "runs": runs})
}
