package dto

// GenerateBatchesRequest selects the term whose enrollments are grouped into batches.
type GenerateBatchesRequest struct {
	AcademicYear string `json:"academicYear" validate:"required"`
	Semester     int    `json:"semester" validate:"required,min=1"`
}

// BatchAnalysisQuery identifies the term analysed for batch readiness.
type BatchAnalysisQuery struct {
	AcademicYear string `validate:"required"`
	Semester     int    `validate:"required,min=1"`
}

// ImportHistoryQuery filters the import audit trail.
type ImportHistoryQuery struct {
	Type  string `form:"type"`
	Limit int    `form:"limit" validate:"omitempty,min=1,max=100"`
}
