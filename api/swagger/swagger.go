package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "EduSmart Import API",
        "description": "Bulk CSV import of university master data and batch generation",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Upload", "description": "CSV import, templates and statistics"},
        {"name": "Batches", "description": "Cohort generation and analysis"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "Database unavailable"}
                }
            }
        },
        "/api/upload/{type}": {
            "post": {
                "tags": ["Upload"],
                "summary": "Import a CSV file",
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "type", "in": "path", "required": true, "type": "string",
                     "enum": ["academic_terms", "departments", "programs", "time_slots", "classrooms", "faculty", "courses", "course_prerequisites", "students", "student_enrollments", "course_assignments"]},
                    {"name": "csvFile", "in": "formData", "required": true, "type": "file"}
                ],
                "responses": {
                    "200": {"description": "Import summary", "schema": {"$ref": "#/definitions/UploadResponse"}},
                    "400": {"description": "Invalid upload", "schema": {"$ref": "#/definitions/Failure"}},
                    "401": {"description": "Missing or non-admin token", "schema": {"$ref": "#/definitions/Failure"}},
                    "429": {"description": "Upload rate exceeded", "schema": {"$ref": "#/definitions/Failure"}},
                    "500": {"description": "Upload failed", "schema": {"$ref": "#/definitions/Failure"}}
                }
            }
        },
        "/api/upload/templates/{type}": {
            "get": {
                "tags": ["Upload"],
                "summary": "Download a sample import file",
                "security": [{"BearerAuth": []}],
                "produces": ["text/csv", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "parameters": [
                    {"name": "type", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "xlsx"]}
                ],
                "responses": {
                    "200": {"description": "Template file"},
                    "400": {"description": "Unknown template with availableTypes"}
                }
            }
        },
        "/api/upload/stats": {
            "get": {
                "tags": ["Upload"],
                "summary": "Imported record counters",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Counters", "schema": {"$ref": "#/definitions/StatsResponse"}},
                    "500": {"description": "Failed to get statistics", "schema": {"$ref": "#/definitions/Failure"}}
                }
            }
        },
        "/api/upload/history": {
            "get": {
                "tags": ["Upload"],
                "summary": "Recent import runs",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "type", "in": "query", "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer", "minimum": 1, "maximum": 100}
                ],
                "responses": {
                    "200": {"description": "Import runs"}
                }
            }
        },
        "/api/upload/generate-batches": {
            "post": {
                "tags": ["Batches"],
                "summary": "Group enrolled students into batches",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateBatchesRequest"}}
                ],
                "responses": {
                    "200": {"description": "Generation result; success is false when the term has no enrollments", "schema": {"$ref": "#/definitions/GenerateBatchesResponse"}},
                    "400": {"description": "Academic year and semester are required", "schema": {"$ref": "#/definitions/Failure"}},
                    "500": {"description": "Batch generation failed", "schema": {"$ref": "#/definitions/Failure"}}
                }
            }
        },
        "/api/upload/batch-analysis/{academicYear}/{semester}": {
            "get": {
                "tags": ["Batches"],
                "summary": "Batch readiness for a term",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "academicYear", "in": "path", "required": true, "type": "string"},
                    {"name": "semester", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "Program distribution, existing batches and recommendations", "schema": {"$ref": "#/definitions/BatchAnalysisResponse"}},
                    "500": {"description": "Analysis failed", "schema": {"$ref": "#/definitions/Failure"}}
                }
            }
        },
        "/api/upload/batches/{name}/roster": {
            "get": {
                "tags": ["Batches"],
                "summary": "Download a batch roster",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "name", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf", "xlsx"]}
                ],
                "responses": {
                    "200": {"description": "Roster file"},
                    "404": {"description": "Batch not found", "schema": {"$ref": "#/definitions/Failure"}}
                }
            }
        }
    },
    "definitions": {
        "Failure": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"},
                "code": {"type": "string"},
                "error": {"type": "string"}
            }
        },
        "ImportDetails": {
            "type": "object",
            "properties": {
                "totalRows": {"type": "integer"},
                "successCount": {"type": "integer"},
                "errorCount": {"type": "integer"},
                "errors": {"type": "array", "items": {"type": "string"}}
            }
        },
        "UploadResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"},
                "details": {"$ref": "#/definitions/ImportDetails"}
            }
        },
        "StatsResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "stats": {
                    "type": "object",
                    "properties": {
                        "departments": {"type": "integer"},
                        "subjects": {"type": "integer"},
                        "students": {"type": "integer"},
                        "faculty": {"type": "integer"},
                        "classrooms": {"type": "integer"}
                    }
                }
            }
        },
        "GenerateBatchesRequest": {
            "type": "object",
            "required": ["academicYear", "semester"],
            "properties": {
                "academicYear": {"type": "string", "example": "2024-25"},
                "semester": {"type": "integer", "minimum": 1}
            }
        },
        "GenerateBatchesResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"},
                "details": {
                    "type": "object",
                    "properties": {
                        "batchesCreated": {"type": "integer"},
                        "totalStudentsProcessed": {"type": "integer"},
                        "errorCount": {"type": "integer"},
                        "errors": {"type": "array", "items": {"type": "string"}},
                        "batches": {"type": "array", "items": {"type": "object"}}
                    }
                }
            }
        },
        "BatchAnalysisResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "analysis": {
                    "type": "object",
                    "properties": {
                        "programDistribution": {"type": "array", "items": {"type": "object"}},
                        "existingBatches": {"type": "array", "items": {"type": "object"}},
                        "recommendations": {"type": "array", "items": {"type": "object"}}
                    }
                }
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
