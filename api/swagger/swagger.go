package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "VTI Timetable API",
        "description": "Timetable generation engine and registry for vocational training institutes",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Authentication"},
        {"name": "Terms", "description": "Term registry"},
        {"name": "Classes", "description": "Class registry"},
        {"name": "Rooms", "description": "Room registry"},
        {"name": "LessonPeriods", "description": "Daily period grid"},
        {"name": "TeachingAssignments", "description": "Class and subject to trainer bindings"},
        {"name": "Timetable", "description": "Generation, views and exports"},
        {"name": "Configuration", "description": "Generation lockout administration"}
    ],
    "paths": {
        "/terms/{id}/timetable/preflight": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Run the generation preflight report for a term",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Preflight report", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Term not found"}
                }
            }
        },
        "/terms/{id}/timetable/generate": {
            "post": {
                "tags": ["Timetable"],
                "summary": "Generate the timetable for a term",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/GenerateTimetableRequest"}}
                ],
                "responses": {
                    "200": {"description": "Generation summary", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Existing timetable, closed window or run in progress"},
                    "412": {"description": "Preflight failed"},
                    "423": {"description": "Generation locked"}
                }
            }
        },
        "/terms/{id}/timetable": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Weekly timetable view",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Weekly grid", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "GenerateTimetableRequest": {
            "type": "object",
            "properties": {
                "sessionsPerWeek": {"type": "integer"},
                "minClassesPerDay": {"type": "integer"},
                "regenerate": {"type": "boolean"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"},
                "total_pages": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
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
