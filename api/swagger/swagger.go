package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Tutor Match API",
        "description": "Matches waiting students with language teachers and commits operator-confirmed assignments",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http",
        "https"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Matching", "description": "Student and teacher pools and candidate ranking"},
        {"name": "Assignments", "description": "Committed student-teacher assignments and exports"},
        {"name": "Calendar", "description": "Signed public calendar links"},
        {"name": "Ops", "description": "Health and readiness probes"}
    ],
    "paths": {
        "/health": {
            "get": {
                "tags": ["Ops"],
                "summary": "Liveness probe",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/ready": {
            "get": {
                "tags": ["Ops"],
                "summary": "Readiness probe checking Postgres and Redis",
                "responses": {
                    "200": {"description": "Ready", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "A dependency is unavailable"}
                }
            }
        },
        "/api/v1/matching/students": {
            "get": {
                "tags": ["Matching"],
                "summary": "List unassigned students",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "language", "in": "query", "type": "string"},
                    {"name": "level", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Matching"],
                "summary": "Register a student",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateStudentDemandRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error"}
                }
            }
        },
        "/api/v1/matching/teachers": {
            "get": {
                "tags": ["Matching"],
                "summary": "List teachers with remaining capacity",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "language", "in": "query", "type": "string"},
                    {"name": "level", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Matching"],
                "summary": "Register a teacher offer",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateTeacherOfferRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error"}
                }
            }
        },
        "/api/v1/matching/students/{id}/candidates": {
            "get": {
                "tags": ["Matching"],
                "summary": "Rank eligible teachers for a student",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Student not found or already assigned"}
                }
            }
        },
        "/api/v1/matching/students/{id}/availability": {
            "put": {
                "tags": ["Matching"],
                "summary": "Replace a student's weekly availability",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReplaceAvailabilityRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "INVALID_SLOT"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/api/v1/matching/teachers/{id}/availability": {
            "put": {
                "tags": ["Matching"],
                "summary": "Replace a teacher's weekly availability",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReplaceAvailabilityRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "INVALID_SLOT"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/api/v1/assignments": {
            "post": {
                "tags": ["Assignments"],
                "summary": "Commit an operator-confirmed assignment",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateAssignmentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "INVALID_ASSIGNMENT_REQUEST or INVALID_SLOT"},
                    "409": {"description": "STALE_SLOT_SELECTION, STALE_TEACHER_STATE, CAPACITY_EXCEEDED, NO_OVERLAPPING_SLOTS or STUDENT_ALREADY_ASSIGNED"}
                }
            },
            "get": {
                "tags": ["Assignments"],
                "summary": "List committed assignments",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "teacher_id", "in": "query", "type": "string"},
                    {"name": "student_id", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/assignments/export": {
            "get": {
                "tags": ["Assignments"],
                "summary": "Export the assignment roster",
                "produces": ["text/csv", "application/pdf", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string"},
                    {"name": "teacher_id", "in": "query", "type": "string"},
                    {"name": "student_id", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File download"},
                    "400": {"description": "Unsupported format"}
                }
            }
        },
        "/api/v1/assignments/{id}": {
            "get": {
                "tags": ["Assignments"],
                "summary": "Get an assignment",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/api/v1/assignments/{id}/calendar": {
            "get": {
                "tags": ["Assignments"],
                "summary": "Download the assignment lessons as iCalendar",
                "produces": ["text/calendar"],
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "text/calendar download"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/api/v1/assignments/{id}/calendar-link": {
            "post": {
                "tags": ["Assignments"],
                "summary": "Issue a signed public calendar link",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/api/v1/calendar/{token}": {
            "get": {
                "tags": ["Calendar"],
                "summary": "Download a calendar through a signed link",
                "produces": ["text/calendar"],
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "text/calendar download"},
                    "403": {"description": "Invalid or expired link"}
                }
            }
        }
    },
    "definitions": {
        "TimeSlot": {
            "type": "object",
            "properties": {
                "day": {"type": "string", "example": "MONDAY"},
                "start_time": {"type": "string", "example": "09:00"},
                "end_time": {"type": "string", "example": "10:30"}
            },
            "required": ["day", "start_time", "end_time"]
        },
        "ReplaceAvailabilityRequest": {
            "type": "object",
            "properties": {
                "time_slots": {"type": "array", "items": {"$ref": "#/definitions/TimeSlot"}}
            }
        },
        "CreateStudentDemandRequest": {
            "type": "object",
            "properties": {
                "full_name": {"type": "string"},
                "email": {"type": "string"},
                "language": {"type": "string"},
                "level": {"type": "string"},
                "preferred_class_type": {"type": "string", "enum": ["private", "group", "both"]},
                "preferred_mode": {"type": "string", "enum": ["online", "in-person", "both"]},
                "time_slots": {"type": "array", "items": {"$ref": "#/definitions/TimeSlot"}}
            },
            "required": ["full_name", "language", "level"]
        },
        "CreateTeacherOfferRequest": {
            "type": "object",
            "properties": {
                "full_name": {"type": "string"},
                "email": {"type": "string"},
                "languages": {"type": "array", "items": {"type": "string"}},
                "levels": {"type": "array", "items": {"type": "string"}},
                "class_types": {"type": "array", "items": {"type": "string", "enum": ["private", "group"]}},
                "modes": {"type": "array", "items": {"type": "string", "enum": ["online", "in-person"]}},
                "max_students": {"type": "integer", "minimum": 0},
                "time_slots": {"type": "array", "items": {"$ref": "#/definitions/TimeSlot"}}
            },
            "required": ["full_name", "languages", "levels", "class_types", "modes"]
        },
        "CreateAssignmentRequest": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string"},
                "teacher_id": {"type": "string"},
                "class_type": {"type": "string", "enum": ["private", "group"]},
                "mode": {"type": "string", "enum": ["online", "in-person"]},
                "time_slots": {"type": "array", "items": {"$ref": "#/definitions/TimeSlot"}},
                "notes": {"type": "string"}
            },
            "required": ["student_id", "teacher_id", "class_type", "mode", "time_slots"]
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
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
