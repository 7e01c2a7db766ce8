package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Schedule Normalization Engine",
        "description": "Reconciles course structures, personalized schedules and recorded grades into normalized schedules with pace status.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"BearerAuth": []}],
    "tags": [
        {"name": "Normalization", "description": "On-demand schedule normalization"},
        {"name": "Triggers", "description": "Store change events queued for background normalization"},
        {"name": "Observability", "description": "Engine metrics"}
    ],
    "paths": {
        "/normalizations": {
            "post": {
                "tags": ["Normalization"],
                "summary": "Normalize a student's course schedule",
                "description": "Results younger than the cache window are returned without recomputation unless forceUpdate is set.",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/NormalizeRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "invalid-argument", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "not-found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "failed-precondition", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "500": {"description": "internal", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{studentKey}/courses/{courseId}/normalized-schedule": {
            "get": {
                "tags": ["Normalization"],
                "summary": "Get the last normalized schedule",
                "parameters": [
                    {"name": "studentKey", "in": "path", "required": true, "type": "string"},
                    {"name": "courseId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "not-found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/events/grades": {
            "post": {
                "tags": ["Triggers"],
                "summary": "Announce a new grade record",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GradeRecordedEvent"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "invalid-argument", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/events/lms-ids": {
            "post": {
                "tags": ["Triggers"],
                "summary": "Announce a newly assigned LMS student id",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LMSIDAssignedEvent"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "invalid-argument", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/metrics/snapshot": {
            "get": {
                "tags": ["Observability"],
                "summary": "Engine metrics snapshot",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "NormalizeRequest": {
            "type": "object",
            "required": ["studentKey", "courseId"],
            "properties": {
                "studentKey": {"type": "string"},
                "courseId": {"type": "string", "description": "String or number"},
                "forceUpdate": {"type": "boolean"}
            }
        },
        "NormalizeResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "timestamp": {"type": "integer", "format": "int64"},
                "itemCount": {"type": "integer"},
                "cached": {"type": "boolean"}
            }
        },
        "GradeRecordedEvent": {
            "type": "object",
            "required": ["assessmentId", "lmsStudentId"],
            "properties": {
                "assessmentId": {"type": "string"},
                "lmsStudentId": {"type": "string"}
            }
        },
        "LMSIDAssignedEvent": {
            "type": "object",
            "required": ["studentKey", "lmsStudentId"],
            "properties": {
                "studentKey": {"type": "string"},
                "lmsStudentId": {"type": "string"}
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
