package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Course Swap API",
        "description": "Course enrollment swap matching service",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "SwapRequests", "description": "Student swap request lifecycle"},
        {"name": "Matches", "description": "Match confirmation, rejection and completion"},
        {"name": "Admin", "description": "Sweeps and exports"}
    ],
    "paths": {
        "/swap-requests": {
            "get": {
                "tags": ["SwapRequests"],
                "summary": "List the caller's swap requests",
                "parameters": [
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "sort", "in": "query", "type": "string"},
                    {"name": "order", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["SwapRequests"],
                "summary": "Create a swap request and attempt an immediate match",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateSwapRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Duplicate active request"}
                }
            }
        },
        "/swap-requests/{id}": {
            "delete": {
                "tags": ["SwapRequests"],
                "summary": "Cancel an active swap request",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Cancelled"},
                    "403": {"description": "Not the owner"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/matches": {
            "get": {
                "tags": ["Matches"],
                "summary": "List the caller's matches",
                "parameters": [
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/matches/{id}/confirm": {
            "post": {
                "tags": ["Matches"],
                "summary": "Confirm a pending match",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Waiting or confirmed with contact info"},
                    "403": {"description": "Not a participant"},
                    "409": {"description": "Already processed"}
                }
            }
        },
        "/matches/{id}/reject": {
            "post": {
                "tags": ["Matches"],
                "summary": "Reject a pending match",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Rejected"},
                    "409": {"description": "Already processed"}
                }
            }
        },
        "/matches/{id}/contact": {
            "get": {
                "tags": ["Matches"],
                "summary": "Counterpart contact info for a confirmed match",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ContactDetails"}},
                    "404": {"description": "Not available"}
                }
            }
        },
        "/matches/{id}/complete": {
            "post": {
                "tags": ["Matches"],
                "summary": "Mark a confirmed match as completed",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Waiting or completed"}
                }
            }
        },
        "/admin/sweep": {
            "post": {
                "tags": ["Admin"],
                "summary": "Run a matching sweep over all active swap requests",
                "responses": {
                    "200": {"description": "Per-request outcomes"}
                }
            }
        },
        "/admin/swaps/export": {
            "get": {
                "tags": ["Admin"],
                "summary": "Export completed swap history",
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File download"}
                }
            }
        }
    },
    "definitions": {
        "CreateSwapRequest": {
            "type": "object",
            "required": ["offered_course_id", "desired_course_id"],
            "properties": {
                "offered_course_id": {"type": "string"},
                "desired_course_id": {"type": "string"},
                "priority": {"type": "integer"},
                "notes": {"type": "string"}
            }
        },
        "ContactDetails": {
            "type": "object",
            "properties": {
                "contact_info": {"type": "object"},
                "swap_details": {"type": "object"}
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
                "pagination": {"$ref": "#/definitions/Pagination"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
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
