// Package docs registers the costlens OpenAPI description with swag.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["auth"],
                "summary": "Operator login",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/dto.LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.AuthResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/errorResponse"}}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["auth"],
                "summary": "Refresh access token",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/dto.RefreshTokenRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.AuthResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/errorResponse"}}
                }
            }
        },
        "/upload": {
            "post": {
                "security": [{"Bearer": []}],
                "tags": ["upload"],
                "summary": "Upload a billing CSV",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "parameters": [
                    {"type": "file", "description": "CSV file", "name": "file", "in": "formData", "required": true},
                    {"type": "string", "default": "cost_data", "description": "Workspace table for the raw rows", "name": "table_name", "in": "formData"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.UploadResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/errorResponse"}}
                }
            }
        },
        "/ask": {
            "post": {
                "security": [{"Bearer": []}],
                "tags": ["assistant"],
                "summary": "Ask a question about the cost data",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/dto.AskRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.AskResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.AskResponse"}}
                }
            }
        },
        "/query": {
            "post": {
                "security": [{"Bearer": []}],
                "tags": ["workspace"],
                "summary": "Run a read-only SQL query",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/dto.QueryRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.QueryResult"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errorResponse"}}
                }
            }
        },
        "/schema": {
            "get": {
                "security": [{"Bearer": []}],
                "tags": ["workspace"],
                "summary": "Workspace schema",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"type": "object"}}}
            }
        },
        "/tables": {
            "get": {
                "security": [{"Bearer": []}],
                "tags": ["workspace"],
                "summary": "Workspace tables",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"type": "object"}}}
            }
        },
        "/api/v1/costs": {
            "get": {
                "security": [{"Bearer": []}],
                "tags": ["dashboard"],
                "summary": "Dashboard state",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.DashboardState"}}}
            }
        },
        "/api/v1/costs/mock": {
            "post": {
                "security": [{"Bearer": []}],
                "tags": ["dashboard"],
                "summary": "Load demo data",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.DashboardState"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/errorResponse"}}
                }
            }
        },
        "/api/v1/state": {
            "delete": {
                "security": [{"Bearer": []}],
                "tags": ["dashboard"],
                "summary": "Clear the dashboard",
                "responses": {"204": {"description": "No Content"}, "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/errorResponse"}}}
            }
        },
        "/api/v1/overview": {
            "get": {
                "security": [{"Bearer": []}],
                "tags": ["dashboard"],
                "summary": "Month-over-month overview",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.OverviewResponse"}}}
            }
        },
        "/api/v1/trends": {
            "get": {
                "security": [{"Bearer": []}],
                "tags": ["dashboard"],
                "summary": "Daily cost trend",
                "produces": ["application/json"],
                "parameters": [{"type": "integer", "default": 30, "name": "days", "in": "query"}],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/dto.TrendPoint"}}}}
            }
        },
        "/api/v1/services": {
            "get": {
                "security": [{"Bearer": []}],
                "tags": ["dashboard"],
                "summary": "Current-month spend per service",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/dto.ServiceSlice"}}}}
            }
        },
        "/api/v1/resources": {
            "get": {
                "security": [{"Bearer": []}],
                "tags": ["dashboard"],
                "summary": "Current-month spend per resource",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "service", "in": "query"},
                    {"type": "string", "name": "search", "in": "query"},
                    {"type": "integer", "default": 50, "name": "limit", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"type": "object"}}}
            }
        },
        "/api/v1/forecast": {
            "get": {
                "security": [{"Bearer": []}],
                "tags": ["dashboard"],
                "summary": "Cost forecast",
                "produces": ["application/json"],
                "parameters": [{"type": "integer", "default": 30, "name": "horizon", "in": "query"}],
                "responses": {"200": {"description": "OK", "schema": {"type": "object"}}}
            }
        },
        "/api/v1/anomalies": {
            "get": {
                "security": [{"Bearer": []}],
                "tags": ["dashboard"],
                "summary": "Detected anomalies",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.Anomaly"}}}}
            }
        },
        "/api/v1/recommendations": {
            "get": {
                "security": [{"Bearer": []}],
                "tags": ["dashboard"],
                "summary": "Savings recommendations",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.Recommendation"}}}}
            }
        },
        "/api/v1/recommendations/{id}": {
            "patch": {
                "security": [{"Bearer": []}],
                "tags": ["dashboard"],
                "summary": "Implement or ignore a recommendation",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/dto.UpdateRecommendationRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Recommendation"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/errorResponse"}}
                }
            }
        },
        "/api/v1/chat": {
            "get": {
                "security": [{"Bearer": []}],
                "tags": ["chat"],
                "summary": "Chat history",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.ChatMessage"}}}}
            },
            "post": {
                "security": [{"Bearer": []}],
                "tags": ["chat"],
                "summary": "Send a chat message",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/dto.ChatRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/errorResponse"}}
                }
            }
        },
        "/api/v1/sample.csv": {
            "get": {
                "security": [{"Bearer": []}],
                "tags": ["dashboard"],
                "summary": "Download a sample billing CSV",
                "produces": ["text/csv"],
                "responses": {"200": {"description": "OK", "schema": {"type": "file"}}}
            }
        },
        "/api/v1/import/aws": {
            "post": {
                "security": [{"Bearer": []}],
                "tags": ["upload"],
                "summary": "Import from AWS Cost Explorer",
                "produces": ["application/json"],
                "parameters": [{"type": "integer", "default": 30, "name": "days", "in": "query"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.UploadResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/errorResponse"}}
                }
            }
        },
        "/api/v1/uploads": {
            "get": {
                "security": [{"Bearer": []}],
                "tags": ["upload"],
                "summary": "List uploads",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "integer", "default": 20, "name": "limit", "in": "query"},
                    {"type": "integer", "default": 0, "name": "offset", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"type": "object"}}}}
            }
        }
    },
    "definitions": {
        "errorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}}
        },
        "dto.LoginRequest": {
            "type": "object",
            "properties": {"password": {"type": "string"}}
        },
        "dto.RefreshTokenRequest": {
            "type": "object",
            "properties": {"refresh_token": {"type": "string"}}
        },
        "dto.AuthResponse": {
            "type": "object",
            "properties": {
                "access_token": {"type": "string"},
                "refresh_token": {"type": "string"},
                "token_type": {"type": "string"},
                "expires_in": {"type": "integer"}
            }
        },
        "dto.AskRequest": {
            "type": "object",
            "properties": {"question": {"type": "string"}}
        },
        "dto.AskResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "question": {"type": "string"},
                "response": {"type": "string"},
                "error": {"type": "string"},
                "sql_query": {"type": "string"},
                "results": {"type": "array", "items": {"type": "object"}},
                "row_count": {"type": "integer"}
            }
        },
        "dto.QueryRequest": {
            "type": "object",
            "properties": {"query": {"type": "string"}}
        },
        "dto.ChatRequest": {
            "type": "object",
            "properties": {"content": {"type": "string"}}
        },
        "dto.UpdateRecommendationRequest": {
            "type": "object",
            "properties": {"status": {"type": "string", "enum": ["implemented", "ignored"]}}
        },
        "dto.UploadResponse": {
            "type": "object",
            "properties": {
                "upload_id": {"type": "string"},
                "message": {"type": "string"},
                "rows": {"type": "integer"},
                "columns": {"type": "array", "items": {"type": "string"}},
                "results": {"type": "array", "items": {"$ref": "#/definitions/models.CostRecord"}},
                "anomalies": {"type": "array", "items": {"$ref": "#/definitions/models.Anomaly"}},
                "recommendations": {"type": "array", "items": {"$ref": "#/definitions/models.Recommendation"}},
                "summary": {"type": "object"},
                "dropped_rows": {"type": "array", "items": {"type": "object"}},
                "truncated_rows": {"type": "array", "items": {"type": "object"}}
            }
        },
        "dto.DashboardState": {
            "type": "object",
            "properties": {
                "costData": {"type": "array", "items": {"$ref": "#/definitions/models.CostRecord"}},
                "anomalies": {"type": "array", "items": {"$ref": "#/definitions/models.Anomaly"}},
                "recommendations": {"type": "array", "items": {"$ref": "#/definitions/models.Recommendation"}},
                "chatMessages": {"type": "array", "items": {"$ref": "#/definitions/models.ChatMessage"}},
                "isLoading": {"type": "boolean"}
            }
        },
        "dto.OverviewResponse": {
            "type": "object",
            "properties": {
                "currentMonth": {"type": "number"},
                "previousMonth": {"type": "number"},
                "change": {"type": "number"},
                "changePercent": {"type": "number"},
                "totalAnomalies": {"type": "integer"},
                "highSeverityAnomalies": {"type": "integer"},
                "pendingRecommendations": {"type": "integer"},
                "potentialSavings": {"type": "number"}
            }
        },
        "dto.TrendPoint": {
            "type": "object",
            "properties": {"date": {"type": "string"}, "cost": {"type": "number"}}
        },
        "dto.ServiceSlice": {
            "type": "object",
            "properties": {"name": {"type": "string"}, "value": {"type": "number"}}
        },
        "models.CostRecord": {
            "type": "object",
            "properties": {
                "date": {"type": "string"},
                "service": {"type": "string"},
                "region": {"type": "string"},
                "cost": {"type": "number"},
                "resourceId": {"type": "string"},
                "tags": {"type": "object", "additionalProperties": {"type": "string"}}
            }
        },
        "models.Anomaly": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "date": {"type": "string"},
                "service": {"type": "string"},
                "severity": {"type": "string", "enum": ["low", "medium", "high"]},
                "description": {"type": "string"},
                "impact": {"type": "number"},
                "identified": {"type": "string"}
            }
        },
        "models.Recommendation": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "title": {"type": "string"},
                "description": {"type": "string"},
                "estimatedSavings": {"type": "number"},
                "effortLevel": {"type": "string", "enum": ["low", "medium", "high"]},
                "risk": {"type": "string", "enum": ["low", "medium", "high"]},
                "category": {"type": "string"},
                "status": {"type": "string", "enum": ["pending", "implemented", "ignored"]},
                "createdAt": {"type": "string"}
            }
        },
        "models.ChatMessage": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "role": {"type": "string", "enum": ["user", "assistant"]},
                "content": {"type": "string"},
                "timestamp": {"type": "string"}
            }
        },
        "models.QueryResult": {
            "type": "object",
            "properties": {
                "columns": {"type": "array", "items": {"type": "string"}},
                "results": {"type": "array", "items": {"type": "object"}},
                "row_count": {"type": "integer"}
            }
        }
    },
    "securityDefinitions": {
        "Bearer": {
            "description": "Type \"Bearer\" followed by a space and the access token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:5000",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "costlens API",
	Description:      "AWS cost dashboard backend: CSV ingest, analysis, dashboard views and cost Q&A.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
