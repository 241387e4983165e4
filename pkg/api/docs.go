package api

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
        "/health": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/documents": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["documents"],
                "summary": "List documents",
                "parameters": [
                    {"type": "integer", "description": "Maximum number of documents (default 100)", "name": "limit", "in": "query"},
                    {"enum": ["fields", "cflist"], "type": "string", "description": "Only documents of this kind", "name": "kind", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/api.DocumentResponse"}}}
                }
            }
        },
        "/documents/fields": {
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["documents"],
                "summary": "Create a whole-store document",
                "parameters": [
                    {"description": "Fields", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/api.FieldsDocumentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/api.DocumentResponse"}},
                    "400": {"description": "Bad Request"},
                    "409": {"description": "Conflict"},
                    "413": {"description": "Request Entity Too Large"}
                }
            }
        },
        "/documents/cflist": {
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["documents"],
                "summary": "Create a fixed-buffer document",
                "parameters": [
                    {"description": "Token fields", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/api.CFListDocumentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/api.DocumentResponse"}},
                    "400": {"description": "Bad Request"},
                    "413": {"description": "Request Entity Too Large"}
                }
            }
        },
        "/documents/{id}": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["documents"],
                "summary": "Get a document",
                "parameters": [
                    {"type": "string", "description": "Document id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.DocumentResponse"}},
                    "404": {"description": "Not Found"}
                }
            },
            "put": {
                "security": [{"ApiKeyAuth": []}],
                "description": "Rebuild an archived document from a request shaped like the one that created it. Kind and name are kept; a name, when given, must match.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["documents"],
                "summary": "Replace a document",
                "parameters": [
                    {"type": "string", "description": "Document id", "name": "id", "in": "path", "required": true},
                    {"description": "Fields or token fields", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/api.FieldsDocumentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.DocumentResponse"}},
                    "400": {"description": "Bad Request"},
                    "404": {"description": "Not Found"},
                    "409": {"description": "Conflict"},
                    "413": {"description": "Request Entity Too Large"}
                }
            },
            "delete": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["documents"],
                "summary": "Delete a document",
                "parameters": [
                    {"type": "string", "description": "Document id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/documents/{id}/fields/{key}": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["documents"],
                "summary": "Extract one field",
                "parameters": [
                    {"type": "string", "description": "Document id", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "Field name or token", "name": "key", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.FieldValueResponse"}},
                    "404": {"description": "Not Found"},
                    "422": {"description": "Unprocessable Entity"}
                }
            }
        },
        "/decode": {
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "consumes": ["text/plain"],
                "produces": ["application/json"],
                "tags": ["documents"],
                "summary": "Decode a whole-store document",
                "parameters": [
                    {"description": "<Fields> document", "name": "body", "in": "body", "required": true, "schema": {"type": "string"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.DecodeResponse"}},
                    "422": {"description": "Unprocessable Entity"}
                }
            }
        }
    },
    "definitions": {
        "api.FieldInput": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "size_bits": {"type": "integer"},
                "payload_hex": {"type": "string"},
                "modifier": {"type": "integer"}
            }
        },
        "api.FieldsDocumentRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "fields": {"type": "array", "items": {"$ref": "#/definitions/api.FieldInput"}}
            }
        },
        "api.TokenInput": {
            "type": "object",
            "properties": {
                "token": {"type": "string"},
                "type": {"type": "string", "enum": ["Integer", "Boolean", "String", "HexBinary"]},
                "value": {"type": "string"}
            }
        },
        "api.CFListDocumentRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "buffer_size": {"type": "integer"},
                "fields": {"type": "array", "items": {"$ref": "#/definitions/api.TokenInput"}}
            }
        },
        "api.DocumentResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "kind": {"type": "string"},
                "name": {"type": "string"},
                "size": {"type": "integer"},
                "created_at": {"type": "string"},
                "field_count": {"type": "integer"},
                "total_bits": {"type": "integer"},
                "total_bytes": {"type": "integer"},
                "document": {"type": "string"}
            }
        },
        "api.FieldValueResponse": {
            "type": "object",
            "properties": {
                "key": {"type": "string"},
                "type": {"type": "string"},
                "value": {"type": "string"},
                "size_bits": {"type": "integer"}
            }
        },
        "api.FieldSummary": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "size_bits": {"type": "integer"},
                "modifier": {"type": "integer"},
                "payload_hex": {"type": "string"}
            }
        },
        "api.DecodeResponse": {
            "type": "object",
            "properties": {
                "field_count": {"type": "integer"},
                "total_bits": {"type": "integer"},
                "total_bytes": {"type": "integer"},
                "fields": {"type": "array", "items": {"$ref": "#/definitions/api.FieldSummary"}}
            }
        }
    },
    "securityDefinitions": {
        "ApiKeyAuth": {"type": "apiKey", "name": "X-API-Key", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "sdds REST API",
	Description:      "Build, archive and query self-describing data stream documents.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
