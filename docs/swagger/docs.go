// Package swagger holds the OpenAPI document of the themebake HTTP API,
// registered with swag so the Swagger UI can serve it.
package swagger

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
                "tags": ["Health"],
                "summary": "Liveness check",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.HealthResponse"}}
                }
            }
        },
        "/health/ready": {
            "get": {
                "tags": ["Health"],
                "summary": "Readiness check",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.HealthResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/http.HealthResponse"}}
                }
            }
        },
        "/version": {
            "get": {
                "tags": ["System"],
                "summary": "Get service version",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.VersionResponse"}}
                }
            }
        },
        "/api/v1/lookup/{key}/{target}/{field}": {
            "get": {
                "description": "Composes the field across the theme and everything it includes",
                "tags": ["Lookup"],
                "summary": "Look up a baked field",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "description": "Theme key", "name": "key", "in": "path", "required": true},
                    {"type": "string", "description": "common, desktop or mobile", "name": "target", "in": "path", "required": true},
                    {"type": "string", "description": "Field name", "name": "field", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.LookupResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.ErrorResponseBody"}}
                }
            }
        },
        "/api/v1/themes": {
            "get": {
                "tags": ["Themes"],
                "summary": "List themes",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/http.ThemeResponse"}}}
                }
            },
            "post": {
                "tags": ["Themes"],
                "summary": "Create theme",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"description": "Theme", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.CreateThemeRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/http.ThemeResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.ErrorResponseBody"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/http.ErrorResponseBody"}}
                }
            }
        },
        "/api/v1/themes/{id}": {
            "get": {
                "tags": ["Themes"],
                "summary": "Get theme",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "integer", "description": "Theme ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.ThemeResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.ErrorResponseBody"}}
                }
            },
            "delete": {
                "tags": ["Themes"],
                "summary": "Delete theme",
                "parameters": [
                    {"type": "integer", "description": "Theme ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.ErrorResponseBody"}}
                }
            }
        },
        "/api/v1/themes/{id}/fields": {
            "put": {
                "tags": ["Themes"],
                "summary": "Set theme fields",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"type": "integer", "description": "Theme ID", "name": "id", "in": "path", "required": true},
                    {"description": "Fields", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.SetFieldsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.ThemeResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.ErrorResponseBody"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.ErrorResponseBody"}}
                }
            }
        },
        "/api/v1/themes/{id}/children": {
            "post": {
                "tags": ["Themes"],
                "summary": "Include a child theme",
                "consumes": ["application/json"],
                "parameters": [
                    {"type": "integer", "description": "Parent theme ID", "name": "id", "in": "path", "required": true},
                    {"description": "Child", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.AddChildRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.ErrorResponseBody"}}
                }
            }
        },
        "/api/v1/invalidations": {
            "post": {
                "description": "Used after changes made directly against the database, e.g. by the CLI",
                "tags": ["Themes"],
                "summary": "Invalidate themes",
                "consumes": ["application/json"],
                "parameters": [
                    {"description": "Changed themes", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.InvalidateRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.ErrorResponseBody"}}
                }
            }
        },
        "/api/v1/themes/{id}/dependencies": {
            "get": {
                "description": "up lists themes that include this one, down the themes it includes",
                "tags": ["Themes"],
                "summary": "Theme dependencies",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "integer", "description": "Theme ID", "name": "id", "in": "path", "required": true},
                    {"type": "string", "default": "down", "description": "up or down", "name": "direction", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.DependenciesResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.ErrorResponseBody"}}
                }
            }
        }
    },
    "definitions": {
        "http.ErrorDetail": {
            "type": "object",
            "properties": {
                "code": {"type": "string", "example": "not_found"},
                "message": {"type": "string", "example": "theme not found"}
            }
        },
        "http.ErrorResponseBody": {
            "type": "object",
            "properties": {
                "error": {"$ref": "#/definitions/http.ErrorDetail"}
            }
        },
        "http.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "ok"},
                "error": {"type": "string"}
            }
        },
        "http.VersionResponse": {
            "type": "object",
            "properties": {
                "service": {"type": "string", "example": "themebake"},
                "version": {"type": "string", "example": "1.0.0"}
            }
        },
        "http.LookupResponse": {
            "type": "object",
            "properties": {
                "key": {"type": "string"},
                "target": {"type": "string"},
                "field": {"type": "string"},
                "value": {"type": "string"}
            }
        },
        "http.FieldInput": {
            "type": "object",
            "properties": {
                "target": {"type": "string", "example": "desktop"},
                "name": {"type": "string", "example": "header"},
                "value": {"type": "string", "example": "<div>hello</div>"}
            }
        },
        "http.CreateThemeRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string", "example": "Dark"},
                "key": {"type": "string"},
                "user_selectable": {"type": "boolean"},
                "hidden": {"type": "boolean"},
                "fields": {"type": "array", "items": {"$ref": "#/definitions/http.FieldInput"}}
            }
        },
        "http.SetFieldsRequest": {
            "type": "object",
            "properties": {
                "fields": {"type": "array", "items": {"$ref": "#/definitions/http.FieldInput"}}
            }
        },
        "http.AddChildRequest": {
            "type": "object",
            "properties": {
                "child_id": {"type": "integer", "example": 2}
            }
        },
        "http.InvalidateRequest": {
            "type": "object",
            "properties": {
                "theme_ids": {"type": "array", "items": {"type": "integer"}}
            }
        },
        "http.FieldResponse": {
            "type": "object",
            "properties": {
                "target": {"type": "string"},
                "name": {"type": "string"},
                "value": {"type": "string"},
                "value_baked": {"type": "string"},
                "compiler_version": {"type": "integer"}
            }
        },
        "http.ThemeResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "integer", "example": 1},
                "key": {"type": "string"},
                "name": {"type": "string"},
                "compiler_version": {"type": "integer"},
                "user_selectable": {"type": "boolean"},
                "hidden": {"type": "boolean"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"},
                "fields": {"type": "array", "items": {"$ref": "#/definitions/http.FieldResponse"}}
            }
        },
        "http.DependenciesResponse": {
            "type": "object",
            "properties": {
                "theme_id": {"type": "integer"},
                "direction": {"type": "string", "example": "up"},
                "ids": {"type": "array", "items": {"type": "integer"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "themebake API",
	Description:      "Theme field lookups, theme administration and invalidation broadcast.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
