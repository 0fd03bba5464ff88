// Package docs holds the OpenAPI description served at /swagger. Regenerate
// it with `swag init` after changing handler annotations.
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
        "/cocktails": {
            "get": {
                "description": "Paginated cocktail history, newest first",
                "produces": ["application/json"],
                "tags": ["cocktails"],
                "summary": "List cocktails",
                "parameters": [
                    {"type": "integer", "default": 1, "description": "Page number", "name": "page", "in": "query"},
                    {"type": "integer", "default": 10, "description": "Items per page (max 50)", "name": "per_page", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/utils.Response"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/utils.Response"}}
                }
            }
        },
        "/cocktails/generate": {
            "post": {
                "description": "Ask the LLM for a cocktail recipe matching a free-text request and store it",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["cocktails"],
                "summary": "Generate a cocktail",
                "parameters": [
                    {"description": "Cocktail request", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/cocktail.GenerateCocktailRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/utils.Response"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/utils.Response"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/utils.Response"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/utils.Response"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/utils.Response"}}
                }
            }
        },
        "/cocktails/generate-image": {
            "post": {
                "description": "Run the image provider chain. When every provider fails the default image is returned with is_default=true.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["images"],
                "summary": "Generate an image for a cocktail",
                "parameters": [
                    {"description": "Cocktail to illustrate", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/cocktail.GenerateImageRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/utils.Response"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/utils.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/utils.Response"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/utils.Response"}}
                }
            }
        },
        "/cocktails/recent": {
            "get": {
                "produces": ["application/json"],
                "tags": ["cocktails"],
                "summary": "Recent cocktails",
                "parameters": [
                    {"type": "integer", "default": 10, "description": "Number of cocktails (max 50)", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/utils.Response"}}
                }
            }
        },
        "/cocktails/search": {
            "get": {
                "description": "Case-insensitive search on the name or the ingredients",
                "produces": ["application/json"],
                "tags": ["cocktails"],
                "summary": "Search cocktails",
                "parameters": [
                    {"type": "string", "description": "Search term", "name": "q", "in": "query", "required": true},
                    {"type": "string", "default": "name", "description": "name or ingredients", "name": "field", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/utils.Response"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/utils.Response"}}
                }
            }
        },
        "/cocktails/stats": {
            "get": {
                "produces": ["application/json"],
                "tags": ["cocktails"],
                "summary": "Cocktail statistics",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/utils.Response"}}
                }
            }
        },
        "/cocktails/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["cocktails"],
                "summary": "Get a cocktail",
                "parameters": [
                    {"type": "integer", "description": "Cocktail ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/utils.Response"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/utils.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/utils.Response"}}
                }
            },
            "delete": {
                "description": "Delete a cocktail and the generated image it owns",
                "produces": ["application/json"],
                "tags": ["cocktails"],
                "summary": "Delete a cocktail",
                "parameters": [
                    {"type": "integer", "description": "Cocktail ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/utils.Response"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/utils.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/utils.Response"}}
                }
            }
        },
        "/cocktails/{id}/image": {
            "post": {
                "description": "Same as /cocktails/generate-image with the id in the path",
                "produces": ["application/json"],
                "tags": ["images"],
                "summary": "Generate an image for a cocktail",
                "parameters": [
                    {"type": "integer", "description": "Cocktail ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/utils.Response"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/utils.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/utils.Response"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/utils.Response"}}
                }
            }
        },
        "/health": {
            "get": {
                "description": "Pings the database and the cache. A database failure answers 503, a cache failure only degrades.",
                "produces": ["application/json"],
                "tags": ["status"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/utils.Response"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/utils.Response"}}
                }
            }
        },
        "/status": {
            "get": {
                "description": "Configured LLM, the image provider chain in priority order and the storage backend",
                "produces": ["application/json"],
                "tags": ["status"],
                "summary": "Service status",
                "parameters": [
                    {"type": "boolean", "description": "Send a test completion to the LLM", "name": "check_llm", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/utils.Response"}}
                }
            }
        }
    },
    "definitions": {
        "cocktail.GenerateCocktailRequest": {
            "type": "object",
            "required": ["prompt"],
            "properties": {
                "prompt": {"type": "string"}
            }
        },
        "cocktail.GenerateImageRequest": {
            "type": "object",
            "required": ["cocktail_id"],
            "properties": {
                "cocktail_id": {"type": "integer"}
            }
        },
        "models.Cocktail": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "name": {"type": "string"},
                "ingredients": {"type": "array", "items": {"type": "string"}},
                "description": {"type": "string"},
                "music_ambiance": {"type": "string"},
                "image_prompt": {"type": "string"},
                "user_prompt": {"type": "string"},
                "image_path": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "utils.Response": {
            "type": "object",
            "properties": {
                "status": {"type": "integer"},
                "message": {"type": "string"},
                "data": {}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Mixologue API",
	Description:      "Cocktail recipes generated by an LLM, illustrated by a chain of image providers.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
