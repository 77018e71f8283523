// Package docs holds the OpenAPI document served at /api/openapi.json and
// /swagger/. It follows the layout swag init produces; keep it in step with
// the @Router annotations in internal/http.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "license": {
            "name": "MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/admin/delete-member": {
            "post": {
                "description": "Delete a member, revoke their tokens and hide their articles. Requires admin secret.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "Delete a member",
                "parameters": [
                    {"type": "string", "description": "Admin secret", "name": "X-Admin-Secret", "in": "header", "required": true},
                    {
                        "description": "Member to delete",
                        "name": "member",
                        "in": "body",
                        "required": true,
                        "schema": {"type": "object", "properties": {"member_id": {"type": "integer"}}}
                    }
                ],
                "responses": {
                    "200": {"description": "Member deleted", "schema": {"type": "object", "additionalProperties": {"type": "boolean"}}},
                    "401": {"description": "Invalid admin secret", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "404": {"description": "Member not found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/articles": {
            "get": {
                "description": "List visible articles, newest first",
                "produces": ["application/json"],
                "tags": ["Articles"],
                "summary": "List articles",
                "responses": {
                    "200": {"description": "Articles", "schema": {"$ref": "#/definitions/httpapp.ArticleListEnvelope"}},
                    "500": {"description": "Storage failure", "schema": {"$ref": "#/definitions/httpapp.Envelope"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Write a new article owned by the caller",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Articles"],
                "summary": "Write an article",
                "parameters": [
                    {"description": "Article", "name": "article", "in": "body", "required": true, "schema": {"$ref": "#/definitions/board.WriteRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/httpapp.ArticleEnvelope"}},
                    "400": {"description": "Invalid body", "schema": {"$ref": "#/definitions/httpapp.Envelope"}},
                    "401": {"description": "Not authenticated", "schema": {"$ref": "#/definitions/httpapp.Envelope"}},
                    "429": {"description": "Rate limited", "schema": {"$ref": "#/definitions/httpapp.Envelope"}}
                }
            }
        },
        "/api/articles/{id}": {
            "get": {
                "description": "Get a single article by ID",
                "produces": ["application/json"],
                "tags": ["Articles"],
                "summary": "Find an article",
                "parameters": [
                    {"type": "integer", "description": "Article ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Article", "schema": {"$ref": "#/definitions/httpapp.ArticleEnvelope"}},
                    "400": {"description": "Invalid ID", "schema": {"$ref": "#/definitions/httpapp.Envelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/httpapp.Envelope"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "description": "Remove an article. Only its author may remove it.",
                "produces": ["application/json"],
                "tags": ["Articles"],
                "summary": "Remove an article",
                "parameters": [
                    {"type": "integer", "description": "Article ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Removed", "schema": {"$ref": "#/definitions/httpapp.Envelope"}},
                    "401": {"description": "Not authenticated", "schema": {"$ref": "#/definitions/httpapp.Envelope"}},
                    "403": {"description": "Not the author", "schema": {"$ref": "#/definitions/httpapp.Envelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/httpapp.Envelope"}}
                }
            },
            "patch": {
                "security": [{"BearerAuth": []}],
                "description": "Replace subject and content. Only its author may modify it.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Articles"],
                "summary": "Modify an article",
                "parameters": [
                    {"type": "integer", "description": "Article ID", "name": "id", "in": "path", "required": true},
                    {"description": "New content", "name": "article", "in": "body", "required": true, "schema": {"$ref": "#/definitions/board.ModifyRequest"}}
                ],
                "responses": {
                    "200": {"description": "Updated", "schema": {"$ref": "#/definitions/httpapp.ArticleEnvelope"}},
                    "400": {"description": "Invalid body", "schema": {"$ref": "#/definitions/httpapp.Envelope"}},
                    "401": {"description": "Not authenticated", "schema": {"$ref": "#/definitions/httpapp.Envelope"}},
                    "403": {"description": "Not the author", "schema": {"$ref": "#/definitions/httpapp.Envelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/httpapp.Envelope"}}
                }
            }
        },
        "/api/auth/challenge": {
            "post": {
                "description": "Request a challenge to sign",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Authentication"],
                "summary": "Get authentication challenge",
                "parameters": [
                    {"description": "Algorithm", "name": "request", "in": "body", "required": true, "schema": {"type": "object", "properties": {"alg": {"type": "string"}}}}
                ],
                "responses": {
                    "200": {"description": "Challenge", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Unsupported algorithm", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/auth/verify": {
            "post": {
                "description": "Exchange a signed challenge for a bearer token",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Authentication"],
                "summary": "Verify signature and get token",
                "parameters": [
                    {
                        "description": "Signed challenge",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "type": "object",
                            "properties": {
                                "alg": {"type": "string"},
                                "challenge": {"type": "string"},
                                "public_key": {"type": "string"},
                                "signature": {"type": "string"}
                            }
                        }
                    }
                ],
                "responses": {
                    "200": {"description": "Access token", "schema": {"type": "object", "additionalProperties": true}},
                    "401": {"description": "Invalid signature", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/members": {
            "post": {
                "description": "Register a member with a signed challenge",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Members"],
                "summary": "Register a member",
                "parameters": [
                    {
                        "description": "Member data with signed challenge",
                        "name": "member",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "type": "object",
                            "properties": {
                                "alg": {"type": "string"},
                                "bio": {"type": "string"},
                                "challenge": {"type": "string"},
                                "public_key": {"type": "string"},
                                "signature": {"type": "string"},
                                "username": {"type": "string"}
                            }
                        }
                    }
                ],
                "responses": {
                    "200": {"description": "Member and key IDs", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Missing fields", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "401": {"description": "Invalid signature", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "409": {"description": "Username taken or key exists", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/members/{id}": {
            "get": {
                "description": "Get a member's public profile with their most recent articles",
                "produces": ["application/json"],
                "tags": ["Members"],
                "summary": "Get member profile",
                "parameters": [
                    {"type": "integer", "description": "Member ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Member with active keys and articles", "schema": {"type": "object", "additionalProperties": true}},
                    "404": {"description": "Member not found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/members/me/keys/{id}": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "description": "Revoke one of the caller's keys. Tokens issued with that key stop working.",
                "produces": ["application/json"],
                "tags": ["Members"],
                "summary": "Revoke a key",
                "parameters": [
                    {"type": "integer", "description": "Key ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Key revoked", "schema": {"type": "object", "additionalProperties": {"type": "boolean"}}},
                    "400": {"description": "Invalid key id", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/httpapp.Envelope"}},
                    "404": {"description": "Key not found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/stats": {
            "get": {
                "description": "Get counts of members and visible articles",
                "produces": ["application/json"],
                "tags": ["Stats"],
                "summary": "Get site statistics",
                "responses": {
                    "200": {"description": "Site statistics", "schema": {"$ref": "#/definitions/model.SiteStats"}}
                }
            }
        },
        "/api/version": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Stats"],
                "summary": "Get build information",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httpapp.BuildInfo"}}
                }
            }
        }
    },
    "definitions": {
        "board.ModifyRequest": {
            "type": "object",
            "properties": {
                "content": {"type": "string"},
                "subject": {"type": "string"}
            }
        },
        "board.WriteRequest": {
            "type": "object",
            "properties": {
                "content": {"type": "string"},
                "subject": {"type": "string"}
            }
        },
        "httpapp.ArticleEnvelope": {
            "type": "object",
            "properties": {
                "code": {"type": "string", "example": "S200"},
                "data": {
                    "type": "object",
                    "properties": {
                        "article": {"$ref": "#/definitions/model.Article"}
                    }
                },
                "message": {"type": "string"}
            }
        },
        "httpapp.ArticleListEnvelope": {
            "type": "object",
            "properties": {
                "code": {"type": "string", "example": "S200"},
                "data": {
                    "type": "object",
                    "properties": {
                        "articles": {"type": "array", "items": {"$ref": "#/definitions/model.Article"}}
                    }
                },
                "message": {"type": "string"}
            }
        },
        "httpapp.BuildInfo": {
            "type": "object",
            "properties": {
                "build_time": {"type": "string"},
                "commit": {"type": "string"},
                "version": {"type": "string"}
            }
        },
        "httpapp.Envelope": {
            "type": "object",
            "properties": {
                "code": {"type": "string", "example": "F404"},
                "message": {"type": "string", "example": "article 7 does not exist"}
            }
        },
        "model.Article": {
            "type": "object",
            "properties": {
                "content": {"type": "string"},
                "created_at": {"type": "string"},
                "id": {"type": "integer"},
                "member_id": {"type": "integer"},
                "member_name": {"type": "string"},
                "subject": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "model.SiteStats": {
            "type": "object",
            "properties": {
                "articles": {"type": "integer"},
                "members": {"type": "integer"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Bearer token from /api/auth/verify",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Noticeboard API",
	Description:      "A bulletin board where members post and maintain articles.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
