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
        "/auth/sign-up": {
            "post": {
                "tags": ["auth"],
                "summary": "Register a new user",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/auth.SignUpRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/auth.AuthResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httperr.E"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/httperr.E"}}
                }
            }
        },
        "/auth/sign-in": {
            "post": {
                "tags": ["auth"],
                "summary": "Sign in",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/auth.SignInRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/auth.AuthResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/httperr.E"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/httperr.E"}}
                }
            }
        },
        "/notes": {
            "get": {
                "security": [{"Bearer": []}],
                "tags": ["notes"],
                "summary": "List notes, newest first",
                "parameters": [
                    {"type": "string", "name": "q", "in": "query"},
                    {"type": "string", "name": "tag", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httperr.E"}}}
            },
            "post": {
                "security": [{"Bearer": []}],
                "tags": ["notes"],
                "summary": "Create a new note",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/notes.Draft"}}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/notes.Note"}}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httperr.E"}}}
            }
        },
        "/notes/recent": {
            "get": {
                "security": [{"Bearer": []}],
                "tags": ["notes"],
                "summary": "Recently updated notes",
                "parameters": [{"type": "integer", "name": "limit", "in": "query"}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/notes/{id}": {
            "get": {
                "security": [{"Bearer": []}],
                "tags": ["notes"],
                "summary": "Get a note",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/notes.Note"}}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httperr.E"}}}
            },
            "patch": {
                "security": [{"Bearer": []}],
                "tags": ["notes"],
                "summary": "Update a note",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/notes.Patch"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/notes.Note"}}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httperr.E"}}}
            },
            "delete": {
                "security": [{"Bearer": []}],
                "tags": ["notes"],
                "summary": "Delete a note and its reminders",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"204": {"description": "No Content"}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httperr.E"}}}
            }
        },
        "/notes/{id}/reminders": {
            "get": {
                "security": [{"Bearer": []}],
                "tags": ["reminders"],
                "summary": "Reminders of a note",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/reminders.Reminder"}}}}
            }
        },
        "/reminders": {
            "get": {
                "security": [{"Bearer": []}],
                "tags": ["reminders"],
                "summary": "List reminders, soonest first",
                "parameters": [
                    {"type": "string", "name": "status", "in": "query"},
                    {"type": "integer", "name": "skip", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "security": [{"Bearer": []}],
                "tags": ["reminders"],
                "summary": "Schedule a reminder for a note",
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/reminders.Reminder"}}, "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/httperr.E"}}}
            }
        },
        "/reminders/upcoming": {
            "get": {"security": [{"Bearer": []}], "tags": ["reminders"], "summary": "Upcoming pending reminders", "responses": {"200": {"description": "OK"}}}
        },
        "/reminders/stats": {
            "get": {"security": [{"Bearer": []}], "tags": ["reminders"], "summary": "Reminder statistics", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/reminders.Stats"}}}}
        },
        "/reminders/bulk": {
            "post": {"security": [{"Bearer": []}], "tags": ["reminders"], "summary": "Bulk transition pending reminders", "responses": {"200": {"description": "OK"}}}
        },
        "/reminders/{id}": {
            "get": {"security": [{"Bearer": []}], "tags": ["reminders"], "summary": "Get a reminder", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/reminders.Reminder"}}}},
            "patch": {"security": [{"Bearer": []}], "tags": ["reminders"], "summary": "Reschedule a pending reminder", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/reminders.Reminder"}}}},
            "delete": {"security": [{"Bearer": []}], "tags": ["reminders"], "summary": "Delete a reminder", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"204": {"description": "No Content"}}}
        },
        "/reminders/{id}/cancel": {
            "post": {"security": [{"Bearer": []}], "tags": ["reminders"], "summary": "Cancel a pending reminder", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/reminders.Reminder"}}}}
        },
        "/me": {
            "get": {"security": [{"Bearer": []}], "tags": ["auth"], "summary": "Get current user", "responses": {"200": {"description": "OK"}}},
            "delete": {"security": [{"Bearer": []}], "tags": ["auth"], "summary": "Delete account", "responses": {"204": {"description": "No Content"}, "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/httperr.E"}}}}
        },
        "/me/change-password": {
            "post": {"security": [{"Bearer": []}], "consumes": ["application/json"], "produces": ["application/json"], "tags": ["auth"], "summary": "Change password", "parameters": [{"description": "Change password request", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/auth.ChangePasswordRequest"}}], "responses": {"204": {"description": "No Content"}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httperr.E"}}, "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/httperr.E"}}, "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/httperr.E"}}}}
        }
    },
    "definitions": {
        "httperr.E": {"type": "object", "properties": {"error": {"type": "string", "example": "Bad Request"}}},
        "auth.SignUpRequest": {"type": "object", "required": ["email", "password"], "properties": {"email": {"type": "string"}, "password": {"type": "string"}}},
        "auth.SignInRequest": {"type": "object", "required": ["email", "password"], "properties": {"email": {"type": "string"}, "password": {"type": "string"}}},
        "auth.ChangePasswordRequest": {"type": "object", "required": ["current_password", "new_password"], "properties": {"current_password": {"type": "string"}, "new_password": {"type": "string"}}},
        "auth.AuthResponse": {"type": "object", "properties": {"access_token": {"type": "string"}, "token_type": {"type": "string"}, "expires_in": {"type": "integer"}}},
        "notes.Draft": {"type": "object", "required": ["title", "content"], "properties": {"title": {"type": "string"}, "content": {"type": "string"}, "preacher": {"type": "string"}, "tags": {"type": "array", "items": {"type": "string"}}, "scripture_refs": {"type": "array", "items": {"type": "string"}}, "summary": {"type": "string"}, "reminder_at": {"type": "string"}, "private": {"type": "boolean"}}},
        "notes.Patch": {"type": "object", "properties": {"title": {"type": "string"}, "content": {"type": "string"}, "preacher": {"type": "string"}, "tags": {"type": "array", "items": {"type": "string"}}, "scripture_refs": {"type": "array", "items": {"type": "string"}}, "summary": {"type": "string"}, "reminder_at": {"type": "string"}, "private": {"type": "boolean"}, "clear_summary": {"type": "boolean"}, "clear_reminder_at": {"type": "boolean"}}},
        "notes.Note": {"type": "object", "properties": {"id": {"type": "string"}, "user_id": {"type": "string"}, "title": {"type": "string"}, "content": {"type": "string"}, "preacher": {"type": "string"}, "tags": {"type": "array", "items": {"type": "string"}}, "scripture_refs": {"type": "array", "items": {"type": "string"}}, "summary": {"type": "string"}, "reminder_at": {"type": "string"}, "private": {"type": "boolean"}, "created_at": {"type": "string"}, "updated_at": {"type": "string"}}},
        "reminders.Reminder": {"type": "object", "properties": {"id": {"type": "string"}, "user_id": {"type": "string"}, "note_id": {"type": "string"}, "scheduled_at": {"type": "string"}, "status": {"type": "string", "enum": ["pending", "sent", "cancelled"]}, "created_at": {"type": "string"}, "updated_at": {"type": "string"}}},
        "reminders.Stats": {"type": "object", "properties": {"total": {"type": "integer"}, "pending": {"type": "integer"}, "sent": {"type": "integer"}, "cancelled": {"type": "integer"}, "upcoming": {"type": "integer"}}}
    },
    "securityDefinitions": {
        "Bearer": {"description": "Type \"Bearer\" followed by a space and JWT token.", "type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "0.1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{"http", "https"},
	Title:            "Scribes API",
	Description:      "Sermon notes, reminders and a live state stream over websocket.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
