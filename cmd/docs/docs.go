// Package docs registers the OpenAPI document served under /swagger. It is
// maintained by hand next to the swag annotations on the route handlers.
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
        "/accounts": {
            "get": {"security": [{"BearerAuth": []}], "produces": ["application/json"], "tags": ["accounts"], "summary": "List accounts", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "consumes": ["application/json"], "produces": ["application/json"], "tags": ["accounts"], "summary": "Create a new account", "responses": {"201": {"description": "Created"}}}
        },
        "/accounts/{id}": {
            "get": {"security": [{"BearerAuth": []}], "produces": ["application/json"], "tags": ["accounts"], "summary": "Get an account by ID", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}},
            "delete": {"security": [{"BearerAuth": []}], "produces": ["application/json"], "tags": ["accounts"], "summary": "Delete an account", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/accounts/{id}/deactivate": {
            "post": {"security": [{"BearerAuth": []}], "produces": ["application/json"], "tags": ["accounts"], "summary": "Deactivate an account", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/accounts/{id}/parent": {
            "put": {"security": [{"BearerAuth": []}], "consumes": ["application/json"], "produces": ["application/json"], "tags": ["accounts"], "summary": "Move an account under a new parent", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/audit": {
            "get": {"security": [{"BearerAuth": []}], "produces": ["application/json"], "tags": ["audit"], "summary": "Read the audit trail", "responses": {"200": {"description": "OK"}}}
        },
        "/companies": {
            "get": {"security": [{"BearerAuth": []}], "produces": ["application/json"], "tags": ["tenants"], "summary": "List the companies of the tenant", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "consumes": ["application/json"], "produces": ["application/json"], "tags": ["tenants"], "summary": "Add a company to the tenant", "responses": {"201": {"description": "Created"}}}
        },
        "/fx-rates": {
            "get": {"security": [{"BearerAuth": []}], "produces": ["application/json"], "tags": ["fx-rates"], "summary": "List the timeline of a currency pair", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "consumes": ["application/json"], "produces": ["application/json"], "tags": ["fx-rates"], "summary": "Add an FX rate", "responses": {"201": {"description": "Created"}}}
        },
        "/fx-rates/at": {
            "get": {"security": [{"BearerAuth": []}], "produces": ["application/json"], "tags": ["fx-rates"], "summary": "Get the rate valid at an instant", "responses": {"200": {"description": "OK"}}}
        },
        "/journals": {
            "get": {"security": [{"BearerAuth": []}], "produces": ["application/json"], "tags": ["journals"], "summary": "List journals", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "consumes": ["application/json"], "produces": ["application/json"], "tags": ["journals"], "summary": "Create a draft journal", "responses": {"201": {"description": "Created"}}}
        },
        "/journals/{id}": {
            "get": {"security": [{"BearerAuth": []}], "produces": ["application/json"], "tags": ["journals"], "summary": "Get a journal with its lines", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}},
            "delete": {"security": [{"BearerAuth": []}], "produces": ["application/json"], "tags": ["journals"], "summary": "Delete a draft journal", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}},
            "patch": {"security": [{"BearerAuth": []}], "consumes": ["application/json"], "produces": ["application/json"], "tags": ["journals"], "summary": "Amend a draft journal", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/journals/{id}/post": {
            "post": {"security": [{"BearerAuth": []}], "produces": ["application/json"], "tags": ["journals"], "summary": "Post a draft journal", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/journals/{id}/reverse": {
            "post": {"security": [{"BearerAuth": []}], "consumes": ["application/json"], "produces": ["application/json"], "tags": ["journals"], "summary": "Reverse a posted journal", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"201": {"description": "Created"}}}
        },
        "/members": {
            "post": {"security": [{"BearerAuth": []}], "consumes": ["application/json"], "produces": ["application/json"], "tags": ["tenants"], "summary": "Grant a user a role in the tenant", "responses": {"200": {"description": "OK"}}}
        },
        "/tenants": {
            "post": {"security": [{"BearerAuth": []}], "consumes": ["application/json"], "produces": ["application/json"], "tags": ["tenants"], "summary": "Provision a tenant", "responses": {"201": {"description": "Created"}}}
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and JWT token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "security": [
        {
            "BearerAuth": []
        }
    ]
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Ledger Integrity Core API",
	Description:      "Multi-tenant double-entry ledger: accounts, journals, FX rates and the audit trail.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
