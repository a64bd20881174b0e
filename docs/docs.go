// Package docs registers the PortPulse OpenAPI document with swag.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "license": {
            "name": "Apache 2.0",
            "url": "http://www.apache.org/licenses/LICENSE-2.0.html"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/probe": {
            "post": {
                "description": "Runs one connection attempt. Unreachable ports are reported with connectionStatus Failed, not an error status.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["probe"],
                "summary": "Probe a TCP port",
                "parameters": [
                    {
                        "description": "probe request",
                        "name": "probe",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/api.ProbeBody"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.ProbeResult"}},
                    "400": {"description": "invalid input", "schema": {"type": "string"}},
                    "429": {"description": "rate limited", "schema": {"type": "string"}}
                }
            }
        },
        "/probe/batch": {
            "post": {
                "description": "Runs every probe through the worker pool. Results keep request order.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["probe"],
                "summary": "Probe several TCP ports",
                "parameters": [
                    {
                        "description": "probes",
                        "name": "batch",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/api.BatchBody"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.BatchResponse"}},
                    "400": {"description": "invalid input", "schema": {"type": "string"}},
                    "429": {"description": "rate limited", "schema": {"type": "string"}}
                }
            }
        },
        "/results": {
            "get": {
                "produces": ["application/json"],
                "tags": ["results"],
                "summary": "List stored probe results",
                "parameters": [
                    {"type": "string", "description": "target host", "name": "target", "in": "query"},
                    {"type": "integer", "description": "port", "name": "port", "in": "query"},
                    {"type": "integer", "description": "watch id", "name": "watch_id", "in": "query"},
                    {"type": "integer", "description": "max rows, default 100", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.Record"}}}
                }
            }
        },
        "/results/stats": {
            "get": {
                "produces": ["application/json"],
                "tags": ["results"],
                "summary": "Success ratio and latency for one endpoint",
                "parameters": [
                    {"type": "string", "description": "target host", "name": "target", "in": "query", "required": true},
                    {"type": "integer", "description": "port", "name": "port", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.StatsResponse"}},
                    "400": {"description": "invalid input", "schema": {"type": "string"}}
                }
            }
        },
        "/results/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["results"],
                "summary": "Get one stored probe result",
                "parameters": [
                    {"type": "integer", "description": "result id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Record"}},
                    "404": {"description": "not found", "schema": {"type": "string"}}
                }
            }
        },
        "/watches": {
            "get": {
                "produces": ["application/json"],
                "tags": ["watches"],
                "summary": "List watches",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.Watch"}}}
                }
            },
            "post": {
                "description": "The scheduler probes enabled watches every interval_seconds.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["watches"],
                "summary": "Create a watch",
                "parameters": [
                    {
                        "description": "watch",
                        "name": "watch",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/models.Watch"}
                    }
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/models.Watch"}},
                    "400": {"description": "invalid input", "schema": {"type": "string"}}
                }
            }
        },
        "/watches/{id}": {
            "delete": {
                "tags": ["watches"],
                "summary": "Delete a watch and its results",
                "parameters": [
                    {"type": "integer", "description": "watch id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "not found", "schema": {"type": "string"}}
                }
            }
        },
        "/watches/{id}/enabled": {
            "patch": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["watches"],
                "summary": "Enable or disable a watch",
                "parameters": [
                    {"type": "integer", "description": "watch id", "name": "id", "in": "path", "required": true},
                    {
                        "description": "{\"enabled\": false}",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {"type": "object"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Watch"}},
                    "404": {"description": "not found", "schema": {"type": "string"}}
                }
            }
        }
    },
    "definitions": {
        "api.ProbeBody": {
            "type": "object",
            "properties": {
                "target": {"type": "string", "example": "localhost"},
                "port": {"type": "integer", "example": 80},
                "timeout_ms": {"type": "integer", "example": 2000},
                "skip_liveness": {"type": "boolean", "example": false}
            }
        },
        "api.BatchBody": {
            "type": "object",
            "properties": {
                "probes": {"type": "array", "items": {"$ref": "#/definitions/api.ProbeBody"}}
            }
        },
        "api.BatchResponse": {
            "type": "object",
            "properties": {
                "batch_id": {"type": "string"},
                "results": {"type": "array", "items": {"$ref": "#/definitions/models.ProbeResult"}}
            }
        },
        "models.ProbeResult": {
            "type": "object",
            "properties": {
                "target": {"type": "string", "example": "localhost"},
                "hostReachable": {"type": "string", "enum": ["Reachable", "Unreachable", "Unknown"], "example": "Reachable"},
                "port": {"type": "integer", "example": 80},
                "connectionStatus": {"type": "string", "enum": ["Success", "Failed"], "example": "Success"},
                "duration_ms": {"type": "integer", "example": 12},
                "error": {"type": "string"},
                "checked_at": {"type": "string", "format": "date-time"}
            }
        },
        "models.Record": {
            "type": "object",
            "properties": {
                "id": {"type": "integer", "example": 1},
                "watch_id": {"type": "integer", "example": 3},
                "batch_id": {"type": "string"},
                "target": {"type": "string", "example": "localhost"},
                "hostReachable": {"type": "string", "example": "Reachable"},
                "port": {"type": "integer", "example": 80},
                "connectionStatus": {"type": "string", "example": "Success"},
                "duration_ms": {"type": "integer", "example": 12},
                "error": {"type": "string"},
                "checked_at": {"type": "string", "format": "date-time"}
            }
        },
        "models.Watch": {
            "type": "object",
            "properties": {
                "id": {"type": "integer", "example": 1},
                "target": {"type": "string", "example": "db.internal"},
                "port": {"type": "integer", "example": 5432},
                "timeout_ms": {"type": "integer", "example": 2000},
                "interval_seconds": {"type": "integer", "example": 60},
                "skip_liveness": {"type": "boolean", "example": false},
                "enabled": {"type": "boolean", "example": true}
            }
        },
        "models.LatencyStats": {
            "type": "object",
            "properties": {
                "min": {"type": "integer", "example": 3},
                "max": {"type": "integer", "example": 480},
                "avg": {"type": "number", "example": 41.5}
            }
        },
        "models.StatsResponse": {
            "type": "object",
            "properties": {
                "target": {"type": "string", "example": "localhost"},
                "port": {"type": "integer", "example": 80},
                "total": {"type": "integer", "example": 120},
                "success_count": {"type": "integer", "example": 118},
                "failure_count": {"type": "integer", "example": 2},
                "success_ratio": {"type": "number", "example": 0.983},
                "latency": {"$ref": "#/definitions/models.LatencyStats"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "PortPulse API",
	Description:      "TCP port probing with scheduled watches and result history.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
