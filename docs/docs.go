// Package docs holds the OpenAPI description of the control API served on /swagger/.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Health Check",
                "responses": {"200": {"description": "OK", "schema": {"type": "object"}}}
            }
        },
        "/session": {
            "get": {
                "produces": ["application/json"],
                "tags": ["session"],
                "summary": "Session state",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.SessionResponse"}}}
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["session"],
                "summary": "Hand a session to the agent",
                "parameters": [{"description": "Session and driver identity", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.LoginRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.SessionResponse"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"type": "object"}}
                }
            }
        },
        "/session/logout": {
            "post": {
                "produces": ["application/json"],
                "tags": ["session"],
                "summary": "Log out",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.SessionResponse"}}}
            }
        },
        "/availability": {
            "get": {
                "produces": ["application/json"],
                "tags": ["availability"],
                "summary": "Availability state",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.AvailabilityResponse"}}}
            }
        },
        "/availability/online": {
            "post": {
                "produces": ["application/json"],
                "tags": ["availability"],
                "summary": "Go online",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.AvailabilityResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"type": "object"}},
                    "403": {"description": "Forbidden", "schema": {"type": "object"}},
                    "409": {"description": "Conflict", "schema": {"type": "object"}},
                    "502": {"description": "Bad Gateway", "schema": {"type": "object"}}
                }
            }
        },
        "/availability/offline": {
            "post": {
                "produces": ["application/json"],
                "tags": ["availability"],
                "summary": "Go offline",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.AvailabilityResponse"}}}
            }
        },
        "/availability/sync": {
            "post": {
                "produces": ["application/json"],
                "tags": ["availability"],
                "summary": "Reconcile with the backend",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.AvailabilityResponse"}}}
            }
        },
        "/availability/status": {
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["availability"],
                "summary": "Set availability status",
                "parameters": [{"description": "New status", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.SetStatusRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.AvailabilityResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"type": "object"}}
                }
            }
        },
        "/location": {
            "get": {
                "produces": ["application/json"],
                "tags": ["location"],
                "summary": "Latest device fix",
                "responses": {"200": {"description": "OK", "schema": {"type": "object"}}}
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["location"],
                "summary": "Report a device fix",
                "parameters": [{"description": "Location fix", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.LocationRequest"}}],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"type": "object"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"type": "object"}}
                }
            }
        },
        "/location/permission": {
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["location"],
                "summary": "Set location permission",
                "parameters": [{"description": "Permission state", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.PermissionRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"type": "object"}}}
            }
        },
        "/rides/{ride_id}/{step}": {
            "post": {
                "produces": ["application/json"],
                "tags": ["rides"],
                "summary": "Ride milestone",
                "description": "step is one of accept, reject, arrived, pickup, dropoff",
                "parameters": [
                    {"type": "string", "description": "Ride ID", "name": "ride_id", "in": "path", "required": true},
                    {"type": "string", "description": "Milestone", "name": "step", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "404": {"description": "Not Found", "schema": {"type": "object"}},
                    "502": {"description": "Bad Gateway", "schema": {"type": "object"}}
                }
            }
        },
        "/ws/events": {
            "get": {
                "tags": ["events"],
                "summary": "UI event stream",
                "description": "Websocket of navigate, ride_offer and availability events",
                "responses": {"101": {"description": "Switching Protocols"}}
            }
        }
    },
    "definitions": {
        "dto.DriverRequest": {
            "type": "object",
            "properties": {
                "driver_id": {"type": "string"},
                "first_name": {"type": "string"},
                "last_name": {"type": "string"},
                "user_id": {"type": "string"},
                "vehicle_type": {"type": "string"}
            }
        },
        "dto.LoginRequest": {
            "type": "object",
            "properties": {
                "access_token": {"type": "string"},
                "driver": {"$ref": "#/definitions/dto.DriverRequest"},
                "expires_at": {"type": "integer"},
                "refresh_token": {"type": "string"}
            }
        },
        "dto.SessionResponse": {
            "type": "object",
            "properties": {
                "driver": {"type": "object"},
                "is_logged_in": {"type": "boolean"},
                "valid": {"type": "boolean"}
            }
        },
        "dto.SetStatusRequest": {
            "type": "object",
            "properties": {
                "status": {
                    "type": "string",
                    "enum": ["not_available", "available", "en_route_to_pickup", "waiting_at_pickup", "en_route_to_drop_off"]
                }
            }
        },
        "dto.AvailabilityResponse": {
            "type": "object",
            "properties": {
                "availability_status": {"type": "string"},
                "is_online": {"type": "boolean"},
                "is_transitioning": {"type": "boolean"},
                "last_manual_toggle_at": {"type": "string"},
                "last_sync_at": {"type": "string"}
            }
        },
        "dto.LocationRequest": {
            "type": "object",
            "properties": {
                "accuracy_m": {"type": "number"},
                "captured_at": {"type": "string"},
                "heading_deg": {"type": "number"},
                "latitude": {"type": "number"},
                "longitude": {"type": "number"},
                "speed_mps": {"type": "number"}
            }
        },
        "dto.PermissionRequest": {
            "type": "object",
            "properties": {
                "granted": {"type": "boolean"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and the SERVER_TOKEN value.",
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
	Title:            "Driver Presence Agent API",
	Description:      "Local control API of the driver presence agent.",
	InfoInstanceName: "agent",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
