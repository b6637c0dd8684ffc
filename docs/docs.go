// Package docs is the swag description of the HTTP API, built from the handler
// annotations with: swag init -g server/main.go -o docs --outputTypes go
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
        "/events": {
            "get": {
                "tags": [
                    "events"
                ],
                "summary": "List the event catalog",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "name": "category",
                        "in": "query",
                        "required": false
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/response.StandardApiResponse"
                        }
                    }
                }
            }
        },
        "/events/{id}": {
            "get": {
                "tags": [
                    "events"
                ],
                "summary": "Get an event with its validated layout",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "integer",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/response.StandardApiResponse"
                        }
                    },
                    "404": {
                        "description": "Unknown event",
                        "schema": {
                            "$ref": "#/definitions/response.StandardApiResponse"
                        }
                    }
                }
            }
        },
        "/events/{id}/availability": {
            "get": {
                "tags": [
                    "availability"
                ],
                "summary": "Effective seat availability",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "integer",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/response.StandardApiResponse"
                        }
                    },
                    "404": {
                        "description": "Unknown event",
                        "schema": {
                            "$ref": "#/definitions/response.StandardApiResponse"
                        }
                    }
                }
            }
        },
        "/events/{id}/availability/baseline": {
            "get": {
                "tags": [
                    "availability"
                ],
                "summary": "Shipped baseline availability",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "integer",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/response.StandardApiResponse"
                        }
                    }
                }
            }
        },
        "/sessions": {
            "post": {
                "tags": [
                    "selection"
                ],
                "summary": "Start a selection session",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/selection.StartSessionRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/response.StandardApiResponse"
                        }
                    },
                    "404": {
                        "description": "Unknown event",
                        "schema": {
                            "$ref": "#/definitions/response.StandardApiResponse"
                        }
                    }
                }
            }
        },
        "/sessions/{id}": {
            "get": {
                "tags": [
                    "selection"
                ],
                "summary": "Current selection",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/response.StandardApiResponse"
                        }
                    },
                    "404": {
                        "description": "Unknown or expired session",
                        "schema": {
                            "$ref": "#/definitions/response.StandardApiResponse"
                        }
                    }
                }
            },
            "delete": {
                "tags": [
                    "selection"
                ],
                "summary": "Clear a selection",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/response.StandardApiResponse"
                        }
                    }
                }
            }
        },
        "/sessions/{id}/seatmap": {
            "get": {
                "tags": [
                    "selection"
                ],
                "summary": "Seat map merged with the selection",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/response.StandardApiResponse"
                        }
                    }
                }
            }
        },
        "/sessions/{id}/seats/{seatId}/toggle": {
            "post": {
                "tags": [
                    "selection"
                ],
                "summary": "Select or deselect a seat",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "type": "string",
                        "name": "seatId",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/response.StandardApiResponse"
                        }
                    },
                    "400": {
                        "description": "Unknown seat",
                        "schema": {
                            "$ref": "#/definitions/response.StandardApiResponse"
                        }
                    },
                    "409": {
                        "description": "Seat not available",
                        "schema": {
                            "$ref": "#/definitions/response.StandardApiResponse"
                        }
                    }
                }
            }
        },
        "/checkouts": {
            "post": {
                "tags": [
                    "checkouts"
                ],
                "summary": "Start a checkout from a session",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/bookings.StartCheckoutRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/response.StandardApiResponse"
                        }
                    }
                }
            }
        },
        "/checkouts/{id}": {
            "get": {
                "tags": [
                    "checkouts"
                ],
                "summary": "Checkout state",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/response.StandardApiResponse"
                        }
                    }
                }
            }
        },
        "/checkouts/{id}/review": {
            "post": {
                "tags": [
                    "checkouts"
                ],
                "summary": "Snapshot and price the selection",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/response.StandardApiResponse"
                        }
                    },
                    "400": {
                        "description": "Empty selection",
                        "schema": {
                            "$ref": "#/definitions/response.StandardApiResponse"
                        }
                    },
                    "422": {
                        "description": "Invalid transition",
                        "schema": {
                            "$ref": "#/definitions/response.StandardApiResponse"
                        }
                    }
                }
            }
        },
        "/checkouts/{id}/payment": {
            "post": {
                "tags": [
                    "checkouts"
                ],
                "summary": "Choose the payment method",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/bookings.ChoosePaymentRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/response.StandardApiResponse"
                        }
                    },
                    "400": {
                        "description": "Unsupported method",
                        "schema": {
                            "$ref": "#/definitions/response.StandardApiResponse"
                        }
                    },
                    "422": {
                        "description": "Invalid transition",
                        "schema": {
                            "$ref": "#/definitions/response.StandardApiResponse"
                        }
                    }
                }
            }
        },
        "/checkouts/{id}/confirm": {
            "post": {
                "tags": [
                    "checkouts"
                ],
                "summary": "Pay and commit the booking",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Committed",
                        "schema": {
                            "$ref": "#/definitions/response.StandardApiResponse"
                        }
                    },
                    "402": {
                        "description": "Payment declined",
                        "schema": {
                            "$ref": "#/definitions/response.StandardApiResponse"
                        }
                    },
                    "409": {
                        "description": "Seats already booked",
                        "schema": {
                            "$ref": "#/definitions/response.StandardApiResponse"
                        }
                    },
                    "422": {
                        "description": "Invalid transition",
                        "schema": {
                            "$ref": "#/definitions/response.StandardApiResponse"
                        }
                    }
                }
            }
        },
        "/checkouts/{id}/retry": {
            "post": {
                "tags": [
                    "checkouts"
                ],
                "summary": "Start a new checkout from a failed one",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/response.StandardApiResponse"
                        }
                    },
                    "422": {
                        "description": "Checkout has not failed",
                        "schema": {
                            "$ref": "#/definitions/response.StandardApiResponse"
                        }
                    }
                }
            }
        },
        "/me/tickets": {
            "get": {
                "tags": [
                    "tickets"
                ],
                "summary": "My tickets, newest first",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "name": "status",
                        "in": "query",
                        "required": false
                    },
                    {
                        "type": "string",
                        "name": "category",
                        "in": "query",
                        "required": false
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/response.StandardApiResponse"
                        }
                    }
                }
            }
        },
        "/me/tickets/{bookingId}": {
            "get": {
                "tags": [
                    "tickets"
                ],
                "summary": "One of my tickets by booking id",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "name": "bookingId",
                        "in": "path",
                        "required": true
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/response.StandardApiResponse"
                        }
                    }
                }
            }
        },
        "/me/tickets/{id}/use": {
            "post": {
                "tags": [
                    "tickets"
                ],
                "summary": "Mark a ticket used",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/response.StandardApiResponse"
                        }
                    }
                }
            }
        },
        "/me/tickets/{id}/cancel": {
            "post": {
                "tags": [
                    "tickets"
                ],
                "summary": "Cancel a ticket and release its seats",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/response.StandardApiResponse"
                        }
                    }
                }
            }
        },
        "/me/transactions": {
            "get": {
                "tags": [
                    "transactions"
                ],
                "summary": "My transactions",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "name": "period",
                        "in": "query",
                        "required": false
                    },
                    {
                        "type": "string",
                        "name": "payment_method",
                        "in": "query",
                        "required": false
                    },
                    {
                        "type": "string",
                        "name": "search",
                        "in": "query",
                        "required": false
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/response.StandardApiResponse"
                        }
                    }
                }
            }
        },
        "/me/transactions/stats": {
            "get": {
                "tags": [
                    "transactions"
                ],
                "summary": "Spending statistics",
                "produces": [
                    "application/json"
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/response.StandardApiResponse"
                        }
                    }
                }
            }
        },
        "/me/transactions/{bookingId}": {
            "get": {
                "tags": [
                    "transactions"
                ],
                "summary": "One transaction",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "name": "bookingId",
                        "in": "path",
                        "required": true
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/response.StandardApiResponse"
                        }
                    }
                }
            }
        },
        "/me/transactions/{bookingId}/receipt": {
            "get": {
                "tags": [
                    "transactions"
                ],
                "summary": "Plain text receipt",
                "produces": [
                    "text/plain"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "name": "bookingId",
                        "in": "path",
                        "required": true
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "string"
                        }
                    }
                }
            }
        },
        "/admin/events": {
            "post": {
                "tags": [
                    "admin"
                ],
                "summary": "Create or replace an event",
                "produces": [
                    "application/json"
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/response.StandardApiResponse"
                        }
                    }
                }
            }
        },
        "/admin/events/{id}/overlay": {
            "delete": {
                "tags": [
                    "admin"
                ],
                "summary": "Reset an event's availability overlay",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "integer",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/response.StandardApiResponse"
                        }
                    }
                }
            }
        },
        "/admin/events/{id}/tickets": {
            "get": {
                "tags": [
                    "admin"
                ],
                "summary": "Tickets issued for an event",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "integer",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/response.StandardApiResponse"
                        }
                    }
                }
            }
        },
        "/admin/availability/stats": {
            "get": {
                "tags": [
                    "admin"
                ],
                "summary": "Overlay statistics",
                "produces": [
                    "application/json"
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/response.StandardApiResponse"
                        }
                    }
                }
            }
        },
        "/admin/tickets/{id}": {
            "delete": {
                "tags": [
                    "admin"
                ],
                "summary": "Delete a ticket",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/response.StandardApiResponse"
                        }
                    }
                }
            }
        },
        "/admin/tickets/verify": {
            "post": {
                "tags": [
                    "admin"
                ],
                "summary": "Verify a ticket QR payload",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/tickets.VerifyTicketRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/response.StandardApiResponse"
                        }
                    }
                }
            }
        },
        "/admin/venues/layouts/preview": {
            "post": {
                "tags": [
                    "admin"
                ],
                "summary": "Expand a layout into seat ids",
                "produces": [
                    "application/json"
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/response.StandardApiResponse"
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "response.StandardApiResponse": {
            "type": "object",
            "properties": {
                "status": {
                    "type": "string"
                },
                "status_code": {
                    "type": "integer"
                },
                "message": {
                    "type": "string"
                },
                "data": {},
                "errors": {}
            }
        },
        "selection.StartSessionRequest": {
            "type": "object",
            "required": [
                "event_id"
            ],
            "properties": {
                "event_id": {
                    "type": "integer"
                }
            }
        },
        "bookings.StartCheckoutRequest": {
            "type": "object",
            "required": [
                "session_id"
            ],
            "properties": {
                "session_id": {
                    "type": "string"
                }
            }
        },
        "bookings.ChoosePaymentRequest": {
            "type": "object",
            "required": [
                "payment_method"
            ],
            "properties": {
                "payment_method": {
                    "type": "string"
                }
            }
        },
        "tickets.VerifyTicketRequest": {
            "type": "object",
            "required": [
                "qr_code"
            ],
            "properties": {
                "qr_code": {
                    "type": "string"
                }
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Showtime API",
	Description:      "Seat selection, checkout and ticketing for the event catalog.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
