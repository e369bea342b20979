package docs

import "github.com/swaggo/swag"

const docTemplate = `{
  "swagger": "2.0",
  "info": {
    "title": "Moodcast Backend",
    "description": "Anonymous daily mood votes aggregated by region",
    "version": "1.0"
  },
  "basePath": "/",
  "paths": {
    "/healthz": {
      "get": {"tags": ["health"], "summary": "Health check", "responses": {"200": {"description": "OK"}, "503": {"description": "Database unavailable"}}}
    },
    "/api/votes": {
      "post": {
        "tags": ["votes"],
        "summary": "Submit today's mood",
        "consumes": ["application/json"],
        "produces": ["application/json"],
        "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/VoteRequest"}}],
        "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/VoteResponse"}}, "400": {"description": "Invalid vote"}, "500": {"description": "Vote not stored"}}
      }
    },
    "/api/votes/today": {
      "get": {
        "tags": ["votes"],
        "summary": "Today's vote",
        "parameters": [
          {"in": "query", "name": "voter_id", "type": "string", "required": true},
          {"in": "query", "name": "timezone", "type": "string"},
          {"in": "query", "name": "locale", "type": "string"}
        ],
        "responses": {"200": {"description": "OK"}, "404": {"description": "No vote today"}}
      }
    },
    "/api/location": {
      "get": {
        "tags": ["location"],
        "summary": "Fast location from IP database and edge headers",
        "parameters": [{"in": "query", "name": "locale", "type": "string"}],
        "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/LocationResponse"}}}
      }
    },
    "/api/location/refine": {
      "post": {
        "tags": ["location"],
        "summary": "Localized location through the geocoder",
        "parameters": [{"in": "body", "name": "body", "schema": {"type": "object", "properties": {"locale": {"type": "string"}}}}],
        "responses": {"200": {"description": "OK"}}
      }
    },
    "/api/location/gps": {
      "post": {
        "tags": ["location"],
        "summary": "Location from coordinates",
        "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"type": "object", "required": ["lat", "lng"], "properties": {"lat": {"type": "number"}, "lng": {"type": "number"}, "locale": {"type": "string"}}}}],
        "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/LocationResponse"}}, "400": {"description": "Invalid coordinates"}}
      }
    },
    "/api/stats": {
      "get": {
        "tags": ["stats"],
        "summary": "Today's stats for a standardized region context",
        "parameters": [
          {"in": "query", "name": "region0", "type": "string"},
          {"in": "query", "name": "region1", "type": "string"},
          {"in": "query", "name": "region2", "type": "string"},
          {"in": "query", "name": "timezone", "type": "string"}
        ],
        "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/DashboardStats"}}}
      }
    },
    "/ws": {
      "get": {
        "tags": ["live"],
        "summary": "Websocket subscription to mood-updates:<channel>",
        "parameters": [{"in": "query", "name": "channel", "type": "string", "required": true}],
        "responses": {"101": {"description": "Switching Protocols"}, "400": {"description": "Missing channel"}}
      }
    },
    "/api/debug/location": {
      "get": {
        "tags": ["debug"],
        "summary": "Headers-only vs enriched location",
        "parameters": [{"in": "header", "name": "X-Admin-Key", "type": "string", "required": true}],
        "responses": {"200": {"description": "OK"}, "401": {"description": "Invalid admin key"}}
      }
    }
  },
  "definitions": {
    "Regions": {
      "type": "object",
      "properties": {"region0": {"type": "string"}, "region1": {"type": "string"}, "region2": {"type": "string"}}
    },
    "Location": {
      "type": "object",
      "properties": {
        "region0": {"type": "string"}, "region1": {"type": "string"}, "region2": {"type": "string"},
        "timezone": {"type": "string"}, "std": {"$ref": "#/definitions/Regions"}
      }
    },
    "GenderStats": {
      "type": "object",
      "properties": {"score": {"type": "integer"}, "total": {"type": "integer"}}
    },
    "DashboardStats": {
      "type": "object",
      "properties": {
        "score": {"type": "integer"}, "total": {"type": "integer"},
        "region": {"type": "string"}, "region_std": {"type": "string"}, "level": {"type": "string"},
        "male": {"$ref": "#/definitions/GenderStats"}, "female": {"$ref": "#/definitions/GenderStats"}
      }
    },
    "VoteRequest": {
      "type": "object",
      "required": ["voter_id", "gender", "mood"],
      "properties": {
        "voter_id": {"type": "string"},
        "gender": {"type": "string", "enum": ["male", "female"]},
        "mood": {"type": "string", "enum": ["good", "bad"]},
        "locale": {"type": "string"},
        "lat": {"type": "number"}, "lng": {"type": "number"}
      }
    },
    "VoteResponse": {
      "type": "object",
      "properties": {
        "vote_id": {"type": "string"}, "created_at": {"type": "string", "format": "date-time"},
        "region": {"$ref": "#/definitions/Location"}, "display_name": {"type": "string"}, "scope": {"type": "string"},
        "stats": {"$ref": "#/definitions/DashboardStats"}, "analysis": {"type": "string"}
      }
    },
    "LocationResponse": {
      "type": "object",
      "properties": {"location": {"$ref": "#/definitions/Location"}, "display_name": {"type": "string"}, "scope": {"type": "string"}}
    }
  }
}`

func init() {
	swag.Register(swag.Name, &s{})
}

type s struct{}

func (s *s) ReadDoc() string {
	return docTemplate
}
