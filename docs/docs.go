// Package docs registers the OpenAPI document served under /swagger.
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
        "/api/auth/signin": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Аутентификация"],
                "summary": "Аутентификация пользователя",
                "parameters": [
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/dto.SigninRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.JwtResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.Message"}}
                }
            }
        },
        "/api/auth/signup": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Аутентификация"],
                "summary": "Регистрация пользователя",
                "parameters": [
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/dto.SignupRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Message"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.Message"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/response.Message"}}
                }
            }
        },
        "/api/users": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Пользователи"],
                "summary": "Список пользователей",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/dto.UserResponse"}}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/response.Message"}}
                }
            }
        },
        "/api/users/search": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Пользователи"],
                "summary": "Поиск профилей",
                "parameters": [{"type": "string", "name": "q", "in": "query", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/dto.ProfileResponse"}}}
                }
            }
        },
        "/api/users/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Пользователи"],
                "summary": "Профиль текущего пользователя",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.ProfileResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.Message"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Пользователи"],
                "summary": "Создание или обновление профиля текущего пользователя",
                "parameters": [
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/dto.ProfileRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.ProfileResponse"}}
                }
            }
        },
        "/api/users/me/photo": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "tags": ["Фотографии"],
                "summary": "Загрузка фотографии текущего пользователя",
                "parameters": [{"type": "file", "name": "file", "in": "formData", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Message"}},
                    "417": {"description": "Expectation Failed", "schema": {"$ref": "#/definitions/response.Message"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["Фотографии"],
                "summary": "Удаление фотографии текущего пользователя",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Message"}}
                }
            }
        },
        "/api/users/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Пользователи"],
                "summary": "Профиль по ID",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.ProfileResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.Message"}}
                }
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Пользователи"],
                "summary": "Обновление профиля",
                "parameters": [
                    {"type": "integer", "name": "id", "in": "path", "required": true},
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/dto.ProfileRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.ProfileResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Пользователи"],
                "summary": "Удаление пользователя",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Message"}}
                }
            }
        },
        "/api/users/{id}/photo": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/octet-stream"],
                "tags": ["Фотографии"],
                "summary": "Фотография профиля",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "file"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.Message"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "tags": ["Фотографии"],
                "summary": "Загрузка фотографии профиля",
                "parameters": [
                    {"type": "integer", "name": "id", "in": "path", "required": true},
                    {"type": "file", "name": "file", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Message"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["Фотографии"],
                "summary": "Удаление фотографии профиля",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Message"}}
                }
            }
        }
    },
    "definitions": {
        "dto.SigninRequest": {
            "type": "object",
            "required": ["username", "password"],
            "properties": {
                "username": {"type": "string", "example": "testuser"},
                "password": {"type": "string", "example": "password"}
            }
        },
        "dto.SignupRequest": {
            "type": "object",
            "required": ["username", "email", "password", "firstName", "lastName"],
            "properties": {
                "username": {"type": "string", "minLength": 3, "maxLength": 20},
                "email": {"type": "string", "maxLength": 50},
                "password": {"type": "string", "minLength": 6, "maxLength": 40},
                "firstName": {"type": "string", "maxLength": 50},
                "lastName": {"type": "string", "maxLength": 50},
                "role": {"type": "array", "items": {"type": "string"}}
            }
        },
        "dto.JwtResponse": {
            "type": "object",
            "properties": {
                "token": {"type": "string"},
                "type": {"type": "string", "example": "Bearer"},
                "id": {"type": "integer"},
                "username": {"type": "string"},
                "email": {"type": "string"},
                "roles": {"type": "array", "items": {"type": "string"}}
            }
        },
        "dto.ProfileRequest": {
            "type": "object",
            "required": ["lastName", "firstName"],
            "properties": {
                "lastName": {"type": "string", "maxLength": 50},
                "firstName": {"type": "string", "maxLength": 50},
                "middleName": {"type": "string", "maxLength": 50},
                "birthDate": {"type": "string", "example": "1995-05-15"},
                "phoneNumber": {"type": "string", "maxLength": 20}
            }
        },
        "dto.ProfileResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "lastName": {"type": "string"},
                "firstName": {"type": "string"},
                "middleName": {"type": "string"},
                "birthDate": {"type": "string"},
                "email": {"type": "string"},
                "phoneNumber": {"type": "string"},
                "hasPhoto": {"type": "boolean"},
                "photoUrl": {"type": "string"}
            }
        },
        "dto.UserResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "username": {"type": "string"},
                "email": {"type": "string"},
                "userDetails": {"$ref": "#/definitions/dto.ProfileResponse"}
            }
        },
        "response.Message": {
            "type": "object",
            "properties": {
                "message": {"type": "string"}
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
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Telros User Service API",
	Description:      "Аутентификация, профили пользователей и фотографии профилей.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
