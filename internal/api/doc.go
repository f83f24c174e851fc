// Package api handles incoming HTTP requests, request validation, and
// response formatting. It adapts HTTP to the identity subsystem and the
// application stores; authentication itself lives in api/middleware.
//
// @title                       keystone-api
// @version                     1.0
// @description                 Minimal web API host with cookie and bearer authentication.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package api

//go:generate swag init --dir ../.. --generalInfo internal/api/doc.go --output docs --outputTypes go
