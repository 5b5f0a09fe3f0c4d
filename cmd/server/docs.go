// Package main AI Dashboard API
//
//	@title						AI Dashboard API
//	@version					1.0
//	@description				Chat, code, image and background-removal tools behind a per-user free-usage quota.
//
//	@host						localhost:8080
//	@BasePath					/api
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"
//
//	@tag.name					Auth
//	@tag.description			Registration and sessions
//
//	@tag.name					Quota
//	@tag.description			Free-usage summary
//
//	@tag.name					AI
//	@tag.description			Quota-gated AI tools
package main
