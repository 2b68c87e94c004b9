// Package server exposes the HTTP API: agent CRUD, chat, ticket management,
// analytics, and the legacy support-request surface. Handlers are thin
// request/response marshalling over the registry, chat, and analytics
// services; ticket and support-request CRUD go straight to the store.
package server
