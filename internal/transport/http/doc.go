// Package http contains the HTTP handlers for the dashboard API. Handlers
// parse and validate request parameters, delegate to the service layer,
// and render JSON responses; failures come back as RFC 7807 problem
// documents.
package http
