// Package app assembles the dashboard server: configuration, logging,
// telemetry, the dataset snapshot store, the service layer, and the HTTP
// router, plus lifecycle management (startup loads, graceful shutdown).
package app
