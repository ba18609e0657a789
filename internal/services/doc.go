// Package services holds the application logic between the HTTP
// transport and the data layers: snapshot queries and exports, classifier
// explainability, and health reporting. Services return sentinel errors
// that the transport maps to problem responses.
package services
