// Package server exposes audits over HTTP: POST /audit runs an audit for a
// root, GET /report serves the latest report of a root and GET /healthz
// reports liveness. Audit and report routes require the X-API-Key header and
// share a token-bucket throttle.
package server
