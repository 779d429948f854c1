// Package api exposes the fact memory and deck design services over a
// JSON HTTP API.
//
// Routing uses the standard library ServeMux with method patterns. All
// handlers write through WriteJSON/WriteError so encoding failures and
// domain errors map to consistent status codes. The middleware stack
// (outermost first) is recovery, request ID, logging, and a per-IP rate
// limiter; /healthz and /readyz bypass the stack for probe traffic.
package api
