// Package handler contains the HTTP handlers of the crop advisory API.
//
// Every JSON response uses one envelope. Success bodies carry
// {"success": true, "data": ...} plus "pagination" on listings; failures
// carry {"success": false, "error": ..., "code": ...} with optional
// per-field "details". Health checks are the exception and answer with
// plain JSON.
//
// # Route Organization
//
//   - /api/v1/auth/* - registration, login and token refresh
//   - /api/v1/* - everything else, behind a bearer access token
//   - /health, /livez, /readyz, /version, /metrics - unauthenticated health endpoints
//
// All handlers are safe for concurrent use.
package handler
