// Package errors provides the application error type shared by services and handlers.
//
// Services return *AppError values (or wrap them with fmt.Errorf and %w); handlers
// translate them into the response envelope
//
//	{"success": false, "error": "<message>", "code": "<CODE>", "details": {...}}
//
// with the status code carried by the error. Anything that is not an AppError is
// reported as a 500.
//
// # Usage
//
//	return apperrors.NotFound("farm")
//	return apperrors.Validation("cultivated area exceeds total area").
//		WithDetail("cultivated_area", "must not exceed total_area")
//
//	if apperrors.IsNotFound(err) {
//	    // Handle not found
//	}
package errors
