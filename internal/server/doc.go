// Package server exposes the marketplace over HTTP with a chi router.
//
// Mutating endpoints require the caller's principal in the X-Caller
// header, which takes the place of a transaction sender.
// Precondition failures map to their stable numeric codes in the
// response body:
//
//	{"code": 100, "error": "caller lacks required ownership or seller authority"}
package server
