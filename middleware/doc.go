// Package middleware contains net/http middleware for the
// authentication gate. [Gate] is the authorization boundary: it blocks
// protected handlers until an active session is confirmed and redirects
// everyone else to the sign-in page.
package middleware
