// Package auth provides the session middleware of the admin UI.
//
// Requests without a valid login session are redirected to the login page,
// control operations under /ajax get a JSON failure envelope instead. Static
// files, health and metrics endpoints, logout and the relay API pass through.
// For authenticated requests the session ID and the current user are stored
// in fiber.Locals for handlers, templates and the access log.
//
// Usage:
//
//	app.Use(authmiddleware.Middleware)
package auth
