// Package auth provides the sign-in gate of the web application.
//
// The console runs one operator session owned by the workspace. The gate waits until the
// workspace finished its initial credential check, so a stored credential is never mistaken for
// a signed out state, then decides:
//   - Redirects to the login page while no identity is signed in
//   - Redirects signed in operators away from the login page
//   - Adds the identity and location state to fiber.Locals for template access
//   - Allows public access to static files, health and metrics endpoints
//
// Usage:
//
//	app.Use(authmiddleware.New(ws))
package auth
