// Package auth provides the authorization middleware of the web console.
//
// Permission answers come from the workspace: the cached permission set of the signed in
// identity at the current location. Every check fails closed. A missing identity, a missing
// location, an unknown permission name or a failed lookup all deny.
//
// Fiber middleware functions are provided for route protection:
//   - RequirePermission: Protect routes requiring a specific permission
//   - RequireAnyPermission: Protect routes requiring any of several permissions
//   - RequireAllPermissions: Protect routes requiring all of several permissions
//   - AddPermissionsToLocals: Add the permission set to the template context
//
// Example usage:
//
//	app.Get("/locations",
//	    auth.RequirePermission(ws, permission.ResourceBusinesses, permission.ActionView),
//	    handler,
//	)
package auth
