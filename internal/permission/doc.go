// Package permission evaluates and caches the permission set of an identity at a location.
//
// # Evaluation
//
// A permission is identified by the name "{action}_{resource}". Has, HasAny and HasAll look
// names up in a Set fetched from the remote platform. A missing set or a missing record
// always evaluates to false, so callers can tell "still loading" (no set yet, see
// Cache.State) from "denied" (set present, record false or absent).
//
// # Caching
//
// Cache keeps one Set per (identity, location) pair. Entries go stale after a fixed window
// and are refetched on the next access. Concurrent lookups of the same key share a single
// in-flight request. The cache never invalidates itself: callers invalidate on logout and
// after granting or revoking permissions.
package permission
