// Package api is the REST client of the remote business platform. Requests carry the stored
// credential as a bearer token through an oauth2 transport. Every request is tagged with an
// X-Request-ID header.
//
// Status codes map to errors: 401 is domain.ErrUnauthorized, 404 is domain.ErrNotFound and any
// other non-2xx response is a *StatusError.
package api
