// Package identity carries the verified caller of a request.
//
// The bearer middleware builds an Identity once the token has been checked
// and the user has been looked up, and stores it in the request context.
// Handlers never read the token themselves.
//
//	ctx = identity.Set(ctx, id.WithRemoteIP(clientIP))
//
//	id, ok := identity.Get(ctx)
package identity
