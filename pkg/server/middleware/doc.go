// Package middleware holds the HTTP middleware of the GhostSwitch API:
// bearer token authentication, request ids and panic recovery.
//
// # Bearer Authentication
//
//	auth := middleware.NewBearerAuthenticator(authnService)
//	router.Handle("/api/vpn/generate-config", auth.Middleware(handler))
//
// A missing header, a header that is not "Bearer <token>", an expired
// token, an invalid token and a token whose user was deleted each get a
// distinct 401 message. The verified identity is available to handlers
// through identity.Get.
package middleware
