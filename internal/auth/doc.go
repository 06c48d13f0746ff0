// Package auth provides authentication for faqmy-server.
//
// # Authentication Methods
//
//   - JWT Tokens: Dashboard users authenticate with JWT bearer tokens.
//     Tokens are signed with HS256 using the configured jwt_secret and
//     carry the user ID in the "sub" claim.
//
//   - Passwords: User passwords are hashed with bcrypt. Conversation
//     access passwords are opaque tokens checked by the storage layer
//     and never pass through this package.
//
// # HTTP Middleware
//
// Dashboard endpoints are protected with HTTPAuthMiddleware, which
// extracts the bearer token, validates it, loads the user, and rejects
// inactive accounts. Handlers retrieve the identity with FromContext:
//
//	authCtx := auth.FromContext(r.Context())
//	if authCtx == nil { ... }
//
// Widget endpoints are unauthenticated and never pass through the
// middleware; their access control lives in the storage layer
// (ownership predicates and conversation passwords).
//
// # Token Management
//
//	verifier := auth.NewJWTVerifier(secret)
//	token, err := verifier.Generate(userID, 24*time.Hour)
//	userID, err := verifier.Verify(token)
package auth
