// Package ctxkeys names the fiber Locals keys shared by middlewares and handlers.
package ctxkeys

const (
	UserIDKey    = "userID"
	UserEmailKey = "userEmail"
	ParentCtxKey = "parentCtx"
)
