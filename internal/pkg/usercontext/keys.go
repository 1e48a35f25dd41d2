package usercontext

// Shared Locals keys used across controllers and middlewares
const (
	KeyUserID   = "user_id"
	KeyUsername = "username"
	KeyIsAdmin  = "isAdmin"
)
