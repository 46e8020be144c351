package constants

const (
	// ContextKeyUser is the gin context key holding the authenticated user.
	ContextKeyUser = "current_user"

	// AuthCookieName is the cookie carrying the bearer token. The cookie takes
	// precedence over the Authorization header when both are present.
	AuthCookieName = "token"

	// UploadFormField is the multipart field name for task documents.
	UploadFormField = "taskFile"

	// MaxTaskDocuments caps the documents stored per task.
	MaxTaskDocuments = 3

	// MaxUploadSize is the per-file upload limit in bytes (5 MiB).
	MaxUploadSize = 5 * 1024 * 1024

	MinPage         = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)
