package httpx

// Page identifiers map one-to-one onto templates under pages/.
const (
	PageHome     = "home"
	PageLogin    = "login"
	PageRegister = "register"
	PageSecrets  = "secrets"
	PageSubmit   = "submit"
)

// Template paths used for loading templates in tests and production.
const (
	TemplatePathFromRoot = "web/templates"
	TemplatePathFromTest = "../../web/templates" // From internal/http test files
)

// Cookie names.
const (
	SessionCookieName    = "session_id"
	OAuthStateCookieName = "oauth_state"
	OAuthNonceCookieName = "oauth_nonce"

	oauthCookieMaxAge = 600 // 10 minutes
)

// Browser paths.
const (
	pathRoot     = "/"
	pathHome     = "/home"
	pathLogin    = "/login"
	pathRegister = "/register"
	pathSecrets  = "/secrets"
	pathSubmit   = "/submit"

	pathGoogleBegin    = "/auth/google"
	pathGoogleCallback = "/auth/google/secrets"
)

// Plain-text responses shown to browsers.
const (
	msgInternalError = "500: Internal Server Error"
	msgEmailTaken    = "Email already registered. Try logging in."
)
