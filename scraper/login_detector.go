package scraper

// LoginCause distinguishes why a result was tagged as requiring login.
// Externally both surface as the requires_login status; the cause is kept
// for logging and debugging selector misses.
type LoginCause string

const (
	CauseNone         LoginCause = ""
	CauseAuthGated    LoginCause = "auth_gated"
	CausePriceMissing LoginCause = "price_missing"
)

// DetectLoginState decides whether a scrape outcome should be reported as
// requiring authentication. A source that declares requires_login with no
// session marker on the page and no cookie configured is auth-gated; an
// unparseable price is treated the same way, since an unauthenticated fetch
// of a gated site typically yields no price.
func DetectLoginState(hasSessionMarker, requiresLogin, cookiePresent, priceMissing bool) LoginCause {
	if requiresLogin && !hasSessionMarker && !cookiePresent {
		return CauseAuthGated
	}
	if priceMissing {
		return CausePriceMissing
	}
	return CauseNone
}

// NeedsLogin reports whether the outcome requires authentication
func NeedsLogin(hasSessionMarker, requiresLogin, cookiePresent, priceMissing bool) bool {
	return DetectLoginState(hasSessionMarker, requiresLogin, cookiePresent, priceMissing) != CauseNone
}
