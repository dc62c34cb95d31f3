package logger

import (
	"net/url"
	"strings"
)

// sensitiveParams are query keys whose presence redacts the whole query string in request logs.
// Profile fields are personal data and may appear in filter parameters.
var sensitiveParams = map[string]bool{
	"token":        true,
	"access_token": true,
	"jwt":          true,
	"email":        true,
	"phone":        true,
	"address":      true,
	"postalcode":   true,
	"postal_code":  true,
}

// SanitizedEmail masks an email address for logging (e.g., "a****@*******.com")
func SanitizedEmail(email string) string {
	username, domain, ok := strings.Cut(email, "@")
	if !ok || username == "" || domain == "" || strings.Contains(domain, "@") {
		return "[invalid-email]"
	}

	username = username[:1] + strings.Repeat("*", len(username)-1)

	labels := strings.Split(domain, ".")
	for i := 0; i < len(labels)-1; i++ {
		labels[i] = strings.Repeat("*", len(labels[i]))
	}

	return username + "@" + strings.Join(labels, ".")
}

// SanitizeQueryString reports whether rawQuery carries a sensitive parameter
// and should be dropped from request logs entirely.
func SanitizeQueryString(rawQuery string) bool {
	if rawQuery == "" {
		return false
	}

	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		// Unparseable queries are not logged.
		return true
	}
	for key := range values {
		if sensitiveParams[strings.ToLower(key)] {
			return true
		}
	}
	return false
}
