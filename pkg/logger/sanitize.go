package logger

import (
	"strings"
)

// SanitizedHandle masks a login handle or email for logging, keeping the
// first character of each segment (e.g. "j*********" or "c*****@f******.org").
func SanitizedHandle(handle string) string {
	at := strings.Index(handle, "@")
	if at < 0 {
		return maskWord(handle)
	}

	username := maskWord(handle[:at])
	domainParts := strings.Split(handle[at+1:], ".")
	for i := 0; i < len(domainParts)-1; i++ {
		domainParts[i] = maskWord(domainParts[i])
	}
	return username + "@" + strings.Join(domainParts, ".")
}

func maskWord(s string) string {
	if len(s) <= 1 {
		return s
	}
	return string(s[0]) + strings.Repeat("*", len(s)-1)
}

// SanitizeQueryString reports whether a query string contains sensitive
// parameters and should be redacted entirely from request logs.
func SanitizeQueryString(rawQuery string) bool {
	sensitiveParams := []string{
		"password", "senha", "token", "secret", "auth", "cpf",
	}

	query := strings.ToLower(rawQuery)
	for _, param := range sensitiveParams {
		if strings.Contains(query, param) {
			return true
		}
	}
	return false
}
