package utils

import "strings"

// cookieAttributes are Set-Cookie attribute names, never cookie names.
var cookieAttributes = map[string]bool{
	"path":     true,
	"domain":   true,
	"expires":  true,
	"max-age":  true,
	"secure":   true,
	"httponly": true,
	"samesite": true,
	"priority": true,
}

// NormalizeCookie converts pasted cookie text, including a full Set-Cookie
// line with attributes, into a Cookie header value of name=value pairs.
// It returns "" when no pair survives.
func NormalizeCookie(raw string) string {
	raw = strings.TrimSpace(raw)
	for _, prefix := range []string{"set-cookie:", "cookie:"} {
		if len(raw) >= len(prefix) && strings.EqualFold(raw[:len(prefix)], prefix) {
			raw = raw[len(prefix):]
			break
		}
	}

	var kept []string
	for _, part := range strings.Split(raw, ";") {
		name, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" || cookieAttributes[strings.ToLower(name)] {
			continue
		}
		kept = append(kept, name+"="+strings.TrimSpace(value))
	}
	return strings.Join(kept, "; ")
}
