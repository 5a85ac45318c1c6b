package upstream

import (
	"context"
	"net/http"
	"strings"
)

// Credentials are what the upstream handed out at login. They are replayed
// on every call made for that user.
type Credentials struct {
	Token   string
	Cookies []*http.Cookie
}

// Empty reports whether c carries nothing to replay.
func (c Credentials) Empty() bool { return c.Token == "" && len(c.Cookies) == 0 }

type credentialsKey struct{}

// WithCredentials returns a context whose upstream calls use c.
func WithCredentials(ctx context.Context, c Credentials) context.Context {
	return context.WithValue(ctx, credentialsKey{}, c)
}

// CredentialsFrom returns the credentials stored in ctx, if any.
func CredentialsFrom(ctx context.Context) Credentials {
	c, _ := ctx.Value(credentialsKey{}).(Credentials)
	return c
}

// EncodeCookies serialises cookies as name=value lines for storage.
func EncodeCookies(cookies []*http.Cookie) string {
	lines := make([]string, 0, len(cookies))
	for _, c := range cookies {
		if c.Name == "" {
			continue
		}
		lines = append(lines, c.Name+"="+c.Value)
	}
	return strings.Join(lines, "\n")
}

// DecodeCookies is the inverse of EncodeCookies. Malformed lines are skipped.
func DecodeCookies(s string) []*http.Cookie {
	var out []*http.Cookie
	for _, line := range strings.Split(s, "\n") {
		name, value, ok := strings.Cut(strings.TrimSpace(line), "=")
		if !ok || name == "" {
			continue
		}
		out = append(out, &http.Cookie{Name: name, Value: value})
	}
	return out
}
