package hotelapi

import (
	"context"
	"strings"
)

type bearerKey struct{}

// WithBearer attaches the caller's access token to ctx. Outbound requests made
// with the returned context carry it as "Authorization: Bearer <token>".
func WithBearer(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, bearerKey{}, token)
}

// bearerFrom returns the usable token on ctx. Placeholder values left behind
// by browser storage ("null", "undefined") are ignored.
func bearerFrom(ctx context.Context) string {
	tok, _ := ctx.Value(bearerKey{}).(string)
	tok = strings.TrimSpace(tok)
	switch tok {
	case "", "null", "undefined":
		return ""
	}
	return tok
}
