package auth

import "context"

type ctxKey string

const (
	ctxKeySub    ctxKey = "sub"
	ctxKeyClaims ctxKey = "claims"
	ctxKeyToken  ctxKey = "token"
)

func WithSubject(ctx context.Context, sub string) context.Context {
	return context.WithValue(ctx, ctxKeySub, sub)
}

func SubjectFromContext(ctx context.Context) string {
	if v := ctx.Value(ctxKeySub); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, ctxKeyClaims, c)
}

// ClaimsFromContext returns nil for anonymous requests.
func ClaimsFromContext(ctx context.Context) *Claims {
	c, _ := ctx.Value(ctxKeyClaims).(*Claims)
	return c
}

// WithToken keeps the caller's raw bearer token so backend calls can be made
// on their behalf.
func WithToken(ctx context.Context, tok string) context.Context {
	return context.WithValue(ctx, ctxKeyToken, tok)
}

func TokenFromContext(ctx context.Context) string {
	s, _ := ctx.Value(ctxKeyToken).(string)
	return s
}
