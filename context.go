package goSession

import "context"

type credentialsContextKey struct{}
type requestIDContextKey struct{}

// WithCredentials sets the credentials flag of requests sent with ctx. It overrides
// Config.AutoAddCredentials for those requests.
func WithCredentials(ctx context.Context, include bool) context.Context {
	return context.WithValue(ctx, credentialsContextKey{}, include)
}

// CredentialsFromContext returns the flag set by [WithCredentials] and whether one was
// set.
func CredentialsFromContext(ctx context.Context) (bool, bool) {
	if ctx == nil {
		return false, false
	}
	v, ok := ctx.Value(credentialsContextKey{}).(bool)
	return v, ok
}

// WithRequestID attaches a request identifier that is logged and attached to events.
// Requests without one get a generated identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDContextKey{}, id)
}

// RequestIDFromContext returns the identifier set by [WithRequestID].
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDContextKey{}).(string)
	return id
}

func credentialsFlag(ctx context.Context) *bool {
	v, ok := CredentialsFromContext(ctx)
	if !ok {
		return nil
	}
	return &v
}
