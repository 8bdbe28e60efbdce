// Package snsctx carries per-call flags for bus implementations.
package snsctx

import "context"

type verboseKey struct{}

// IsVerbose reports whether raw bus frames should be logged for this call.
func IsVerbose(ctx context.Context) bool {
	val, ok := ctx.Value(verboseKey{}).(bool)
	return ok && val
}

func SetVerbose(ctx context.Context, value bool) context.Context {
	return context.WithValue(ctx, verboseKey{}, value)
}
