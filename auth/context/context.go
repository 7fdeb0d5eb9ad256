// Package authcontext carries the authenticated subject through request
// contexts.
package authcontext

import "context"

// Anonymous is the guest subject id.
const Anonymous = "system:anonymous"

type contextKeySubject struct{}

func GetSubject(ctx context.Context) string {
	userID, ok := ctx.Value(contextKeySubject{}).(string)
	if !ok {
		return Anonymous
	}

	return userID
}

func WithSubject(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, contextKeySubject{}, userID)
}

type contextKeySessionID struct{}

func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, contextKeySessionID{}, sessionID)
}

func SessionIDFromContext(ctx context.Context) (string, bool) {
	sessionID, ok := ctx.Value(contextKeySessionID{}).(string)
	if !ok {
		return "", false
	}

	return sessionID, true
}

type contextKeyStaff struct{}

// WithStaff marks the request subject as a staff member.
func WithStaff(ctx context.Context) context.Context {
	return context.WithValue(ctx, contextKeyStaff{}, true)
}

// IsStaff reports whether the request subject is a staff member.
func IsStaff(ctx context.Context) bool {
	staff, ok := ctx.Value(contextKeyStaff{}).(bool)

	return ok && staff
}
