package ctxutil

import (
	"context"
	"strings"
)

type requestDataKey struct{}

// RequestData is the authenticated caller as supplied by the auth collaborator.
// A nil RequestData (or an empty UserID) means "not logged in".
type RequestData struct {
	TokenString       string
	UserID            string
	DisplayName       string
	Role              string
	EnrolledCourseIDs []string
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey{}, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	if ctx == nil {
		return nil
	}
	if rd, ok := ctx.Value(requestDataKey{}).(*RequestData); ok {
		return rd
	}
	return nil
}

// LoggedIn reports whether rd identifies a user.
func (rd *RequestData) LoggedIn() bool {
	return rd != nil && strings.TrimSpace(rd.UserID) != ""
}
