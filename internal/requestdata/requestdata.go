package requestdata

import (
	"context"

	"github.com/google/uuid"
)

var requestDataKey = struct{}{}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	if rd, ok := ctx.Value(requestDataKey).(*RequestData); ok {
		return rd
	}
	return nil
}

// RequestData identifies the caller for the lifetime of one request.
// Registered learners carry a UserID from the verified token; guests carry
// the opaque device key they sent instead. At most one of the two is set.
type RequestData struct {
	TokenString string
	UserID      uuid.UUID
	GuestKey    string
}

func (rd *RequestData) IsRegistered() bool {
	return rd != nil && rd.UserID != uuid.Nil
}

func (rd *RequestData) IsGuest() bool {
	return rd != nil && rd.UserID == uuid.Nil && rd.GuestKey != ""
}

// OwnerKey collapses the caller identity into the single string used for
// attempt ownership and the one-attempt-in-flight uniqueness column.
func (rd *RequestData) OwnerKey() string {
	switch {
	case rd.IsRegistered():
		return "user:" + rd.UserID.String()
	case rd.IsGuest():
		return "guest:" + rd.GuestKey
	default:
		return ""
	}
}
