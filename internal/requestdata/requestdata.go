package requestdata

import (
	"context"

	"github.com/google/uuid"
)

type requestDataCtxKey struct{}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataCtxKey{}, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	val := ctx.Value(requestDataCtxKey{})
	if rd, ok := val.(*RequestData); ok {
		return rd
	}
	return nil
}

type RequestData struct {
	TokenString  string
	RefreshToken string
	UserID       uuid.UUID

	// Populated by the org-member middleware for routes under /orgs/:orgID.
	OrgID   uuid.UUID
	OrgRole string
}

const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

func (rd *RequestData) IsAdmin() bool {
	return rd != nil && rd.OrgRole == RoleAdmin
}
