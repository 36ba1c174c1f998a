package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/agencyloop/agencyloop-backend/internal/logger"
	"github.com/agencyloop/agencyloop-backend/internal/repos"
	"github.com/agencyloop/agencyloop-backend/internal/requestdata"
)

type OrgMemberMiddleware struct {
	log            *logger.Logger
	membershipRepo repos.OrgMembershipRepo
}

func NewOrgMemberMiddleware(log *logger.Logger, membershipRepo repos.OrgMembershipRepo) *OrgMemberMiddleware {
	middlewareLog := log.With("middleware", "OrgMemberMiddleware")
	return &OrgMemberMiddleware{log: middlewareLog, membershipRepo: membershipRepo}
}

// RequireMember resolves the :orgID path parameter and the caller's
// role in that org. Non-members get a 404, not a 403, so org IDs do
// not leak existence.
func (om *OrgMemberMiddleware) RequireMember() gin.HandlerFunc {
	return func(c *gin.Context) {
		rd := requestdata.GetRequestData(c.Request.Context())
		if rd == nil || rd.UserID == uuid.Nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}
		orgID, err := uuid.Parse(c.Param("orgID"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid org id"})
			return
		}
		membership, err := om.membershipRepo.GetByOrgAndUser(c.Request.Context(), nil, orgID, rd.UserID)
		if err != nil {
			om.log.Warn("Failed to resolve org membership", "error", err, "org_id", orgID)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve membership"})
			return
		}
		if membership == nil {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "org not found"})
			return
		}
		rd.OrgID = orgID
		rd.OrgRole = membership.Role
		c.Next()
	}
}
