package server

import (
	"net/http"
	"strings"

	auditdomain "github.com/dentaops/denta/internal/audit/domain"
	"github.com/dentaops/denta/pkg/db/pagination"
	"github.com/gin-gonic/gin"
)

func (s *Server) ListAuditLogs(c *gin.Context) {
	var query struct {
		PageToken    string `form:"page_token"`
		PageSize     int    `form:"page_size"`
		Action       string `form:"action"`
		ResourceType string `form:"resource_type"`
		ResourceID   string `form:"resource_id"`
		ActorType    string `form:"actor_type"`
		Start        string `form:"start"`
		End          string `form:"end"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	start, ok := optionalTime(query.Start)
	if !ok {
		AbortWithError(c, newValidationError("start", "invalid_time", "invalid start time"))
		return
	}
	end, ok := optionalTime(query.End)
	if !ok {
		AbortWithError(c, newValidationError("end", "invalid_time", "invalid end time"))
		return
	}

	resp, err := s.auditSvc.List(c.Request.Context(), auditdomain.ListAuditLogRequest{
		Pagination: pagination.Pagination{
			PageToken: strings.TrimSpace(query.PageToken),
			PageSize:  query.PageSize,
		},
		Action:       strings.TrimSpace(query.Action),
		ResourceType: strings.TrimSpace(query.ResourceType),
		ResourceID:   strings.TrimSpace(query.ResourceID),
		ActorType:    strings.TrimSpace(query.ActorType),
		StartAt:      start,
		EndAt:        end,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp.AuditLogs, "page_info": resp.PageInfo})
}
