package server

import (
	"net/http"

	reportingdomain "github.com/dentaops/denta/internal/reporting/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) RevenueReport(c *gin.Context) {
	start, end, ok := requiredRange(c)
	if !ok {
		AbortWithError(c, newValidationError("range", "invalid_range", "start and end must be RFC3339 timestamps"))
		return
	}

	report, err := s.reportingSvc.RevenueReport(c.Request.Context(), reportingdomain.DateRange{Start: start, End: end})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"report": report})
}

func (s *Server) ARAgingReport(c *gin.Context) {
	report, err := s.reportingSvc.ARAgingReport(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"report": report})
}

func (s *Server) ProductionReport(c *gin.Context) {
	start, end, ok := requiredRange(c)
	if !ok {
		AbortWithError(c, newValidationError("range", "invalid_range", "start and end must be RFC3339 timestamps"))
		return
	}

	report, err := s.reportingSvc.ProductionByDoctorReport(c.Request.Context(), reportingdomain.DateRange{Start: start, End: end})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"report": report})
}

func (s *Server) ExpenseReport(c *gin.Context) {
	start, end, ok := requiredRange(c)
	if !ok {
		AbortWithError(c, newValidationError("range", "invalid_range", "start and end must be RFC3339 timestamps"))
		return
	}

	report, err := s.reportingSvc.ExpenseReport(c.Request.Context(), reportingdomain.DateRange{Start: start, End: end})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"report": report})
}
