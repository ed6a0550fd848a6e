package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

func (s *Server) listStatusChanges(c *gin.Context) {
	id, ok := nodeIDParam(c)
	if !ok {
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			limit = v
		}
	}

	changes, err := s.changes.List(id, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, toStatusChangeDTOs(changes))
}

// uptime answers an uptime_percentage(node, start, end) query, per
// query parameters start and end (RFC3339), defaulting to the last 24h.
func (s *Server) uptime(c *gin.Context) {
	id, ok := nodeIDParam(c)
	if !ok {
		return
	}

	end := time.Now().UTC()
	start := end.Add(-24 * time.Hour)
	if raw := c.Query("start"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start"})
			return
		}
		start = parsed
	}
	if raw := c.Query("end"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end"})
			return
		}
		end = parsed
	}

	n, err := s.nodes.Get(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "node not found"})
		return
	}

	pct, err := s.changes.UptimePercentage(id, start, end, n.Status)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	duration, err := s.changes.CurrentStatusDuration(id, s.samples)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"node_id":           id,
		"start":             start,
		"end":               end,
		"uptime_percentage": pct,
		"current_status_ms": duration,
	})
}
