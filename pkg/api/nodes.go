package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/last-emo-boy/net-monitor/pkg/engine"
	"github.com/last-emo-boy/net-monitor/pkg/model"
	"github.com/last-emo-boy/net-monitor/pkg/store"
)

func nodeIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid node id"})
		return 0, false
	}
	return id, true
}

func (s *Server) listNodes(c *gin.Context) {
	nodes, err := s.nodes.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, toNodeDTOs(nodes))
}

func (s *Server) getNode(c *gin.Context) {
	id, ok := nodeIDParam(c)
	if !ok {
		return
	}
	n, err := s.nodes.Get(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "node not found"})
		return
	}
	c.JSON(http.StatusOK, toNodeDTO(n))
}

// createNode persists the node, then, if the engine is running, adds
// it to the engine's live working set so it's scheduled without
// restarting the process.
func (s *Server) createNode(c *gin.Context) {
	var req model.NodeImport
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	maxAttempts, retry := req.ApplyDefaults()
	n := model.Node{
		Name:                req.Name,
		Detail:              req.Detail,
		Status:              model.StatusOffline,
		MonitoringIntervalS: req.MonitoringInterval,
		RetryIntervalS:      retry,
		MaxCheckAttempts:    maxAttempts,
		CredentialID:        req.CredentialID,
	}

	id, err := s.nodes.Add(&n)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	n.ID = id

	s.dispatch(engine.AddNode(n))
	c.JSON(http.StatusCreated, toNodeDTO(n))
}

// updateNode overwrites config fields. Runtime fields (status, consecutive
// failures, last check) are owned by the engine and are not accepted here.
func (s *Server) updateNode(c *gin.Context) {
	id, ok := nodeIDParam(c)
	if !ok {
		return
	}

	existing, err := s.nodes.Get(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "node not found"})
		return
	}

	var req model.NodeImport
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	maxAttempts, retry := req.ApplyDefaults()

	existing.Name = req.Name
	existing.Detail = req.Detail
	existing.MonitoringIntervalS = req.MonitoringInterval
	existing.RetryIntervalS = retry
	existing.MaxCheckAttempts = maxAttempts
	existing.CredentialID = req.CredentialID

	if err := s.nodes.Update(&existing); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	s.dispatch(engine.UpdateNode(existing))
	c.JSON(http.StatusOK, toNodeDTO(existing))
}

func (s *Server) deleteNode(c *gin.Context) {
	id, ok := nodeIDParam(c)
	if !ok {
		return
	}
	if err := s.nodes.Delete(id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	s.dispatch(engine.DeleteNode(id))
	c.Status(http.StatusNoContent)
}

type reorderEntry struct {
	ID    int64 `json:"id" binding:"required"`
	Order int   `json:"order"`
}

func (s *Server) reorderNodes(c *gin.Context) {
	var entries []reorderEntry
	if err := c.ShouldBindJSON(&entries); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := make([]store.DisplayOrderUpdate, 0, len(entries))
	for _, e := range entries {
		updates = append(updates, store.DisplayOrderUpdate{ID: e.ID, Order: e.Order})
	}

	if err := s.nodes.UpdateDisplayOrders(updates); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// dispatch sends cmd to the engine's command channel if one is wired,
// and drops it silently otherwise (e.g. in tests that exercise the API
// against the store alone).
func (s *Server) dispatch(cmd engine.ConfigUpdate) {
	if s.commands == nil {
		return
	}
	s.commands <- cmd
}
