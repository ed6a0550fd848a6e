package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/last-emo-boy/net-monitor/pkg/engine"
	"github.com/last-emo-boy/net-monitor/pkg/importexport"
)

func (s *Server) exportNodes(c *gin.Context) {
	nodes, err := s.nodes.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	data, err := importexport.Export(nodes)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "application/json", data)
}

func (s *Server) importNodes(c *gin.Context) {
	data, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ids, err := importexport.Import(s.nodes, data)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	for _, id := range ids {
		if n, err := s.nodes.Get(id); err == nil {
			s.dispatch(engine.AddNode(n))
		}
	}
	c.JSON(http.StatusCreated, gin.H{"ids": ids})
}
