package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/last-emo-boy/net-monitor/pkg/credential"
)

func (s *Server) listCredentials(c *gin.Context) {
	c.JSON(http.StatusOK, toCredentialSummaryDTOs(s.credentials.List()))
}

func (s *Server) createCredential(c *gin.Context) {
	var req credentialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := s.credentials.Add(req.Name, req.Description, req.Secret.toSecret())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (s *Server) updateCredential(c *gin.Context) {
	id := c.Param("id")

	var req credentialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.credentials.Update(id, req.Name, req.Description, req.Secret.toSecret()); err != nil {
		if errors.Is(err, credential.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "credential not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) deleteCredential(c *gin.Context) {
	id := c.Param("id")
	if err := s.credentials.Delete(id); err != nil {
		if errors.Is(err, credential.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "credential not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}
