package api

import (
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dharsanguruparan/RagDrop/internal/apperr"
	"github.com/dharsanguruparan/RagDrop/internal/ingest"
	"github.com/dharsanguruparan/RagDrop/internal/model"
)

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":        "RagDrop API",
		"description": "Retrieval-augmented chat over uploaded documents",
		"version":     s.opts.Version,
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (s *Server) handleUpload(c *gin.Context) {
	tmp, err := s.receiveUpload(c)
	if err != nil {
		s.writeError(c, err)
		return
	}
	defer os.Remove(tmp.path)
	defer tmp.f.Close()

	doc, err := s.ingest.Ingest(c.Request.Context(), ingest.Upload{
		Filename:    tmp.filename,
		ContentType: tmp.contentType,
		Body:        tmp.f,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toFileResponse(doc))
}

func (s *Server) handleList(c *gin.Context) {
	page, err := queryInt(c, "page", 1)
	if err != nil {
		s.writeError(c, err)
		return
	}
	size, err := queryInt(c, "page_size", model.DefaultPageSize)
	if err != nil {
		s.writeError(c, err)
		return
	}
	result, err := s.catalog.List(c.Request.Context(), page, size)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toFileListResponse(result))
}

func (s *Server) handleGet(c *gin.Context) {
	doc, err := s.catalog.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toFileResponse(doc))
}

func (s *Server) handleDelete(c *gin.Context) {
	if err := s.catalog.Delete(c.Request.Context(), c.Param("id")); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleDownload(c *gin.Context) {
	u, err := s.catalog.DownloadURL(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.Redirect(http.StatusTemporaryRedirect, u)
}

func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, apperr.Wrap(apperr.InvalidInput, "request body must be JSON with a message", err))
		return
	}
	answer, err := s.chat.Ask(c.Request.Context(), c.Param("id"), req.Message)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, chatResponse{Response: answer})
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.Newf(apperr.InvalidInput, "%s must be an integer", key)
	}
	return v, nil
}
