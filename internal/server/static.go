package server

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

// mountStatic serves the compiled frontend, falling back to index.html for
// client-side routes. With no static directory configured the server runs in
// API-only mode.
func (s *Server) mountStatic() {
	if s.staticDir == "" {
		s.logger.Warn("no static directory configured, serving API only")
		return
	}

	index := filepath.Join(s.staticDir, "index.html")
	if _, err := os.Stat(index); err != nil {
		s.logger.Warn("frontend build not found, serving API only",
			"dir", s.staticDir, "error", err)
		return
	}

	s.engine.GET("/", func(c *gin.Context) {
		c.File(index)
	})

	for _, sub := range []string{"assets", "static"} {
		dir := filepath.Join(s.staticDir, sub)
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			s.engine.StaticFS("/"+sub, gin.Dir(dir, false))
		}
	}
	if _, err := os.Stat(filepath.Join(s.staticDir, "favicon.ico")); err == nil {
		s.engine.StaticFile("/favicon.ico", filepath.Join(s.staticDir, "favicon.ico"))
	}

	// Unknown non-API paths are client-side routes; unknown API paths are 404s.
	s.engine.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"error": "endpoint not found"})
			return
		}
		c.File(index)
	})
}
