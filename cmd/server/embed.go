//go:build embed
// +build embed

package main

import (
	"embed"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

//go:embed web/dist
var webDist embed.FS

// setupStaticFiles serves the embedded storefront build on every non-API
// route, falling back to index.html for client-side routes.
func setupStaticFiles(router *gin.Engine, log *zap.Logger) {
	log.Info("using embedded frontend assets")

	distFS, err := fs.Sub(webDist, "web/dist")
	if err != nil {
		log.Fatal("failed to open embedded dist directory", zap.Error(err))
	}

	router.NoRoute(func(c *gin.Context) {
		urlPath := c.Request.URL.Path
		if strings.HasPrefix(urlPath, "/api") {
			c.JSON(http.StatusNotFound, gin.H{"error": "API endpoint not found"})
			return
		}

		cleanPath := strings.TrimPrefix(path.Clean(urlPath), "/")
		if cleanPath == "" {
			cleanPath = "index.html"
		}

		if content, ok := readFile(distFS, cleanPath); ok {
			contentType := mime.TypeByExtension(path.Ext(cleanPath))
			if contentType == "" {
				contentType = "application/octet-stream"
			}
			c.Data(http.StatusOK, contentType, content)
			return
		}

		index, ok := readFile(distFS, "index.html")
		if !ok {
			c.String(http.StatusNotFound, "404 page not found")
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", index)
	})
}

func readFile(fsys fs.FS, name string) ([]byte, bool) {
	file, err := fsys.Open(name)
	if err != nil {
		return nil, false
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil || stat.IsDir() {
		return nil, false
	}

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, false
	}
	return content, true
}
