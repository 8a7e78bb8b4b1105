package app

import (
	"net/http"
	"path"

	"github.com/gin-gonic/gin"
)

// staticFileHandler serves the frontend assets, falling back to index.html
// for paths that do not match a file.
func staticFileHandler(dir string) gin.HandlerFunc {
	root := http.Dir(dir)
	server := http.FileServer(root)

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			c.JSON(http.StatusNotFound, gin.H{"error": "NOT_FOUND"})
			return
		}

		requested := path.Clean(c.Request.URL.Path)
		if f, err := root.Open(requested); err == nil {
			f.Close()
			server.ServeHTTP(c.Writer, c.Request)
			return
		}

		c.Request.URL.Path = "/"
		server.ServeHTTP(c.Writer, c.Request)
	}
}
