package handler

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/blogengine/internal/db"
	"github.com/blogengine/internal/service"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// ShowFlatPage serves the flat page registered at the request path, or a 404.
// It backs NoRoute so any unmatched URL can resolve to a flat page.
func (a *API) ShowFlatPage(c *gin.Context) {
	a.serveNotFound(c)
}

func (a *API) serveNotFound(c *gin.Context) {
	path := c.Request.URL.Path
	if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead {
		if a.serveFlatPage(c, path) {
			return
		}
	}

	a.renderHTML(c, http.StatusNotFound, "404.html", gin.H{
		"title": "Page not found",
		"path":  path,
	})
}

// serveFlatPage 尝试按 URL 渲染单页，返回是否已经写出响应
func (a *API) serveFlatPage(c *gin.Context, url string) bool {
	page, err := a.flatPages.GetByURL(url)
	if err == nil {
		a.renderFlatPage(c, page)
		return true
	}
	if !errors.Is(err, service.ErrFlatPageNotFound) {
		log.Printf("[flatpage] lookup %s failed (request %s): %v", url, requestID(c), err)
		a.renderServerError(c, err, "Failed to load page")
		return true
	}

	// 缺少结尾斜杠时，若补全后的地址存在则永久重定向
	if !strings.HasSuffix(url, "/") {
		if _, err := a.flatPages.GetByURL(url + "/"); err == nil {
			target := url + "/"
			if query := c.Request.URL.RawQuery; query != "" {
				target += "?" + query
			}
			c.Redirect(http.StatusMovedPermanently, target)
			return true
		}
	}
	return false
}

func (a *API) renderFlatPage(c *gin.Context, page *db.FlatPage) {
	if page.RegistrationRequired && !isAuthenticated(c) {
		c.Redirect(http.StatusFound, loginURL(c.Request.URL.RequestURI()))
		return
	}

	a.renderHTML(c, http.StatusOK, "flatpage.html", gin.H{
		"title":   page.Title,
		"page":    page,
		"content": sanitizeHTML(page.Content),
	})
}

func isAuthenticated(c *gin.Context) bool {
	return sessions.Default(c).Get(sessionUserIDKey) != nil
}
