package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/blogengine/internal/service"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db        *gorm.DB
	posts     *service.PostService
	flatPages *service.FlatPageService
	users     *service.UserService
	sites     *service.SiteService
	loc       *time.Location
	perPage   int
}

// Options configures NewAPI.
type Options struct {
	SiteID       uint
	Location     *time.Location
	PostsPerPage int
}

const siteNameContextKey = "__site_name"

// NewAPI constructs a handler set with shared services.
func NewAPI(gdb *gorm.DB, opts Options) *API {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	perPage := opts.PostsPerPage
	if perPage <= 0 {
		perPage = 5
	}

	return &API{
		db:        gdb,
		posts:     service.NewPostService(gdb, loc),
		flatPages: service.NewFlatPageService(gdb, opts.SiteID),
		users:     service.NewUserService(gdb),
		sites:     service.NewSiteService(gdb, opts.SiteID),
		loc:       loc,
		perPage:   perPage,
	}
}

// DB exposes the underlying gorm instance.
func (a *API) DB() *gorm.DB {
	return a.db
}

func (a *API) siteName(c *gin.Context) string {
	if cached, exists := c.Get(siteNameContextKey); exists {
		if name, ok := cached.(string); ok {
			return name
		}
	}

	name := "blogengine"
	if site, err := a.sites.Current(); err == nil {
		if trimmed := strings.TrimSpace(site.Name); trimmed != "" {
			name = trimmed
		}
	} else {
		c.Error(err)
	}

	c.Set(siteNameContextKey, name)
	return name
}

func (a *API) renderHTML(c *gin.Context, status int, template string, data gin.H) {
	payload := gin.H{}
	for key, value := range data {
		payload[key] = value
	}

	if _, exists := payload["siteName"]; !exists {
		payload["siteName"] = a.siteName(c)
	}
	if _, exists := payload["year"]; !exists {
		payload["year"] = time.Now().In(a.loc).Year()
	}
	if _, exists := payload["title"]; !exists {
		payload["title"] = ""
	}

	c.HTML(status, template, payload)
}

func (a *API) renderServerError(c *gin.Context, err error, message string) {
	if err != nil {
		c.Error(err)
	}
	a.renderHTML(c, http.StatusInternalServerError, "500.html", gin.H{
		"title": "Server error",
		"error": message,
	})
}
