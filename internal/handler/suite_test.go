package handler_test

import (
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/blogengine/internal/config"
	"github.com/blogengine/internal/db"
	"github.com/blogengine/internal/router"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	testBaseURL  = "http://example.com"
	testUsername = "bobsmith"
	testPassword = "password"
)

type testSuite struct {
	db      *gorm.DB
	handler http.Handler
	user    *db.User
}

// localClient 在内存中直接调用 handler，并用 cookie jar 保持会话；不跟随重定向
type localClient struct {
	handler http.Handler
	jar     http.CookieJar
}

func newTestSuite(t *testing.T, loc *time.Location) *testSuite {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:handler-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "failed to open database")
	require.NoError(t, db.Migrate(gdb), "failed to migrate schema")
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})

	user, err := db.CreateSuperuser(gdb, testUsername, "bob@example.com", testPassword)
	require.NoError(t, err, "failed to create superuser")

	if loc == nil {
		loc = time.UTC
	}
	engine := router.SetupRouter(gdb, config.AppConfig{
		SessionSecret: "test-secret",
		SiteID:        db.DefaultSiteID,
		Location:      loc,
		PostsPerPage:  5,
	})

	return &testSuite{db: gdb, handler: engine, user: user}
}

func (s *testSuite) newClient(t *testing.T) *localClient {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &localClient{handler: s.handler, jar: jar}
}

func (s *testSuite) loggedInClient(t *testing.T) *localClient {
	t.Helper()
	client := s.newClient(t)
	resp := client.postForm(t, "/admin/login/", url.Values{
		"username": {testUsername},
		"password": {testPassword},
		"next":     {"/admin/"},
	})
	require.Equal(t, http.StatusFound, resp.StatusCode)
	require.Equal(t, "/admin/", resp.Header.Get("Location"))
	return client
}

func (s *testSuite) createPost(t *testing.T, title, text, slug string, pubDate time.Time, author *db.User) *db.Post {
	t.Helper()
	post := db.Post{Title: title, Text: text, Slug: slug, PubDate: pubDate}
	if author != nil {
		post.AuthorID = &author.ID
	}
	require.NoError(t, s.db.Omit("Author").Create(&post).Error)
	return &post
}

func (s *testSuite) createFlatPage(t *testing.T, pageURL, title, content string, siteIDs ...uint) *db.FlatPage {
	t.Helper()
	page := db.FlatPage{URL: pageURL, Title: title, Content: content}
	for _, id := range siteIDs {
		var site db.Site
		require.NoError(t, s.db.First(&site, id).Error)
		page.Sites = append(page.Sites, site)
	}
	require.NoError(t, s.db.Create(&page).Error)
	return &page
}

func (c *localClient) Do(req *http.Request) (*http.Response, error) {
	if c.jar != nil {
		for _, cookie := range c.jar.Cookies(req.URL) {
			req.AddCookie(cookie)
		}
	}
	w := httptest.NewRecorder()
	c.handler.ServeHTTP(w, req)
	resp := w.Result()
	if c.jar != nil {
		c.jar.SetCookies(req.URL, resp.Cookies())
	}
	return resp, nil
}

func (c *localClient) get(t *testing.T, path string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, testBaseURL+path, nil)
	resp, err := c.Do(req)
	require.NoError(t, err)
	return resp
}

func (c *localClient) postForm(t *testing.T, path string, form url.Values) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, testBaseURL+path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := c.Do(req)
	require.NoError(t, err)
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}
