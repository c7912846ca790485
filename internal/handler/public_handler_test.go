package handler_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/blogengine/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostListShowsPublishedPosts(t *testing.T) {
	suite := newTestSuite(t, time.UTC)
	pubDate := time.Date(2014, 6, 18, 22, 0, 4, 0, time.UTC)
	post := suite.createPost(t, "My first post",
		"This is [my first blog post](http://127.0.0.1:8000/)", "my-first-post", pubDate, suite.user)

	resp := suite.newClient(t).get(t, "/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := readBody(t, resp)

	assert.Contains(t, body, "My first post")
	assert.Contains(t, body, `<p>This is <a href="http://127.0.0.1:8000/">my first blog post</a></p>`)
	assert.Contains(t, body, "18 Jun 2014")
	assert.Contains(t, body, testUsername)
	assert.Contains(t, body, post.AbsoluteURL(time.UTC))
}

func TestPostListEmpty(t *testing.T) {
	suite := newTestSuite(t, time.UTC)

	resp := suite.newClient(t).get(t, "/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "No posts yet.")
}

func TestPostListPagination(t *testing.T) {
	suite := newTestSuite(t, time.UTC)
	base := time.Date(2014, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 6; i++ {
		suite.createPost(t, fmt.Sprintf("Post %d", i), "body", fmt.Sprintf("post-%d", i), base.AddDate(0, 0, i), nil)
	}
	client := suite.newClient(t)

	first := readBody(t, client.get(t, "/"))
	assert.Contains(t, first, "Post 5")
	assert.NotContains(t, first, "Post 0")
	assert.Contains(t, first, `href="/2/"`)

	resp := client.get(t, "/2/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	second := readBody(t, resp)
	assert.Contains(t, second, "Post 0")
	assert.NotContains(t, second, "Post 5")

	resp = client.get(t, "/?page=2")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = client.get(t, "/last/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "Post 0")

	for _, path := range []string{"/3/", "/0/", "/?page=9"} {
		resp = client.get(t, path)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
	}
}

func TestPostDetail(t *testing.T) {
	suite := newTestSuite(t, time.UTC)
	pubDate := time.Date(2014, 6, 18, 22, 0, 4, 0, time.UTC)
	post := suite.createPost(t, "My first post",
		"This is [my first blog post](http://127.0.0.1:8000/)", "my-first-post", pubDate, nil)
	client := suite.newClient(t)

	resp := client.get(t, post.AbsoluteURL(time.UTC))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := readBody(t, resp)
	assert.Contains(t, body, "My first post")
	assert.Contains(t, body, `<p>This is <a href="http://127.0.0.1:8000/">my first blog post</a></p>`)

	resp = client.get(t, "/2014/6/18/my-first-post")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	for _, path := range []string{
		"/2014/6/18/another-post/",
		"/2014/6/19/my-first-post/",
		"/14/6/18/my-first-post/",
		"/2014/13/18/my-first-post/",
		"/2014/006/18/my-first-post/",
		"/2014/6/018/my-first-post/",
		"/02014/6/18/my-first-post/",
	} {
		resp = client.get(t, path)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
	}
}

func TestPostDetailUsesSiteTimeZone(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	suite := newTestSuite(t, tokyo)

	// 22:00 UTC is already the next day in Tokyo
	suite.createPost(t, "Late post", "text", "late", time.Date(2014, 6, 18, 22, 0, 0, 0, time.UTC), nil)
	client := suite.newClient(t)

	assert.Equal(t, http.StatusOK, client.get(t, "/2014/6/19/late/").StatusCode)
	assert.Equal(t, http.StatusNotFound, client.get(t, "/2014/6/18/late/").StatusCode)
}

func TestMarkdownIsSanitized(t *testing.T) {
	suite := newTestSuite(t, time.UTC)
	post := suite.createPost(t, "Unsafe", "Hello <script>alert(1)</script> **world**", "unsafe",
		time.Date(2014, 6, 18, 12, 0, 0, 0, time.UTC), nil)

	body := readBody(t, suite.newClient(t).get(t, post.AbsoluteURL(time.UTC)))
	assert.NotContains(t, body, "<script>alert(1)</script>")
	assert.Contains(t, body, "<strong>world</strong>")
}

func TestPostListLastPageStorageError(t *testing.T) {
	suite := newTestSuite(t, time.UTC)
	require.NoError(t, suite.db.Migrator().DropTable(&db.Post{}))

	resp := suite.newClient(t).get(t, "/last/")
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "Server error")
}
