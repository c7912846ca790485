package handler

import (
	"errors"
	"html/template"
	"log"
	"net/http"
	"regexp"
	"time"

	"github.com/blogengine/internal/db"
	"github.com/blogengine/internal/service"
	"github.com/gin-gonic/gin"
)

var slugPattern = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

// postView 是模板使用的文章视图
type postView struct {
	Title   string
	URL     string
	Author  string
	PubDate time.Time
	Body    template.HTML
}

func (a *API) newPostView(post *db.Post) (postView, error) {
	body, err := renderMarkdown(post.Text)
	if err != nil {
		return postView{}, err
	}
	return postView{
		Title:   post.Title,
		URL:     post.AbsoluteURL(a.loc),
		Author:  post.AuthorName(),
		PubDate: post.PubDate,
		Body:    body,
	}, nil
}

// ShowPostList 渲染分页文章列表
// 路由 /:page/ 与文章详情共用第一个通配段，非数字的段交给单页回退处理。
func (a *API) ShowPostList(c *gin.Context) {
	page, ok, err := a.resolvePage(c)
	if err != nil {
		log.Printf("[post] resolve last page failed (request %s): %v", requestID(c), err)
		a.renderServerError(c, err, "Failed to load posts")
		return
	}
	if !ok {
		a.serveNotFound(c)
		return
	}

	result, err := a.posts.List(service.PostFilter{Page: page, PerPage: a.perPage})
	if err != nil {
		if errors.Is(err, service.ErrPageOutOfRange) {
			a.serveNotFound(c)
			return
		}
		log.Printf("[post] list page %d failed (request %s): %v", page, requestID(c), err)
		a.renderServerError(c, err, "Failed to load posts")
		return
	}

	views := make([]postView, 0, len(result.Posts))
	for i := range result.Posts {
		view, err := a.newPostView(&result.Posts[i])
		if err != nil {
			log.Printf("[post] render post %d failed (request %s): %v", result.Posts[i].ID, requestID(c), err)
			a.renderServerError(c, err, "Failed to render posts")
			return
		}
		views = append(views, view)
	}

	a.renderHTML(c, http.StatusOK, "post_list.html", gin.H{
		"title": "Posts",
		"posts": views,
		"page":  result,
	})
}

// resolvePage reads the page number from the path or the ?page= query.
func (a *API) resolvePage(c *gin.Context) (int, bool, error) {
	raw := c.Param("page")
	if raw == "" {
		raw = c.Query("page")
	}
	if raw == "" {
		return 1, true, nil
	}
	if raw == "last" {
		last, err := a.posts.LastPage(a.perPage)
		if err != nil {
			return 0, false, err
		}
		return last, true, nil
	}
	page, ok := parseBoundedInt(raw, 1<<30)
	return page, ok, nil
}

// ShowPostDetail 渲染单篇文章
// gin 要求同一层的通配参数同名，所以年份沿用 :page 参数。
func (a *API) ShowPostDetail(c *gin.Context) {
	year, okYear := parseBoundedInt(c.Param("page"), 9999)
	month, okMonth := parseBoundedInt(c.Param("month"), 12)
	day, okDay := parseBoundedInt(c.Param("day"), 31)
	slug := c.Param("slug")
	// 年份固定四位，月和日最多两位
	validWidth := len(c.Param("page")) == 4 && len(c.Param("month")) <= 2 && len(c.Param("day")) <= 2
	if !okYear || !okMonth || !okDay || !validWidth || !slugPattern.MatchString(slug) {
		a.serveNotFound(c)
		return
	}

	post, err := a.posts.GetByDateSlug(year, month, day, slug)
	if err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			a.serveNotFound(c)
			return
		}
		log.Printf("[post] lookup %d/%d/%d/%s failed (request %s): %v", year, month, day, slug, requestID(c), err)
		a.renderServerError(c, err, "Failed to load post")
		return
	}

	view, err := a.newPostView(post)
	if err != nil {
		log.Printf("[post] render post %d failed (request %s): %v", post.ID, requestID(c), err)
		a.renderServerError(c, err, "Failed to render post")
		return
	}

	a.renderHTML(c, http.StatusOK, "post_detail.html", gin.H{
		"title": post.Title,
		"post":  view,
	})
}
