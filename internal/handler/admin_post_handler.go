package handler

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/blogengine/internal/db"
	"github.com/blogengine/internal/service"
	"github.com/gin-gonic/gin"
)

const (
	postAdminURL    = "/admin/blogengine/post/"
	postAdminAddURL = "/admin/blogengine/post/add/"
	adminPerPage    = 100
)

var (
	pubDateLayouts = []string{"2006-01-02", "01/02/2006", "01/02/06"}
	pubTimeLayouts = []string{"15:04:05", "15:04"}
)

func postChangeURL(id uint) string {
	return fmt.Sprintf("%s%d/", postAdminURL, id)
}

func postDeleteURL(id uint) string {
	return fmt.Sprintf("%s%d/delete/", postAdminURL, id)
}

// postForm mirrors the admin form, with the publication date split into date and time fields.
type postForm struct {
	Title    string `form:"title"`
	Text     string `form:"text"`
	Slug     string `form:"slug"`
	PubDate0 string `form:"pub_date_0"`
	PubDate1 string `form:"pub_date_1"`
	Author   string `form:"author"`
}

func postFormFromModel(post *db.Post, loc *time.Location) postForm {
	form := postForm{
		Title: post.Title,
		Text:  post.Text,
		Slug:  post.Slug,
	}
	if !post.PubDate.IsZero() {
		local := post.PubDate.In(loc)
		form.PubDate0 = local.Format("2006-01-02")
		form.PubDate1 = local.Format("15:04:05")
	}
	if post.AuthorID != nil {
		form.Author = strconv.FormatUint(uint64(*post.AuthorID), 10)
	}
	return form
}

func (f postForm) values() map[string]string {
	return map[string]string{
		"title":      f.Title,
		"text":       f.Text,
		"slug":       f.Slug,
		"pub_date_0": f.PubDate0,
		"pub_date_1": f.PubDate1,
		"author":     f.Author,
	}
}

// toInput converts raw form values. Field level parse failures are returned separately.
func (f postForm) toInput(loc *time.Location) (service.PostInput, map[string]string) {
	input := service.PostInput{
		Title: f.Title,
		Text:  f.Text,
		Slug:  f.Slug,
	}
	errs := map[string]string{}

	pubDate, msg := parseSplitDateTime(f.PubDate0, f.PubDate1, loc)
	if msg != "" {
		errs["pub_date"] = msg
	}
	input.PubDate = pubDate

	if raw := strings.TrimSpace(f.Author); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil || id == 0 {
			errs["author"] = "Select a valid choice. That choice is not one of the available choices."
		} else {
			authorID := uint(id)
			input.AuthorID = &authorID
		}
	}

	return input, errs
}

// parseSplitDateTime 解析后台表单中拆分的日期与时间，两者都为空时返回零值交给必填校验
func parseSplitDateTime(rawDate, rawTime string, loc *time.Location) (time.Time, string) {
	rawDate = strings.TrimSpace(rawDate)
	rawTime = strings.TrimSpace(rawTime)
	if rawDate == "" && rawTime == "" {
		return time.Time{}, ""
	}

	date, ok := parseFirst(pubDateLayouts, rawDate, loc)
	if !ok {
		return time.Time{}, "Enter a valid date."
	}
	clock, ok := parseFirst(pubTimeLayouts, rawTime, loc)
	if !ok {
		return time.Time{}, "Enter a valid time."
	}

	return time.Date(date.Year(), date.Month(), date.Day(),
		clock.Hour(), clock.Minute(), clock.Second(), 0, loc), ""
}

func parseFirst(layouts []string, value string, loc *time.Location) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if parsed, err := time.ParseInLocation(layout, value, loc); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

func mergeFieldErrors(parseErrs map[string]string, err error) map[string]string {
	merged := map[string]string{}
	for field, msg := range service.FieldErrors(err) {
		merged[field] = msg
	}
	// 解析错误优先于服务层的错误
	for field, msg := range parseErrs {
		merged[field] = msg
	}
	return merged
}

func (a *API) postBreadcrumbs(label string) []breadcrumb {
	crumbs := []breadcrumb{{Label: "Blog engine"}, {Label: "Posts", URL: postAdminURL}}
	if label != "" {
		crumbs = append(crumbs, breadcrumb{Label: label})
	}
	return crumbs
}

func (a *API) renderPostForm(c *gin.Context, status int, post *db.Post, form postForm, errs map[string]string) {
	authors, err := a.users.List()
	if err != nil {
		log.Printf("[admin] list authors failed (request %s): %v", requestID(c), err)
		a.renderServerError(c, err, "Failed to load authors")
		return
	}

	data := gin.H{
		"title":       "Add post",
		"action":      postAdminAddURL,
		"form":        form.values(),
		"errors":      errs,
		"authors":     authors,
		"breadcrumbs": a.postBreadcrumbs("Add post"),
	}
	if post != nil {
		data["title"] = "Change post"
		data["post"] = post
		data["action"] = postChangeURL(post.ID)
		data["deleteURL"] = postDeleteURL(post.ID)
		data["viewOnSiteURL"] = post.AbsoluteURL(a.loc)
		data["breadcrumbs"] = a.postBreadcrumbs(post.Title)
	}

	a.renderAdmin(c, status, "admin_post_form.html", data)
}

// ShowAdminPostList 渲染后台文章列表
func (a *API) ShowAdminPostList(c *gin.Context) {
	page := 1
	if raw := c.Query("p"); raw != "" {
		if parsed, ok := parseBoundedInt(raw, 1<<30); ok {
			page = parsed
		}
	}

	result, err := a.posts.List(service.PostFilter{Page: page, PerPage: adminPerPage})
	if errors.Is(err, service.ErrPageOutOfRange) {
		result, err = a.posts.List(service.PostFilter{Page: 1, PerPage: adminPerPage})
	}
	if err != nil {
		log.Printf("[admin] list posts failed (request %s): %v", requestID(c), err)
		a.renderServerError(c, err, "Failed to load posts")
		return
	}

	a.renderAdmin(c, http.StatusOK, "admin_post_list.html", gin.H{
		"title":       "Select post to change",
		"page":        result,
		"breadcrumbs": a.postBreadcrumbs(""),
	})
}

// ShowAdminPostAdd 渲染新增文章表单
func (a *API) ShowAdminPostAdd(c *gin.Context) {
	a.renderPostForm(c, http.StatusOK, nil, postForm{}, nil)
}

// CreateAdminPost 处理新增文章
func (a *API) CreateAdminPost(c *gin.Context) {
	var form postForm
	if err := c.ShouldBind(&form); err != nil {
		a.renderPostForm(c, http.StatusBadRequest, nil, form, map[string]string{"title": "Invalid form submission."})
		return
	}

	input, parseErrs := form.toInput(a.loc)
	if len(parseErrs) > 0 {
		a.renderPostForm(c, http.StatusOK, nil, form, mergeFieldErrors(parseErrs, a.posts.Validate(input, 0)))
		return
	}

	post, err := a.posts.Create(input)
	if err != nil {
		if fields := service.FieldErrors(err); len(fields) > 0 {
			a.renderPostForm(c, http.StatusOK, nil, form, fields)
			return
		}
		log.Printf("[admin] create post failed (request %s): %v", requestID(c), err)
		a.renderServerError(c, err, "Failed to create post")
		return
	}

	log.Printf("[admin] post %d created (request %s)", post.ID, requestID(c))
	addFlash(c, levelSuccess, savedMessage(c, "post", post.Title, "added"))
	redirectAfterSave(c, postAdminURL, postChangeURL(post.ID), postAdminAddURL)
}

// loadAdminPost 读取路由中的文章，不存在时提示并返回列表
func (a *API) loadAdminPost(c *gin.Context) (*db.Post, bool) {
	id, err := parseUintParam(c, "id")
	if err == nil {
		post, getErr := a.posts.Get(id)
		if getErr == nil {
			return post, true
		}
		if !errors.Is(getErr, service.ErrPostNotFound) {
			log.Printf("[admin] load post %d failed (request %s): %v", id, requestID(c), getErr)
			a.renderServerError(c, getErr, "Failed to load post")
			return nil, false
		}
	}

	addFlash(c, levelWarning, missingObjectMessage("Post", c.Param("id")))
	c.Redirect(http.StatusFound, postAdminURL)
	return nil, false
}

// ShowAdminPostChange 渲染编辑文章表单
func (a *API) ShowAdminPostChange(c *gin.Context) {
	post, ok := a.loadAdminPost(c)
	if !ok {
		return
	}
	a.renderPostForm(c, http.StatusOK, post, postFormFromModel(post, a.loc), nil)
}

// UpdateAdminPost 处理编辑文章
func (a *API) UpdateAdminPost(c *gin.Context) {
	post, ok := a.loadAdminPost(c)
	if !ok {
		return
	}

	var form postForm
	if err := c.ShouldBind(&form); err != nil {
		a.renderPostForm(c, http.StatusBadRequest, post, form, map[string]string{"title": "Invalid form submission."})
		return
	}

	input, parseErrs := form.toInput(a.loc)
	if len(parseErrs) > 0 {
		a.renderPostForm(c, http.StatusOK, post, form, mergeFieldErrors(parseErrs, a.posts.Validate(input, post.ID)))
		return
	}

	updated, err := a.posts.Update(post.ID, input)
	if err != nil {
		if fields := service.FieldErrors(err); len(fields) > 0 {
			a.renderPostForm(c, http.StatusOK, post, form, fields)
			return
		}
		log.Printf("[admin] update post %d failed (request %s): %v", post.ID, requestID(c), err)
		a.renderServerError(c, err, "Failed to update post")
		return
	}

	log.Printf("[admin] post %d updated (request %s)", updated.ID, requestID(c))
	addFlash(c, levelSuccess, savedMessage(c, "post", updated.Title, "changed"))
	redirectAfterSave(c, postAdminURL, postChangeURL(updated.ID), postAdminAddURL)
}

// ShowAdminPostDelete 渲染删除确认页
func (a *API) ShowAdminPostDelete(c *gin.Context) {
	post, ok := a.loadAdminPost(c)
	if !ok {
		return
	}
	a.renderPostDeleteConfirmation(c, post)
}

func (a *API) renderPostDeleteConfirmation(c *gin.Context, post *db.Post) {
	a.renderAdmin(c, http.StatusOK, "admin_delete_confirmation.html", gin.H{
		"title":       "Are you sure?",
		"modelName":   "post",
		"modelTitle":  "Posts",
		"objectName":  post.Title,
		"changeURL":   postChangeURL(post.ID),
		"action":      postDeleteURL(post.ID),
		"breadcrumbs": append(a.postBreadcrumbs(""), breadcrumb{Label: post.Title, URL: postChangeURL(post.ID)}, breadcrumb{Label: "Delete"}),
	})
}

// DeleteAdminPost 确认后删除文章
func (a *API) DeleteAdminPost(c *gin.Context) {
	post, ok := a.loadAdminPost(c)
	if !ok {
		return
	}
	if c.PostForm("post") != "yes" {
		a.renderPostDeleteConfirmation(c, post)
		return
	}

	deleted, err := a.posts.Delete(post.ID)
	if err != nil {
		log.Printf("[admin] delete post %d failed (request %s): %v", post.ID, requestID(c), err)
		a.renderServerError(c, err, "Failed to delete post")
		return
	}

	log.Printf("[admin] post %d deleted (request %s)", deleted.ID, requestID(c))
	addFlash(c, levelSuccess, "The post \""+deleted.Title+"\" was deleted successfully.")
	c.Redirect(http.StatusFound, postAdminURL)
}
