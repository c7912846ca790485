package handler

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/blogengine/internal/db"
	"github.com/blogengine/internal/service"
	"github.com/gin-gonic/gin"
)

const (
	flatPageAdminURL    = "/admin/flatpages/flatpage/"
	flatPageAdminAddURL = "/admin/flatpages/flatpage/add/"
)

func flatPageChangeURL(id uint) string {
	return fmt.Sprintf("%s%d/", flatPageAdminURL, id)
}

func flatPageDeleteURL(id uint) string {
	return fmt.Sprintf("%s%d/delete/", flatPageAdminURL, id)
}

type flatPageForm struct {
	URL                  string   `form:"url"`
	Title                string   `form:"title"`
	Content              string   `form:"content"`
	RegistrationRequired string   `form:"registration_required"`
	Sites                []string `form:"sites"`
}

func flatPageFormFromModel(page *db.FlatPage) flatPageForm {
	form := flatPageForm{
		URL:     page.URL,
		Title:   page.Title,
		Content: page.Content,
	}
	if page.RegistrationRequired {
		form.RegistrationRequired = "on"
	}
	for _, site := range page.Sites {
		form.Sites = append(form.Sites, strconv.FormatUint(uint64(site.ID), 10))
	}
	return form
}

func (f flatPageForm) values() map[string]string {
	checked := ""
	if f.registrationRequired() {
		checked = "on"
	}
	return map[string]string{
		"url":                   f.URL,
		"title":                 f.Title,
		"content":               f.Content,
		"registration_required": checked,
	}
}

func (f flatPageForm) registrationRequired() bool {
	switch f.RegistrationRequired {
	case "on", "true", "1":
		return true
	default:
		return false
	}
}

func (f flatPageForm) toInput() (service.FlatPageInput, map[string]string) {
	errs := map[string]string{}
	siteIDs, invalid := parseUintSlice(f.Sites)
	if invalid != "" {
		errs["sites"] = "Select a valid choice. " + invalid + " is not one of the available choices."
	}

	return service.FlatPageInput{
		URL:                  f.URL,
		Title:                f.Title,
		Content:              f.Content,
		RegistrationRequired: f.registrationRequired(),
		SiteIDs:              siteIDs,
	}, errs
}

func (a *API) flatPageBreadcrumbs(label string) []breadcrumb {
	crumbs := []breadcrumb{{Label: "Flat pages"}, {Label: "Flat pages", URL: flatPageAdminURL}}
	if label != "" {
		crumbs = append(crumbs, breadcrumb{Label: label})
	}
	return crumbs
}

func (a *API) renderFlatPageForm(c *gin.Context, status int, page *db.FlatPage, form flatPageForm, errs map[string]string) {
	sites, err := a.sites.List()
	if err != nil {
		log.Printf("[admin] list sites failed (request %s): %v", requestID(c), err)
		a.renderServerError(c, err, "Failed to load sites")
		return
	}

	selected, _ := parseUintSlice(form.Sites)
	data := gin.H{
		"title":         "Add flat page",
		"action":        flatPageAdminAddURL,
		"form":          form.values(),
		"errors":        errs,
		"sites":         sites,
		"selectedSites": selected,
		"breadcrumbs":   a.flatPageBreadcrumbs("Add flat page"),
	}
	if page != nil {
		data["title"] = "Change flat page"
		data["page"] = page
		data["action"] = flatPageChangeURL(page.ID)
		data["deleteURL"] = flatPageDeleteURL(page.ID)
		data["breadcrumbs"] = a.flatPageBreadcrumbs(page.URL + " -- " + page.Title)
	}

	a.renderAdmin(c, status, "admin_flatpage_form.html", data)
}

// ShowAdminFlatPageList 渲染后台单页列表
func (a *API) ShowAdminFlatPageList(c *gin.Context) {
	pages, err := a.flatPages.List()
	if err != nil {
		log.Printf("[admin] list flat pages failed (request %s): %v", requestID(c), err)
		a.renderServerError(c, err, "Failed to load flat pages")
		return
	}

	a.renderAdmin(c, http.StatusOK, "admin_flatpage_list.html", gin.H{
		"title":       "Select flat page to change",
		"pages":       pages,
		"breadcrumbs": a.flatPageBreadcrumbs(""),
	})
}

// ShowAdminFlatPageAdd 渲染新增单页表单，默认勾选当前站点
func (a *API) ShowAdminFlatPageAdd(c *gin.Context) {
	form := flatPageForm{}
	if site, err := a.sites.Current(); err == nil {
		form.Sites = []string{strconv.FormatUint(uint64(site.ID), 10)}
	}
	a.renderFlatPageForm(c, http.StatusOK, nil, form, nil)
}

// CreateAdminFlatPage 处理新增单页
func (a *API) CreateAdminFlatPage(c *gin.Context) {
	var form flatPageForm
	if err := c.ShouldBind(&form); err != nil {
		a.renderFlatPageForm(c, http.StatusBadRequest, nil, form, map[string]string{"url": "Invalid form submission."})
		return
	}

	input, parseErrs := form.toInput()
	if len(parseErrs) > 0 {
		a.renderFlatPageForm(c, http.StatusOK, nil, form, mergeFieldErrors(parseErrs, a.flatPages.Validate(input, 0)))
		return
	}

	page, err := a.flatPages.Create(input)
	if err != nil {
		if fields := service.FieldErrors(err); len(fields) > 0 {
			a.renderFlatPageForm(c, http.StatusOK, nil, form, fields)
			return
		}
		log.Printf("[admin] create flat page failed (request %s): %v", requestID(c), err)
		a.renderServerError(c, err, "Failed to create flat page")
		return
	}

	log.Printf("[admin] flat page %d created at %s (request %s)", page.ID, page.URL, requestID(c))
	addFlash(c, levelSuccess, savedMessage(c, "flat page", page.URL+" -- "+page.Title, "added"))
	redirectAfterSave(c, flatPageAdminURL, flatPageChangeURL(page.ID), flatPageAdminAddURL)
}

func (a *API) loadAdminFlatPage(c *gin.Context) (*db.FlatPage, bool) {
	id, err := parseUintParam(c, "id")
	if err == nil {
		page, getErr := a.flatPages.Get(id)
		if getErr == nil {
			return page, true
		}
		if !errors.Is(getErr, service.ErrFlatPageNotFound) {
			log.Printf("[admin] load flat page %d failed (request %s): %v", id, requestID(c), getErr)
			a.renderServerError(c, getErr, "Failed to load flat page")
			return nil, false
		}
	}

	addFlash(c, levelWarning, missingObjectMessage("Flat page", c.Param("id")))
	c.Redirect(http.StatusFound, flatPageAdminURL)
	return nil, false
}

// ShowAdminFlatPageChange 渲染编辑单页表单
func (a *API) ShowAdminFlatPageChange(c *gin.Context) {
	page, ok := a.loadAdminFlatPage(c)
	if !ok {
		return
	}
	a.renderFlatPageForm(c, http.StatusOK, page, flatPageFormFromModel(page), nil)
}

// UpdateAdminFlatPage 处理编辑单页
func (a *API) UpdateAdminFlatPage(c *gin.Context) {
	page, ok := a.loadAdminFlatPage(c)
	if !ok {
		return
	}

	var form flatPageForm
	if err := c.ShouldBind(&form); err != nil {
		a.renderFlatPageForm(c, http.StatusBadRequest, page, form, map[string]string{"url": "Invalid form submission."})
		return
	}

	input, parseErrs := form.toInput()
	if len(parseErrs) > 0 {
		a.renderFlatPageForm(c, http.StatusOK, page, form, mergeFieldErrors(parseErrs, a.flatPages.Validate(input, page.ID)))
		return
	}

	updated, err := a.flatPages.Update(page.ID, input)
	if err != nil {
		if fields := service.FieldErrors(err); len(fields) > 0 {
			a.renderFlatPageForm(c, http.StatusOK, page, form, fields)
			return
		}
		log.Printf("[admin] update flat page %d failed (request %s): %v", page.ID, requestID(c), err)
		a.renderServerError(c, err, "Failed to update flat page")
		return
	}

	log.Printf("[admin] flat page %d updated (request %s)", updated.ID, requestID(c))
	addFlash(c, levelSuccess, savedMessage(c, "flat page", updated.URL+" -- "+updated.Title, "changed"))
	redirectAfterSave(c, flatPageAdminURL, flatPageChangeURL(updated.ID), flatPageAdminAddURL)
}

// ShowAdminFlatPageDelete 渲染删除确认页
func (a *API) ShowAdminFlatPageDelete(c *gin.Context) {
	page, ok := a.loadAdminFlatPage(c)
	if !ok {
		return
	}
	a.renderFlatPageDeleteConfirmation(c, page)
}

func (a *API) renderFlatPageDeleteConfirmation(c *gin.Context, page *db.FlatPage) {
	name := page.URL + " -- " + page.Title
	a.renderAdmin(c, http.StatusOK, "admin_delete_confirmation.html", gin.H{
		"title":       "Are you sure?",
		"modelName":   "flat page",
		"modelTitle":  "Flat pages",
		"objectName":  name,
		"changeURL":   flatPageChangeURL(page.ID),
		"action":      flatPageDeleteURL(page.ID),
		"breadcrumbs": append(a.flatPageBreadcrumbs(""), breadcrumb{Label: name, URL: flatPageChangeURL(page.ID)}, breadcrumb{Label: "Delete"}),
	})
}

// DeleteAdminFlatPage 确认后删除单页
func (a *API) DeleteAdminFlatPage(c *gin.Context) {
	page, ok := a.loadAdminFlatPage(c)
	if !ok {
		return
	}
	if c.PostForm("post") != "yes" {
		a.renderFlatPageDeleteConfirmation(c, page)
		return
	}

	deleted, err := a.flatPages.Delete(page.ID)
	if err != nil {
		log.Printf("[admin] delete flat page %d failed (request %s): %v", page.ID, requestID(c), err)
		a.renderServerError(c, err, "Failed to delete flat page")
		return
	}

	log.Printf("[admin] flat page %d deleted (request %s)", deleted.ID, requestID(c))
	addFlash(c, levelSuccess, "The flat page \""+deleted.URL+" -- "+deleted.Title+"\" was deleted successfully.")
	c.Redirect(http.StatusFound, flatPageAdminURL)
}
