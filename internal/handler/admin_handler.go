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

const (
	sessionUserIDKey   = "user_id"
	sessionUsernameKey = "username"
	adminUserKey       = "admin_user"

	adminIndexURL = "/admin/"
)

// 消息级别同时作为 flash 的 key
const (
	levelSuccess = "success"
	levelWarning = "warning"
	levelError   = "error"
)

var messageLevels = []string{levelSuccess, levelWarning, levelError}

type adminMessage struct {
	Level string
	Text  string
}

type breadcrumb struct {
	Label string
	URL   string
}

func addFlash(c *gin.Context, level, text string) {
	session := sessions.Default(c)
	session.AddFlash(text, level)
	if err := session.Save(); err != nil {
		log.Printf("[admin] save flash failed (request %s): %v", requestID(c), err)
	}
}

func popFlashes(c *gin.Context) []adminMessage {
	session := sessions.Default(c)
	var messages []adminMessage
	for _, level := range messageLevels {
		for _, flash := range session.Flashes(level) {
			if text, ok := flash.(string); ok {
				messages = append(messages, adminMessage{Level: level, Text: text})
			}
		}
	}
	if len(messages) > 0 {
		if err := session.Save(); err != nil {
			log.Printf("[admin] clear flashes failed (request %s): %v", requestID(c), err)
		}
	}
	return messages
}

// renderAdmin adds the signed in user and pending messages to every admin page.
func (a *API) renderAdmin(c *gin.Context, status int, template string, data gin.H) {
	payload := gin.H{}
	for key, value := range data {
		payload[key] = value
	}
	payload["username"] = sessions.Default(c).Get(sessionUsernameKey)
	payload["messages"] = popFlashes(c)
	a.renderHTML(c, status, template, payload)
}

// ShowLoginPage 渲染登录页面
func (a *API) ShowLoginPage(c *gin.Context) {
	next := safeNext(c.Query("next"), adminIndexURL)
	if isAuthenticated(c) {
		c.Redirect(http.StatusFound, next)
		return
	}
	a.renderLogin(c, http.StatusOK, next, "", "")
}

func (a *API) renderLogin(c *gin.Context, status int, next, username, message string) {
	a.renderAdmin(c, status, "admin_login.html", gin.H{
		"title":         "Log in",
		"next":          next,
		"usernameValue": username,
		"error":         message,
	})
}

// Login 处理登录表单
func (a *API) Login(c *gin.Context) {
	username := strings.TrimSpace(c.PostForm("username"))
	password := c.PostForm("password")
	next := safeNext(c.PostForm("next"), adminIndexURL)

	user, err := a.users.Authenticate(username, password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			a.renderLogin(c, http.StatusOK, next, username,
				"Please enter the correct username and password for a staff account. Note that both fields may be case-sensitive.")
			return
		}
		log.Printf("[admin] authenticate %q failed (request %s): %v", username, requestID(c), err)
		a.renderServerError(c, err, "Failed to log in")
		return
	}

	// 设置会话
	session := sessions.Default(c)
	session.Clear()
	session.Set(sessionUserIDKey, user.ID)
	session.Set(sessionUsernameKey, user.Username)
	if err := session.Save(); err != nil {
		log.Printf("[admin] save session for %s failed (request %s): %v", user.Username, requestID(c), err)
		a.renderServerError(c, err, "Failed to save session")
		return
	}

	log.Printf("[admin] %s logged in (request %s)", user.Username, requestID(c))
	c.Redirect(http.StatusFound, next)
}

// Logout 清除会话并渲染退出页
func (a *API) Logout(c *gin.Context) {
	session := sessions.Default(c)
	if username, ok := session.Get(sessionUsernameKey).(string); ok {
		log.Printf("[admin] %s logged out (request %s)", username, requestID(c))
	}
	session.Clear()
	if err := session.Save(); err != nil {
		log.Printf("[admin] clear session failed (request %s): %v", requestID(c), err)
	}

	a.renderHTML(c, http.StatusOK, "admin_logged_out.html", gin.H{
		"title": "Logged out",
	})
}

// ShowAdminIndex 渲染后台首页，未登录时直接显示登录表单
func (a *API) ShowAdminIndex(c *gin.Context) {
	if _, ok := a.currentUser(c); !ok {
		a.renderLogin(c, http.StatusOK, adminIndexURL, "", "")
		return
	}

	postCount, err := a.posts.Count()
	if err != nil {
		log.Printf("[admin] count posts failed (request %s): %v", requestID(c), err)
		a.renderServerError(c, err, "Failed to load dashboard")
		return
	}
	pages, err := a.flatPages.List()
	if err != nil {
		log.Printf("[admin] list flat pages failed (request %s): %v", requestID(c), err)
		a.renderServerError(c, err, "Failed to load dashboard")
		return
	}

	a.renderAdmin(c, http.StatusOK, "admin_index.html", gin.H{
		"title":         "Site administration",
		"postCount":     postCount,
		"flatPageCount": len(pages),
	})
}

// currentUser 读取会话中的用户，并确认其仍然是有效的管理员
func (a *API) currentUser(c *gin.Context) (*db.User, bool) {
	if cached, exists := c.Get(adminUserKey); exists {
		if user, ok := cached.(*db.User); ok {
			return user, true
		}
	}

	session := sessions.Default(c)
	userID, ok := session.Get(sessionUserIDKey).(uint)
	if !ok {
		return nil, false
	}

	user, err := a.users.Get(userID)
	if err != nil || !user.IsStaff {
		if err != nil && !errors.Is(err, service.ErrUserNotFound) {
			c.Error(err)
		}
		session.Clear()
		_ = session.Save()
		return nil, false
	}

	c.Set(adminUserKey, user)
	return user, true
}

// AuthRequired 是后台的认证中间件
func (a *API) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := a.currentUser(c); !ok {
			c.Redirect(http.StatusFound, loginURL(c.Request.URL.RequestURI()))
			c.Abort()
			return
		}
		c.Next()
	}
}

// redirectAfterSave follows the admin submit buttons.
func redirectAfterSave(c *gin.Context, listURL, changeURL, addURL string) {
	switch {
	case c.PostForm("_continue") != "":
		c.Redirect(http.StatusFound, changeURL)
	case c.PostForm("_addanother") != "":
		c.Redirect(http.StatusFound, addURL)
	default:
		c.Redirect(http.StatusFound, listURL)
	}
}

func savedMessage(c *gin.Context, model, name, verb string) string {
	text := "The " + model + " \"" + name + "\" was " + verb + " successfully."
	switch {
	case c.PostForm("_continue") != "":
		text += " You may edit it again below."
	case c.PostForm("_addanother") != "":
		text += " You may add another " + model + " below."
	}
	return text
}

func missingObjectMessage(model, rawID string) string {
	return model + " with ID \"" + rawID + "\" doesn't exist. Perhaps it was deleted?"
}
