package router

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/blogengine/internal/config"
	"github.com/blogengine/internal/handler"
	"github.com/blogengine/internal/view"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const sessionName = "blogengine_session"

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(gdb *gorm.DB, cfg config.AppConfig) *gin.Engine {
	r := gin.New()
	// 公开路由两种斜杠形式都已注册，补斜杠的重定向交给单页回退
	r.RedirectTrailingSlash = false
	r.Use(handler.RequestID(), gin.LoggerWithFormatter(logFormatter), gin.Recovery())

	// 配置会话中间件
	secret := strings.TrimSpace(cfg.SessionSecret)
	if secret == "" {
		secret = "blogengine-dev-secret"
	}
	store := cookie.NewStore([]byte(secret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int((14 * 24 * time.Hour).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionName, store))

	// 模板内嵌在二进制中，日期按站点时区渲染
	r.SetHTMLTemplate(view.MustTemplates(cfg.Location))

	// 静态文件服务
	if dir := strings.TrimSpace(cfg.StaticDir); dir != "" {
		r.Static("/static", dir)
	}

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	api := handler.NewAPI(gdb, handler.Options{
		SiteID:       cfg.SiteID,
		Location:     cfg.Location,
		PostsPerPage: cfg.PostsPerPage,
	})

	// 后台管理路由
	r.GET("/admin", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/admin/")
	})
	admin := r.Group("/admin")
	{
		admin.GET("/", api.ShowAdminIndex)
		admin.GET("/login/", api.ShowLoginPage)
		admin.POST("/login/", api.Login)
		admin.GET("/logout/", api.Logout)
		admin.POST("/logout/", api.Logout)

		// 需要认证的后台路由
		auth := admin.Group("")
		auth.Use(api.AuthRequired())
		{
			posts := auth.Group("/blogengine/post")
			posts.GET("/", api.ShowAdminPostList)
			posts.GET("/add/", api.ShowAdminPostAdd)
			posts.POST("/add/", api.CreateAdminPost)
			posts.GET("/:id/", api.ShowAdminPostChange)
			posts.POST("/:id/", api.UpdateAdminPost)
			posts.GET("/:id/delete/", api.ShowAdminPostDelete)
			posts.POST("/:id/delete/", api.DeleteAdminPost)

			flatPages := auth.Group("/flatpages/flatpage")
			flatPages.GET("/", api.ShowAdminFlatPageList)
			flatPages.GET("/add/", api.ShowAdminFlatPageAdd)
			flatPages.POST("/add/", api.CreateAdminFlatPage)
			flatPages.GET("/:id/", api.ShowAdminFlatPageChange)
			flatPages.POST("/:id/", api.UpdateAdminFlatPage)
			flatPages.GET("/:id/delete/", api.ShowAdminFlatPageDelete)
			flatPages.POST("/:id/delete/", api.DeleteAdminFlatPage)
		}
	}

	// 前台路由
	// 列表页与详情页共享第一个通配段 :page，详情页里它表示年份。
	r.GET("/", api.ShowPostList)
	r.GET("/:page", api.ShowPostList)
	r.GET("/:page/", api.ShowPostList)
	r.GET("/:page/:month/:day/:slug", api.ShowPostDetail)
	r.GET("/:page/:month/:day/:slug/", api.ShowPostDetail)

	// 其余地址尝试匹配单页
	r.NoRoute(api.ShowFlatPage)

	return r
}

func logFormatter(param gin.LogFormatterParams) string {
	requestID, _ := param.Keys[handler.RequestIDKey].(string)
	return fmt.Sprintf("[GIN] %v | %3d | %13v | %15s | %-7s %#v | %s%s\n",
		param.TimeStamp.Format("2006/01/02 - 15:04:05"),
		param.StatusCode,
		param.Latency,
		param.ClientIP,
		param.Method,
		param.Path,
		requestID,
		formatLogError(param.ErrorMessage),
	)
}

func formatLogError(message string) string {
	if message == "" {
		return ""
	}
	return " | " + strings.TrimSpace(message)
}
