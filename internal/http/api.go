package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"sm-portal/internal/service"
)

// Options tunes the HTTP layer.
type Options struct {
	CookieName         string
	CookieSecure       bool
	SessionTTL         time.Duration
	LoginRatePerMinute int
	LoginBurst         int
	MaxUploadBytes     int64
}

// Handler wires HTTP routes to domain services.
type Handler struct {
	admins     service.AdminService
	qna        service.QnaService
	categories service.CategoryService
	references service.ReferenceService
	logger     *logrus.Logger
	opts       Options
	login      *rateLimiter
}

func NewHandler(
	admins service.AdminService,
	qna service.QnaService,
	categories service.CategoryService,
	references service.ReferenceService,
	logger *logrus.Logger,
	opts Options,
) *Handler {
	if opts.CookieName == "" {
		opts.CookieName = "ADMIN_SESSION"
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 100 << 20
	}
	return &Handler{
		admins:     admins,
		qna:        qna,
		categories: categories,
		references: references,
		logger:     logger,
		opts:       opts,
		login:      newRateLimiter(opts.LoginRatePerMinute, opts.LoginBurst),
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware(), h.requestLogger(), h.sessionMiddleware())
	router.MaxMultipartMemory = 8 << 20

	api := router.Group("/api")
	{
		api.GET("/health", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
		})

		admin := api.Group("/admin")
		admin.POST("/login", h.rateLimit(h.login), h.adminLogin)
		admin.POST("/logout", h.adminLogout)
		admin.GET("/check", h.adminCheck)
		secured := admin.Group("", requireAdmin())
		secured.GET("/list", h.listAdmins)
		secured.POST("/register", h.registerAdmin)
		secured.DELETE("/:id", h.deleteAdmin)
		secured.PUT("/password", h.changePassword)
		secured.PUT("/profile", h.updateProfile)
		secured.GET("/storage/objects", h.listObjects)

		qna := api.Group("/qna")
		qna.GET("", h.listPosts)
		qna.GET("/search", h.searchPosts)
		qna.GET("/:id", h.getPost)
		qna.POST("", h.createPost)
		qna.POST("/:id/check-password", h.checkPostPassword)
		qna.PUT("/:id", h.updatePost)
		qna.DELETE("/:id", h.deletePost)
		qna.GET("/:id/comments", h.listComments)
		qna.POST("/:id/comments", h.createComment)
		qna.POST("/comments/:commentId/check-password", h.checkCommentPassword)
		qna.PUT("/comments/:commentId", h.updateComment)
		qna.DELETE("/comments/:commentId", h.deleteComment)

		refs := api.Group("/references")
		refs.GET("", h.listReferences)
		refs.GET("/search", h.searchReferences)
		refs.GET("/category/:categoryId", h.listReferencesByCategory)
		refs.GET("/:id", h.getReference)
		refs.GET("/:id/download", h.downloadMainFile)
		refs.GET("/:id/thumbnail", h.thumbnail)
		refs.GET("/files/:fileId/download", h.downloadAttachedFile)
		refs.GET("/images/:imageId", h.galleryImage)
		refs.POST("", requireAdmin(), h.createReference)
		refs.PUT("/:id", requireAdmin(), h.updateReference)
		refs.DELETE("/:id", requireAdmin(), h.deleteReference)

		categories := api.Group("/reference-categories")
		categories.GET("", h.listCategories)
		categories.POST("", requireAdmin(), h.createCategory)
		categories.PUT("/:id", requireAdmin(), h.updateCategory)
		categories.DELETE("/:id", requireAdmin(), h.deleteCategory)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Disposition, X-Session-Token")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := h.logger.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
			"client":  c.ClientIP(),
		})
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			entry.Error("request failed")
		default:
			entry.Debug("request handled")
		}
	}
}

func (h *Handler) listObjects(c *gin.Context) {
	objects, err := h.references.ListStoredObjects(c.Request.Context(), c.Query("prefix"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := make([]StorageObjectResponse, len(objects))
	for i := range objects {
		resp[i] = objectToResponse(objects[i])
	}
	c.JSON(http.StatusOK, resp)
}
