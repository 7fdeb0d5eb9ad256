// Package api exposes the JSON REST surface of the application.
package api

import (
	"net/http"
	"time"

	"github.com/gorilla/sessions"
	gocache "github.com/patrickmn/go-cache"
	"github.com/todiane/djangify/auth"
	"github.com/todiane/djangify/blog"
	"github.com/todiane/djangify/moderation"
	"github.com/todiane/djangify/portfolio"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/time/rate"
)

const apiPrefix = "/api/v1"

// AdminConfig carries display settings surfaced on staff-facing
// responses.
type AdminConfig struct {
	SiteHeader string
	SiteTitle  string
}

type Handler struct {
	mux           *http.ServeMux
	handler       http.Handler
	authSvc       *auth.Service
	blogSvc       *blog.Service
	portfolioSvc  *portfolio.Service
	moderationSvc *moderation.Service
	cookieStore   *sessions.CookieStore
	sessionName   string
	mediaRoot     string
	markdown      goldmark.Markdown
	detailCache   *gocache.Cache
	limiters      *gocache.Cache
	writeRate     rate.Limit
	writeBurst    int
	admin         AdminConfig
}

var _ http.Handler = (*Handler)(nil)

func NewHandler(
	authSvc *auth.Service,
	blogSvc *blog.Service,
	portfolioSvc *portfolio.Service,
	moderationSvc *moderation.Service,
	cookieStore *sessions.CookieStore,
	sessionName string,
	mediaRoot string,
	cacheTTL time.Duration,
	writeRate rate.Limit,
	writeBurst int,
	admin AdminConfig,
) *Handler {
	h := &Handler{
		mux:           nil,
		handler:       nil,
		authSvc:       authSvc,
		blogSvc:       blogSvc,
		portfolioSvc:  portfolioSvc,
		moderationSvc: moderationSvc,
		cookieStore:   cookieStore,
		sessionName:   sessionName,
		mediaRoot:     mediaRoot,
		markdown:      nil,
		detailCache:   gocache.New(cacheTTL, 2*cacheTTL),
		limiters:      gocache.New(10*time.Minute, 20*time.Minute),
		writeRate:     writeRate,
		writeBurst:    writeBurst,
		admin:         admin,
	}

	h.markdown = goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
		),
	)

	h.mux = &http.ServeMux{}
	h.registerRoutes()

	h.handler = h.mux
	h.handler = h.rateLimitMiddleware(h.handler)
	h.handler = h.authMiddleware(h.handler)
	h.handler = loggingMiddleware(h.handler)
	h.handler = recoverMiddleware(h.handler)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.handler.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.mux.Handle("GET "+apiPrefix+"/posts", h.HandleListPosts())
	h.mux.Handle("POST "+apiPrefix+"/posts", h.StaffOnly(h.HandleCreatePost()))
	h.mux.Handle("GET "+apiPrefix+"/posts/{slug}", h.HandleGetPost())
	h.mux.Handle("PUT "+apiPrefix+"/posts/{slug}", h.StaffOnly(h.HandleUpdatePost()))
	h.mux.Handle("PATCH "+apiPrefix+"/posts/{slug}", h.StaffOnly(h.HandleUpdatePost()))
	h.mux.Handle("DELETE "+apiPrefix+"/posts/{slug}", h.StaffOnly(h.HandleDeletePost()))
	h.mux.Handle("POST "+apiPrefix+"/posts/{slug}/toggle_featured", h.StaffOnly(h.HandleTogglePostFeatured()))
	h.mux.Handle("POST "+apiPrefix+"/posts/{slug}/upload_featured_image", h.StaffOnly(h.HandleUploadPostFeaturedImage()))

	h.mux.Handle("GET "+apiPrefix+"/posts/{slug}/comments", h.HandleListPostComments())
	h.mux.Handle("POST "+apiPrefix+"/posts/{slug}/comments", h.HandleSubmitComment())

	h.mux.Handle("GET "+apiPrefix+"/comments", h.StaffOnly(h.HandleListComments()))
	h.mux.Handle("GET "+apiPrefix+"/comments/{id}", h.StaffOnly(h.HandleGetComment()))
	h.mux.Handle("POST "+apiPrefix+"/comments/{id}/approve", h.StaffOnly(h.HandleApproveComment()))
	h.mux.Handle("POST "+apiPrefix+"/comments/{id}/reject", h.StaffOnly(h.HandleRejectComment()))

	h.mux.Handle("GET "+apiPrefix+"/categories", h.HandleListCategories())
	h.mux.Handle("POST "+apiPrefix+"/categories", h.StaffOnly(h.HandleCreateCategory()))
	h.mux.Handle("GET "+apiPrefix+"/categories/{slug}", h.HandleGetCategory())
	h.mux.Handle("GET "+apiPrefix+"/tags", h.HandleListTags())
	h.mux.Handle("POST "+apiPrefix+"/tags", h.StaffOnly(h.HandleCreateTag()))
	h.mux.Handle("GET "+apiPrefix+"/tags/{slug}", h.HandleGetTag())

	h.mux.Handle("GET "+apiPrefix+"/projects", h.HandleListProjects())
	h.mux.Handle("POST "+apiPrefix+"/projects", h.StaffOnly(h.HandleCreateProject()))
	h.mux.Handle("GET "+apiPrefix+"/projects/{slug}", h.HandleGetProject())
	h.mux.Handle("PUT "+apiPrefix+"/projects/{slug}", h.StaffOnly(h.HandleUpdateProject()))
	h.mux.Handle("PATCH "+apiPrefix+"/projects/{slug}", h.StaffOnly(h.HandleUpdateProject()))
	h.mux.Handle("DELETE "+apiPrefix+"/projects/{slug}", h.StaffOnly(h.HandleDeleteProject()))
	h.mux.Handle("POST "+apiPrefix+"/projects/{slug}/toggle_featured", h.StaffOnly(h.HandleToggleProjectFeatured()))
	h.mux.Handle("POST "+apiPrefix+"/projects/{slug}/upload_featured_image", h.StaffOnly(h.HandleUploadProjectFeaturedImage()))

	h.mux.Handle("GET "+apiPrefix+"/technologies", h.HandleListTechnologies())
	h.mux.Handle("POST "+apiPrefix+"/technologies", h.StaffOnly(h.HandleCreateTechnology()))
	h.mux.Handle("GET "+apiPrefix+"/technologies/{slug}", h.HandleGetTechnology())

	h.mux.Handle("GET "+apiPrefix+"/project-images", h.StaffOnly(h.HandleListProjectImages()))
	h.mux.Handle("POST "+apiPrefix+"/project-images", h.StaffOnly(h.HandleAddProjectImage()))
	h.mux.Handle("GET "+apiPrefix+"/project-images/{id}", h.StaffOnly(h.HandleGetProjectImage()))
	h.mux.Handle("DELETE "+apiPrefix+"/project-images/{id}", h.StaffOnly(h.HandleDeleteProjectImage()))
	h.mux.Handle("POST "+apiPrefix+"/project-images/{id}/reorder", h.StaffOnly(h.HandleReorderProjectImage()))

	h.mux.Handle("GET "+apiPrefix+"/admin/site", h.StaffOnly(h.HandleAdminSite()))

	h.mux.Handle("POST "+apiPrefix+"/auth/login", h.HandleLogin())
	h.mux.Handle("POST "+apiPrefix+"/auth/logout", h.HandleLogout())
	h.mux.Handle("GET "+apiPrefix+"/auth/me", h.HandleMe())

	h.mux.Handle("GET /media/", http.StripPrefix("/media/", http.FileServer(http.Dir(h.mediaRoot))))
}
