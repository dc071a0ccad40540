package handlers

import (
	"net/http"

	"github.com/mediavault/backend/internal/middleware"
	"github.com/mediavault/backend/internal/models"
	"github.com/mediavault/backend/internal/upload"
)

// Dependencies carries everything the HTTP layer needs. Handlers hold only
// the slices of it they use.
type Dependencies struct {
	Users    UserStore
	Tags     TagStore
	Media    MediaIngestor
	Images   ProfileImageStorage
	Tokens   TokenIssuer
	Verifier middleware.TokenVerifier
	Resolver middleware.PrincipalResolver
	Admitter *upload.Admitter

	LoginLimiter RateLimiter

	MaxUploadBytes int64
	MaxUploadFiles int

	// StaticRoot is the local storage root; empty when the object store
	// backend serves files directly.
	StaticRoot string
}

type route struct {
	pattern   string
	handler   http.HandlerFunc
	protected bool
	roles     []models.Role
}

// RegisterRoutes attaches all API endpoints to the mux. Protected routes run
// through authentication; role-gated routes additionally check the principal's
// role against the listed requirement.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	authHandler := AuthHandler{Users: deps.Users, Tokens: deps.Tokens, Limiter: deps.LoginLimiter}
	userHandler := UserHandler{Users: deps.Users, Media: deps.Media, Images: deps.Images}
	tagHandler := TagHandler{Tags: deps.Tags}
	mediaHandler := MediaHandler{
		Media:          deps.Media,
		Admitter:       deps.Admitter,
		MaxUploadBytes: deps.MaxUploadBytes,
		MaxUploadFiles: deps.MaxUploadFiles,
	}

	adminOnly := []models.Role{models.RoleAdmin}

	routes := []route{
		{pattern: "POST /api/auth/login", handler: authHandler.Login},

		{pattern: "POST /api/users", handler: userHandler.Create},
		{pattern: "GET /api/users", handler: userHandler.List, protected: true},
		{pattern: "GET /api/users/{id}", handler: userHandler.Get, protected: true},
		{pattern: "PATCH /api/users/{id}", handler: userHandler.Update, protected: true},
		{pattern: "DELETE /api/users/{id}", handler: userHandler.Delete, protected: true},
		{pattern: "GET /api/users/{id}/media", handler: userHandler.GetMedia, protected: true},

		{pattern: "GET /api/tags", handler: tagHandler.List, protected: true},
		{pattern: "GET /api/tags/{id}", handler: tagHandler.Get, protected: true},
		{pattern: "POST /api/tags", handler: tagHandler.Create, protected: true, roles: adminOnly},
		{pattern: "PATCH /api/tags/{id}", handler: tagHandler.Update, protected: true, roles: adminOnly},
		{pattern: "DELETE /api/tags/{id}", handler: tagHandler.Delete, protected: true, roles: adminOnly},

		{pattern: "POST /api/media", handler: mediaHandler.Create, protected: true},
		{pattern: "GET /api/media", handler: mediaHandler.List, protected: true},
		{pattern: "GET /api/media/{id}", handler: mediaHandler.Get, protected: true},
		{pattern: "PATCH /api/media/{id}", handler: mediaHandler.Update, protected: true},
		{pattern: "DELETE /api/media/{id}", handler: mediaHandler.Delete, protected: true},
	}

	authenticate := middleware.Authenticate(deps.Verifier, deps.Resolver)

	for _, rt := range routes {
		var handler http.Handler = rt.handler
		if len(rt.roles) > 0 {
			handler = middleware.RequireRoles(rt.roles...)(handler)
		}
		if rt.protected {
			handler = authenticate(handler)
		}
		mux.Handle(rt.pattern, handler)
	}

	mux.HandleFunc("GET /healthz", HealthHandler{}.Handle)

	if deps.StaticRoot != "" {
		static := StaticHandler{Root: deps.StaticRoot}
		mux.HandleFunc("GET /public/uploads/media/{filename}", static.ServeMedia)
		mux.HandleFunc("GET /public/uploads/images/{filename}", static.ServeImage)
	}
}
