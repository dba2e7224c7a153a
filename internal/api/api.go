package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oseayemenre/bookshelf/internal/config"
	"github.com/oseayemenre/bookshelf/internal/logger"
	"github.com/oseayemenre/bookshelf/internal/mailer"
	"github.com/oseayemenre/bookshelf/internal/models"
	"github.com/oseayemenre/bookshelf/internal/ratelimit"
	"github.com/oseayemenre/bookshelf/internal/store"
	"github.com/oseayemenre/bookshelf/internal/validation"
)

type Api struct {
	router      *chi.Mux
	logger      logger.Logger
	objectStore store.ObjectStore
	store       store.Store
	mailer      mailer.Mailer
	validator   *validation.Validator
	authLimiter *ratelimit.KeyedRateLimiter
	config      *config.Config
}

// New wires the handlers. objectStore may be nil, in which case cover
// uploads are not routed.
func New(
	router *chi.Mux,
	logger logger.Logger,
	objectStore store.ObjectStore,
	store store.Store,
	mailer mailer.Mailer,
	config *config.Config,
) *Api {
	return &Api{
		router:      router,
		logger:      logger,
		objectStore: objectStore,
		store:       store,
		mailer:      mailer,
		validator:   validation.New(),
		authLimiter: ratelimit.New(config.AuthRateLimit, config.AuthRateWindow, config.AuthRateLimit),
		config:      config,
	}
}

// Close releases the background resources held by the API.
func (a *Api) Close() {
	a.authLimiter.Stop()
}

func (a *Api) RegisterRoutes() {
	a.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondWithError(w, http.StatusNotFound, "Cannot "+r.Method+" "+r.URL.Path)
	})

	a.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondWithError(w, http.StatusMethodNotAllowed, "Cannot "+r.Method+" "+r.URL.Path)
	})

	a.router.Get("/healthz", a.HandleHealthz)

	a.router.Route("/api/v1", func(r chi.Router) {
		r.Use(a.LoggingMiddleware)

		r.Route("/auth", func(r chi.Router) {
			r.Use(a.RateLimit(a.authLimiter))

			r.Post("/register", a.HandleRegister)
			r.Post("/login", a.HandleLogin)
			r.With(a.OptionalAuth).Post("/logout", a.HandleLogout)
			r.Post("/forgot-password", a.HandleForgotPassword)
			r.Post("/reset-password", a.HandleResetPassword)
			r.Get("/reset-redirect", a.HandleResetRedirect)
			r.With(a.Authenticate).Get("/me", a.HandleMe)
		})

		r.Route("/books", func(r chi.Router) {
			r.Use(a.Authenticate)

			r.Get("/", a.HandleListBooks)
			r.Post("/", a.HandleCreateBook)

			r.Route("/{bookId}", func(r chi.Router) {
				r.Get("/", a.HandleGetBook)
				r.Put("/", a.HandleUpdateBook)
				r.Delete("/", a.HandleDeleteBook)
				r.Get("/shelves", a.HandleGetBookShelves)

				if a.objectStore != nil {
					r.Post("/cover", a.HandleUploadCover)
				}
			})
		})

		r.Route("/shelves", func(r chi.Router) {
			r.Use(a.Authenticate)

			r.Get("/", a.HandleListShelves)
			r.Post("/", a.HandleCreateShelf)

			r.Route("/{shelfId}", func(r chi.Router) {
				r.Get("/", a.HandleGetShelf)
				r.Put("/", a.HandleRenameShelf)
				r.Delete("/", a.HandleDeleteShelf)
				r.Post("/books/{bookId}", a.HandleAddBookToShelf)
				r.Delete("/books/{bookId}", a.HandleRemoveBookFromShelf)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(a.Authenticate)

			r.Get("/profile", a.HandleGetProfile)
			r.Put("/profile", a.HandleUpdateProfile)

			r.Group(func(r chi.Router) {
				r.Use(a.RequireAdmin)
				r.Get("/list", a.HandleListUsers)
				r.Delete("/{userId}", a.HandleDeleteUser)
			})
		})
	})
}

// HandleHealthz godoc
//
//	@Summary		Health check
//	@Description	Reports whether the server can reach the database
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	models.HealthResponse
//	@Failure		503	{object}	models.ErrorResponse
//	@Router			/healthz [get]
func (a *Api) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	if err := a.store.PingContext(r.Context()); err != nil {
		a.logger.Error(err.Error(), "service", "healthz")
		respondWithError(w, http.StatusServiceUnavailable, "database unreachable")
		return
	}

	respondWithSuccess(w, http.StatusOK, models.HealthResponse{Status: "ok"})
}
