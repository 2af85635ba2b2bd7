// Package web serves the blog pages.
package web

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"github.com/sirupsen/logrus"

	"yatube/internal/admin"
	"yatube/internal/cache"
	"yatube/internal/media"
	"yatube/internal/metrics"
	"yatube/internal/store"
)

type Options struct {
	Store         *store.Store
	Media         *media.Storage
	Cache         *cache.Cache
	IndexCacheTTL time.Duration
	SessionKey    []byte
	Logger        *logrus.Logger
	Metrics       *metrics.Metrics
}

type Server struct {
	store     *store.Store
	media     *media.Storage
	cache     *cache.Cache
	cacheTTL  time.Duration
	sessions  sessions.Store
	log       *logrus.Logger
	metrics   *metrics.Metrics
	templates *renderer
	admin     *admin.Site
}

func New(opts Options) (*Server, error) {
	if opts.Store == nil || opts.Media == nil {
		return nil, errors.New("web: store and media are required")
	}
	if len(opts.SessionKey) == 0 {
		return nil, errors.New("web: empty session key")
	}

	templates, err := newRenderer()
	if err != nil {
		return nil, err
	}

	cookies := sessions.NewCookieStore(opts.SessionKey)
	cookies.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   3600 * 16, // 16 hours
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	s := &Server{
		store:     opts.Store,
		media:     opts.Media,
		cache:     opts.Cache,
		cacheTTL:  opts.IndexCacheTTL,
		sessions:  cookies,
		log:       opts.Logger,
		metrics:   opts.Metrics,
		templates: templates,
	}
	if s.cache == nil {
		s.cache = cache.New()
	}
	if s.log == nil {
		s.log = logrus.New()
	}
	if s.metrics == nil {
		s.metrics = metrics.New()
	}

	s.admin, err = admin.New(admin.Options{
		DB:       opts.Store.DB,
		Prefix:   "/admin",
		Logger:   s.log,
		OnChange: s.cache.Clear,
		Media:    opts.Media,
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Cache exposes the response cache so callers can flush it.
func (s *Server) Cache() *cache.Cache {
	return s.cache
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter().StrictSlash(true)
	r.Use(s.countRequests)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.metrics.ObserveStatus("not_found", http.StatusNotFound)
		s.NotFound(w, r)
	})

	r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet).Name("metrics")
	r.PathPrefix("/media/").Handler(s.media.Handler("/media/")).Methods(http.MethodGet).Name("media")
	r.Handle("/admin", http.RedirectHandler("/admin/", http.StatusMovedPermanently)).Name("admin_root")
	r.PathPrefix("/admin/").Handler(s.requireStaff(s.admin)).Name("admin")

	r.HandleFunc("/auth/login/", s.login).Methods(http.MethodGet, http.MethodPost).Name("login")
	r.HandleFunc("/auth/logout/", s.logout).Methods(http.MethodGet, http.MethodPost).Name("logout")
	r.HandleFunc("/auth/signup/", s.signup).Methods(http.MethodGet, http.MethodPost).Name("signup")

	r.HandleFunc("/", s.index).Methods(http.MethodGet).Name("index")
	r.HandleFunc("/group/{slug}/", s.groupPosts).Methods(http.MethodGet).Name("group_posts")
	r.HandleFunc("/new/", s.requireLogin(s.newPost)).Methods(http.MethodGet, http.MethodPost).Name("new_post")
	r.HandleFunc("/follow/", s.requireLogin(s.followIndex)).Methods(http.MethodGet).Name("follow_index")

	r.HandleFunc("/{username}/", s.profile).Methods(http.MethodGet).Name("profile")
	r.HandleFunc("/{username}/follow/", s.requireLogin(s.profileFollow)).
		Methods(http.MethodGet, http.MethodPost).Name("profile_follow")
	r.HandleFunc("/{username}/unfollow/", s.requireLogin(s.profileUnfollow)).
		Methods(http.MethodGet, http.MethodPost).Name("profile_unfollow")
	r.HandleFunc("/{username}/{post_id:[0-9]+}/", s.postView).Methods(http.MethodGet).Name("post")
	r.HandleFunc("/{username}/{post_id:[0-9]+}/edit/", s.postEdit).
		Methods(http.MethodGet, http.MethodPost).Name("post_edit")
	r.HandleFunc("/{username}/{post_id:[0-9]+}/comment/", s.requireLogin(s.addComment)).
		Methods(http.MethodGet, http.MethodPost).Name("add_comment")

	return r
}

// Handler returns the complete middleware chain around the router.
func (s *Server) Handler() http.Handler {
	return s.logRequests(s.recoverPanics(s.loadUser(s.routes())))
}
