package web

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"yatube/internal/models"
	"yatube/internal/store"
)

const (
	sessionName = "yatube_session"
	sessionUser = "user_id"
	loginURL    = "/auth/login/"
)

type ctxKey string

const ctxUserKey ctxKey = "currentUser"

func currentUser(r *http.Request) *models.User {
	u, _ := r.Context().Value(ctxUserKey).(*models.User)
	return u
}

func isAuthenticated(r *http.Request) bool {
	return currentUser(r) != nil
}

// loadUser resolves the session cookie into the current user for the rest of
// the chain. A stale or broken session behaves as anonymous.
func (s *Server) loadUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := s.sessions.Get(r, sessionName)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		id, ok := session.Values[sessionUser].(uint)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		user, err := s.store.Users.ByID(id)
		if err != nil {
			if !errors.Is(err, store.ErrUserNotFound) {
				s.log.WithError(err).Error("Failed to load session user")
			}
			next.ServeHTTP(w, r)
			return
		}
		ctx := context.WithValue(r.Context(), ctxUserKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) logIn(w http.ResponseWriter, r *http.Request, user *models.User) error {
	session, _ := s.sessions.Get(r, sessionName)
	session.Values[sessionUser] = user.ID
	return session.Save(r, w)
}

func (s *Server) logOut(w http.ResponseWriter, r *http.Request) error {
	session, _ := s.sessions.Get(r, sessionName)
	delete(session.Values, sessionUser)
	session.Options.MaxAge = -1
	return session.Save(r, w)
}

// loginRedirect builds the login URL carrying the requested path as next,
// leaving slashes readable.
func loginRedirect(r *http.Request) string {
	next := strings.ReplaceAll(url.QueryEscape(r.URL.RequestURI()), "%2F", "/")
	return loginURL + "?next=" + next
}

// safeNext accepts only local absolute paths.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}

func noStore(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
}

// requireLogin sends anonymous visitors to the login page.
func (s *Server) requireLogin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		noStore(w)
		if !isAuthenticated(r) {
			http.Redirect(w, r, loginRedirect(r), http.StatusFound)
			return
		}
		next(w, r)
	}
}

// requireStaff guards the admin console.
func (s *Server) requireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		noStore(w)
		user := currentUser(r)
		if user == nil {
			http.Redirect(w, r, loginRedirect(r), http.StatusFound)
			return
		}
		if !user.IsStaff {
			s.Forbidden(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
