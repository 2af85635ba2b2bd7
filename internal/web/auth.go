package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"yatube/internal/store"
)

var errPasswordMismatch = errors.New("The two passwords do not match")

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	noStore(w)
	if r.Method != http.MethodPost {
		s.RenderHTML(w, r, http.StatusOK, "pages/login", &HTMLData{
			Title: "Log in",
			Next:  safeNext(r.URL.Query().Get("next")),
		})
		return
	}

	username := strings.TrimSpace(r.PostFormValue("username"))
	next := safeNext(r.PostFormValue("next"))

	user, err := s.store.Users.Authenticate(username, r.PostFormValue("password"))
	if errors.Is(err, store.ErrInvalidUsername) || errors.Is(err, store.ErrInvalidPassword) {
		s.log.WithField("username", username).Warn("Invalid login credentials")
		s.RenderHTML(w, r, http.StatusOK, "pages/login", &HTMLData{
			Title:     "Log in",
			Next:      next,
			FormError: err.Error(),
			FormData:  map[string]string{"username": username},
		})
		return
	}
	if err != nil {
		s.ServerError(w, r, err)
		return
	}

	if err := s.logIn(w, r, user); err != nil {
		s.ServerError(w, r, err)
		return
	}
	s.log.WithField("username", user.Username).Info("User logged in successfully")
	http.Redirect(w, r, next, http.StatusFound)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if err := s.logOut(w, r); err != nil {
		s.ServerError(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	noStore(w)
	if r.Method != http.MethodPost {
		s.RenderHTML(w, r, http.StatusOK, "pages/signup", &HTMLData{Title: "Sign up"})
		return
	}

	username := strings.TrimSpace(r.PostFormValue("username"))
	email := strings.TrimSpace(r.PostFormValue("email"))
	password := r.PostFormValue("password")

	fail := func(err error) {
		s.RenderHTML(w, r, http.StatusOK, "pages/signup", &HTMLData{
			Title:     "Sign up",
			FormError: err.Error(),
			FormData:  map[string]string{"username": username, "email": email},
		})
	}

	if password != r.PostFormValue("password2") {
		fail(errPasswordMismatch)
		return
	}

	user, err := s.store.Users.Create(username, email, password, false)
	switch {
	case errors.Is(err, store.ErrEmptyUsername), errors.Is(err, store.ErrUsernameTaken),
		errors.Is(err, store.ErrInvalidEmail), errors.Is(err, store.ErrEmptyPassword):
		s.log.WithFields(logrus.Fields{"username": username, "reason": err.Error()}).Warn("Signup rejected")
		fail(err)
		return
	case err != nil:
		s.ServerError(w, r, err)
		return
	}

	if err := s.logIn(w, r, user); err != nil {
		s.ServerError(w, r, err)
		return
	}
	s.log.WithField("username", user.Username).Info("User registered successfully")
	http.Redirect(w, r, "/", http.StatusFound)
}
