package web

import (
	"net/http"
	"runtime/debug"

	"github.com/sirupsen/logrus"
)

// ServerError logs err with the stack and shows the generic fault page.
func (s *Server) ServerError(w http.ResponseWriter, r *http.Request, err error) {
	s.log.WithFields(logrus.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
		"stack":  string(debug.Stack()),
	}).WithError(err).Error("Request failed")

	body, rerr := s.templates.page("misc/500", &HTMLData{Path: r.URL.Path})
	if rerr != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	w.Write(body)
}

func (s *Server) NotFound(w http.ResponseWriter, r *http.Request) {
	s.RenderHTML(w, r, http.StatusNotFound, "misc/404", nil)
}

func (s *Server) Forbidden(w http.ResponseWriter, r *http.Request) {
	s.RenderHTML(w, r, http.StatusForbidden, "misc/403", nil)
}

func (s *Server) ClientError(w http.ResponseWriter, r *http.Request, status int) {
	http.Error(w, http.StatusText(status), status)
}
