package web

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

const slowRequest = 2 * time.Second

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// logRequests records every request once it has been served.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		s.afterRequestLogging(start, rec.status, r)
	})
}

func (s *Server) afterRequestLogging(start time.Time, status int, r *http.Request) {
	duration := time.Since(start)
	entry := s.log.WithFields(logrus.Fields{
		"method":    r.Method,
		"path":      r.URL.Path,
		"status":    status,
		"duration":  duration,
		"remote_ip": r.RemoteAddr,
	})
	if duration > slowRequest {
		entry.Warn("Slow request detected")
	} else {
		entry.Info("Request completed")
	}
}

// recoverPanics turns a panicking handler into the fault page.
func (s *Server) recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				if v == http.ErrAbortHandler {
					panic(v)
				}
				s.ServerError(w, r, fmt.Errorf("panic: %v", v))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// countRequests labels the response status with the matched route name.
func (s *Server) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		route := "unknown"
		if cur := mux.CurrentRoute(r); cur != nil && cur.GetName() != "" {
			route = cur.GetName()
		}
		status := rec.status
		if status == 0 {
			status = http.StatusOK
		}
		s.metrics.ObserveStatus(route, status)
	})
}
