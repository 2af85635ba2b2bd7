package web

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"yatube/internal/models"
	"yatube/internal/store"
)

func (s *Server) resolveAuthor(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	author, err := s.store.Users.ByUsername(mux.Vars(r)["username"])
	if errors.Is(err, store.ErrUserNotFound) {
		s.NotFound(w, r)
		return nil, false
	}
	if err != nil {
		s.ServerError(w, r, err)
		return nil, false
	}
	return author, true
}

// profileFollow is idempotent; following yourself does nothing.
func (s *Server) profileFollow(w http.ResponseWriter, r *http.Request) {
	author, ok := s.resolveAuthor(w, r)
	if !ok {
		return
	}
	user := currentUser(r)

	if author.ID != user.ID {
		created, err := s.store.Follows.Follow(user.ID, author.ID)
		if err != nil {
			s.ServerError(w, r, err)
			return
		}
		if created {
			s.metrics.FollowRequests.Inc()
			s.log.WithFields(logrus.Fields{
				"user":   user.Username,
				"target": author.Username,
			}).Info("User followed successfully")
		}
	}

	http.Redirect(w, r, "/"+author.Username+"/", http.StatusFound)
}

// profileUnfollow removes an existing edge; a missing edge is a 404.
func (s *Server) profileUnfollow(w http.ResponseWriter, r *http.Request) {
	author, ok := s.resolveAuthor(w, r)
	if !ok {
		return
	}
	user := currentUser(r)

	if author.ID != user.ID {
		err := s.store.Follows.Unfollow(user.ID, author.ID)
		if errors.Is(err, store.ErrFollowNotFound) {
			s.log.WithFields(logrus.Fields{
				"user":   user.Username,
				"target": author.Username,
			}).Warn("Unfollow without a follow edge")
			s.NotFound(w, r)
			return
		}
		if err != nil {
			s.ServerError(w, r, err)
			return
		}
		s.metrics.UnfollowRequests.Inc()
		s.log.WithFields(logrus.Fields{
			"user":   user.Username,
			"target": author.Username,
		}).Info("User unfollowed successfully")
	}

	http.Redirect(w, r, "/"+author.Username+"/", http.StatusFound)
}
