package web

import (
	"errors"
	"html/template"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"yatube/internal/store"
)

const indexCacheKey = "index"

// index serves the global feed. The listing is cached for the configured
// interval per query string, so posts added inside the window show up only
// once the entry expires or the cache is flushed.
func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	key := indexCacheKey + "?" + r.URL.RawQuery

	feed, ok := s.cache.Get(key)
	if ok {
		s.metrics.IndexCache.WithLabelValues("hit").Inc()
	} else {
		s.metrics.IndexCache.WithLabelValues("miss").Inc()

		page, err := s.store.Posts.List(r.URL.Query().Get("page"))
		if err != nil {
			s.ServerError(w, r, err)
			return
		}
		feed, err = s.templates.fragment("feed", &HTMLData{Page: page})
		if err != nil {
			s.ServerError(w, r, err)
			return
		}
		s.cache.Set(key, feed, s.cacheTTL)
		s.log.WithFields(logrus.Fields{"key": key, "posts": len(page.Items)}).Debug("Index feed cached")
	}

	s.RenderHTML(w, r, http.StatusOK, "pages/index", &HTMLData{
		Title: "Latest posts",
		Feed:  template.HTML(feed),
	})
}

func (s *Server) groupPosts(w http.ResponseWriter, r *http.Request) {
	group, err := s.store.Groups.BySlug(mux.Vars(r)["slug"])
	if errors.Is(err, store.ErrGroupNotFound) {
		s.NotFound(w, r)
		return
	}
	if err != nil {
		s.ServerError(w, r, err)
		return
	}

	page, err := s.store.Posts.ListByGroup(group.ID, r.URL.Query().Get("page"))
	if err != nil {
		s.ServerError(w, r, err)
		return
	}

	s.RenderHTML(w, r, http.StatusOK, "pages/group", &HTMLData{
		Title: group.Title,
		Group: group,
		Page:  page,
	})
}

func (s *Server) profile(w http.ResponseWriter, r *http.Request) {
	author, err := s.store.Users.ByUsername(mux.Vars(r)["username"])
	if errors.Is(err, store.ErrUserNotFound) {
		s.NotFound(w, r)
		return
	}
	if err != nil {
		s.ServerError(w, r, err)
		return
	}

	page, err := s.store.Posts.ListByAuthor(author.ID, r.URL.Query().Get("page"))
	if err != nil {
		s.ServerError(w, r, err)
		return
	}

	data := &HTMLData{
		Title:     author.Username,
		Author:    author,
		Page:      page,
		PostCount: page.Count,
	}

	if viewer := currentUser(r); viewer != nil {
		if data.Following, err = s.store.Follows.IsFollowing(viewer.ID, author.ID); err != nil {
			s.ServerError(w, r, err)
			return
		}
	}
	if data.FollowerCount, err = s.store.Follows.FollowerCount(author.ID); err != nil {
		s.ServerError(w, r, err)
		return
	}
	if data.FollowingCount, err = s.store.Follows.FollowingCount(author.ID); err != nil {
		s.ServerError(w, r, err)
		return
	}

	s.RenderHTML(w, r, http.StatusOK, "pages/profile", data)
}

func (s *Server) followIndex(w http.ResponseWriter, r *http.Request) {
	page, err := s.store.Posts.ListFollowed(currentUser(r).ID, r.URL.Query().Get("page"))
	if err != nil {
		s.ServerError(w, r, err)
		return
	}
	s.RenderHTML(w, r, http.StatusOK, "pages/follow", &HTMLData{
		Title: "Following",
		Page:  page,
	})
}
