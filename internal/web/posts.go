package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"yatube/internal/forms"
	"yatube/internal/models"
	"yatube/internal/store"
)

// resolvePost loads the post named by {username}/{post_id}, writing a 404
// itself when either does not resolve. The bool reports success.
func (s *Server) resolvePost(w http.ResponseWriter, r *http.Request) (*models.Post, bool) {
	vars := mux.Vars(r)
	author, err := s.store.Users.ByUsername(vars["username"])
	if errors.Is(err, store.ErrUserNotFound) {
		s.NotFound(w, r)
		return nil, false
	}
	if err != nil {
		s.ServerError(w, r, err)
		return nil, false
	}

	id, err := strconv.ParseUint(vars["post_id"], 10, 64)
	if err != nil {
		s.NotFound(w, r)
		return nil, false
	}

	post, err := s.store.Posts.ByAuthor(author.ID, uint(id))
	if errors.Is(err, store.ErrPostNotFound) {
		s.NotFound(w, r)
		return nil, false
	}
	if err != nil {
		s.ServerError(w, r, err)
		return nil, false
	}
	return post, true
}

func (s *Server) renderPost(w http.ResponseWriter, r *http.Request, post *models.Post, form *forms.CommentForm) {
	comments, err := s.store.Comments.ForPost(post.ID)
	if err != nil {
		s.ServerError(w, r, err)
		return
	}
	s.RenderHTML(w, r, http.StatusOK, "pages/post", &HTMLData{
		Title:       post.Author.Username,
		Author:      &post.Author,
		Post:        post,
		Comments:    comments,
		CommentForm: form,
	})
}

func (s *Server) postView(w http.ResponseWriter, r *http.Request) {
	post, ok := s.resolvePost(w, r)
	if !ok {
		return
	}
	s.renderPost(w, r, post, forms.NewCommentForm())
}

func (s *Server) renderPostForm(w http.ResponseWriter, r *http.Request, form *forms.PostForm, post *models.Post) {
	groups, err := s.store.Groups.All()
	if err != nil {
		s.ServerError(w, r, err)
		return
	}
	title := "New post"
	if post != nil {
		title = "Edit post"
	}
	s.RenderHTML(w, r, http.StatusOK, "pages/new_post", &HTMLData{
		Title:    title,
		PostForm: form,
		Post:     post,
		Groups:   groups,
	})
}

// storeImage saves a validated upload and returns its relative path.
func (s *Server) storeImage(form *forms.PostForm) (string, error) {
	if form.Image == nil {
		return "", nil
	}
	return s.media.Save(form.Image.Data, form.Image.Format)
}

func (s *Server) newPost(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.renderPostForm(w, r, forms.NewPostForm(nil), nil)
		return
	}

	form, err := forms.ParsePostForm(r)
	if err != nil {
		s.log.WithError(err).Warn("Unreadable post form")
		s.ClientError(w, r, http.StatusBadRequest)
		return
	}
	if !form.Validate(s.store.Groups) {
		s.renderPostForm(w, r, form, nil)
		return
	}

	user := currentUser(r)
	post := &models.Post{AuthorID: user.ID}
	form.Apply(post)

	if post.Image, err = s.storeImage(form); err != nil {
		s.ServerError(w, r, err)
		return
	}
	if err := s.store.Posts.Create(post); err != nil {
		s.discardImage(post.Image)
		s.ServerError(w, r, err)
		return
	}

	s.metrics.PostsCreated.Inc()
	s.log.WithFields(logrus.Fields{
		"post_id": post.ID,
		"author":  user.Username,
	}).Info("Post created")

	http.Redirect(w, r, "/", http.StatusFound)
}

// postEdit lets the author change text, group and image. Everyone else is
// sent to the read-only view.
func (s *Server) postEdit(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	user := currentUser(r)
	if user == nil || user.Username != vars["username"] {
		http.Redirect(w, r, "/"+vars["username"]+"/"+vars["post_id"]+"/", http.StatusFound)
		return
	}

	post, ok := s.resolvePost(w, r)
	if !ok {
		return
	}

	if r.Method != http.MethodPost {
		s.renderPostForm(w, r, forms.NewPostForm(post), post)
		return
	}

	form, err := forms.ParsePostForm(r)
	if err != nil {
		s.log.WithError(err).Warn("Unreadable post form")
		s.ClientError(w, r, http.StatusBadRequest)
		return
	}
	if !form.Validate(s.store.Groups) {
		s.renderPostForm(w, r, form, post)
		return
	}

	oldImage := post.Image
	form.Apply(post)
	switch {
	case form.Image != nil:
		if post.Image, err = s.storeImage(form); err != nil {
			s.ServerError(w, r, err)
			return
		}
	case form.ClearImage:
		post.Image = ""
	}

	if err := s.store.Posts.Update(post); err != nil {
		if post.Image != oldImage {
			s.discardImage(post.Image)
		}
		s.ServerError(w, r, err)
		return
	}
	if post.Image != oldImage {
		s.discardImage(oldImage)
	}

	s.metrics.PostsEdited.Inc()
	s.log.WithFields(logrus.Fields{
		"post_id": post.ID,
		"author":  user.Username,
	}).Info("Post updated")

	http.Redirect(w, r, post.URL(), http.StatusFound)
}

func (s *Server) discardImage(rel string) {
	if err := s.media.Delete(rel); err != nil {
		s.log.WithError(err).WithField("image", rel).Warn("Failed to remove image")
	}
}

func (s *Server) addComment(w http.ResponseWriter, r *http.Request) {
	post, ok := s.resolvePost(w, r)
	if !ok {
		return
	}
	if r.Method != http.MethodPost {
		http.Redirect(w, r, post.URL(), http.StatusFound)
		return
	}

	form, err := forms.ParseCommentForm(r)
	if err != nil {
		s.ClientError(w, r, http.StatusBadRequest)
		return
	}
	if !form.Validate() {
		s.renderPost(w, r, post, form)
		return
	}

	user := currentUser(r)
	comment := &models.Comment{PostID: post.ID, AuthorID: user.ID, Text: form.Text}
	if err := s.store.Comments.Create(comment); err != nil {
		s.ServerError(w, r, err)
		return
	}

	s.metrics.CommentsCreated.Inc()
	s.log.WithFields(logrus.Fields{
		"post_id":    post.ID,
		"comment_id": comment.ID,
		"author":     user.Username,
	}).Info("Comment created")

	http.Redirect(w, r, post.URL(), http.StatusFound)
}
