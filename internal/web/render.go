package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/russross/blackfriday"

	"yatube/internal/forms"
	"yatube/internal/models"
	"yatube/internal/store"
)

//go:embed templates
var templateFS embed.FS

type HTMLData struct {
	Title       string
	Path        string
	CurrentUser *models.User

	Page *store.Page[models.Post]
	// Feed is the pre-rendered, possibly cached, index listing.
	Feed template.HTML

	Group          *models.Group
	Author         *models.User
	Following      bool
	PostCount      int64
	FollowerCount  int64
	FollowingCount int64

	Post        *models.Post
	Comments    []models.Comment
	CommentForm *forms.CommentForm
	PostForm    *forms.PostForm
	Groups      []models.Group

	Next      string
	FormError string
	FormData  map[string]string
}

var ugcPolicy = bluemonday.UGCPolicy()

// markdown renders admin-authored text such as group descriptions.
func markdown(s string) template.HTML {
	unsafe := blackfriday.MarkdownCommon([]byte(s))
	return template.HTML(ugcPolicy.SanitizeBytes(unsafe))
}

func linebreaks(s string) template.HTML {
	escaped := template.HTMLEscapeString(s)
	return template.HTML(strings.ReplaceAll(escaped, "\n", "<br>"))
}

var functions = template.FuncMap{
	"formatDate": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("02 Jan 2006, 15:04")
	},
	"linebreaks": linebreaks,
	"markdown":   markdown,
}

type renderer struct {
	pages     map[string]*template.Template
	fragments *template.Template
}

func newRenderer() (*renderer, error) {
	common, err := template.New("").Funcs(functions).
		ParseFS(templateFS, "templates/base.html", "templates/partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	r := &renderer{pages: make(map[string]*template.Template)}
	if r.fragments, err = common.Clone(); err != nil {
		return nil, err
	}

	for _, dir := range []string{"templates/pages", "templates/misc"} {
		files, err := fs.Glob(templateFS, dir+"/*.html")
		if err != nil {
			return nil, err
		}
		for _, file := range files {
			ts, err := common.Clone()
			if err != nil {
				return nil, err
			}
			if ts, err = ts.ParseFS(templateFS, file); err != nil {
				return nil, fmt.Errorf("parse %s: %w", file, err)
			}
			name := path.Base(dir) + "/" + strings.TrimSuffix(path.Base(file), ".html")
			r.pages[name] = ts
		}
	}
	return r, nil
}

// page renders the named page inside the base layout.
func (rd *renderer) page(name string, data *HTMLData) ([]byte, error) {
	ts, ok := rd.pages[name]
	if !ok {
		return nil, fmt.Errorf("template %s does not exist", name)
	}
	buf := new(bytes.Buffer)
	if err := ts.ExecuteTemplate(buf, "base", data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// fragment renders a partial without the layout.
func (rd *renderer) fragment(name string, data *HTMLData) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := rd.fragments.ExecuteTemplate(buf, name, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RenderHTML writes a full page. The page is rendered into a buffer first so
// a template error still produces a clean 500.
func (s *Server) RenderHTML(w http.ResponseWriter, r *http.Request, status int, name string, data *HTMLData) {
	if data == nil {
		data = &HTMLData{}
	}
	data.Path = r.URL.Path
	if data.CurrentUser == nil {
		data.CurrentUser = currentUser(r)
	}

	body, err := s.templates.page(name, data)
	if err != nil {
		s.ServerError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		s.log.WithError(err).Warn("Failed to write response")
	}
}
