// Package admin provides staff screens to list, search, filter, add, change
// and delete records of the registered models.
package admin

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"yatube/internal/media"
)

//go:embed templates
var templateFS embed.FS

type Options struct {
	DB     *gorm.DB
	Prefix string
	Logger *logrus.Logger
	// OnChange runs after every successful add, change or delete.
	OnChange func()
	Now      func() time.Time
	// Media holds post images; files of cleared or deleted posts are removed.
	Media *media.Storage
}

type Site struct {
	db        *gorm.DB
	prefix    string
	log       *logrus.Logger
	onChange  func()
	now       func() time.Time
	models    []modelSite
	byName    map[string]modelSite
	router    *mux.Router
	templates map[string]*template.Template
}

type pageData struct {
	Title  string
	Prefix string
	Models []modelMeta
	Model  modelMeta

	List   *listView
	Form   *formView
	Object string
	ID     uint
	Status int
}

// New builds the console with the blog's models registered.
func New(opts Options) (*Site, error) {
	if opts.DB == nil {
		return nil, errors.New("admin: nil database")
	}
	s := &Site{
		db:       opts.DB,
		prefix:   strings.TrimSuffix(opts.Prefix, "/"),
		log:      opts.Logger,
		onChange: opts.OnChange,
		now:      opts.Now,
		byName:   map[string]modelSite{},
	}
	if s.log == nil {
		s.log = logrus.New()
	}
	if s.now == nil {
		s.now = time.Now
	}

	var err error
	if s.templates, err = parseTemplates(); err != nil {
		return nil, err
	}

	for _, m := range registry(opts.Media, s.log) {
		s.register(m)
	}
	s.router = s.routes()
	return s, nil
}

func (s *Site) register(m modelSite) {
	s.models = append(s.models, m)
	s.byName[m.meta().Name] = m
}

func parseTemplates() (map[string]*template.Template, error) {
	base, err := template.ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parse admin layout: %w", err)
	}

	pages := map[string]*template.Template{}
	for _, name := range []string{"index", "list", "form", "delete", "error"} {
		t, err := base.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := t.ParseFS(templateFS, "templates/"+name+".html"); err != nil {
			return nil, fmt.Errorf("parse admin %s: %w", name, err)
		}
		pages[name] = t
	}
	return pages, nil
}

func (s *Site) routes() *mux.Router {
	r := mux.NewRouter().StrictSlash(true)
	p := s.prefix
	r.HandleFunc(p+"/", s.index).Methods(http.MethodGet)
	r.HandleFunc(p+"/{model}/", s.changeList).Methods(http.MethodGet)
	r.HandleFunc(p+"/{model}/add/", s.add).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc(p+"/{model}/{id:[0-9]+}/change/", s.change).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc(p+"/{model}/{id:[0-9]+}/delete/", s.delete).Methods(http.MethodGet, http.MethodPost)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.fail(w, r, http.StatusNotFound, nil)
	})
	return r
}

func (s *Site) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Site) render(w http.ResponseWriter, status int, name string, data *pageData) {
	data.Prefix = s.prefix
	for _, m := range s.models {
		data.Models = append(data.Models, m.meta())
	}

	buf := new(bytes.Buffer)
	if err := s.templates[name].ExecuteTemplate(buf, "base", data); err != nil {
		s.log.WithError(err).WithField("template", name).Error("Failed to render admin page")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (s *Site) fail(w http.ResponseWriter, r *http.Request, status int, err error) {
	if err != nil && status >= http.StatusInternalServerError {
		s.log.WithError(err).WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Error("Admin request failed")
	}
	s.render(w, status, "error", &pageData{Title: http.StatusText(status), Status: status})
}

func (s *Site) changed(action string, m modelMeta, id uint) {
	s.log.WithFields(logrus.Fields{
		"model":  m.Name,
		"id":     id,
		"action": action,
	}).Info("Admin change")
	if s.onChange != nil {
		s.onChange()
	}
}

func (s *Site) lookup(w http.ResponseWriter, r *http.Request) (modelSite, bool) {
	m, ok := s.byName[mux.Vars(r)["model"]]
	if !ok {
		s.fail(w, r, http.StatusNotFound, nil)
	}
	return m, ok
}

func (s *Site) listURL(m modelMeta) string {
	return s.prefix + "/" + m.Name + "/"
}

func (s *Site) index(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "index", &pageData{Title: "Site administration"})
}

func (s *Site) changeList(w http.ResponseWriter, r *http.Request) {
	m, ok := s.lookup(w, r)
	if !ok {
		return
	}
	view, err := m.list(s.db, r.URL.Query(), s.now())
	if err != nil {
		s.fail(w, r, statusFor(err), err)
		return
	}
	s.render(w, http.StatusOK, "list", &pageData{
		Title: "Select " + strings.ToLower(m.meta().Verbose) + " to change",
		Model: m.meta(),
		List:  view,
	})
}

func (s *Site) add(w http.ResponseWriter, r *http.Request) {
	m, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.edit(w, r, m, 0)
}

func (s *Site) change(w http.ResponseWriter, r *http.Request) {
	m, ok := s.lookup(w, r)
	if !ok {
		return
	}
	id, err := parseID(mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, r, http.StatusNotFound, nil)
		return
	}
	s.edit(w, r, m, id)
}

func (s *Site) edit(w http.ResponseWriter, r *http.Request, m modelSite, id uint) {
	title := "Add " + strings.ToLower(m.meta().Verbose)
	if id != 0 {
		title = "Change " + strings.ToLower(m.meta().Verbose)
	}

	if r.Method != http.MethodPost {
		var (
			view *formView
			err  error
		)
		if id == 0 {
			view, err = m.blankForm(s.db)
		} else {
			view, err = m.changeForm(s.db, id)
		}
		if err != nil {
			s.fail(w, r, statusFor(err), err)
			return
		}
		s.render(w, http.StatusOK, "form", &pageData{Title: title, Model: m.meta(), Form: view, ID: id})
		return
	}

	if err := r.ParseForm(); err != nil {
		s.fail(w, r, http.StatusBadRequest, nil)
		return
	}
	view, saved, err := m.save(s.db, id, r.PostForm)
	if err != nil {
		s.fail(w, r, statusFor(err), err)
		return
	}
	if !saved {
		s.render(w, http.StatusOK, "form", &pageData{Title: title, Model: m.meta(), Form: view, ID: id})
		return
	}

	action := "add"
	if id != 0 {
		action = "change"
	}
	s.changed(action, m.meta(), id)
	http.Redirect(w, r, s.listURL(m.meta()), http.StatusFound)
}

func (s *Site) delete(w http.ResponseWriter, r *http.Request) {
	m, ok := s.lookup(w, r)
	if !ok {
		return
	}
	id, err := parseID(mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, r, http.StatusNotFound, nil)
		return
	}

	if r.Method != http.MethodPost {
		object, err := m.object(s.db, id)
		if err != nil {
			s.fail(w, r, statusFor(err), err)
			return
		}
		s.render(w, http.StatusOK, "delete", &pageData{
			Title:  "Are you sure?",
			Model:  m.meta(),
			Object: object,
			ID:     id,
		})
		return
	}

	if err := m.remove(s.db, id); err != nil {
		s.fail(w, r, statusFor(err), err)
		return
	}
	s.changed("delete", m.meta(), id)
	http.Redirect(w, r, s.listURL(m.meta()), http.StatusFound)
}
