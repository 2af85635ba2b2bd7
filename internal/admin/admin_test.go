package admin

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"gorm.io/gorm"

	"yatube/internal/media"
	"yatube/internal/models"
	"yatube/internal/store"
)

var dbSeq int64

type testSite struct {
	site    *Site
	db      *gorm.DB
	files   *media.Storage
	changes int
}

func newTestSite(t *testing.T, now time.Time) *testSite {
	t.Helper()
	db, err := store.OpenMemory(fmt.Sprintf("admin_test_%d", atomic.AddInt64(&dbSeq, 1)))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := store.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	files, err := media.New(t.TempDir())
	if err != nil {
		t.Fatalf("media: %v", err)
	}

	ts := &testSite{db: db, files: files}
	ts.site, err = New(Options{
		DB:       db,
		Prefix:   "/admin",
		OnChange: func() { ts.changes++ },
		Now:      func() time.Time { return now },
		Media:    files,
	})
	if err != nil {
		t.Fatalf("new site: %v", err)
	}
	return ts
}

func (ts *testSite) get(t *testing.T, path string) (int, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	ts.site.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	body, _ := io.ReadAll(rec.Body)
	return rec.Code, string(body)
}

func (ts *testSite) post(t *testing.T, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	ts.site.ServeHTTP(rec, req)
	return rec
}

func (ts *testSite) user(t *testing.T, name string) *models.User {
	t.Helper()
	u := &models.User{Username: name, PWHash: "x"}
	if err := ts.db.Create(u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func (ts *testSite) postBy(t *testing.T, author *models.User, text string, group *models.Group) *models.Post {
	t.Helper()
	p := &models.Post{Text: text, AuthorID: author.ID}
	if group != nil {
		p.GroupID = &group.ID
	}
	if err := ts.db.Omit("Author", "Group").Create(p).Error; err != nil {
		t.Fatalf("create post: %v", err)
	}
	return p
}

func assertContains(t *testing.T, body, want string) {
	t.Helper()
	if !strings.Contains(body, want) {
		t.Errorf("expected %q in body:\n%s", want, body)
	}
}

func assertNotContains(t *testing.T, body, unwanted string) {
	t.Helper()
	if strings.Contains(body, unwanted) {
		t.Errorf("did not expect %q in body", unwanted)
	}
}

func TestIndexListsModels(t *testing.T) {
	ts := newTestSite(t, time.Now())
	code, body := ts.get(t, "/admin/")
	if code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	for _, name := range []string{"groups", "posts", "comments", "follows"} {
		assertContains(t, body, "/admin/"+name+"/")
	}
}

func TestUnknownModelIsNotFound(t *testing.T) {
	ts := newTestSite(t, time.Now())
	if code, _ := ts.get(t, "/admin/users/"); code != http.StatusNotFound {
		t.Fatalf("status %d, want 404", code)
	}
	if code, _ := ts.get(t, "/admin/posts/999/change/"); code != http.StatusNotFound {
		t.Fatalf("status %d, want 404", code)
	}
}

func TestPostListShowsEmptyValue(t *testing.T) {
	ts := newTestSite(t, time.Now())
	author := ts.user(t, "leo")
	ts.postBy(t, author, "groupless post", nil)

	code, body := ts.get(t, "/admin/posts/")
	if code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	assertContains(t, body, "groupless post")
	assertContains(t, body, "leo")
	assertContains(t, body, "-empty-")
}

func TestSearchIsCaseInsensitive(t *testing.T) {
	ts := newTestSite(t, time.Now())
	author := ts.user(t, "leo")
	ts.postBy(t, author, "Hello World", nil)
	ts.postBy(t, author, "something else", nil)

	_, body := ts.get(t, "/admin/posts/?q=hello")
	assertContains(t, body, "Hello World")
	assertNotContains(t, body, "something else")
}

func TestSearchTreatsWildcardsLiterally(t *testing.T) {
	ts := newTestSite(t, time.Now())
	author := ts.user(t, "leo")
	ts.postBy(t, author, "100% sure", nil)
	ts.postBy(t, author, "100 percent sure", nil)
	ts.postBy(t, author, "snake_case", nil)
	ts.postBy(t, author, "snakeXcase", nil)

	_, body := ts.get(t, "/admin/posts/?q="+url.QueryEscape("100%"))
	assertContains(t, body, "100% sure")
	assertNotContains(t, body, "100 percent sure")

	_, body = ts.get(t, "/admin/posts/?q=snake_case")
	assertContains(t, body, "snake_case")
	assertNotContains(t, body, "snakeXcase")
}

func TestFollowSearchByAuthorName(t *testing.T) {
	ts := newTestSite(t, time.Now())
	reader := ts.user(t, "reader")
	leo := ts.user(t, "leo")
	maxim := ts.user(t, "max")
	ts.db.Create(&models.Follow{UserID: reader.ID, AuthorID: leo.ID})
	ts.db.Create(&models.Follow{UserID: reader.ID, AuthorID: maxim.ID})

	_, body := ts.get(t, "/admin/follows/?q=LEO")
	assertContains(t, body, "<td>leo</td>")
	assertNotContains(t, body, "<td>max</td>")
}

func TestDateFilter(t *testing.T) {
	now := time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)
	ts := newTestSite(t, now)
	author := ts.user(t, "leo")
	recent := ts.postBy(t, author, "recent post", nil)
	old := ts.postBy(t, author, "old post", nil)
	ts.db.Model(recent).UpdateColumn("pub_date", now.Add(-time.Hour))
	ts.db.Model(old).UpdateColumn("pub_date", now.AddDate(-1, 0, 0))

	_, body := ts.get(t, "/admin/posts/?pub_date=this_year")
	assertContains(t, body, "recent post")
	assertNotContains(t, body, "old post")

	_, body = ts.get(t, "/admin/posts/?pub_date=bogus")
	assertContains(t, body, "recent post")
	assertContains(t, body, "old post")
}

func TestDateSince(t *testing.T) {
	now := time.Date(2024, time.June, 15, 12, 30, 0, 0, time.UTC)
	tests := []struct {
		value string
		want  time.Time
	}{
		{"today", time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC)},
		{"past_7_days", time.Date(2024, time.June, 8, 0, 0, 0, 0, time.UTC)},
		{"this_month", time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)},
		{"this_year", time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, ok := dateSince(tt.value, now)
		if !ok || !got.Equal(tt.want) {
			t.Errorf("dateSince(%q) = %v, %v; want %v", tt.value, got, ok, tt.want)
		}
	}
	if _, ok := dateSince("", now); ok {
		t.Error("empty value must not filter")
	}
}

func TestListPaginatesBy25(t *testing.T) {
	ts := newTestSite(t, time.Now())
	author := ts.user(t, "leo")
	for i := 0; i < RowsPerPage+2; i++ {
		ts.postBy(t, author, fmt.Sprintf("post %02d", i), nil)
	}

	_, body := ts.get(t, "/admin/posts/")
	assertContains(t, body, "Page 1 of 2.")
	_, body = ts.get(t, "/admin/posts/?page=2")
	assertContains(t, body, "Page 2 of 2.")
	assertContains(t, body, "post 00")
	assertNotContains(t, body, "post 26")
}

func TestAddGroupPrepopulatesSlug(t *testing.T) {
	ts := newTestSite(t, time.Now())

	rec := ts.post(t, "/admin/groups/add/", url.Values{
		"title":       {"Cats and Dogs"},
		"description": {"pets"},
	})
	if rec.Code != http.StatusFound {
		t.Fatalf("status %d, body %s", rec.Code, rec.Body.String())
	}
	if loc := rec.Header().Get("Location"); loc != "/admin/groups/" {
		t.Errorf("redirect to %q", loc)
	}

	var g models.Group
	if err := ts.db.First(&g).Error; err != nil {
		t.Fatalf("group not created: %v", err)
	}
	if g.Slug != "cats-and-dogs" {
		t.Errorf("slug %q, want cats-and-dogs", g.Slug)
	}
	if ts.changes != 1 {
		t.Errorf("OnChange called %d times, want 1", ts.changes)
	}
}

func TestAddRejectsMissingFields(t *testing.T) {
	ts := newTestSite(t, time.Now())

	rec := ts.post(t, "/admin/posts/add/", url.Values{"text": {""}})
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	assertContains(t, rec.Body.String(), "This field is required.")

	var count int64
	ts.db.Model(&models.Post{}).Count(&count)
	if count != 0 || ts.changes != 0 {
		t.Errorf("count %d, changes %d; want no mutation", count, ts.changes)
	}
}

func TestAddDuplicateFollowShowsError(t *testing.T) {
	ts := newTestSite(t, time.Now())
	reader := ts.user(t, "reader")
	leo := ts.user(t, "leo")
	form := url.Values{
		"user":   {formatID(reader.ID)},
		"author": {formatID(leo.ID)},
	}

	if rec := ts.post(t, "/admin/follows/add/", form); rec.Code != http.StatusFound {
		t.Fatalf("first add status %d", rec.Code)
	}
	rec := ts.post(t, "/admin/follows/add/", form)
	if rec.Code != http.StatusOK {
		t.Fatalf("duplicate add status %d", rec.Code)
	}
	assertContains(t, rec.Body.String(), "already exists")

	var count int64
	ts.db.Model(&models.Follow{}).Count(&count)
	if count != 1 {
		t.Errorf("follow count %d, want 1", count)
	}
}

func TestChangePostKeepsPubDate(t *testing.T) {
	ts := newTestSite(t, time.Now())
	author := ts.user(t, "leo")
	group := &models.Group{Title: "Cats", Slug: "cats", Description: "d"}
	ts.db.Create(group)
	p := ts.postBy(t, author, "before", nil)

	var before models.Post
	ts.db.First(&before, p.ID)

	path := fmt.Sprintf("/admin/posts/%d/change/", p.ID)
	code, body := ts.get(t, path)
	if code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	assertContains(t, body, "before")

	rec := ts.post(t, path, url.Values{
		"text":   {"after"},
		"author": {formatID(author.ID)},
		"group":  {formatID(group.ID)},
	})
	if rec.Code != http.StatusFound {
		t.Fatalf("status %d, body %s", rec.Code, rec.Body.String())
	}

	var after models.Post
	ts.db.First(&after, p.ID)
	if after.Text != "after" || after.GroupID == nil || *after.GroupID != group.ID {
		t.Errorf("post not updated: %+v", after)
	}
	if !after.PubDate.Equal(before.PubDate) {
		t.Errorf("pub date changed from %v to %v", before.PubDate, after.PubDate)
	}
}

func TestAddRejectsLongComment(t *testing.T) {
	ts := newTestSite(t, time.Now())
	author := ts.user(t, "leo")
	p := ts.postBy(t, author, "post", nil)

	rec := ts.post(t, "/admin/comments/add/", url.Values{
		"post":   {formatID(p.ID)},
		"author": {formatID(author.ID)},
		"text":   {strings.Repeat("a", models.CommentMaxLength+1)},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	assertContains(t, rec.Body.String(), "at most 280 characters")
}

func TestDeleteFollow(t *testing.T) {
	ts := newTestSite(t, time.Now())
	reader := ts.user(t, "reader")
	leo := ts.user(t, "leo")
	f := &models.Follow{UserID: reader.ID, AuthorID: leo.ID}
	ts.db.Create(f)

	path := fmt.Sprintf("/admin/follows/%d/delete/", f.ID)
	code, body := ts.get(t, path)
	if code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	assertContains(t, body, "reader follows leo")

	if rec := ts.post(t, path, url.Values{}); rec.Code != http.StatusFound {
		t.Fatalf("status %d", rec.Code)
	}
	var count int64
	ts.db.Model(&models.Follow{}).Count(&count)
	if count != 0 {
		t.Errorf("follow count %d, want 0", count)
	}
	if rec := ts.post(t, path, url.Values{}); rec.Code != http.StatusNotFound {
		t.Errorf("second delete status %d, want 404", rec.Code)
	}
}

func (ts *testSite) postWithImage(t *testing.T, author *models.User, text string) *models.Post {
	t.Helper()
	rel, err := ts.files.Save([]byte("not decoded here"), "png")
	if err != nil {
		t.Fatalf("save image: %v", err)
	}
	p := &models.Post{Text: text, AuthorID: author.ID, Image: rel}
	if err := ts.db.Omit("Author", "Group").Create(p).Error; err != nil {
		t.Fatalf("create post: %v", err)
	}
	return p
}

func TestChangePostClearsImage(t *testing.T) {
	ts := newTestSite(t, time.Now())
	author := ts.user(t, "leo")
	p := ts.postWithImage(t, author, "illustrated")
	path := fmt.Sprintf("/admin/posts/%d/change/", p.ID)

	_, body := ts.get(t, path)
	assertContains(t, body, `name="image-clear"`)

	form := url.Values{
		"text":   {"illustrated"},
		"author": {formatID(author.ID)},
	}
	if rec := ts.post(t, path, form); rec.Code != http.StatusFound {
		t.Fatalf("status %d", rec.Code)
	}
	var kept models.Post
	ts.db.First(&kept, p.ID)
	if kept.Image != p.Image || !ts.files.Exists(p.Image) {
		t.Fatalf("image %q lost without clearing", p.Image)
	}

	form.Set("image-clear", "on")
	if rec := ts.post(t, path, form); rec.Code != http.StatusFound {
		t.Fatalf("status %d", rec.Code)
	}
	var cleared models.Post
	ts.db.First(&cleared, p.ID)
	if cleared.Image != "" {
		t.Errorf("image %q not cleared", cleared.Image)
	}
	if ts.files.Exists(p.Image) {
		t.Errorf("file %s left behind", p.Image)
	}
}

func TestDeletePostRemovesImage(t *testing.T) {
	ts := newTestSite(t, time.Now())
	author := ts.user(t, "leo")
	p := ts.postWithImage(t, author, "illustrated")

	rec := ts.post(t, fmt.Sprintf("/admin/posts/%d/delete/", p.ID), url.Values{})
	if rec.Code != http.StatusFound {
		t.Fatalf("status %d", rec.Code)
	}
	if ts.files.Exists(p.Image) {
		t.Errorf("file %s left behind", p.Image)
	}
}
