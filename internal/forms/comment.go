package forms

import (
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"yatube/internal/models"
)

type CommentForm struct {
	Text   string
	Errors Errors
}

func NewCommentForm() *CommentForm {
	return &CommentForm{Errors: Errors{}}
}

func ParseCommentForm(r *http.Request) (*CommentForm, error) {
	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	return &CommentForm{
		Text:   strings.TrimSpace(r.PostFormValue("text")),
		Errors: Errors{},
	}, nil
}

func (f *CommentForm) Validate() bool {
	if f.Errors == nil {
		f.Errors = Errors{}
	}
	n := utf8.RuneCountInString(f.Text)
	switch {
	case n == 0:
		f.Errors.Add("text", MsgRequired)
	case n > models.CommentMaxLength:
		f.Errors.Add("text", fmt.Sprintf("Ensure this value has at most %d characters (it has %d).",
			models.CommentMaxLength, n))
	}
	return f.Errors.Valid()
}
