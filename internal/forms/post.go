package forms

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"yatube/internal/models"
)

const MaxUploadSize = 10 << 20

type GroupFinder interface {
	ByID(id uint) (*models.Group, error)
}

type Upload struct {
	Filename string
	Data     []byte
	// Format is set by Validate for a decodable image.
	Format string
}

type PostForm struct {
	Text       string
	Group      string
	Image      *Upload
	ClearImage bool

	Errors Errors

	// CleanedGroup is the resolved group after a successful Validate; nil
	// means no group.
	CleanedGroup *models.Group
}

// NewPostForm prefills a form from an existing post.
func NewPostForm(post *models.Post) *PostForm {
	f := &PostForm{Errors: Errors{}}
	if post != nil {
		f.Text = post.Text
		if post.GroupID != nil {
			f.Group = strconv.FormatUint(uint64(*post.GroupID), 10)
		}
	}
	return f
}

// ParsePostForm reads text, group and an optional image from a multipart
// or urlencoded request body.
func ParsePostForm(r *http.Request) (*PostForm, error) {
	f := &PostForm{Errors: Errors{}}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
			return nil, err
		}
	} else if err := r.ParseForm(); err != nil {
		return nil, err
	}

	f.Text = strings.TrimSpace(r.PostFormValue("text"))
	f.Group = strings.TrimSpace(r.PostFormValue("group"))
	f.ClearImage = r.PostFormValue("image-clear") != ""

	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return f, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, MaxUploadSize+1))
	if err != nil {
		return nil, err
	}
	f.Image = &Upload{Filename: header.Filename, Data: data}
	return f, nil
}

func (f *PostForm) Validate(groups GroupFinder) bool {
	if f.Errors == nil {
		f.Errors = Errors{}
	}

	if f.Text == "" {
		f.Errors.Add("text", MsgRequired)
	}

	f.CleanedGroup = nil
	if f.Group != "" {
		id, err := strconv.ParseUint(f.Group, 10, 64)
		if err != nil {
			f.Errors.Add("group", MsgInvalidChoice)
		} else if group, err := groups.ByID(uint(id)); err != nil {
			f.Errors.Add("group", MsgInvalidChoice)
		} else {
			f.CleanedGroup = group
		}
	}

	if f.Image != nil {
		switch {
		case len(f.Image.Data) == 0:
			f.Errors.Add("image", MsgEmptyFile)
		case len(f.Image.Data) > MaxUploadSize:
			f.Errors.Add("image", MsgFileTooLarge)
		default:
			format, err := DecodeImage(f.Image.Data)
			if err != nil {
				f.Errors.Add("image", MsgInvalidImage)
			} else {
				f.Image.Format = format
			}
		}
	}

	return f.Errors.Valid()
}

// Apply copies the cleaned text and group onto post. The image is handled
// by the caller since it needs storage.
func (f *PostForm) Apply(post *models.Post) {
	post.Text = f.Text
	post.Group = f.CleanedGroup
	post.GroupID = nil
	if f.CleanedGroup != nil {
		id := f.CleanedGroup.ID
		post.GroupID = &id
	}
}

// Selected reports whether the group option id is the current choice.
func (f *PostForm) Selected(id uint) bool {
	return f.Group == strconv.FormatUint(uint64(id), 10)
}
