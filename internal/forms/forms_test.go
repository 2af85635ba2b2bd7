package forms

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"yatube/internal/models"
)

type fakeGroups map[uint]*models.Group

func (g fakeGroups) ByID(id uint) (*models.Group, error) {
	if group, ok := g[id]; ok {
		return group, nil
	}
	return nil, errors.New("group not found")
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestDecodeImage(t *testing.T) {
	data := pngBytes(t)

	format, err := DecodeImage(data)
	if err != nil || format != "png" {
		t.Fatalf("DecodeImage(png) = %q, %v", format, err)
	}

	for name, payload := range map[string][]byte{
		"text":      []byte("just some text, not a picture\n"),
		"empty":     {},
		"truncated": data[:len(data)/2],
	} {
		if _, err := DecodeImage(payload); !errors.Is(err, ErrInvalidImage) {
			t.Errorf("DecodeImage(%s) = %v, want ErrInvalidImage", name, err)
		}
	}
}

// grayPNG builds an all-black 8-bit grayscale PNG chunk by chunk, so huge
// dimensions stay cheap to produce while still decoding successfully.
func grayPNG(t *testing.T, width, height int) []byte {
	t.Helper()
	var out bytes.Buffer
	out.WriteString("\x89PNG\r\n\x1a\n")
	chunk := func(kind string, data []byte) {
		binary.Write(&out, binary.BigEndian, uint32(len(data)))
		crc := crc32.NewIEEE()
		crc.Write([]byte(kind))
		crc.Write(data)
		out.WriteString(kind)
		out.Write(data)
		binary.Write(&out, binary.BigEndian, crc.Sum32())
	}

	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:], uint32(width))
	binary.BigEndian.PutUint32(ihdr[4:], uint32(height))
	ihdr[8] = 8 // bit depth, color type 0 is grayscale
	chunk("IHDR", ihdr)

	var idat bytes.Buffer
	zw := zlib.NewWriter(&idat)
	row := make([]byte, width+1) // leading filter byte
	for y := 0; y < height; y++ {
		if _, err := zw.Write(row); err != nil {
			t.Fatalf("compress row: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("compress: %v", err)
	}
	chunk("IDAT", idat.Bytes())
	chunk("IEND", nil)
	return out.Bytes()
}

func TestDecodeImageRejectsTooManyPixels(t *testing.T) {
	if _, err := DecodeImage(grayPNG(t, 16, 16)); err != nil {
		t.Fatalf("small grayscale png rejected: %v", err)
	}

	// 9460*9460 is just above MaxImagePixels
	huge := grayPNG(t, 9460, 9460)
	if len(huge) > MaxUploadSize {
		t.Fatalf("fixture is %d bytes, want it under the upload limit", len(huge))
	}
	if _, err := DecodeImage(huge); !errors.Is(err, ErrInvalidImage) {
		t.Fatalf("DecodeImage(9460x9460) = %v, want ErrInvalidImage", err)
	}

	f := &PostForm{Text: "bomb", Image: &Upload{Filename: "bomb.png", Data: huge}}
	if f.Validate(fakeGroups{}) {
		t.Fatal("form with a decompression bomb validated")
	}
	if got := f.Errors.Get("image"); got != MsgInvalidImage {
		t.Errorf("image error = %q, want %q", got, MsgInvalidImage)
	}
}

func TestPostFormValidate(t *testing.T) {
	groups := fakeGroups{1: {ID: 1, Title: "tester", Slug: "test"}}

	tests := []struct {
		name   string
		form   PostForm
		valid  bool
		field  string
		errMsg string
	}{
		{name: "text only", form: PostForm{Text: "T"}, valid: true},
		{name: "with group", form: PostForm{Text: "T", Group: "1"}, valid: true},
		{name: "missing text", form: PostForm{}, field: "text", errMsg: MsgRequired},
		{name: "unknown group", form: PostForm{Text: "T", Group: "7"}, field: "group", errMsg: MsgInvalidChoice},
		{name: "garbage group", form: PostForm{Text: "T", Group: "x"}, field: "group", errMsg: MsgInvalidChoice},
		{
			name:   "text as image",
			form:   PostForm{Text: "bla", Image: &Upload{Filename: "123.txt", Data: []byte("hello")}},
			field:  "image",
			errMsg: MsgInvalidImage,
		},
		{
			name:   "empty upload",
			form:   PostForm{Text: "bla", Image: &Upload{Filename: "a.png"}},
			field:  "image",
			errMsg: MsgEmptyFile,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := tt.form
			if got := f.Validate(groups); got != tt.valid {
				t.Fatalf("Validate = %v, want %v (errors %v)", got, tt.valid, f.Errors)
			}
			if tt.field != "" && f.Errors.Get(tt.field) != tt.errMsg {
				t.Errorf("error on %s = %q, want %q", tt.field, f.Errors.Get(tt.field), tt.errMsg)
			}
		})
	}
}

func TestPostFormValidImage(t *testing.T) {
	f := PostForm{Text: "bla", Image: &Upload{Filename: "pic.png", Data: pngBytes(t)}}
	if !f.Validate(fakeGroups{}) {
		t.Fatalf("Validate: %v", f.Errors)
	}
	if f.Image.Format != "png" {
		t.Errorf("Format = %q", f.Image.Format)
	}
}

func TestPostFormApply(t *testing.T) {
	groups := fakeGroups{3: {ID: 3, Title: "tester", Slug: "test"}}
	gid := uint(9)
	post := &models.Post{Text: "old", GroupID: &gid}

	f := PostForm{Text: "new", Group: "3"}
	if !f.Validate(groups) {
		t.Fatalf("Validate: %v", f.Errors)
	}
	f.Apply(post)
	if post.Text != "new" || post.GroupID == nil || *post.GroupID != 3 {
		t.Errorf("Apply = %+v", post)
	}

	f = PostForm{Text: "ungrouped"}
	f.Validate(groups)
	f.Apply(post)
	if post.GroupID != nil {
		t.Errorf("GroupID = %v, want nil", *post.GroupID)
	}
}

func TestNewPostFormPrefill(t *testing.T) {
	gid := uint(4)
	f := NewPostForm(&models.Post{Text: "hello", GroupID: &gid})
	if f.Text != "hello" || !f.Selected(4) || f.Selected(5) {
		t.Errorf("prefill = %+v", f)
	}
}

func TestParsePostFormMultipart(t *testing.T) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	mw.WriteField("text", "  padded  ")
	mw.WriteField("group", "2")
	fw, _ := mw.CreateFormFile("image", "pic.png")
	fw.Write(pngBytes(t))
	mw.Close()

	r := httptest.NewRequest(http.MethodPost, "/new/", &body)
	r.Header.Set("Content-Type", mw.FormDataContentType())

	f, err := ParsePostForm(r)
	if err != nil {
		t.Fatalf("ParsePostForm: %v", err)
	}
	if f.Text != "padded" || f.Group != "2" {
		t.Errorf("fields = %q %q", f.Text, f.Group)
	}
	if f.Image == nil || f.Image.Filename != "pic.png" || len(f.Image.Data) == 0 {
		t.Errorf("image = %+v", f.Image)
	}
}

func TestParsePostFormURLEncoded(t *testing.T) {
	values := url.Values{"text": {"T"}, "image-clear": {"on"}}
	r := httptest.NewRequest(http.MethodPost, "/new/", strings.NewReader(values.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	f, err := ParsePostForm(r)
	if err != nil {
		t.Fatalf("ParsePostForm: %v", err)
	}
	if f.Text != "T" || f.Image != nil || !f.ClearImage {
		t.Errorf("form = %+v", f)
	}
}

func TestCommentForm(t *testing.T) {
	f := &CommentForm{Text: "nice"}
	if !f.Validate() {
		t.Errorf("valid comment rejected: %v", f.Errors)
	}

	f = &CommentForm{}
	if f.Validate() || f.Errors.Get("text") != MsgRequired {
		t.Errorf("empty comment errors = %v", f.Errors)
	}

	f = &CommentForm{Text: strings.Repeat("ж", models.CommentMaxLength)}
	if !f.Validate() {
		t.Errorf("comment at the limit rejected: %v", f.Errors)
	}

	f = &CommentForm{Text: strings.Repeat("a", models.CommentMaxLength+1)}
	if f.Validate() {
		t.Fatal("over-long comment accepted")
	}
	want := "Ensure this value has at most 280 characters (it has 281)."
	if got := f.Errors.Get("text"); got != want {
		t.Errorf("error = %q, want %q", got, want)
	}
}
