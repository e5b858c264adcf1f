package telegram

import (
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInputFile_ContentType(t *testing.T) {
	tests := []struct {
		name string
		file *InputFile
		want string
	}{
		{"png by name", FileFromReader("cat.png", strings.NewReader("")), "image/png"},
		{"jpeg by path", FileFromPath("/tmp/photos/dog.jpg"), "image/jpeg"},
		{"unknown extension", FileFromReader("blob.zzzunknown", strings.NewReader("")), "application/octet-stream"},
		{"no extension", FileFromReader("README", strings.NewReader("")), "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.file.ContentType())
		})
	}
}

func TestInputFile_FileName(t *testing.T) {
	assert.Equal(t, "dog.jpg", FileFromPath("/tmp/photos/dog.jpg").FileName())
	assert.Equal(t, "renamed.jpg", (&InputFile{Path: "/tmp/dog.jpg", Name: "renamed.jpg"}).FileName())
	assert.Equal(t, "file", (&InputFile{}).FileName())
}

func TestParams_FormEncoding(t *testing.T) {
	thread := 3
	params := Params{
		"chat_id":           int64(-100123),
		"message_thread_id": &thread,
		"text":              "a & b",
		"parse_mode":        ParseModeMarkdownV2,
		"silent":            true,
		"latitude":          52.5,
		"photo":             FileRef("https://example.com/cat.jpg"),
		"allowed_updates":   []string{"message", "poll"},
		"skipped":           nil,
		"nil_pointer":       (*int)(nil),
		"nil_upload":        (*InputFile)(nil),
	}

	body, contentType, err := params.encode()
	require.NoError(t, err)
	assert.Equal(t, "application/x-www-form-urlencoded", contentType)

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	values, err := url.ParseQuery(string(data))
	require.NoError(t, err)

	assert.Equal(t, "-100123", values.Get("chat_id"))
	assert.Equal(t, "3", values.Get("message_thread_id"))
	assert.Equal(t, "a & b", values.Get("text"))
	assert.Equal(t, "MarkdownV2", values.Get("parse_mode"))
	assert.Equal(t, "true", values.Get("silent"))
	assert.Equal(t, "52.5", values.Get("latitude"))
	assert.Equal(t, "https://example.com/cat.jpg", values.Get("photo"))
	assert.Equal(t, `["message","poll"]`, values.Get("allowed_updates"))
	assert.False(t, values.Has("skipped"))
	assert.False(t, values.Has("nil_pointer"))
	assert.False(t, values.Has("nil_upload"))
}

func TestParams_NilUploadIsOmitted(t *testing.T) {
	var media InputMedia = (*InputFile)(nil)
	params := Params{"chat_id": int64(42), "photo": media}

	body, contentType, err := params.encode()
	require.NoError(t, err)
	assert.Equal(t, "application/x-www-form-urlencoded", contentType)

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "chat_id=42", string(data))
}

func TestParams_MultipartFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello file"), 0o644))

	params := Params{
		"chat_id":  int64(1),
		"document": FileFromPath(path),
		"caption":  "see attached",
	}
	require.True(t, params.hasUploads())

	body, contentType, err := params.encode()
	require.NoError(t, err)

	mediaType, mparams, err := mime.ParseMediaType(contentType)
	require.NoError(t, err)
	assert.Equal(t, "multipart/form-data", mediaType)
	require.NotEmpty(t, mparams["boundary"])

	form, err := multipart.NewReader(body, mparams["boundary"]).ReadForm(1 << 20)
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, form.Value["chat_id"])
	assert.Equal(t, []string{"see attached"}, form.Value["caption"])

	require.Len(t, form.File["document"], 1)
	fh := form.File["document"][0]
	assert.Equal(t, "notes.txt", fh.Filename)
	assert.True(t, strings.HasPrefix(fh.Header.Get("Content-Type"), "text/plain"))

	f, err := fh.Open()
	require.NoError(t, err)
	defer f.Close()
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "hello file", string(data))
}

func TestParams_MultipartBoundaryIsRandom(t *testing.T) {
	newParams := func() Params {
		return Params{"photo": FileFromReader("a.png", strings.NewReader("x"))}
	}
	_, ct1, err := newParams().encode()
	require.NoError(t, err)
	_, ct2, err := newParams().encode()
	require.NoError(t, err)
	assert.NotEqual(t, ct1, ct2)
}

func TestParams_MissingFile(t *testing.T) {
	params := Params{"document": FileFromPath(filepath.Join(t.TempDir(), "missing.bin"))}
	_, _, err := params.encode()
	assert.Error(t, err)
}

func TestFormatParam_Structs(t *testing.T) {
	s, ok, err := formatParam([]BotCommand{{Command: "start", Description: "Start"}})
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `[{"command":"start","description":"Start"}]`, s)

	s, ok, err = formatParam(json.Number("12345678901234567890"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "12345678901234567890", s)

	_, ok, err = formatParam([]string(nil))
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = formatParam(FileFromPath("x.png"))
	assert.Error(t, err)
}
