package telegram

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

const (
	contentTypeForm      = "application/x-www-form-urlencoded"
	contentTypeOctetData = "application/octet-stream"
)

// Params are the arguments of one API call, keyed by wire name.
type Params map[string]any

// InputMedia is a file parameter: either a new upload (*InputFile) or a
// reference to a file the server can already reach (FileRef).
type InputMedia interface {
	inputMedia()
}

// FileRef refers to a file by HTTP URL or by the file_id of a file already
// stored on Telegram servers. It is sent as a plain text field.
type FileRef string

func (FileRef) inputMedia() {}

// InputFile is a file uploaded with multipart/form-data.
// Either Path or Reader must be set; Name defaults to the base name of Path.
type InputFile struct {
	Path   string
	Name   string
	Reader io.Reader
}

func (*InputFile) inputMedia() {}

// FileFromPath uploads a local file.
func FileFromPath(path string) *InputFile {
	return &InputFile{Path: path}
}

// FileFromReader uploads the content of r under the given file name.
func FileFromReader(name string, r io.Reader) *InputFile {
	return &InputFile{Name: name, Reader: r}
}

// FileName is the name announced in the multipart section.
func (f *InputFile) FileName() string {
	if f.Name != "" {
		return f.Name
	}
	if f.Path != "" {
		return filepath.Base(f.Path)
	}
	return "file"
}

// ContentType guesses the MIME type from the file name extension.
func (f *InputFile) ContentType() string {
	if ct := mime.TypeByExtension(filepath.Ext(f.FileName())); ct != "" {
		return ct
	}
	return contentTypeOctetData
}

func (f *InputFile) open() (io.ReadCloser, error) {
	if f.Reader != nil {
		if rc, ok := f.Reader.(io.ReadCloser); ok {
			return rc, nil
		}
		return io.NopCloser(f.Reader), nil
	}
	if f.Path == "" {
		return nil, fmt.Errorf("input file %q has neither path nor reader", f.FileName())
	}
	return os.Open(f.Path)
}

// hasUploads reports whether any parameter needs a multipart body.
func (p Params) hasUploads() bool {
	for _, v := range p {
		if f, ok := v.(*InputFile); ok && f != nil {
			return true
		}
	}
	return false
}

func (p Params) sortedKeys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// encode renders the parameters as a request body and returns its content type.
func (p Params) encode() (io.Reader, string, error) {
	if p.hasUploads() {
		return p.encodeMultipart()
	}

	values := url.Values{}
	for _, k := range p.sortedKeys() {
		s, ok, err := formatParam(p[k])
		if err != nil {
			return nil, "", fmt.Errorf("param %s: %w", k, err)
		}
		if ok {
			values.Set(k, s)
		}
	}
	return strings.NewReader(values.Encode()), contentTypeForm, nil
}

func (p Params) encodeMultipart() (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, k := range p.sortedKeys() {
		if f, ok := p[k].(*InputFile); ok && f != nil {
			if err := writeFilePart(w, k, f); err != nil {
				return nil, "", fmt.Errorf("param %s: %w", k, err)
			}
			continue
		}
		s, ok, err := formatParam(p[k])
		if err != nil {
			return nil, "", fmt.Errorf("param %s: %w", k, err)
		}
		if !ok {
			continue
		}
		if err := w.WriteField(k, s); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func writeFilePart(w *multipart.Writer, field string, f *InputFile) error {
	rc, err := f.open()
	if err != nil {
		return err
	}
	defer rc.Close()

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(field), quoteEscaper.Replace(f.FileName())))
	h.Set("Content-Type", f.ContentType())

	part, err := w.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = io.Copy(part, rc)
	return err
}

// formatParam renders one parameter value as form text. It reports false
// for values that must be omitted.
func formatParam(v any) (string, bool, error) {
	switch x := v.(type) {
	case nil:
		return "", false, nil
	case string:
		return x, true, nil
	case FileRef:
		return string(x), true, nil
	case json.Number:
		return x.String(), true, nil
	case *InputFile:
		if x == nil {
			return "", false, nil
		}
		return "", false, fmt.Errorf("file upload %q needs a multipart body", x.FileName())
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return "", false, nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.String:
		return rv.String(), true, nil
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), true, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), true, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), true, nil
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64), true, nil
	case reflect.Slice, reflect.Map:
		if rv.IsNil() {
			return "", false, nil
		}
	}

	data, err := json.Marshal(rv.Interface())
	if err != nil {
		return "", false, fmt.Errorf("failed to marshal: %w", err)
	}
	return string(data), true, nil
}
