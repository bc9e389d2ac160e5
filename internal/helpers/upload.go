package helpers

import (
	"mime/multipart"
	"net/http"
	"strings"

	"applicant-api-io/api/internal/common"
	"applicant-api-io/api/pkg/storage"
	"applicant-api-io/api/pkg/util"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

// Files holds the uploads read from a multipart request. Close releases
// every opened part and must be called once the request is served.
type Files struct {
	opened []multipart.File
	byName map[string]storage.Upload
	order  []string
}

func (f *Files) Close() {
	for _, file := range f.opened {
		_ = file.Close()
	}
	f.opened = nil
}

// Get returns the upload sent under field, or nil.
func (f *Files) Get(field string) *storage.Upload {
	u, ok := f.byName[field]
	if !ok {
		return nil
	}
	return &u
}

// All returns the uploads in the order of the fields they were read for.
func (f *Files) All() []storage.Upload {
	uploads := make([]storage.Upload, 0, len(f.order))
	for _, name := range f.order {
		uploads = append(uploads, f.byName[name])
	}
	return uploads
}

// IsMultipart reports whether the request carries a multipart body.
func IsMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/form-data")
}

// ReadFiles opens the first file of each named form field. Fields without
// a file are skipped. Requests that are not multipart yield no files.
func ReadFiles(c *gin.Context, fields ...string) (*Files, error) {
	files := &Files{byName: map[string]storage.Upload{}}
	if !IsMultipart(c) {
		return files, nil
	}

	if err := c.Request.ParseMultipartForm(common.MAX_MULTIPART_MEMORY); err != nil {
		return nil, util.BadRequest("Failed to parse multipart form")
	}

	for _, field := range fields {
		headers := c.Request.MultipartForm.File[field]
		if len(headers) == 0 {
			continue
		}
		fh := headers[0]
		file, err := fh.Open()
		if err != nil {
			files.Close()
			return nil, util.Internal(errors.Wrapf(err, "open %s", field), "read upload")
		}
		files.opened = append(files.opened, file)
		files.byName[field] = storage.Upload{Field: field, Filename: fh.Filename, Body: file}
		files.order = append(files.order, field)
	}
	return files, nil
}

// RequireFile is ReadFiles for a single mandatory field.
func RequireFile(c *gin.Context, field string) (*Files, *storage.Upload, bool) {
	files, err := ReadFiles(c, field)
	if err != nil {
		util.HandleError(c, http.StatusBadRequest, err)
		return nil, nil, false
	}
	upload := files.Get(field)
	if upload == nil {
		files.Close()
		util.HandleError(c, http.StatusBadRequest, util.Invalid([]util.FieldError{{Path: field, Message: field + " is required"}}))
		return nil, nil, false
	}
	return files, upload, true
}
