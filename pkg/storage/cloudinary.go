package storage

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"applicant-api-io/api/pkg/models"
	"applicant-api-io/api/pkg/util"

	"github.com/cloudinary/cloudinary-go"
	"github.com/cloudinary/cloudinary-go/api/uploader"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const uploadTimeout = 40 * time.Second

var versionSegment = regexp.MustCompile(`^v\d+$`)

type cloudinaryStorage struct {
	cld    *cloudinary.Cloudinary
	folder string
}

// NewCloudinaryStorage creates a FileStorage backed by Cloudinary.
func NewCloudinaryStorage(cfg util.CloudinaryConfig) (FileStorage, error) {
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, errors.Wrap(err, "init cloudinary")
	}
	return &cloudinaryStorage{cld: cld, folder: cfg.UploadFolder}, nil
}

func (s *cloudinaryStorage) Store(ctx context.Context, r io.Reader, filename string, c Constraints) (models.FileRef, error) {
	data, m, err := c.Read(r)
	if err != nil {
		return models.FileRef{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	resourceType := "raw"
	publicID := NewPublicID(filename)
	if IsImage(m) {
		resourceType = "image"
	} else {
		publicID += m.Extension()
	}

	folder := s.folder
	if c.Folder != "" {
		folder = path.Join(folder, c.Folder)
	}

	res, err := s.cld.Upload.Upload(ctx, bytes.NewReader(data), uploader.UploadParams{
		Folder:       folder,
		PublicID:     publicID,
		ResourceType: resourceType,
	})
	if err != nil {
		return models.FileRef{}, errors.Wrap(err, "upload to cloudinary")
	}
	if res.SecureURL == "" {
		return models.FileRef{}, errors.New("cloudinary returned no url")
	}

	return models.FileRef{Name: filename, URL: res.SecureURL}, nil
}

func (s *cloudinaryStorage) DeleteByURL(ctx context.Context, rawURL string) bool {
	publicID, resourceType, err := PublicIDFromURL(rawURL)
	if err != nil {
		util.LogWarning("cannot derive public id", zap.String("url", rawURL), zap.Error(err))
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	res, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID, ResourceType: resourceType})
	if err != nil {
		util.LogError("cloudinary destroy failed", err, zap.String("public_id", publicID))
		return false
	}
	if res.Result != "ok" {
		util.LogWarning("cloudinary destroy not ok", zap.String("public_id", publicID), zap.String("result", res.Result))
		return false
	}
	return true
}

// PublicIDFromURL extracts the Cloudinary public ID and resource type from a
// delivery URL such as
// https://res.cloudinary.com/demo/image/upload/v1700000000/applicants/cv-ab12.png.
// Image IDs drop the extension; raw IDs keep it.
func PublicIDFromURL(rawURL string) (publicID, resourceType string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", errors.Wrap(err, "parse url")
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	uploadAt := -1
	for i, seg := range segments {
		if seg == "upload" && i > 0 {
			uploadAt = i
			break
		}
	}
	if uploadAt < 0 || uploadAt == len(segments)-1 {
		return "", "", errors.Errorf("not a cloudinary upload url: %s", rawURL)
	}

	resourceType = segments[uploadAt-1]
	rest := segments[uploadAt+1:]
	for i, seg := range rest {
		if versionSegment.MatchString(seg) {
			rest = rest[i+1:]
			break
		}
	}
	if len(rest) == 0 {
		return "", "", errors.Errorf("missing public id: %s", rawURL)
	}

	publicID = strings.Join(rest, "/")
	if resourceType != "raw" {
		publicID = strings.TrimSuffix(publicID, path.Ext(publicID))
	}
	return publicID, resourceType, nil
}
