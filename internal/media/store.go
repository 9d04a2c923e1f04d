package media

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"github.com/shinyyama/market-backend/internal/model"
	"google.golang.org/api/option"
)

var ErrNotConfigured = errors.New("media storage is not configured")

// Store keeps uploaded images and hands back a public handle for each.
type Store interface {
	Upload(ctx context.Context, encoded, folder string, width int) (model.Asset, error)
	Destroy(ctx context.Context, publicID string) error
}

type gcsStore struct {
	client *storage.Client
	bucket string
}

// New returns a Cloud Storage backed store, or a disabled one when bucket is empty.
func New(ctx context.Context, bucket, credentialsFile string) (Store, func() error, error) {
	if bucket == "" {
		return Disabled{}, func() error { return nil }, nil
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, nil, err
	}
	return &gcsStore{client: client, bucket: bucket}, client.Close, nil
}

func (s *gcsStore) Upload(ctx context.Context, encoded, folder string, width int) (model.Asset, error) {
	raw, err := DecodeDataURI(encoded)
	if err != nil {
		return model.Asset{}, err
	}
	data, contentType, ext, err := Prepare(raw, width)
	if err != nil {
		return model.Asset{}, err
	}
	objectPath := path.Join(folder, uuid.NewString()+"."+ext)
	token := uuid.NewString()

	w := s.client.Bucket(s.bucket).Object(objectPath).NewWriter(ctx)
	w.ContentType = contentType
	w.Metadata = map[string]string{
		"firebaseStorageDownloadTokens": token,
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return model.Asset{}, err
	}
	if err := w.Close(); err != nil {
		return model.Asset{}, err
	}
	return model.Asset{PublicID: objectPath, URL: PublicURL(s.bucket, objectPath, token)}, nil
}

func (s *gcsStore) Destroy(ctx context.Context, publicID string) error {
	if publicID == "" {
		return nil
	}
	err := s.client.Bucket(s.bucket).Object(publicID).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil
	}
	return err
}

func PublicURL(bucket, objectPath, token string) string {
	return fmt.Sprintf("https://firebasestorage.googleapis.com/v0/b/%s/o/%s?alt=media&token=%s",
		bucket, url.PathEscape(objectPath), token)
}

// Disabled rejects uploads and ignores deletes.
type Disabled struct{}

func (Disabled) Upload(context.Context, string, string, int) (model.Asset, error) {
	return model.Asset{}, ErrNotConfigured
}

func (Disabled) Destroy(context.Context, string) error {
	return nil
}
