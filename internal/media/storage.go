package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var (
	errEndpointRequired    = errors.New("media endpoint is required")
	errBucketRequired      = errors.New("media bucket is required")
	errCredentialsRequired = errors.New("media access key and secret key are required")
)

// Config carries the S3-compatible storage settings.
type Config struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	Region        string
	UseSSL        bool
	PublicBaseURL string
}

// Configured reports whether enough settings are present to build a client.
func (config Config) Configured() bool {
	return strings.TrimSpace(config.Endpoint) != "" && strings.TrimSpace(config.Bucket) != ""
}

type objectClient interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// Storage uploads admin media into a single bucket and returns public URLs.
type Storage struct {
	client        objectClient
	bucket        string
	region        string
	publicBaseURL string
}

// New creates a MinIO client from config.
func New(config Config) (*Storage, error) {
	endpoint := strings.TrimSpace(config.Endpoint)
	if endpoint == "" {
		return nil, errEndpointRequired
	}
	if strings.TrimSpace(config.Bucket) == "" {
		return nil, errBucketRequired
	}
	if strings.TrimSpace(config.AccessKey) == "" || strings.TrimSpace(config.SecretKey) == "" {
		return nil, errCredentialsRequired
	}
	client, clientErr := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.AccessKey, config.SecretKey, ""),
		Secure: config.UseSSL,
		Region: config.Region,
	})
	if clientErr != nil {
		return nil, fmt.Errorf("init minio: %w", clientErr)
	}
	return newStorage(client, config), nil
}

func newStorage(client objectClient, config Config) *Storage {
	return &Storage{
		client:        client,
		bucket:        strings.TrimSpace(config.Bucket),
		region:        config.Region,
		publicBaseURL: resolvePublicBaseURL(config),
	}
}

// EnsureBucket creates the bucket when it does not exist yet.
func (storage *Storage) EnsureBucket(ctx context.Context) error {
	exists, existsErr := storage.client.BucketExists(ctx, storage.bucket)
	if existsErr != nil {
		return fmt.Errorf("check bucket %s: %w", storage.bucket, existsErr)
	}
	if exists {
		return nil
	}
	if makeErr := storage.client.MakeBucket(ctx, storage.bucket, minio.MakeBucketOptions{Region: storage.region}); makeErr != nil {
		return fmt.Errorf("make bucket %s: %w", storage.bucket, makeErr)
	}
	return nil
}

// Upload stores the object and returns its public URL.
func (storage *Storage) Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (string, error) {
	options := minio.PutObjectOptions{ContentType: contentType}
	if _, putErr := storage.client.PutObject(ctx, storage.bucket, objectName, reader, size, options); putErr != nil {
		return "", fmt.Errorf("upload object %s: %w", objectName, putErr)
	}
	return storage.PublicURL(objectName), nil
}

// PublicURL joins the public base URL and the object name.
func (storage *Storage) PublicURL(objectName string) string {
	escaped := (&url.URL{Path: strings.TrimLeft(objectName, "/")}).EscapedPath()
	return storage.publicBaseURL + "/" + escaped
}

// Without an explicit base URL objects are addressed path-style on the endpoint.
func resolvePublicBaseURL(config Config) string {
	base := strings.TrimRight(strings.TrimSpace(config.PublicBaseURL), "/")
	if base != "" {
		return base
	}
	scheme := "http"
	if config.UseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s", scheme, strings.TrimSpace(config.Endpoint), strings.TrimSpace(config.Bucket))
}
