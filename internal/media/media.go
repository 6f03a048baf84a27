// Package media validates uploaded clothing photos and stores them in an
// S3-compatible bucket.
package media

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/abjin/reward-closet/internal/domain"
)

// MaxFileSize is the largest accepted upload.
const MaxFileSize = 10 * 1024 * 1024

// Folder is the key prefix every upload is stored under.
const Folder = "public"

var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
}

var (
	ErrUnsupportedType = errors.New("supported image formats are JPEG, PNG and WebP")
	ErrTooLarge        = errors.New("file must be 10MB or smaller")
)

// Validate checks the declared content type and size of an upload.
func Validate(contentType string, size int64) error {
	mediaType := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	if !allowedTypes[mediaType] {
		return &domain.ValidationError{Field: "file", Message: ErrUnsupportedType.Error()}
	}
	if size > MaxFileSize {
		return &domain.ValidationError{Field: "file", Message: ErrTooLarge.Error()}
	}
	return nil
}

// ObjectAPI is the subset of *s3.Client used by Bucket.
type ObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Upload is a file received from the client.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Stored describes an object after a successful upload.
type Stored struct {
	URL  string `json:"url"`
	Path string `json:"path"`
}

// Bucket writes uploads to object storage and resolves their public URLs.
type Bucket struct {
	client     ObjectAPI
	bucket     string
	publicBase string
	now        func() time.Time
}

// NewBucket creates a Bucket for bucket; publicBase prefixes object keys in returned URLs.
func NewBucket(client ObjectAPI, bucket, publicBase string) *Bucket {
	return &Bucket{
		client:     client,
		bucket:     bucket,
		publicBase: strings.TrimRight(publicBase, "/"),
		now:        time.Now,
	}
}

// S3Config holds connection settings for an S3-compatible provider.
type S3Config struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// NewS3Client builds an S3 client. A custom endpoint switches to path-style
// addressing, which R2, MinIO and Supabase storage expect.
func NewS3Client(ctx context.Context, cfg S3Config) (*s3.Client, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load s3 config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// Store validates and uploads the file. An existing object with the same key is
// never replaced: the write is conditional on the key being absent.
func (s *Bucket) Store(ctx context.Context, up Upload) (*Stored, error) {
	if err := Validate(up.ContentType, up.Size); err != nil {
		return nil, err
	}

	name, err := s.objectName(up.Filename)
	if err != nil {
		return nil, err
	}
	key := path.Join(Folder, name)

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          up.Body,
		ContentType:   aws.String(up.ContentType),
		ContentLength: aws.Int64(up.Size),
		CacheControl:  aws.String("max-age=3600"),
		IfNoneMatch:   aws.String("*"),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: upload %s: %v", domain.ErrUpstream, key, err)
	}

	return &Stored{URL: s.publicBase + "/" + key, Path: key}, nil
}

// Delete removes the object at objectPath. Failures are logged, not returned.
func (s *Bucket) Delete(ctx context.Context, objectPath string) bool {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectPath),
	})
	if err != nil {
		slog.Warn("failed to delete image", "path", objectPath, "error", err)
		return false
	}
	return true
}

// objectName is "<unix millis>-<random base36>.<ext>".
func (s *Bucket) objectName(filename string) (string, error) {
	suffix, err := randomBase36(11)
	if err != nil {
		return "", fmt.Errorf("generate object name: %w", err)
	}

	name := strconv.FormatInt(s.now().UnixMilli(), 10) + "-" + suffix
	if ext := strings.ToLower(strings.TrimPrefix(path.Ext(filename), ".")); ext != "" {
		name += "." + ext
	}
	return name, nil
}

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

func randomBase36(n int) (string, error) {
	var b strings.Builder
	b.Grow(n)
	limit := big.NewInt(int64(len(base36)))
	for range n {
		i, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		b.WriteByte(base36[i.Int64()])
	}
	return b.String(), nil
}
