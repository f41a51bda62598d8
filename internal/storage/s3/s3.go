// Package s3 provides the S3-compatible storage backend (AWS, MinIO, or any
// endpoint speaking the S3 API).
package s3

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/Nexavor/NetworkFileManger-sub000/internal/domain"
	"github.com/Nexavor/NetworkFileManger-sub000/internal/storage"
)

// Config is the JSON-serializable S3 section of the selector document.
type Config struct {
	Endpoint  string `json:"endpoint"`
	Bucket    string `json:"bucket"`
	AccessKey string `json:"access_key"`
	SecretKey string `json:"secret_key"`
	Region    string `json:"region"`
}

// presignTTL bounds how long a handed-out download link stays valid.
const presignTTL = 15 * time.Minute

// Backend implements storage.Backend on an S3-compatible object store.
type Backend struct {
	client    *awss3.Client
	presigner *awss3.PresignClient
	bucket    string
}

// New creates an S3 backend from a Config.
func New(ctx context.Context, cfg Config) (*Backend, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &Backend{
		client:    client,
		presigner: awss3.NewPresignClient(client),
		bucket:    cfg.Bucket,
	}, nil
}

// NewFromJSON creates a Backend from raw JSON config.
func NewFromJSON(ctx context.Context, raw json.RawMessage) (*Backend, error) {
	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse s3 config: %w", err)
	}
	return New(ctx, cfg)
}

// Type returns "s3".
func (b *Backend) Type() storage.Type { return storage.TypeS3 }

// objectKey namespaces keys by user and adds a random component so two
// uploads sharing a display name never collide.
func objectKey(userID int64, fileName string) string {
	return path.Join(fmt.Sprintf("u%d", userID), uuid.NewString()[:8]+"-"+fileName)
}

// Upload streams body to a fresh object key.
func (b *Backend) Upload(ctx context.Context, body io.Reader, req storage.UploadRequest) (*storage.UploadResult, error) {
	key := objectKey(req.UserID, req.FileName)

	input := &awss3.PutObjectInput{
		Bucket:      aws.String(b.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(req.Mimetype),
	}
	if req.Size >= 0 {
		input.ContentLength = aws.Int64(req.Size)
	}

	if _, err := b.client.PutObject(ctx, input); err != nil {
		return nil, b.wrap("upload", key, err)
	}

	size := req.Size
	if size < 0 {
		head, err := b.client.HeadObject(ctx, &awss3.HeadObjectInput{
			Bucket: aws.String(b.bucket),
			Key:    aws.String(key),
		})
		if err == nil && head.ContentLength != nil {
			size = *head.ContentLength
		}
	}

	return &storage.UploadResult{Locator: key, Size: size}, nil
}

// Remove deletes each object best-effort. S3 deletes are idempotent, so a
// missing key is a success by construction.
func (b *Backend) Remove(ctx context.Context, items []storage.RemoveItem) *storage.RemoveReport {
	report := &storage.RemoveReport{}

	for _, item := range items {
		if item.IsDir {
			// No directories in object storage; nothing to do.
			report.Succeeded = append(report.Succeeded, item.Locator)
			continue
		}

		_, err := b.client.DeleteObject(ctx, &awss3.DeleteObjectInput{
			Bucket: aws.String(b.bucket),
			Key:    aws.String(item.Locator),
		})
		if err != nil {
			report.Failed = append(report.Failed, storage.RemoveFailure{
				Locator: item.Locator,
				Err:     b.wrap("remove", item.Locator, err),
			})
			continue
		}
		report.Succeeded = append(report.Succeeded, item.Locator)
	}

	return report
}

// GetURL hands out a time-limited presigned link so downloads go straight to
// the object store instead of through this process.
func (b *Backend) GetURL(ctx context.Context, locator string) (string, error) {
	req, err := b.presigner.PresignGetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(locator),
	}, awss3.WithPresignExpires(presignTTL))
	if err != nil {
		return "", b.wrap("presign", locator, err)
	}
	return req.URL, nil
}

// Stream fetches the object with optional range support.
func (b *Backend) Stream(ctx context.Context, locator string, rng *storage.Range) (io.ReadCloser, int64, error) {
	input := &awss3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(locator),
	}

	if rng != nil && (rng.Offset > 0 || rng.Length > 0) {
		if rng.Length > 0 {
			input.Range = aws.String(fmt.Sprintf("bytes=%d-%d", rng.Offset, rng.Offset+rng.Length-1))
		} else {
			input.Range = aws.String(fmt.Sprintf("bytes=%d-", rng.Offset))
		}
	}

	result, err := b.client.GetObject(ctx, input)
	if err != nil {
		return nil, 0, b.wrap("stream", locator, err)
	}

	var size int64
	if result.ContentLength != nil {
		size = *result.ContentLength
	}

	return result.Body, size, nil
}

// Copy duplicates an object server-side; no bytes travel through us.
func (b *Backend) Copy(ctx context.Context, srcLocator, dstLocator string) error {
	_, err := b.client.CopyObject(ctx, &awss3.CopyObjectInput{
		Bucket:     aws.String(b.bucket),
		Key:        aws.String(dstLocator),
		CopySource: aws.String(b.bucket + "/" + srcLocator),
	})
	if err != nil {
		return b.wrap("copy", srcLocator, err)
	}
	return nil
}

func (b *Backend) wrap(op, locator string, err error) error {
	return &domain.BackendError{Backend: string(storage.TypeS3), Op: op, Locator: locator, Err: err}
}
