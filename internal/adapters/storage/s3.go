// internal/adapters/storage/s3.go
package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"github.com/monabeauty/pos-be/internal/pkg/config"
)

// Artifact key prefixes. Everything the system renders or ingests lives
// under one of these, which is what lets the cleanup worker reason about
// retention per prefix.
const (
	PrefixLabels  = "labels"
	PrefixSheets  = "sheets"
	PrefixExports = "exports"
	PrefixImports = "imports"
)

// ArtifactStore is the interface the workers and handlers use to persist
// rendered labels, code sheets, spreadsheet exports and uploaded delivery
// notes.
type ArtifactStore interface {
	Upload(ctx context.Context, key string, data io.Reader, contentType string) (string, error)
	Download(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	DeleteMultiple(ctx context.Context, keys []string) error
	GetPresignedURL(ctx context.Context, key string, duration time.Duration) (string, error)
	List(ctx context.Context, prefix string) ([]string, error)
	ListOlderThan(ctx context.Context, prefix string, cutoff time.Time) ([]string, error)
	Exists(ctx context.Context, key string) (bool, error)
}

// LabelKey builds the object key for a single rendered label.
func LabelKey(productID string) string {
	return path.Join(PrefixLabels, productID+".png")
}

// SheetKey builds the object key for a rendered code sheet.
func SheetKey(jobID string) string {
	return path.Join(PrefixSheets, jobID+".pdf")
}

// ExportKey builds the object key for a catalog spreadsheet export.
func ExportKey(generatedAt time.Time) string {
	return path.Join(PrefixExports, fmt.Sprintf("catalog-%s.xlsx", generatedAt.Format("20060102-150405")))
}

// ImportKey builds the object key for an uploaded delivery note.
func ImportKey(jobID string) string {
	return path.Join(PrefixImports, jobID+".pdf")
}

// S3Store implements ArtifactStore against S3, or MinIO at the print
// station in development.
type S3Store struct {
	client     *s3.Client
	uploader   *manager.Uploader
	downloader *manager.Downloader
	bucket     string
	region     string
	logger     *slog.Logger
}

// NewS3Store creates the artifact store and makes sure the bucket exists.
func NewS3Store(ctx context.Context, cfg *config.StorageConfig, logger *slog.Logger) (*S3Store, error) {
	awsCfg, err := buildAWSConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.EndpointResolver = s3.EndpointResolverFromURL(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	store := &S3Store{
		client:     client,
		uploader:   manager.NewUploader(client),
		downloader: manager.NewDownloader(client),
		bucket:     cfg.Bucket,
		region:     cfg.Region,
		logger:     logger.With(slog.String("storage", "s3")),
	}

	if err := store.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure bucket: %w", err)
	}

	logger.Info("artifact store initialized",
		slog.String("bucket", cfg.Bucket),
		slog.String("region", cfg.Region))

	return store, nil
}

func buildAWSConfig(ctx context.Context, cfg *config.StorageConfig) (aws.Config, error) {
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		return awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(cfg.Region),
			awsconfig.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(
					cfg.AccessKeyID,
					cfg.SecretAccessKey,
					"",
				),
			),
		)
	}

	return awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
}

func (s *S3Store) ensureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err == nil {
		return nil
	}

	// MinIO rejects a LocationConstraint for us-east-1, same as AWS.
	input := &s3.CreateBucketInput{Bucket: aws.String(s.bucket)}
	if s.region != "" && s.region != "us-east-1" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(s.region),
		}
	}

	if _, createErr := s.client.CreateBucket(ctx, input); createErr != nil {
		return fmt.Errorf("bucket %s does not exist and could not be created: %w", s.bucket, createErr)
	}

	s.logger.Info("created artifact bucket", slog.String("bucket", s.bucket))
	return nil
}

// Upload stores an artifact and returns its location.
func (s *S3Store) Upload(ctx context.Context, key string, data io.Reader, contentType string) (string, error) {
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(key))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
	}

	result, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        data,
		ContentType: aws.String(contentType),
		Metadata: map[string]string{
			"uploaded-at": time.Now().Format(time.RFC3339),
			"upload-id":   uuid.New().String(),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload artifact: %w", err)
	}

	s.logger.InfoContext(ctx, "artifact uploaded",
		slog.String("key", key),
		slog.String("location", result.Location))

	return result.Location, nil
}

// Download retrieves a whole artifact into memory. Labels and sheets are
// small, so this is fine.
func (s *S3Store) Download(ctx context.Context, key string) ([]byte, error) {
	buf := manager.NewWriteAtBuffer([]byte{})

	_, err := s.downloader.Download(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download artifact: %w", err)
	}

	s.logger.DebugContext(ctx, "artifact downloaded",
		slog.String("key", key),
		slog.Int("size", len(buf.Bytes())))

	return buf.Bytes(), nil
}

// Delete removes a single artifact.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete artifact: %w", err)
	}

	s.logger.InfoContext(ctx, "artifact deleted", slog.String("key", key))
	return nil
}

// DeleteMultiple removes a batch of artifacts in one call.
func (s *S3Store) DeleteMultiple(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}

	objects := make([]types.ObjectIdentifier, 0, len(keys))
	for _, key := range keys {
		objects = append(objects, types.ObjectIdentifier{Key: aws.String(key)})
	}

	_, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(s.bucket),
		Delete: &types.Delete{
			Objects: objects,
			Quiet:   *aws.Bool(true),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete artifacts: %w", err)
	}

	s.logger.InfoContext(ctx, "artifacts deleted", slog.Int("count", len(keys)))
	return nil
}

// GetPresignedURL generates a time-limited download URL, used so the POS
// frontend can fetch rendered sheets and exports without proxying bytes
// through the API.
func (s *S3Store) GetPresignedURL(ctx context.Context, key string, duration time.Duration) (string, error) {
	presignClient := s3.NewPresignClient(s.client)

	request, err := presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = duration
	})
	if err != nil {
		return "", fmt.Errorf("failed to create presigned URL: %w", err)
	}

	return request.URL, nil
}

// List returns every key under a prefix.
func (s *S3Store) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list artifacts: %w", err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, *obj.Key)
		}
	}

	s.logger.DebugContext(ctx, "listed artifacts",
		slog.String("prefix", prefix),
		slog.Int("count", len(keys)))

	return keys, nil
}

// ListOlderThan returns keys under a prefix whose last modification
// predates the cutoff. The cleanup worker uses this to expire rendered
// sheets and stale delivery-note uploads.
func (s *S3Store) ListOlderThan(ctx context.Context, prefix string, cutoff time.Time) ([]string, error) {
	var keys []string

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list artifacts: %w", err)
		}
		for _, obj := range page.Contents {
			if obj.LastModified != nil && obj.LastModified.Before(cutoff) {
				keys = append(keys, *obj.Key)
			}
		}
	}

	return keys, nil
}

// Exists checks whether an artifact is present.
func (s *S3Store) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if strings.Contains(err.Error(), "404") || strings.Contains(err.Error(), "NotFound") {
			return false, nil
		}
		return false, fmt.Errorf("failed to check artifact existence: %w", err)
	}

	return true, nil
}
