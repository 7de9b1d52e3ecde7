package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

const (
	// S3 caps DeleteObjects at 1000 keys per call.
	r2DeleteBatch = 1000

	defaultPresignTTL = 15 * time.Minute
)

// R2Storage stores objects in a Cloudflare R2 bucket through the S3 API.
type R2Storage struct {
	client    *s3.Client
	presign   *s3.PresignClient
	bucket    string
	publicURL string
	logger    *slog.Logger
}

func NewR2Storage(cfg R2Config, logger *slog.Logger) (*R2Storage, error) {
	if cfg.AccountID == "" || cfg.BucketName == "" {
		return nil, errors.New("r2 storage requires an account ID and a bucket name")
	}
	region := cfg.Region
	if region == "" {
		region = "auto"
	}

	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)
	client := s3.NewFromConfig(aws.Config{
		Region:      region,
		Credentials: credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
	}, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	logger.Info("R2 storage ready", "bucket", cfg.BucketName, "endpoint", endpoint)
	return &R2Storage{
		client:    client,
		presign:   s3.NewPresignClient(client),
		bucket:    cfg.BucketName,
		publicURL: strings.TrimSuffix(cfg.PublicURL, "/"),
		logger:    logger,
	}, nil
}

// Put uploads the object. Without Overwrite the upload is conditional on
// the key being free (If-None-Match: *), so two racing uploads cannot
// clobber each other.
func (s *R2Storage) Put(ctx context.Context, key string, data io.Reader, opts PutOptions) error {
	if err := checkKey(key); err != nil {
		return opError("Put", key, err)
	}

	contentType := opts.ContentType
	if contentType == "" {
		contentType = DetectContentType("", key, nil)
	}
	body := capReader(data, opts.MaxSize)
	in := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	}
	if !opts.Overwrite {
		in.IfNoneMatch = aws.String("*")
	}
	if opts.Public {
		in.ACL = types.ObjectCannedACLPublicRead
	}

	out, err := s.client.PutObject(ctx, in)
	if body.exceeded {
		return opError("Put", key, ErrTooLarge)
	}
	if err != nil {
		return opError("Put", key, classifyS3(err))
	}

	s.logger.Debug("Stored object", "key", key, "etag", aws.ToString(out.ETag), "bytes", body.read)
	return nil
}

func (s *R2Storage) Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error) {
	if err := checkKey(key); err != nil {
		return nil, ObjectInfo{}, opError("Get", key, err)
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, ObjectInfo{}, opError("Get", key, classifyS3(err))
	}
	return out.Body, ObjectInfo{
		Key:          key,
		Size:         aws.ToInt64(out.ContentLength),
		ContentType:  aws.ToString(out.ContentType),
		LastModified: aws.ToTime(out.LastModified),
		ETag:         aws.ToString(out.ETag),
	}, nil
}

// Delete is idempotent; S3 reports success for missing keys.
func (s *R2Storage) Delete(ctx context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return opError("Delete", key, err)
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return opError("Delete", key, classifyS3(err))
	}
	return nil
}

// DeletePrefix lists the prefix page by page and batch-deletes each page.
// The count covers objects removed before any failure.
func (s *R2Storage) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	const op = "DeletePrefix"
	if err := checkPrefix(prefix); err != nil {
		return 0, opError(op, prefix, err)
	}

	deleted := 0
	pages := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.bucket),
		Prefix:  aws.String(prefix),
		MaxKeys: aws.Int32(r2DeleteBatch),
	})
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return deleted, opError(op, prefix, classifyS3(err))
		}
		if len(page.Contents) == 0 {
			continue
		}

		ids := make([]types.ObjectIdentifier, len(page.Contents))
		for i, obj := range page.Contents {
			ids[i] = types.ObjectIdentifier{Key: obj.Key}
		}
		out, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &types.Delete{Objects: ids, Quiet: aws.Bool(true)},
		})
		if err != nil {
			return deleted, opError(op, prefix, classifyS3(err))
		}
		deleted += len(ids) - len(out.Errors)
		if len(out.Errors) > 0 {
			first := out.Errors[0]
			return deleted, opError(op, aws.ToString(first.Key),
				fmt.Errorf("%d objects not deleted: %s", len(out.Errors), aws.ToString(first.Message)))
		}
	}

	s.logger.Debug("Deleted prefix", "prefix", prefix, "objects", deleted)
	return deleted, nil
}

// URL returns the public bucket URL when one is configured and no expiry
// was asked for; otherwise a presigned GET valid for expires (15 minutes
// when zero).
func (s *R2Storage) URL(ctx context.Context, key string, expires time.Duration) (string, error) {
	if err := checkKey(key); err != nil {
		return "", opError("URL", key, err)
	}
	if expires == 0 {
		if s.publicURL != "" {
			return s.publicURL + "/" + key, nil
		}
		expires = defaultPresignTTL
	}

	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expires))
	if err != nil {
		return "", opError("URL", key, fmt.Errorf("presign: %w", err))
	}
	return req.URL, nil
}

func (s *R2Storage) Exists(ctx context.Context, key string) (bool, error) {
	if err := checkKey(key); err != nil {
		return false, opError("Exists", key, err)
	}
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}
	if err = classifyS3(err); errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return false, opError("Exists", key, err)
}

// classifyS3 maps SDK errors onto the package sentinels.
func classifyS3(err error) error {
	var (
		notFound  *types.NotFound
		noSuchKey *types.NoSuchKey
	)
	if errors.As(err, &notFound) || errors.As(err, &noSuchKey) {
		return ErrNotFound
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return ErrNotFound
		case "AccessDenied", "Forbidden":
			return ErrAccessDenied
		case "PreconditionFailed":
			return ErrKeyExists
		}
	}

	var status interface{ HTTPStatusCode() int }
	if errors.As(err, &status) {
		switch status.HTTPStatusCode() {
		case http.StatusNotFound:
			return ErrNotFound
		case http.StatusForbidden:
			return ErrAccessDenied
		case http.StatusPreconditionFailed:
			return ErrKeyExists
		}
	}
	return fmt.Errorf("r2: %w", err)
}
