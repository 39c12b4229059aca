package archive

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"tubeharvest/internal/config"
	"tubeharvest/internal/services"
)

// s3API is the narrow client surface S3Store needs.
type s3API interface {
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store archives into a bucket. Folders are key prefixes, so EnsureFolder
// only joins names and never calls the service.
type S3Store struct {
	client s3API
	bucket string
	prefix string
}

// NewS3Store loads the AWS configuration chain with the overrides in cfg.
func NewS3Store(ctx context.Context, cfg config.S3Archive) (*S3Store, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.Profile != "" {
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "archive", "s3 config", "failed to load AWS configuration", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return newS3Store(client, cfg.Bucket, cfg.Prefix), nil
}

func newS3Store(client s3API, bucket, prefix string) *S3Store {
	return &S3Store{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

// EnsureFolder returns the key prefix for name under parent.
func (s *S3Store) EnsureFolder(_ context.Context, name, parent string) (string, error) {
	name = strings.Trim(name, "/")
	if name == "" {
		return "", services.Wrap(services.ErrValidation, "archive", "ensure folder", "folder name is empty", nil)
	}
	if parent == "" {
		parent = s.prefix
	}
	if parent == "" {
		return name, nil
	}
	return path.Join(parent, name), nil
}

// Upload writes localPath to <folder>/<base name> unless the key exists.
func (s *S3Store) Upload(ctx context.Context, localPath, folder string) (Result, error) {
	name := filepath.Base(localPath)
	key := path.Join(folder, name)

	exists, err := s.exists(ctx, key)
	if err != nil {
		return Result{}, err
	}
	if exists {
		return Result{ID: key, Skipped: true}, nil
	}

	f, err := os.Open(localPath)
	if err != nil {
		return Result{}, services.Wrap(services.ErrValidation, "archive", "open artifact", localPath, err)
	}
	defer f.Close()

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(contentType(name)),
	})
	if err != nil {
		return Result{}, classifyS3Error("put object", err)
	}
	return Result{ID: key}, nil
}

func (s *S3Store) exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}
	if isS3NotFound(err) {
		return false, nil
	}
	return false, classifyS3Error("head object", err)
}

func isS3NotFound(err error) bool {
	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) && respErr.HTTPStatusCode() == http.StatusNotFound {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return false
}

func classifyS3Error(op string, err error) error {
	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		code := respErr.HTTPStatusCode()
		switch {
		case code == http.StatusTooManyRequests || code >= 500:
			return services.Wrap(services.ErrTransient, "archive", op, fmt.Sprintf("S3 returned %d", code), err)
		case code == http.StatusForbidden:
			return services.Wrap(services.ErrConfiguration, "archive", op, "S3 denied access", err)
		}
	}
	return services.Wrap(services.ErrExternalTool, "archive", op, "S3 request failed", err)
}
