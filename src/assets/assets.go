/*
Package assets stores article images in an S3-compatible bucket. It is the
alternative to committing them to a GitHub repository.
*/
package assets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/quillpress/quill/src/config"
	"github.com/quillpress/quill/src/imagepipe"
	"github.com/quillpress/quill/src/oops"
)

type S3Store struct {
	client     *s3.Client
	bucket     string
	publicBase string
}

var _ imagepipe.Store = &S3Store{}

func NewS3Store(ctx context.Context, cfg config.S3Config) (*S3Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.Key, cfg.Secret, ""),
		),
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithEndpointResolver(aws.EndpointResolverFunc(func(service, region string) (aws.Endpoint, error) {
			return aws.Endpoint{URL: cfg.Endpoint}, nil
		})),
	)
	if err != nil {
		return nil, oops.New(err, "failed to load S3 config")
	}

	return &S3Store{
		client: s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.UsePathStyle = true
		}),
		bucket:     cfg.Bucket,
		publicBase: strings.TrimSuffix(cfg.PublicBase, "/"),
	}, nil
}

var REIllegalKeyChars = regexp.MustCompile(`[^\w\-.]`)

func ObjectKey(filename string) string {
	if filename == "" {
		filename = "unnamed"
	}
	return "articles/" + REIllegalKeyChars.ReplaceAllString(filename, "_")
}

func (s *S3Store) PublicUrl(key string) string {
	return fmt.Sprintf("%s/%s/%s", s.publicBase, s.bucket, key)
}

// The credential is unused; the client carries its own keys.
func (s *S3Store) Put(ctx context.Context, credential string, upload imagepipe.Upload) (string, error) {
	if len(upload.Data) == 0 {
		return "", oops.New(nil, "could not upload %s: no data", upload.Filename)
	}

	key := ObjectKey(upload.Filename)
	contentType := upload.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	put := func() error {
		_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      &s.bucket,
			Key:         &key,
			Body:        bytes.NewReader(upload.Data),
			ACL:         types.ObjectCannedACLPublicRead,
			ContentType: &contentType,
		})
		return err
	}

	err := put()
	if err != nil {
		var apiError smithy.APIError
		if !errors.As(err, &apiError) || apiError.ErrorCode() != "NoSuchBucket" {
			return "", oops.New(err, "failed to upload image")
		}

		_, err := s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: &s.bucket})
		if err != nil {
			return "", oops.New(err, "failed to create images bucket")
		}
		if err := put(); err != nil {
			return "", oops.New(err, "failed to upload image")
		}
	}

	return s.PublicUrl(key), nil
}
