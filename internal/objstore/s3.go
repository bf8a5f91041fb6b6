//go:build !loql_minimal

package objstore

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

func init() {
	factory = newS3
}

// s3API is the subset of the S3 client used here.
type s3API interface {
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3 is a Store backed by Amazon S3 or a compatible service.
type S3 struct {
	api    s3API
	logger *slog.Logger
}

func newS3(ctx context.Context, cfg Config, logger *slog.Logger) (Store, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	})
	return &S3{api: client, logger: logger}, nil
}

// Open streams an object. The caller closes the returned body.
func (c *S3) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	bucket, key, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}
	if key == "" || strings.HasSuffix(key, "/") {
		return nil, fmt.Errorf("%s is not an object", uri)
	}

	c.logger.Debug("fetching object", "bucket", bucket, "key", key)
	out, err := c.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", uri, err)
	}
	return out.Body, nil
}

// List returns the prefixes and objects directly under uri, prefixes first.
func (c *S3) List(ctx context.Context, uri string) ([]Entry, error) {
	bucket, prefix, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	var dirs, files []Entry
	pager := s3.NewListObjectsV2Paginator(c.api, &s3.ListObjectsV2Input{
		Bucket:    aws.String(bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	})
	for pager.HasMorePages() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", uri, err)
		}
		for _, p := range page.CommonPrefixes {
			key := aws.ToString(p.Prefix)
			dirs = append(dirs, Entry{
				Name: path.Base(strings.TrimSuffix(key, "/")) + "/",
				URI:  Join(bucket, key),
				Dir:  true,
			})
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if key == prefix {
				continue
			}
			files = append(files, Entry{
				Name: path.Base(key),
				URI:  Join(bucket, key),
				Size: aws.ToInt64(obj.Size),
			})
		}
	}
	return append(dirs, files...), nil
}
