package sources

import (
	"context"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/form3tech-oss/pact-provider/internal/app/pact"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// S3API is the part of the S3 client used to list and download pacts.
type S3API interface {
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type S3Config struct {
	Bucket string
	Prefix string
	Region string
	// Endpoint overrides the AWS endpoint, e.g. for MinIO or LocalStack.
	Endpoint string
}

// S3Bucket loads the *.json objects stored under a prefix of a bucket.
type S3Bucket struct {
	client S3API
	bucket string
	prefix string
	opts   options
}

func NewS3Bucket(ctx context.Context, cfg S3Config, opts ...Option) (*S3Bucket, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, errors.Wrap(err, "unable to load AWS config")
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewS3BucketWithClient(client, cfg.Bucket, cfg.Prefix, opts...), nil
}

func NewS3BucketWithClient(client S3API, bucket, prefix string, opts ...Option) *S3Bucket {
	return &S3Bucket{client: client, bucket: bucket, prefix: prefix, opts: newOptions(opts)}
}

func (b *S3Bucket) LoadPacts(ctx context.Context, provider, consumer string) ([]pact.Pact, error) {
	b.opts.log.WithFields(log.Fields{
		"provider": provider,
		"consumer": consumerOrAny(consumer),
	}).Infof("loading pacts from %s", b)

	keys, err := b.listKeys(ctx)
	if err != nil {
		return nil, err
	}

	var docs []document
	for _, key := range keys {
		data, err := b.download(ctx, key)
		if err != nil {
			b.opts.log.WithField("file", key).WithError(err).Warn("could not be downloaded")
			continue
		}
		docs = append(docs, document{name: key, data: data})
	}

	pacts := parse(b.opts, docs, provider, consumer)
	b.opts.log.Infof("loaded %d pacts from %s", len(pacts), b)
	return pacts, nil
}

func (b *S3Bucket) listKeys(ctx context.Context) ([]string, error) {
	paginator := s3.NewListObjectsV2Paginator(b.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(b.bucket),
		Prefix: aws.String(b.prefix),
	})

	var keys []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to list %s", b)
		}
		for _, object := range page.Contents {
			key := aws.ToString(object.Key)
			if strings.HasSuffix(key, ".json") {
				keys = append(keys, key)
			}
		}
	}
	return keys, nil
}

func (b *S3Bucket) download(ctx context.Context, key string) ([]byte, error) {
	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

func (b *S3Bucket) String() string {
	return "s3://" + b.bucket + "/" + b.prefix
}
