package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/Boakye-20/uk-ai-policy-tracker/backend/internal/config"
)

// ObjectGetter is the subset of the S3 client used by S3Source.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source reads the dataset from an S3 object.
type S3Source struct {
	client ObjectGetter
	bucket string
	key    string
}

// NewS3Source creates an S3 source, using static credentials when both keys are set
// and the default AWS credential chain otherwise.
func NewS3Source(ctx context.Context, cfg config.Dataset) (*S3Source, error) {
	if cfg.S3Bucket == "" || cfg.S3Key == "" {
		return nil, errors.New("DATA_S3_BUCKET and DATA_S3_KEY are required for s3 data source")
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.S3Region),
	}
	if cfg.AWSAccessKey != "" && cfg.AWSSecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AWSAccessKey,
			cfg.AWSSecretKey,
			"",
		)))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	return NewS3SourceWithClient(s3.NewFromConfig(awsCfg), cfg.S3Bucket, cfg.S3Key), nil
}

// NewS3SourceWithClient wires an existing client.
func NewS3SourceWithClient(client ObjectGetter, bucket, key string) *S3Source {
	return &S3Source{client: client, bucket: bucket, key: key}
}

func (s *S3Source) Open(ctx context.Context) (io.ReadCloser, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		var noBucket *types.NoSuchBucket
		if errors.As(err, &noKey) || errors.As(err, &noBucket) {
			return nil, fmt.Errorf("%w: %s", ErrDataSourceMissing, s.Describe())
		}
		return nil, fmt.Errorf("download dataset from S3: %w", err)
	}

	return result.Body, nil
}

func (s *S3Source) Describe() string {
	return "s3://" + s.bucket + "/" + s.key
}
