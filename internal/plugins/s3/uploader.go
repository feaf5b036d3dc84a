package s3

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	appconfig "courier/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// Uploader stores chat assets in an S3-compatible bucket and hands back a
// public retrieval URL.
type Uploader struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

func NewUploader(ctx context.Context, cfg appconfig.S3Config) (*Uploader, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true // MinIO and friends
	})
	publicURL := cfg.PublicURL
	if publicURL == "" {
		publicURL = cfg.Endpoint + "/" + cfg.Bucket
	}
	return &Uploader{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
	}, nil
}

func storageKey(fileName string) string {
	d := time.Now()
	name := path.Base(fileName)
	if name == "." || name == "/" {
		name = "asset"
	}
	return fmt.Sprintf("chat/%d/%02d/%02d/%s-%s", d.Year(), d.Month(), d.Day(), uuid.New(), name)
}

func (u *Uploader) Upload(ctx context.Context, fileName string, data []byte) (string, error) {
	key := storageKey(fileName)
	contentType := mimetype.Detect(data).String()

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}
	return u.publicURL + "/" + key, nil
}
