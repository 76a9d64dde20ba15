package objectstore

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

const signedURLExpiry = 15 * time.Minute

// Bucket wraps the S3 client for the single gallery bucket: originals and
// resized variants live under path keys, public URLs derive from a fixed base.
type Bucket struct {
	client     *s3.Client
	presign    *s3.PresignClient
	bucket     string
	publicBase string
	log        *zap.Logger
}

func New(client *s3.Client, bucket, publicBase string, log *zap.Logger) *Bucket {
	return &Bucket{
		client:     client,
		presign:    s3.NewPresignClient(client),
		bucket:     bucket,
		publicBase: strings.TrimSuffix(publicBase, "/"),
		log:        log,
	}
}

func (b *Bucket) Fetch(ctx context.Context, key string) ([]byte, error) {
	res, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	return io.ReadAll(res.Body)
}

func (b *Bucket) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	obj, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return err
	}
	b.log.Info("object uploaded", zap.String("key", key), zap.String("etag", aws.ToString(obj.ETag)))
	return nil
}

func (b *Bucket) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	paginator := s3.NewListObjectsV2Paginator(b.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(b.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}
	return keys, nil
}

// SignedUploadURL issues a presigned PUT for a JPEG upload, valid for
// fifteen minutes.
func (b *Bucket) SignedUploadURL(ctx context.Context, key string) (string, error) {
	req, err := b.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.bucket),
		Key:         aws.String(key),
		ContentType: aws.String("image/jpeg"),
	}, s3.WithPresignExpires(signedURLExpiry))
	if err != nil {
		return "", err
	}
	b.log.Info("signed upload URL generated", zap.String("key", key))
	return req.URL, nil
}

// PublicURL builds the publicly served URL for a bucket key.
func (b *Bucket) PublicURL(key string) string {
	return CleanURL(b.publicBase + "/" + key)
}

func CleanURL(urlStr string) string {
	urlStr = strings.ReplaceAll(urlStr, " ", "%20")
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return urlStr
	}

	return parsedURL.String()
}
