// Package objstore stores proof photos in an S3 compatible bucket (Cloudflare R2).
package objstore

import (
	"context"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type Uploader interface {
	Put(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
}

// PutObjectAPI is the part of the S3 client Bucket needs.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type Bucket struct {
	Cli           PutObjectAPI
	Name          string
	PublicBaseUrl string
}

func NewR2Client(endpoint string, accessKey string, secretKey string) *s3.Client {

	cred := credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")
	return s3.New(s3.Options{
		Credentials:  cred,
		BaseEndpoint: aws.String(endpoint),
		UsePathStyle: true,
		Region:       "auto",
	})

}

// Put uploads body under key and returns its public url.
func (b *Bucket) Put(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {

	_, err := b.Cli.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.Name),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", err
	}

	return b.URL(key), nil

}

func (b *Bucket) URL(key string) string {
	return strings.TrimRight(b.PublicBaseUrl, "/") + "/" + strings.TrimLeft(key, "/")
}
