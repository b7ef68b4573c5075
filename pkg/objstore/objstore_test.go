package objstore

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	input *s3.PutObjectInput
	body  string
	err   error
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = params
	data, _ := io.ReadAll(params.Body)
	f.body = string(data)
	return &s3.PutObjectOutput{}, f.err
}

func TestBucketPut(t *testing.T) {

	cli := &fakeS3{}
	bucket := &Bucket{Cli: cli, Name: "proofs", PublicBaseUrl: "https://cdn.example.com/"}

	url, err := bucket.Put(context.Background(), "proofs/u1/a.png", strings.NewReader("png"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/proofs/u1/a.png", url)
	assert.Equal(t, "proofs", aws.ToString(cli.input.Bucket))
	assert.Equal(t, "image/png", aws.ToString(cli.input.ContentType))
	assert.Equal(t, "png", cli.body)

	cli.err = errors.New("boom")
	_, err = bucket.Put(context.Background(), "k", strings.NewReader(""), "image/png")
	assert.Error(t, err)

}
