package blob_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/invoicer/internal/blob"
)

type fakeS3 struct {
	put     *s3.PutObjectInput
	body    []byte
	deleted []string
	err     error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.put = in
	f.body, _ = io.ReadAll(in.Body)

	return &s3.PutObjectOutput{}, f.err
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deleted = append(f.deleted, *in.Key)
	return &s3.DeleteObjectOutput{}, f.err
}

func TestS3Store_Put(t *testing.T) {
	fake := &fakeS3{}
	store := blob.NewS3Store(fake, "invoicer-assets")

	url, err := store.Put(context.Background(), "logos/a.png", []byte("png"), "image/png")
	require.NoError(t, err)

	assert.Equal(t, "https://invoicer-assets.s3.amazonaws.com/logos/a.png", url)
	assert.Equal(t, "invoicer-assets", *fake.put.Bucket)
	assert.Equal(t, "image/png", *fake.put.ContentType)
	assert.Equal(t, []byte("png"), fake.body)
}

func TestS3Store_Errors(t *testing.T) {
	_, err := blob.NewS3Store(&fakeS3{}, "").Put(context.Background(), "k", nil, "image/png")
	assert.Error(t, err)

	fake := &fakeS3{err: errors.New("access denied")}
	store := blob.NewS3Store(fake, "b")

	_, err = store.Put(context.Background(), "k", []byte("x"), "image/png")
	assert.ErrorContains(t, err, "access denied")

	err = store.Delete(context.Background(), "logos/old.png")
	assert.ErrorContains(t, err, "access denied")
	assert.Equal(t, []string{"logos/old.png"}, fake.deleted)
}
