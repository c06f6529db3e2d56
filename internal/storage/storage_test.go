package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeys(t *testing.T) {
	k := ProfilePhotoKey("user-1", ".PNG")
	assert.True(t, strings.HasPrefix(k, "profile-photos/user-1/"))
	assert.True(t, strings.HasSuffix(k, ".png"))

	k = ProductImageKey("user-1", "Hybrid Tomato Seeds (500g)", "jpg")
	assert.Regexp(t, `^products/user-1/hybrid-tomato-seeds-500g-[0-9a-f-]{36}\.jpg$`, k)

	k = ProductImageKey("user-1", "!!!", "jpg")
	assert.True(t, strings.HasPrefix(k, "products/user-1/product-"))
}

func TestLocalStore_PutDelete(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir, "http://localhost:8080/")
	require.NoError(t, err)
	ctx := context.Background()

	url, err := store.Put(ctx, "products/u1/a.png", bytes.NewReader([]byte("img")), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/uploads/products/u1/a.png", url)

	data, err := os.ReadFile(filepath.Join(dir, "products", "u1", "a.png"))
	require.NoError(t, err)
	assert.Equal(t, "img", string(data))

	key, ok := store.KeyFromURL(url)
	require.True(t, ok)
	assert.Equal(t, "products/u1/a.png", key)

	require.NoError(t, store.Delete(ctx, key))
	_, err = os.Stat(filepath.Join(dir, "products", "u1", "a.png"))
	assert.True(t, errors.Is(err, os.ErrNotExist))

	assert.NoError(t, store.Delete(ctx, key), "deleting twice is fine")
}

func TestLocalStore_RejectsTraversal(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "http://localhost:8080")
	require.NoError(t, err)

	_, err = store.Put(context.Background(), "../etc/passwd", bytes.NewReader(nil), "text/plain")
	assert.Error(t, err)

	_, ok := store.KeyFromURL("http://localhost:8080/uploads/../secret")
	assert.False(t, ok)
	_, ok = store.KeyFromURL("https://elsewhere/x.png")
	assert.False(t, ok)
}

type fakeS3 struct {
	s3iface.S3API
	puts    map[string][]byte
	deleted []string
	fail    bool
}

func (f *fakeS3) PutObjectWithContext(_ aws.Context, in *s3.PutObjectInput, _ ...request.Option) (*s3.PutObjectOutput, error) {
	if f.fail {
		return nil, errors.New("access denied")
	}
	body, _ := io.ReadAll(in.Body)
	f.puts[aws.StringValue(in.Key)] = body
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObjectWithContext(_ aws.Context, in *s3.DeleteObjectInput, _ ...request.Option) (*s3.DeleteObjectOutput, error) {
	f.deleted = append(f.deleted, aws.StringValue(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3Store(t *testing.T) {
	fake := &fakeS3{puts: map[string][]byte{}}
	store := &S3Store{client: fake, bucket: "agri-media", region: "ap-south-1"}
	ctx := context.Background()

	url, err := store.Put(ctx, "profile-photos/u1/x.jpg", bytes.NewReader([]byte("jpeg")), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "https://agri-media.s3.ap-south-1.amazonaws.com/profile-photos/u1/x.jpg", url)
	assert.Equal(t, []byte("jpeg"), fake.puts["profile-photos/u1/x.jpg"])

	key, ok := store.KeyFromURL(url)
	require.True(t, ok)
	require.NoError(t, store.Delete(ctx, key))
	assert.Equal(t, []string{"profile-photos/u1/x.jpg"}, fake.deleted)

	fake.fail = true
	_, err = store.Put(ctx, "profile-photos/u1/y.jpg", bytes.NewReader(nil), "image/jpeg")
	assert.Error(t, err)
}
