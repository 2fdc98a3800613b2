package s3kv

import (
	"context"
	"errors"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 is an in-memory bucket that pages ListObjectsV2 results.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string]string
	pageLen int
	failPut bool
}

func newFake() *fakeS3 { return &fakeS3{objects: map[string]string{}, pageLen: 2} }

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("missing")}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(v))}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.failPut {
		return nil, errors.New("slow down")
	}
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Key)] = string(b)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	start := 0
	if in.ContinuationToken != nil {
		start, _ = strconv.Atoi(*in.ContinuationToken)
	}
	end := min(start+f.pageLen, len(keys))
	out := &s3.ListObjectsV2Output{}
	for _, k := range keys[start:end] {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k)})
	}
	if end < len(keys) {
		out.IsTruncated = aws.Bool(true)
		out.NextContinuationToken = aws.String(strconv.Itoa(end))
	}
	return out, nil
}

func TestStoreCRUD(t *testing.T) {
	ctx := context.Background()
	fake := newFake()
	s := NewWithClient(fake, "bucket", "demo/")

	_, ok, err := s.Get(ctx, "freelance-pro-contracts")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "freelance-pro-contracts", `["ct-001"]`))
	assert.Contains(t, fake.objects, "demo/freelance-pro-contracts")

	v, ok, err := s.Get(ctx, "freelance-pro-contracts")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `["ct-001"]`, v)

	require.NoError(t, s.Remove(ctx, "freelance-pro-contracts"))
	require.NoError(t, s.Remove(ctx, "freelance-pro-contracts"))
	_, ok, _ = s.Get(ctx, "freelance-pro-contracts")
	assert.False(t, ok)
}

func TestKeysPaginates(t *testing.T) {
	ctx := context.Background()
	s := NewWithClient(newFake(), "bucket", "demo/")
	for _, id := range []string{"ct-005", "ct-001", "ct-003", "ct-002", "ct-004"} {
		require.NoError(t, s.Set(ctx, "contract-override-"+id, `{}`))
	}
	require.NoError(t, s.Set(ctx, "freelance-pro-contracts", `[]`))

	keys, err := s.Keys(ctx, "contract-override-")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"contract-override-ct-001",
		"contract-override-ct-002",
		"contract-override-ct-003",
		"contract-override-ct-004",
		"contract-override-ct-005",
	}, keys)
}

func TestSetErrorIsWrapped(t *testing.T) {
	fake := newFake()
	fake.failPut = true
	err := NewWithClient(fake, "bucket", "").Set(context.Background(), "k", "v")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "s3kv set k")
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, isNotFound(&types.NoSuchKey{}))
	assert.True(t, isNotFound(&types.NotFound{}))
	assert.False(t, isNotFound(errors.New("boom")))
}

func TestNewRequiresBucket(t *testing.T) {
	_, err := New(context.Background(), Config{})
	assert.Error(t, err)
}
