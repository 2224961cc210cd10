package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mocks ---

type apiError struct {
	code string
}

func (e *apiError) Error() string                 { return e.code }
func (e *apiError) ErrorCode() string             { return e.code }
func (e *apiError) ErrorMessage() string          { return e.code }
func (e *apiError) ErrorFault() smithy.ErrorFault { return smithy.FaultClient }

type mockS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	putErr  error
}

func newMockS3() *mockS3 {
	return &mockS3{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *mockS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[*in.Key]
	if !ok {
		return nil, &apiError{code: "NoSuchKey"}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (m *mockS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.putErr != nil {
		return nil, m.putErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[*in.Key] = data
	if in.ContentType != nil {
		m.types[*in.Key] = *in.ContentType
	}
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, *in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func (m *mockS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[*in.Key]; !ok {
		return nil, &apiError{code: "NotFound"}
	}
	return &s3.HeadObjectOutput{}, nil
}

// --- Tests ---

func TestNewS3(t *testing.T) {
	_, err := NewS3(nil, "bucket", "")
	assert.Error(t, err)
	_, err = NewS3(newMockS3(), "", "")
	assert.Error(t, err)
}

func TestS3Store(t *testing.T) {
	ctx := context.Background()
	mock := newMockS3()
	store, err := NewS3(mock, "assets", "cinematix")
	require.NoError(t, err)

	t.Run("prefix 付きのキーで保存されるのだ", func(t *testing.T) {
		require.NoError(t, Put(ctx, store, "videos/op-9.mp4", []byte("clip")))
		assert.Equal(t, []byte("clip"), mock.objects["cinematix/videos/op-9.mp4"])

		got, err := Get(ctx, store, "videos/op-9.mp4")
		require.NoError(t, err)
		assert.Equal(t, []byte("clip"), got)

		ok, err := store.Exists(ctx, "videos/op-9.mp4")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("拡張子から Content-Type を付けて保存する", func(t *testing.T) {
		require.NoError(t, Put(ctx, store, "images/still.PNG", []byte("png")))
		require.NoError(t, Put(ctx, store, "history/r1.json", []byte("{}")))
		require.NoError(t, Put(ctx, store, "raw/blob", []byte("?")))

		assert.Equal(t, "video/mp4", mock.types["cinematix/videos/op-9.mp4"])
		assert.Equal(t, "image/png", mock.types["cinematix/images/still.PNG"])
		assert.Equal(t, "application/json", mock.types["cinematix/history/r1.json"])
		assert.Equal(t, "application/octet-stream", mock.types["cinematix/raw/blob"])
	})

	t.Run("存在しないキーは os.ErrNotExist", func(t *testing.T) {
		_, err := store.Read(ctx, "nope")
		assert.True(t, errors.Is(err, os.ErrNotExist))

		ok, err := store.Exists(ctx, "nope")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("アップロード失敗は Close で返る", func(t *testing.T) {
		failing := newMockS3()
		failing.putErr = errors.New("access denied")
		s, err := NewS3(failing, "assets", "")
		require.NoError(t, err)

		err = Put(ctx, s, "x", []byte("data"))
		assert.ErrorContains(t, err, "access denied")
	})
}
