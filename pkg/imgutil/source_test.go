package imgutil

import (
	"context"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockFetcher struct {
	calls     int
	fetchFunc func(ctx context.Context, url string) ([]byte, error)
}

func (m *mockFetcher) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	m.calls++
	return m.fetchFunc(ctx, url)
}

func newTestSource(f Fetcher, c Cacher) *Source {
	s := NewSource(f, c, time.Hour)
	s.checkURL = func(string) error { return nil }
	return s
}

func TestSource_Load(t *testing.T) {
	ctx := context.Background()
	validPng := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00\x90w\x53\xde")
	encoded := base64.StdEncoding.EncodeToString(validPng)

	t.Run("キャッシュにない場合はDLして保存し、2回目はキャッシュから返すのだ", func(t *testing.T) {
		cache := NewMemoryCache()
		f := &mockFetcher{fetchFunc: func(ctx context.Context, url string) ([]byte, error) { return validPng, nil }}
		s := newTestSource(f, cache)

		got, err := s.Load(ctx, "https://example.com/new.png")
		require.NoError(t, err)
		assert.Equal(t, encoded, got)

		got, err = s.Load(ctx, "https://example.com/new.png")
		require.NoError(t, err)
		assert.Equal(t, encoded, got)
		assert.Equal(t, 1, f.calls)
	})

	t.Run("画像でないレスポンスはエラーでキャッシュしない", func(t *testing.T) {
		cache := NewMemoryCache()
		f := &mockFetcher{fetchFunc: func(ctx context.Context, url string) ([]byte, error) { return []byte("<html></html>"), nil }}
		s := newTestSource(f, cache)

		_, err := s.Load(ctx, "https://example.com/page")
		assert.Error(t, err)
		_, found := cache.Get("https://example.com/page")
		assert.False(t, found)
	})

	t.Run("ダウンロード失敗はエラー", func(t *testing.T) {
		f := &mockFetcher{fetchFunc: func(ctx context.Context, url string) ([]byte, error) { return nil, errors.New("503") }}
		_, err := newTestSource(f, nil).Load(ctx, "https://example.com/a.png")
		assert.ErrorContains(t, err, "503")
	})

	t.Run("HTTPクライアントが無ければURLは受け付けない", func(t *testing.T) {
		_, err := newTestSource(nil, nil).Load(ctx, "https://example.com/a.png")
		assert.Error(t, err)
	})

	t.Run("ローカルファイルは base64 で返す", func(t *testing.T) {
		name := filepath.Join(t.TempDir(), "ref.png")
		require.NoError(t, os.WriteFile(name, validPng, 0o644))

		got, err := newTestSource(nil, nil).Load(ctx, name)
		require.NoError(t, err)
		assert.Equal(t, encoded, got)
	})

	t.Run("data URL と空文字はそのまま", func(t *testing.T) {
		s := newTestSource(nil, nil)
		got, err := s.Load(ctx, "data:image/png;base64,"+encoded)
		require.NoError(t, err)
		assert.Equal(t, "data:image/png;base64,"+encoded, got)

		got, err = s.Load(ctx, "")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("内部ネットワークへのURLはブロックするのだ", func(t *testing.T) {
		f := &mockFetcher{fetchFunc: func(ctx context.Context, url string) ([]byte, error) { return validPng, nil }}
		s := NewSource(f, nil, time.Hour)

		_, err := s.Load(ctx, "http://127.0.0.1/secret.png")
		assert.Error(t, err)
		assert.Zero(t, f.calls)
	})
}

func TestCheckSafeURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"ループバック", "http://127.0.0.1/a.png"},
		{"プライベート", "http://10.0.0.5/a.png"},
		{"リンクローカル", "http://169.254.169.254/latest/meta-data"},
		{"不許可スキーム", "ftp://8.8.8.8/a.png"},
		{"不正なURL", "::not a url"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, checkSafeURL(tt.url))
		})
	}
	assert.NoError(t, checkSafeURL("https://8.8.8.8/a.png"))
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("a", []byte("1"), time.Minute)
	c.Set("b", []byte("2"), 0)

	got, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, []byte("1"), got)

	now = now.Add(time.Minute)
	_, ok = c.Get("a")
	assert.False(t, ok, "期限切れ")
	_, ok = c.Get("b")
	assert.True(t, ok, "期限なし")
}
