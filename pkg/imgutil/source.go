package imgutil

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"
)

// Fetcher は URL からバイト列を取得します。httpkit.ClientInterface が満たします。
type Fetcher interface {
	FetchBytes(ctx context.Context, url string) ([]byte, error)
}

// Cacher は取得済み画像のキャッシュです。
type Cacher interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration)
}

// Source は参照画像の指定（ローカルパス、data URL、http(s) URL）を base64 文字列に解決します。
type Source struct {
	fetcher  Fetcher
	cache    Cacher
	cacheTTL time.Duration
	// checkURL は差し替え可能な URL 検証です。
	checkURL func(raw string) error
}

// NewSource は Source を作成します。fetcher と cache は nil を許容し、
// fetcher が nil の場合は URL 指定を受け付けません。
func NewSource(fetcher Fetcher, cache Cacher, cacheTTL time.Duration) *Source {
	return &Source{
		fetcher:  fetcher,
		cache:    cache,
		cacheTTL: cacheTTL,
		checkURL: checkSafeURL,
	}
}

// Load は ref を base64（または data URL のまま）で返します。ref が空なら空文字です。
func (s *Source) Load(ctx context.Context, ref string) (string, error) {
	switch {
	case ref == "":
		return "", nil
	case strings.HasPrefix(ref, "data:"):
		return ref, nil
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		data, err := s.fetch(ctx, ref)
		if err != nil {
			return "", err
		}
		return base64.StdEncoding.EncodeToString(data), nil
	}

	data, err := os.ReadFile(ref)
	if err != nil {
		return "", fmt.Errorf("参照画像の読み込み失敗: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

func (s *Source) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if s.cache != nil {
		if data, ok := s.cache.Get(rawURL); ok {
			slog.DebugContext(ctx, "参照画像をキャッシュから取得しました", "url", rawURL)
			return data, nil
		}
	}
	if s.fetcher == nil {
		return nil, fmt.Errorf("URL の参照画像には HTTP クライアントが必要です: %s", rawURL)
	}
	if err := s.checkURL(rawURL); err != nil {
		slog.WarnContext(ctx, "SSRFの可能性がある、または不正なURLをブロックしました", "url", rawURL, "error", err)
		return nil, err
	}

	data, err := s.fetcher.FetchBytes(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("参照画像のダウンロード失敗: %w", err)
	}
	if _, err := DetectImageMIME(data); err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Set(rawURL, data, s.cacheTTL)
	}
	return data, nil
}

// checkSafeURL は SSRF 対策として URL を検証します。
// 名前解決されたすべての IP アドレスに対してプライベート IP チェックを行います。
func checkSafeURL(rawURL string) error {
	u, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return fmt.Errorf("URLパース失敗: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("不許可スキーム: %s", u.Scheme)
	}

	host := u.Hostname()
	ips := []net.IP{net.ParseIP(host)}
	if ips[0] == nil {
		ips, err = net.LookupIP(host)
		if err != nil {
			return fmt.Errorf("名前解決失敗: %w", err)
		}
	}
	if len(ips) == 0 {
		return fmt.Errorf("IPが見つかりません: %s", host)
	}
	for _, ip := range ips {
		if ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsUnspecified() {
			return fmt.Errorf("制限されたネットワークへのアクセスを検知: %s", ip)
		}
	}
	return nil
}

// MemoryCache は有効期限付きのプロセス内キャッシュです。
type MemoryCache struct {
	mu    sync.Mutex
	now   func() time.Time
	items map[string]cacheItem
}

type cacheItem struct {
	data    []byte
	expires time.Time
}

// NewMemoryCache は空の MemoryCache を作成します。
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{now: time.Now, items: make(map[string]cacheItem)}
}

func (c *MemoryCache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	item, ok := c.items[key]
	if !ok {
		return nil, false
	}
	if !item.expires.IsZero() && !c.now().Before(item.expires) {
		delete(c.items, key)
		return nil, false
	}
	return item.data, true
}

// Set は ttl が 0 以下の場合、期限なしで保存します。
func (c *MemoryCache) Set(key string, value []byte, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	item := cacheItem{data: value}
	if ttl > 0 {
		item.expires = c.now().Add(ttl)
	}
	c.items[key] = item
}
