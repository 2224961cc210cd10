// Package config は CLI とセッション全体の設定を YAML と環境変数から読み込みます。
//
// 優先順位は 環境変数 > 設定ファイル > 既定値 です。
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shouni/cinematix-kit/pkg/generator"
	"github.com/shouni/cinematix-kit/pkg/live"
	"github.com/shouni/cinematix-kit/pkg/video"
	"gopkg.in/yaml.v3"
)

// ライブ接続のトランスポート
const (
	TransportGenAI     = "genai"
	TransportWebSocket = "websocket"
)

const envPrefix = "CINEMATIX_"

// Config はアプリケーション全体の設定です。
type Config struct {
	APIKey         string           `yaml:"api_key"`
	Models         generator.Models `yaml:"models"`
	ThinkingBudget int32            `yaml:"thinking_budget"`
	// JPEGQuality が 0 より大きい場合、参照画像を JPEG に再圧縮して送信します。
	JPEGQuality int           `yaml:"jpeg_quality"`
	HTTPTimeout time.Duration `yaml:"http_timeout"`
	MetricsAddr string        `yaml:"metrics_addr"`

	Video   VideoConfig   `yaml:"video"`
	Live    LiveConfig    `yaml:"live"`
	History HistoryConfig `yaml:"history"`
	Storage StorageConfig `yaml:"storage"`
}

type VideoConfig struct {
	Model        string        `yaml:"model"`
	PollInterval time.Duration `yaml:"poll_interval"`
	MaxWait      time.Duration `yaml:"max_wait"`
}

type LiveConfig struct {
	Model     string `yaml:"model"`
	Transport string `yaml:"transport"`
	URL       string `yaml:"url"`
	// Player は受信音声（PCM16LE 24kHz モノラル）を標準入力で受け取る再生コマンドです。空なら破棄します。
	Player string `yaml:"player"`
}

type HistoryConfig struct {
	Dir      string `yaml:"dir"`
	InMemory bool   `yaml:"in_memory"`
}

// StorageConfig は生成アセットの保存先です。S3Bucket が空ならローカルディレクトリを使います。
type StorageConfig struct {
	Dir      string `yaml:"dir"`
	S3Bucket string `yaml:"s3_bucket"`
	S3Prefix string `yaml:"s3_prefix"`
	S3Region string `yaml:"s3_region"`
}

// Default は既定値で埋めた Config を返します。
func Default() *Config {
	home := defaultHome()
	return &Config{
		Models:         generator.DefaultModels(),
		ThinkingBudget: generator.DefaultThinkingBudget,
		HTTPTimeout:    2 * time.Minute,
		Video: VideoConfig{
			Model:        video.DefaultModel,
			PollInterval: video.DefaultInterval,
			MaxWait:      video.DefaultMaxWait,
		},
		Live: LiveConfig{
			Model:     live.DefaultModel,
			Transport: TransportGenAI,
		},
		History: HistoryConfig{Dir: filepath.Join(home, "history")},
		Storage: StorageConfig{Dir: filepath.Join(home, "assets")},
	}
}

func defaultHome() string {
	if dir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(dir, ".cinematix")
	}
	return ".cinematix"
}

// DefaultPath は既定の設定ファイルパスです。
func DefaultPath() string {
	return filepath.Join(defaultHome(), "config.yaml")
}

// Load は path の YAML を既定値に重ね、環境変数で上書きして検証します。
// path が空の場合は DefaultPath を試し、存在しなければ既定値のみを使います。
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("設定ファイルの解析失敗 (%s): %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("設定ファイルの読み込み失敗: %w", err)
	}

	cfg.applyEnv(os.LookupEnv)
	cfg.Models = cfg.Models.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv は環境変数で設定を上書きします。
func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	set := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v, ok := lookup(k); ok && v != "" {
				*dst = v
				return
			}
		}
	}
	set(&c.APIKey, "GEMINI_API_KEY", "API_KEY")
	set(&c.Video.Model, envPrefix+"VIDEO_MODEL")
	set(&c.Live.Model, envPrefix+"LIVE_MODEL")
	set(&c.Live.Transport, envPrefix+"LIVE_TRANSPORT")
	set(&c.Live.URL, envPrefix+"LIVE_URL")
	set(&c.Live.Player, envPrefix+"LIVE_PLAYER")
	set(&c.History.Dir, envPrefix+"HISTORY_DIR")
	set(&c.Storage.Dir, envPrefix+"ASSET_DIR")
	set(&c.Storage.S3Bucket, envPrefix+"S3_BUCKET")
	set(&c.Storage.S3Prefix, envPrefix+"S3_PREFIX")
	set(&c.Storage.S3Region, envPrefix+"S3_REGION", "AWS_REGION")
	set(&c.MetricsAddr, envPrefix+"METRICS_ADDR")
}

// Validate は設定値の整合性を検証します。API キーの有無は RequireAPIKey で確認します。
func (c *Config) Validate() error {
	var errs []error
	if c.Video.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("video.poll_interval must be positive"))
	}
	if c.Video.MaxWait < c.Video.PollInterval {
		errs = append(errs, fmt.Errorf("video.max_wait (%s) must not be shorter than video.poll_interval (%s)", c.Video.MaxWait, c.Video.PollInterval))
	}
	if c.JPEGQuality < 0 || c.JPEGQuality > 100 {
		errs = append(errs, fmt.Errorf("jpeg_quality must be within 0-100: %d", c.JPEGQuality))
	}
	if c.ThinkingBudget < 0 {
		errs = append(errs, fmt.Errorf("thinking_budget must not be negative"))
	}
	switch c.Live.Transport {
	case TransportGenAI, TransportWebSocket:
	default:
		errs = append(errs, fmt.Errorf("live.transport must be %q or %q: %q", TransportGenAI, TransportWebSocket, c.Live.Transport))
	}
	if !c.History.InMemory && c.History.Dir == "" {
		errs = append(errs, fmt.Errorf("history.dir is required unless history.in_memory is set"))
	}
	if c.Storage.S3Bucket == "" && c.Storage.Dir == "" {
		errs = append(errs, fmt.Errorf("storage.dir or storage.s3_bucket is required"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("設定が不正です: %w", errors.Join(errs...))
	}
	return nil
}

// RequireAPIKey はリモート呼び出しに必要な API キーが設定されているか確認します。
func (c *Config) RequireAPIKey() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("API キーが設定されていません (GEMINI_API_KEY または api_key)")
	}
	return nil
}
