package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"sync/atomic"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shouni/cinematix-kit/pkg/config"
	"github.com/shouni/cinematix-kit/pkg/domain"
	"github.com/shouni/cinematix-kit/pkg/generator"
	"github.com/shouni/cinematix-kit/pkg/history"
	"github.com/shouni/cinematix-kit/pkg/imgutil"
	"github.com/shouni/cinematix-kit/pkg/live"
	"github.com/shouni/cinematix-kit/pkg/metrics"
	"github.com/shouni/cinematix-kit/pkg/orchestrator"
	"github.com/shouni/cinematix-kit/pkg/storage"
	"github.com/shouni/cinematix-kit/pkg/video"
	"github.com/shouni/go-http-kit/pkg/httpkit"
	"google.golang.org/genai"
)

const referenceCacheTTL = 30 * time.Minute

// ErrReported は Notifier が既に利用者へ表示した失敗を表します。main はこれを再表示しません。
var ErrReported = errors.New("failure already reported")

// app は1回のコマンド実行で使う依存関係一式です。
type app struct {
	cfg    *config.Config
	orch   *orchestrator.Orchestrator
	store  storage.FileStore
	images *imgutil.Source

	errOut   io.Writer
	reported atomic.Bool

	closers []func() error
}

// newApp は設定から Gemini クライアント、保存先、履歴、計測を組み立てて Orchestrator を作成します。
func newApp(ctx context.Context, cfg *config.Config, opts ...orchestrator.Option) (a *app, err error) {
	if err := cfg.RequireAPIKey(); err != nil {
		return nil, err
	}
	a = &app{cfg: cfg, errOut: os.Stderr}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("Geminiクライアントの初期化に失敗しました: %w", err)
	}

	gen, err := generator.NewClient(client.Models,
		generator.WithModels(cfg.Models),
		generator.WithThinkingBudget(cfg.ThinkingBudget),
		generator.WithImageCompression(cfg.JPEGQuality),
	)
	if err != nil {
		return nil, err
	}

	a.store, err = openStore(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}

	kv, err := openKV(cfg.History)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, kv.Close)
	recent, err := history.Open(ctx, kv)
	if err != nil {
		return nil, err
	}

	m := a.serveMetrics(cfg.MetricsAddr)

	backend, err := video.NewGenAIBackend(client)
	if err != nil {
		return nil, err
	}
	httpClient := httpkit.New(cfg.HTTPTimeout)
	a.images = imgutil.NewSource(httpClient, imgutil.NewMemoryCache(), referenceCacheTTL)

	poller, err := video.NewPoller(backend, httpClient, a.store, cfg.APIKey,
		video.WithModel(cfg.Video.Model),
		video.WithInterval(cfg.Video.PollInterval),
		video.WithMaxWait(cfg.Video.MaxWait),
		video.WithMetrics(m),
	)
	if err != nil {
		return nil, err
	}

	dialer, err := newLiveDialer(client, cfg)
	if err != nil {
		return nil, err
	}

	a.orch, err = orchestrator.New(orchestrator.Deps{
		Generator:   gen,
		Video:       poller,
		LiveDialer:  dialer,
		LiveOutput:  func() (live.Output, error) { return newPlayer(cfg.Live.Player) },
		History:     recent,
		Notifier:    orchestrator.NotifierFunc(a.notify),
		Credentials: envCredentials{cfg: cfg},
		Metrics:     m,
	}, opts...)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, a.orch.Close)
	return a, nil
}

// Close は開いたリソースを逆順に解放します。
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// serveMetrics は addr が指定されていれば /metrics を公開します。未指定なら計測は無効です。
func (a *app) serveMetrics(addr string) *metrics.Metrics {
	if addr == "" {
		return nil
	}
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		slog.Info("メトリクスを公開します", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Warn("メトリクスサーバーが停止しました", "error", err)
		}
	}()
	a.closers = append(a.closers, func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	})
	return m
}

// openStore は S3 バケットが設定されていれば S3、なければローカルディレクトリを保存先にします。
func openStore(ctx context.Context, cfg config.StorageConfig) (storage.FileStore, error) {
	if cfg.S3Bucket == "" {
		return storage.NewLocal(cfg.Dir)
	}
	var optFns []func(*awsconfig.LoadOptions) error
	if cfg.S3Region != "" {
		optFns = append(optFns, awsconfig.WithRegion(cfg.S3Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, fmt.Errorf("AWS設定の読み込みに失敗しました: %w", err)
	}
	return storage.NewS3(s3.NewFromConfig(awsCfg), cfg.S3Bucket, cfg.S3Prefix)
}

func openKV(cfg config.HistoryConfig) (history.KV, error) {
	if cfg.InMemory {
		return history.NewMemory(), nil
	}
	return history.NewBadger(cfg.Dir, false)
}

func newLiveDialer(client *genai.Client, cfg *config.Config) (live.Dialer, error) {
	if cfg.Live.Transport == config.TransportWebSocket {
		return &live.WebSocketDialer{
			URL:    cfg.Live.URL,
			APIKey: cfg.APIKey,
			Model:  cfg.Live.Model,
		}, nil
	}
	return live.NewGenAIDialer(client, cfg.Live.Model)
}

// newPlayer は受信音声の出力先を作成します。
// player コマンドが指定されていれば、その標準入力に PCM を流し込みます。
func newPlayer(player string) (live.Output, error) {
	if player == "" {
		return live.NewStreamOutput(nopWriteCloser{io.Discard}, live.PlaybackFormat), nil
	}
	cmd := exec.Command("sh", "-c", player)
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("再生コマンドの準備に失敗しました: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("再生コマンドの起動に失敗しました: %w", err)
	}
	slog.Debug("再生コマンドを起動しました", "command", player, "format", live.PlaybackFormat.String())
	return live.NewStreamOutput(&playerPipe{WriteCloser: stdin, cmd: cmd}, live.PlaybackFormat), nil
}

type playerPipe struct {
	io.WriteCloser
	cmd *exec.Cmd
}

func (p *playerPipe) Close() error {
	err := p.WriteCloser.Close()
	if werr := p.cmd.Wait(); werr != nil && err == nil {
		err = werr
	}
	return err
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// envCredentials は設定された API キーを唯一の認証情報として扱います。
// CLI では選び直しを対話的に行えないため、再設定の手順を表示します。
type envCredentials struct {
	cfg *config.Config
}

func (c envCredentials) HasCapability(context.Context) (bool, error) {
	return c.cfg.APIKey != "", nil
}

func (c envCredentials) Reselect(context.Context) error {
	fmt.Fprintln(os.Stderr, "有料プロジェクトの API キーを GEMINI_API_KEY に設定してから再実行してください。")
	return nil
}

// notify は通知を表示し、失敗が利用者に伝わったことを記録します。
func (a *app) notify(n orchestrator.Notification) {
	a.reported.Store(true)
	if n.Err != nil {
		fmt.Fprintf(a.errOut, "[%s] %s: %v\n", n.Slot, n.Message, n.Err)
		return
	}
	fmt.Fprintf(a.errOut, "[%s] %s\n", n.Slot, n.Message)
}

// submit はリクエストを実行します。失敗が通知済みなら ErrReported を返し、二重に表示しません。
func (a *app) submit(ctx context.Context, req domain.Request) (domain.Result, error) {
	a.reported.Store(false)
	res, err := a.orch.Submit(ctx, req)
	if err == nil {
		return res, nil
	}
	if _, ok := req.(domain.LiveConnectRequest); ok {
		// ライブ接続の失敗はイベント転送の終了時に通知される
		a.orch.LiveDone()
	}
	if a.reported.Load() {
		return nil, fmt.Errorf("%w: %w", ErrReported, err)
	}
	return nil, err
}
