package video

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/shouni/cinematix-kit/pkg/domain"
	"github.com/shouni/cinematix-kit/pkg/generator"
	"github.com/shouni/cinematix-kit/pkg/imgutil"
	"github.com/shouni/cinematix-kit/pkg/metrics"
	"github.com/shouni/cinematix-kit/pkg/storage"
	"github.com/shouni/cinematix-kit/pkg/utils"
	"google.golang.org/genai"
)

const (
	DefaultModel    = "veo-3.1-fast-generate-preview"
	DefaultInterval = 10 * time.Second
	DefaultMaxWait  = 10 * time.Minute

	defaultResolution = "720p"
	defaultMimeType   = "video/mp4"
)

var errMaxWait = errors.New("video operation exceeded max wait")

// Handle は開始済みの動画オペレーションです。状態は Pending から Done / Failed にのみ進みます。
type Handle struct {
	domain.Operation
	op *genai.GenerateVideosOperation
}

// Poller は動画オペレーションを開始し、完了まで一定間隔でポーリングします。
type Poller struct {
	backend  Backend
	fetcher  Fetcher
	store    storage.FileStore
	apiKey   string
	model    string
	interval time.Duration
	maxWait  time.Duration
	metrics  *metrics.Metrics
}

// Option は Poller の生成オプションです。
type Option func(*Poller)

// WithInterval はポーリング間隔を設定します。
func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithMaxWait はオペレーション完了を待つ最大時間を設定します。
func WithMaxWait(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.maxWait = d
		}
	}
}

// WithModel は使用する動画モデルを設定します。
func WithModel(model string) Option {
	return func(p *Poller) {
		if model != "" {
			p.model = model
		}
	}
}

// WithMetrics はポーリング回数の計測先を設定します。
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Poller) { p.metrics = m }
}

// NewPoller は依存関係を注入して Poller を初期化します。
func NewPoller(backend Backend, fetcher Fetcher, store storage.FileStore, apiKey string, opts ...Option) (*Poller, error) {
	if backend == nil || fetcher == nil || store == nil {
		return nil, fmt.Errorf("backend, fetcher, and store are required")
	}
	p := &Poller{
		backend:  backend,
		fetcher:  fetcher,
		store:    store,
		apiKey:   apiKey,
		model:    DefaultModel,
		interval: DefaultInterval,
		maxWait:  DefaultMaxWait,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Generate は動画オペレーションを開始し、完了した動画を保存して返します。
func (p *Poller) Generate(ctx context.Context, req domain.VideoRequest) (*domain.VideoAsset, error) {
	h, err := p.Start(ctx, req)
	if err != nil {
		return nil, err
	}
	return p.Await(ctx, h)
}

// Start は動画オペレーションを開始します。
func (p *Poller) Start(ctx context.Context, req domain.VideoRequest) (*Handle, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var image *genai.Image
	if req.ReferenceImage != "" {
		data, err := utils.DecodeBase64(req.ReferenceImage)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		}
		mimeType, err := imgutil.DetectImageMIME(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		}
		image = &genai.Image{ImageBytes: data, MIMEType: mimeType}
	}

	cfg := &genai.GenerateVideosConfig{
		NumberOfVideos: 1,
		Resolution:     defaultResolution,
		AspectRatio:    domain.CoerceVideoAspectRatio(req.AspectRatio),
	}
	op, err := p.backend.Start(ctx, p.model, req.Prompt, image, cfg)
	if err != nil {
		return nil, fmt.Errorf("動画生成の開始エラー: %w", generator.Classify(err))
	}
	if op == nil {
		return nil, domain.NewRemoteError(domain.KindUnknown, "オペレーションが返されませんでした", nil)
	}

	id := op.Name
	if id == "" {
		id = uuid.NewString()
	}
	slog.InfoContext(ctx, "動画生成を開始しました", "operation", id, "model", p.model, "aspect_ratio", cfg.AspectRatio)
	return &Handle{Operation: domain.Operation{ID: id, Status: domain.OperationPending}, op: op}, nil
}

// Await はオペレーションが終端状態になるまで待ちます。
// 最初の状態確認は開始から1間隔後に行います。最大待ち時間を超えると KindTimeout を返します。
func (p *Poller) Await(ctx context.Context, h *Handle) (*domain.VideoAsset, error) {
	if h == nil || h.op == nil {
		return nil, fmt.Errorf("handle is required")
	}
	switch h.Status {
	case domain.OperationDone:
		return h.Result, nil
	case domain.OperationFailed:
		return nil, h.Err
	}

	waitCtx, cancel := context.WithTimeoutCause(ctx, p.maxWait, errMaxWait)
	defer cancel()

	op := h.op
	if op.Done {
		return p.finish(waitCtx, h, op)
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-waitCtx.Done():
			if errors.Is(context.Cause(waitCtx), errMaxWait) {
				return nil, p.fail(h, domain.NewRemoteError(domain.KindTimeout,
					fmt.Sprintf("動画生成が %s 以内に完了しませんでした", p.maxWait), waitCtx.Err()))
			}
			return nil, p.fail(h, generator.Classify(waitCtx.Err()))
		case <-ticker.C:
			next, err := p.backend.Refresh(waitCtx, op)
			p.metrics.VideoPolled()
			if err != nil {
				return nil, p.fail(h, generator.Classify(err))
			}
			if next == nil || !next.Done {
				slog.DebugContext(ctx, "動画生成を待機中です", "operation", h.ID)
				if next != nil {
					op = next
				}
				continue
			}
			return p.finish(waitCtx, h, next)
		}
	}
}

// finish は完了したオペレーションから動画を取り出し、ストアに保存します。
func (p *Poller) finish(ctx context.Context, h *Handle, op *genai.GenerateVideosOperation) (*domain.VideoAsset, error) {
	h.op = op
	if len(op.Error) > 0 {
		return nil, p.fail(h, operationError(op.Error))
	}

	var video *genai.Video
	if op.Response != nil && len(op.Response.GeneratedVideos) > 0 && op.Response.GeneratedVideos[0] != nil {
		video = op.Response.GeneratedVideos[0].Video
	}
	if video == nil || (video.URI == "" && len(video.VideoBytes) == 0) {
		return nil, p.fail(h, domain.NewRemoteError(domain.KindUnknown, "完了したオペレーションに動画が含まれていません", nil))
	}

	data := video.VideoBytes
	if len(data) == 0 {
		fetched, err := p.fetcher.FetchBytes(ctx, p.withKey(video.URI))
		if err != nil {
			return nil, p.fail(h, fmt.Errorf("動画のダウンロードエラー: %w", generator.Classify(err)))
		}
		data = fetched
	}

	assetID := path.Base(h.ID)
	assetPath := path.Join("videos", assetID+".mp4")
	if err := storage.Put(ctx, p.store, assetPath, data); err != nil {
		return nil, p.fail(h, fmt.Errorf("動画の保存エラー: %w", err))
	}

	mimeType := video.MIMEType
	if mimeType == "" {
		mimeType = defaultMimeType
	}
	asset := &domain.VideoAsset{
		ID:        assetID,
		Path:      assetPath,
		MimeType:  mimeType,
		Size:      int64(len(data)),
		SourceURI: video.URI,
	}
	if err := h.Advance(domain.OperationDone); err != nil {
		return nil, err
	}
	h.Result = asset
	slog.InfoContext(ctx, "動画生成が完了しました", "operation", h.ID, "path", assetPath, "bytes", asset.Size)
	return asset, nil
}

func (p *Poller) fail(h *Handle, err error) error {
	if advErr := h.Advance(domain.OperationFailed); advErr != nil {
		return errors.Join(err, advErr)
	}
	h.Err = err
	return err
}

// withKey はダウンロード URL に API キーを付与します。
func (p *Poller) withKey(raw string) string {
	if p.apiKey == "" {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	q.Set("key", p.apiKey)
	u.RawQuery = q.Encode()
	return u.String()
}

// operationError はオペレーションの error フィールド（google.rpc.Status 形式）を分類します。
func operationError(e map[string]any) error {
	var code int
	switch v := e["code"].(type) {
	case float64:
		code = int(v)
	case int:
		code = v
	case int32:
		code = int(v)
	case int64:
		code = int(v)
	}
	message, _ := e["message"].(string)
	status, _ := e["status"].(string)
	kind := generator.ClassifyStatus(code, status, message)
	if kind == domain.KindUnknown {
		// google.rpc.Code の数値（5=NOT_FOUND, 7=PERMISSION_DENIED, 8=RESOURCE_EXHAUSTED, 16=UNAUTHENTICATED）
		switch code {
		case 5:
			kind = domain.KindNotFound
		case 7, 16:
			kind = domain.KindUnauthorized
		case 8:
			kind = domain.KindRateLimited
		case 4:
			kind = domain.KindTimeout
		}
	}
	if message == "" {
		message = "動画生成オペレーションが失敗しました"
	}
	return domain.NewRemoteError(kind, message, nil)
}
