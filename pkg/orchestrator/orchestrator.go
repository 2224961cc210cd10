package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shouni/cinematix-kit/pkg/domain"
	"github.com/shouni/cinematix-kit/pkg/generator"
	"github.com/shouni/cinematix-kit/pkg/history"
	"github.com/shouni/cinematix-kit/pkg/live"
	"github.com/shouni/cinematix-kit/pkg/metrics"
)

// Deps は Orchestrator に注入する依存関係です。Generator 以外は省略可能です。
type Deps struct {
	Generator   generator.Generator
	Video       VideoRenderer
	LiveDialer  live.Dialer
	LiveOutput  func() (live.Output, error)
	History     *history.Recent
	Notifier    Notifier
	Credentials CredentialManager
	Metrics     *metrics.Metrics
}

// Orchestrator はスロットごとの処理中フラグと最新結果、チャット履歴、ライブセッションを所有します。
type Orchestrator struct {
	deps   Deps
	now    func() time.Time
	newID  func() string
	onLive func(live.Event)

	mu      sync.Mutex
	pending map[Slot]bool
	latest  map[Slot]domain.Result
	conv    domain.Conversation
	session *live.Session

	liveWG sync.WaitGroup
}

// Option は Orchestrator の生成オプションです。
type Option func(*Orchestrator)

// WithClock は履歴レコードの作成時刻に使う時計を差し替えます。
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithIDGenerator は履歴レコードの ID 生成を差し替えます。
func WithIDGenerator(f func() string) Option {
	return func(o *Orchestrator) { o.newID = f }
}

// WithLiveEvents はライブセッションのイベントを受け取る関数を設定します。
// 関数はイベント転送用の goroutine から順に呼ばれます。
func WithLiveEvents(f func(live.Event)) Option {
	return func(o *Orchestrator) { o.onLive = f }
}

// New は Orchestrator を作成します。
func New(deps Deps, opts ...Option) (*Orchestrator, error) {
	if deps.Generator == nil {
		return nil, fmt.Errorf("generator is required")
	}
	if deps.Notifier == nil {
		deps.Notifier = logNotifier{}
	}
	o := &Orchestrator{
		deps:    deps,
		now:     time.Now,
		newID:   uuid.NewString,
		pending: make(map[Slot]bool),
		latest:  make(map[Slot]domain.Result),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Submit はリクエストを対応するスロットで実行します。
// 同じスロットが処理中なら ErrSlotBusy を即座に返します。異なるスロットは並行して処理されます。
func (o *Orchestrator) Submit(ctx context.Context, req domain.Request) (domain.Result, error) {
	gen := o.deps.Generator
	switch r := req.(type) {
	case domain.PromptRequest:
		return o.run(ctx, SlotPrompt, func(ctx context.Context) (domain.Result, error) {
			bundle, err := gen.GeneratePrompt(ctx, r)
			if err != nil {
				return nil, err
			}
			o.record(ctx, r, bundle)
			return bundle, nil
		})
	case domain.ImageRequest:
		return o.run(ctx, SlotImage, func(ctx context.Context) (domain.Result, error) {
			return nilSafe(gen.GenerateImage(ctx, r))
		})
	case domain.ImageEditRequest:
		return o.run(ctx, SlotImage, func(ctx context.Context) (domain.Result, error) {
			return nilSafe(gen.EditImage(ctx, r))
		})
	case domain.ImageAnalysisRequest:
		return o.run(ctx, SlotImage, func(ctx context.Context) (domain.Result, error) {
			text, err := gen.AnalyzeImage(ctx, r)
			if err != nil {
				return nil, err
			}
			return domain.AnalysisText(text), nil
		})
	case domain.TranscriptionRequest:
		return o.run(ctx, SlotTranscription, func(ctx context.Context) (domain.Result, error) {
			text, err := gen.Transcribe(ctx, r)
			if err != nil {
				return nil, err
			}
			return domain.TranscriptText(text), nil
		})
	case domain.ChatRequest:
		return o.run(ctx, SlotChat, func(ctx context.Context) (domain.Result, error) {
			return o.chat(ctx, r)
		})
	case domain.VideoRequest:
		return o.run(ctx, SlotVideo, func(ctx context.Context) (domain.Result, error) {
			return o.video(ctx, r)
		})
	case domain.LiveConnectRequest:
		if err := o.ConnectLive(ctx); err != nil {
			return nil, err
		}
		return domain.LiveStarted{State: o.LiveState()}, nil
	}
	return nil, fmt.Errorf("%w: %T", ErrUnsupported, req)
}

// nilSafe は型付き nil の結果をインターフェースの nil に揃えます。
func nilSafe(img *domain.ImageAsset, err error) (domain.Result, error) {
	if err != nil {
		return nil, err
	}
	return img, nil
}

// run はスロットを確保して fn を実行し、結果または失敗を記録します。
func (o *Orchestrator) run(ctx context.Context, slot Slot, fn func(context.Context) (domain.Result, error)) (domain.Result, error) {
	o.mu.Lock()
	if o.pending[slot] {
		o.mu.Unlock()
		o.deps.Metrics.Rejected(string(slot))
		slog.DebugContext(ctx, "処理中のスロットへの投入を拒否しました", "slot", slot)
		return nil, ErrSlotBusy
	}
	o.pending[slot] = true
	o.mu.Unlock()

	done := o.deps.Metrics.Begin(string(slot))
	res, err := fn(ctx)

	o.mu.Lock()
	o.pending[slot] = false
	if err == nil {
		o.latest[slot] = res
	}
	o.mu.Unlock()

	if err != nil {
		done(metrics.StatusError)
		o.fail(ctx, slot, err)
		return nil, err
	}
	done(metrics.StatusSuccess)
	return res, nil
}

// fail は失敗1件につき通知を1件だけ発行します。
// NotFound（全スロット）と Unauthorized（動画スロット）は認証情報の再選択で置き換えます。
func (o *Orchestrator) fail(ctx context.Context, slot Slot, err error) {
	kind := domain.KindOf(err)
	reselect := kind == domain.KindNotFound || (slot == SlotVideo && kind == domain.KindUnauthorized)
	if reselect && o.deps.Credentials != nil {
		o.reselect(ctx, slot, err)
		return
	}
	o.deps.Notifier.Notify(Notification{
		Slot:    slot,
		Kind:    NotifyError,
		Message: fmt.Sprintf("%s の処理に失敗しました", slot),
		Err:     err,
	})
}

// reselect は認証情報の再選択を1回だけ求め、その旨を通知します。
func (o *Orchestrator) reselect(ctx context.Context, slot Slot, err error) {
	if rerr := o.deps.Credentials.Reselect(ctx); rerr != nil {
		slog.WarnContext(ctx, "認証情報の再選択に失敗しました", "slot", slot, "error", rerr)
	}
	o.deps.Notifier.Notify(Notification{
		Slot:    slot,
		Kind:    NotifyCredentialReselect,
		Message: "API キーを選び直してください",
		Err:     err,
	})
}

// record はプロンプト生成結果を履歴に追加します。保存の失敗はログのみです。
func (o *Orchestrator) record(ctx context.Context, req domain.PromptRequest, bundle *domain.PromptBundle) {
	if o.deps.History == nil {
		return
	}
	rec := domain.NewPromptRecord(o.newID(), req, bundle, o.now())
	if _, err := o.deps.History.Add(ctx, rec); err != nil {
		slog.WarnContext(ctx, "履歴の保存に失敗しました", "id", rec.ID, "error", err)
	}
}

func (o *Orchestrator) chat(ctx context.Context, req domain.ChatRequest) (domain.Result, error) {
	o.mu.Lock()
	past := o.conv.Messages()
	o.mu.Unlock()

	reply, err := o.deps.Generator.SendMessage(ctx, past, req)
	if err != nil {
		return nil, err
	}

	o.mu.Lock()
	o.conv.Append(
		domain.ChatMessage{Role: domain.RoleUser, Text: req.Text},
		domain.ChatMessage{Role: domain.RoleModel, Text: reply},
	)
	o.mu.Unlock()
	return domain.ChatReply(reply), nil
}

func (o *Orchestrator) video(ctx context.Context, req domain.VideoRequest) (domain.Result, error) {
	if o.deps.Video == nil {
		return nil, fmt.Errorf("%w: video renderer", ErrNotConfigured)
	}
	if creds := o.deps.Credentials; creds != nil {
		ok, err := creds.HasCapability(ctx)
		switch {
		case err != nil:
			slog.WarnContext(ctx, "認証情報の確認に失敗しました", "error", err)
		case !ok:
			slog.InfoContext(ctx, "動画生成に使える API キーが選択されていないため再選択を求めます")
			if err := creds.Reselect(ctx); err != nil {
				slog.WarnContext(ctx, "認証情報の再選択に失敗しました", "error", err)
			}
		}
	}
	asset, err := o.deps.Video.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	return asset, nil
}

// Loading はスロットが処理中かどうかを返します。
func (o *Orchestrator) Loading(slot Slot) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.pending[slot]
}

// Latest はスロットで最後に成功した結果を返します。失敗しても以前の結果は残ります。
func (o *Orchestrator) Latest(slot Slot) domain.Result {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.latest[slot]
}

// Conversation はチャット履歴のコピーを返します。
func (o *Orchestrator) Conversation() []domain.ChatMessage {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.conv.Messages()
}

// History は新しい順のプロンプト履歴を返します。
func (o *Orchestrator) History() []domain.PromptRecord {
	if o.deps.History == nil {
		return nil
	}
	return o.deps.History.List()
}
