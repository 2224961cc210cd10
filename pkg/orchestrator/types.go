// Package orchestrator はモダリティごとのリクエストを受け付け、スロット単位の状態と通知を管理します。
package orchestrator

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shouni/cinematix-kit/pkg/domain"
)

// Slot は同時に1件だけ処理できるリクエストの区分です。
type Slot string

const (
	SlotPrompt        Slot = "prompt"
	SlotVideo         Slot = "video"
	SlotImage         Slot = "image" // 生成・編集・分析で共有
	SlotChat          Slot = "chat"
	SlotTranscription Slot = "transcription"
	SlotLive          Slot = "live"
)

var (
	// ErrSlotBusy は処理中のスロットに新しいリクエストを投入した場合のエラーです。
	ErrSlotBusy = errors.New("orchestrator: slot busy")
	// ErrUnsupported は未対応のリクエスト種別です。
	ErrUnsupported = errors.New("orchestrator: unsupported request")
	// ErrNotConfigured は必要な依存関係が注入されていない場合のエラーです。
	ErrNotConfigured = errors.New("orchestrator: dependency not configured")
)

// VideoRenderer は動画を生成して保存済みアセットを返します。*video.Poller が満たします。
type VideoRenderer interface {
	Generate(ctx context.Context, req domain.VideoRequest) (*domain.VideoAsset, error)
}

// CredentialManager は API キーの選択状態を扱います。
type CredentialManager interface {
	// HasCapability は現在の認証情報で有料機能（動画生成）が使えるかを返します。
	HasCapability(ctx context.Context) (bool, error)
	// Reselect は利用者に認証情報の選び直しを促します。
	Reselect(ctx context.Context) error
}

// NotificationKind は通知の種類です。
type NotificationKind int

const (
	NotifyError NotificationKind = iota
	NotifyCredentialReselect
	NotifyLiveError
)

func (k NotificationKind) String() string {
	switch k {
	case NotifyError:
		return "error"
	case NotifyCredentialReselect:
		return "credential_reselect"
	case NotifyLiveError:
		return "live_error"
	}
	return "unknown"
}

// Notification は利用者に表示する1件の通知です。1回の失敗につき必ず1件だけ発行されます。
type Notification struct {
	Slot    Slot
	Kind    NotificationKind
	Message string
	Err     error
}

// Notifier は通知の表示先です。
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc は関数を Notifier として使うためのアダプタです。
type NotifierFunc func(Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

// logNotifier は Notifier 未指定時の既定実装です。
type logNotifier struct{}

func (logNotifier) Notify(n Notification) {
	slog.Warn(n.Message, "slot", n.Slot, "kind", n.Kind.String(), "error", n.Err)
}
