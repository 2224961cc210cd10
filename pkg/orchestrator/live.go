package orchestrator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/cinematix-kit/pkg/domain"
	"github.com/shouni/cinematix-kit/pkg/live"
)

// ConnectLive は新しいライブセッションを開きます。同時に開けるのは1セッションだけです。
// セッションがエラーで終了した場合、Closed になった後に通知が1件だけ発行されます。
func (o *Orchestrator) ConnectLive(ctx context.Context) error {
	if o.deps.LiveDialer == nil || o.deps.LiveOutput == nil {
		return fmt.Errorf("%w: live dialer/output", ErrNotConfigured)
	}

	o.mu.Lock()
	if o.session != nil && o.session.State() != domain.LiveClosed {
		o.mu.Unlock()
		return live.ErrAlreadyActive
	}
	sess, err := live.New(o.deps.LiveDialer, o.deps.LiveOutput, live.WithMetrics(o.deps.Metrics))
	if err != nil {
		o.mu.Unlock()
		return err
	}
	o.session = sess
	o.mu.Unlock()

	o.liveWG.Add(1)
	go o.forward(sess)

	if err := sess.Connect(ctx); err != nil {
		return err
	}
	return nil
}

// forward はセッションのイベントを購読者に渡し、終了時にエラーがあれば通知します。
func (o *Orchestrator) forward(sess *live.Session) {
	defer o.liveWG.Done()
	for ev := range sess.Events() {
		if o.onLive != nil {
			o.onLive(ev)
		}
	}
	if err := sess.Err(); err != nil {
		ctx := context.Background()
		if domain.KindOf(err) == domain.KindNotFound && o.deps.Credentials != nil {
			o.reselect(ctx, SlotLive, err)
		} else {
			o.deps.Notifier.Notify(Notification{
				Slot:    SlotLive,
				Kind:    NotifyLiveError,
				Message: "ライブセッションが切断されました",
				Err:     err,
			})
		}
	}
	slog.Debug("ライブセッションのイベント転送を終了しました")
}

// SendLiveAudio は開いているライブセッションにマイク音声を送ります。
func (o *Orchestrator) SendLiveAudio(ctx context.Context, pcm []byte) error {
	o.mu.Lock()
	sess := o.session
	o.mu.Unlock()
	if sess == nil {
		return live.ErrNotOpen
	}
	return sess.SendAudio(ctx, pcm)
}

// CloseLive は開いているライブセッションを閉じます。セッションが無ければ何もしません。
func (o *Orchestrator) CloseLive() error {
	o.mu.Lock()
	sess := o.session
	o.mu.Unlock()
	if sess == nil {
		return nil
	}
	return sess.Close()
}

// LiveState は現在のライブセッションの状態です。セッションが無ければ Idle です。
func (o *Orchestrator) LiveState() domain.LiveState {
	o.mu.Lock()
	sess := o.session
	o.mu.Unlock()
	if sess == nil {
		return domain.LiveIdle
	}
	return sess.State()
}

// LiveDone は現在のライブセッションの終了を待ちます。
func (o *Orchestrator) LiveDone() {
	o.liveWG.Wait()
}

// Close はライブセッションを閉じ、イベント転送の終了を待ちます。
func (o *Orchestrator) Close() error {
	err := o.CloseLive()
	o.liveWG.Wait()
	return err
}
