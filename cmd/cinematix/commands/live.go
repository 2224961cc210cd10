package commands

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/shouni/cinematix-kit/pkg/domain"
	"github.com/shouni/cinematix-kit/pkg/live"
	"github.com/shouni/cinematix-kit/pkg/orchestrator"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var liveChunk time.Duration

var liveCmd = &cobra.Command{
	Use:   "live",
	Short: "リアルタイム音声セッションを開始する",
	Long: `標準入力から PCM16LE 16kHz モノラルの音声を読み取り、モデルに送信します。
応答音声は設定の live.player コマンドに PCM16LE 24kHz モノラルで渡され、
文字起こしは標準出力に表示されます。標準入力の終端または Ctrl-C で終了します。

Examples:
  arecord -f S16_LE -r 16000 -c 1 -t raw | cinematix live`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		a, err := newApp(cmd.Context(), cfg, orchestrator.WithLiveEvents(func(ev live.Event) {
			printLiveEvent(out, ev)
		}))
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		if _, err := a.submit(ctx, domain.LiveConnectRequest{}); err != nil {
			return err
		}

		done := make(chan struct{})
		go func() {
			a.orch.LiveDone()
			close(done)
		}()
		chunks := readChunks(cmd.InOrStdin(), live.CaptureFormat.Bytes(liveChunk))

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-done:
					return nil
				case pcm, ok := <-chunks:
					if !ok {
						return a.orch.CloseLive()
					}
					if err := a.orch.SendLiveAudio(gctx, pcm); err != nil {
						if errors.Is(err, live.ErrNotOpen) {
							return nil
						}
						return err
					}
				}
			}
		})
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return a.orch.CloseLive()
			case <-done:
				return nil
			}
		})
		err = g.Wait()
		<-done
		return err
	},
}

// readChunks は r から size バイトずつ読み取って送ります。終端に達するとチャネルを閉じます。
func readChunks(r io.Reader, size int) <-chan []byte {
	ch := make(chan []byte, 4)
	go func() {
		defer close(ch)
		for {
			buf := make([]byte, size)
			n, err := io.ReadFull(r, buf)
			if m := n - n%2; m > 0 {
				ch <- buf[:m]
			}
			if err != nil {
				return
			}
		}
	}()
	return ch
}

func printLiveEvent(w io.Writer, ev live.Event) {
	switch ev.Type {
	case live.EventState:
		fmt.Fprintf(w, "-- %s\n", ev.State)
	case live.EventTranscript:
		fmt.Fprintf(w, "%s: %s\n", ev.Role, ev.Text)
	case live.EventText:
		fmt.Fprintf(w, "model: %s\n", ev.Text)
	case live.EventInterrupted:
		fmt.Fprintln(w, "-- interrupted")
	}
}

func init() {
	liveCmd.Flags().DurationVar(&liveChunk, "chunk", 100*time.Millisecond, "1回に送信する音声の長さ")
}
