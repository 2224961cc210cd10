package live

import "time"

// Scheduler は受信音声チャンクの再生開始時刻を決めます。
// カーソル（前チャンクの終了時刻）は単調に進み、Reset 以外で戻ることはありません。
type Scheduler struct {
	cursor time.Duration
}

// Schedule は now と cursor の遅い方を開始時刻とし、カーソルを dur だけ進めます。
func (s *Scheduler) Schedule(now, dur time.Duration) time.Duration {
	start := max(now, s.cursor)
	s.cursor = start + dur
	return start
}

// Cursor は次のチャンクを置ける最も早い時刻です。
func (s *Scheduler) Cursor() time.Duration { return s.cursor }

// Reset はカーソルを 0 に戻します。セッション破棄時にのみ呼びます。
func (s *Scheduler) Reset() { s.cursor = 0 }
