// Package live はリアルタイム音声セッション（双方向ストリーミング）を扱います。
package live

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

// Format は 16bit リニア PCM のフォーマットです。
type Format struct {
	SampleRate int
	Channels   int
}

var (
	// PlaybackFormat はモデルから届く音声のフォーマットです。
	PlaybackFormat = Format{SampleRate: 24000, Channels: 1}
	// CaptureFormat はマイクから送る音声のフォーマットです。
	CaptureFormat = Format{SampleRate: 16000, Channels: 1}
)

// CaptureMIMEType は送信音声の MIME タイプです。
const CaptureMIMEType = "audio/pcm;rate=16000"

const bytesPerSample = 2

// Duration は n バイトの PCM が表す再生時間を返します。
func (f Format) Duration(n int) time.Duration {
	frames := n / bytesPerSample / f.Channels
	return time.Duration(frames) * time.Second / time.Duration(f.SampleRate)
}

// Bytes は d の長さに相当するバイト数を返します。
func (f Format) Bytes(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	frames := int64(d) * int64(f.SampleRate) / int64(time.Second)
	return int(frames) * f.Channels * bytesPerSample
}

func (f Format) String() string {
	return fmt.Sprintf("pcm16le/%dHz/%dch", f.SampleRate, f.Channels)
}

// Buffer はデコード済みの音声バッファです。Samples はチャンネルがインターリーブされた [-1, 1) の値です。
type Buffer struct {
	Samples  []float32
	Format   Format
	Duration time.Duration
}

// DecodePCM16 は 16bit リトルエンディアン PCM を Buffer に変換します。末尾の端数バイトは捨てます。
func (f Format) DecodePCM16(data []byte) *Buffer {
	n := len(data) / bytesPerSample
	samples := make([]float32, n)
	for i := range samples {
		samples[i] = float32(int16(binary.LittleEndian.Uint16(data[i*2:]))) / 32768.0
	}
	return &Buffer{
		Samples:  samples,
		Format:   f,
		Duration: f.Duration(n * bytesPerSample),
	}
}

// EncodePCM16 は [-1, 1] の float32 サンプルを 16bit リトルエンディアン PCM に変換します。
func EncodePCM16(samples []float32) []byte {
	out := make([]byte, len(samples)*bytesPerSample)
	for i, s := range samples {
		v := math.Max(-1, math.Min(1, float64(s)))
		binary.LittleEndian.PutUint16(out[i*2:], uint16(int16(math.Round(v*32767))))
	}
	return out
}
