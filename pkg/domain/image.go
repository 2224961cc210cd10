package domain

import (
	"encoding/base64"
	"fmt"
)

// ImageSize は画像生成時の解像度ティアです。
type ImageSize string

const (
	ImageSize1K ImageSize = "1K"
	ImageSize2K ImageSize = "2K"
	ImageSize4K ImageSize = "4K"
)

// DefaultImageAspectRatio はサポート外の比率が指定された場合に使用される比率です。
const DefaultImageAspectRatio = "16:9"

// supportedImageRatios は画像生成モデルが受け付けるアスペクト比の一覧です。
var supportedImageRatios = map[string]struct{}{
	"1:1":  {},
	"3:4":  {},
	"4:3":  {},
	"9:16": {},
	"16:9": {},
}

// CoerceImageAspectRatio はサポート外のアスペクト比を 16:9 に丸めます。
// 既に有効な比率はそのまま返すため、何度適用しても結果は変わりません。
func CoerceImageAspectRatio(ratio string) string {
	if _, ok := supportedImageRatios[ratio]; ok {
		return ratio
	}
	return DefaultImageAspectRatio
}

// CoerceVideoAspectRatio は動画生成用に 16:9 / 9:16 のどちらかへ丸めます。
func CoerceVideoAspectRatio(ratio string) string {
	if ratio == "9:16" {
		return ratio
	}
	return DefaultImageAspectRatio
}

// Valid は解像度ティアが既知の値かどうかを返します。
func (s ImageSize) Valid() bool {
	switch s {
	case ImageSize1K, ImageSize2K, ImageSize4K:
		return true
	}
	return false
}

// ImageAsset は生成・編集された1枚のラスター画像です。
type ImageAsset struct {
	Data     []byte
	MimeType string
}

func (*ImageAsset) isResult() {}

// Base64 は画像データを標準 base64 でエンコードして返します。
func (a *ImageAsset) Base64() string {
	return base64.StdEncoding.EncodeToString(a.Data)
}

// DataURL はブラウザでそのまま表示できる data URL 形式を返します。
func (a *ImageAsset) DataURL() string {
	mime := a.MimeType
	if mime == "" {
		mime = "image/png"
	}
	return fmt.Sprintf("data:%s;base64,%s", mime, a.Base64())
}
