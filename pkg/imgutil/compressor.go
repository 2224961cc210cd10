package imgutil

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"net/http"
	"strings"
)

// CompressToJPEG は画像データ（PNG, GIF, JPEG等）をJPEG形式に圧縮します。
// image.Decodeがサポートするフォーマットに対応しています。
func CompressToJPEG(data []byte, quality int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DetectImageMIME はバイト列から画像の MIME タイプを判定します。画像でなければエラーです。
func DetectImageMIME(data []byte) (string, error) {
	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		return "", fmt.Errorf("画像データではありません (detected: %s)", mimeType)
	}
	return mimeType, nil
}

// PrepareReference は参照画像を送信用に整えます。
// quality が 0 より大きい場合は JPEG に再圧縮し、失敗したときは元データを使います。
func PrepareReference(data []byte, quality int) ([]byte, string, error) {
	mimeType, err := DetectImageMIME(data)
	if err != nil {
		return nil, "", err
	}
	if quality <= 0 {
		return data, mimeType, nil
	}
	compressed, err := CompressToJPEG(data, quality)
	if err != nil {
		return data, mimeType, nil
	}
	return compressed, "image/jpeg", nil
}
