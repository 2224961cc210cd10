package utils

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// StripDataURL は "data:image/png;base64,xxxx" 形式からペイロード部分のみを取り出します。
// data URL でない場合は入力をそのまま返します。
func StripDataURL(s string) string {
	if !strings.HasPrefix(s, "data:") {
		return s
	}
	if i := strings.IndexByte(s, ','); i >= 0 {
		return s[i+1:]
	}
	return s
}

// DataURLMimeType は data URL に含まれる MIME タイプを返します。含まれない場合は空文字です。
func DataURLMimeType(s string) string {
	if !strings.HasPrefix(s, "data:") {
		return ""
	}
	head, _, ok := strings.Cut(strings.TrimPrefix(s, "data:"), ",")
	if !ok {
		return ""
	}
	mime, _, _ := strings.Cut(head, ";")
	return mime
}

// DecodeBase64 は base64 文字列（data URL 可）をバイト列に変換します。
func DecodeBase64(s string) ([]byte, error) {
	payload := strings.TrimSpace(StripDataURL(s))
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		// パディングなしの入力も受け付ける
		if raw, rawErr := base64.RawStdEncoding.DecodeString(payload); rawErr == nil {
			return raw, nil
		}
		return nil, fmt.Errorf("base64デコード失敗: %w", err)
	}
	return data, nil
}
