package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidInput は呼び出し側の入力が不正な場合のエラーです。リモート呼び出しは行われません。
var ErrInvalidInput = errors.New("invalid input")

// ErrorKind はリモートエラーの分類です。
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindUnauthorized
	KindNotFound
	KindRateLimited
	KindMalformed
	KindTimeout
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	case KindRateLimited:
		return "rate_limited"
	case KindMalformed:
		return "malformed"
	case KindTimeout:
		return "timeout"
	}
	return "unknown"
}

// RemoteError は生成サービス呼び出しの失敗を分類したものです。
type RemoteError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

// NewRemoteError は RemoteError を生成します。
func NewRemoteError(kind ErrorKind, message string, err error) *RemoteError {
	return &RemoteError{Kind: kind, Message: message, Err: err}
}

func (e *RemoteError) Error() string {
	if e.Err != nil && e.Message == "" {
		return fmt.Sprintf("remote %s: %v", e.Kind, e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("remote %s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("remote %s: %s", e.Kind, e.Message)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// KindOf はエラーチェーンから RemoteError の分類を取り出します。
// RemoteError を含まない場合は KindUnknown です。
func KindOf(err error) ErrorKind {
	var re *RemoteError
	if errors.As(err, &re) {
		return re.Kind
	}
	return KindUnknown
}
