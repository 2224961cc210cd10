package generator

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/shouni/cinematix-kit/pkg/domain"
	"google.golang.org/genai"
)

// Classify は生成サービスから返ったエラーを domain.RemoteError に分類します。
// 既に RemoteError であればそのまま返し、元のエラーは Unwrap で辿れます。
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var re *domain.RemoteError
	if errors.As(err, &re) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.NewRemoteError(domain.KindTimeout, "", err)
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return domain.NewRemoteError(ClassifyStatus(apiErr.Code, apiErr.Status, apiErr.Message), apiErr.Message, err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return domain.NewRemoteError(ClassifyStatus(apiErrPtr.Code, apiErrPtr.Status, apiErrPtr.Message), apiErrPtr.Message, err)
	}

	return domain.NewRemoteError(ClassifyStatus(0, "", err.Error()), "", err)
}

// ClassifyStatus は HTTP ステータスコード、gRPC ステータス名、メッセージから分類を決定します。
func ClassifyStatus(code int, status, message string) domain.ErrorKind {
	msg := strings.ToLower(message)
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden,
		status == "UNAUTHENTICATED" || status == "PERMISSION_DENIED",
		strings.Contains(msg, "api key not valid"):
		return domain.KindUnauthorized
	case code == http.StatusNotFound, status == "NOT_FOUND",
		strings.Contains(msg, "requested entity was not found"):
		return domain.KindNotFound
	case code == http.StatusTooManyRequests, status == "RESOURCE_EXHAUSTED":
		return domain.KindRateLimited
	case code == http.StatusGatewayTimeout, status == "DEADLINE_EXCEEDED":
		return domain.KindTimeout
	}
	return domain.KindUnknown
}
