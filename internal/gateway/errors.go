package gateway

import (
	"errors"
	"net/http"
)

// 転送処理が失敗する理由の分類。いずれもそのリクエストにとって終端的で、リトライしない。
var (
	// ErrMissingInput は音声ファイルのフィールドが無いことを表す。
	ErrMissingInput = errors.New("missing input")
	// ErrMisconfiguredService は上流のURLかトークンが設定されていないことを表す。
	ErrMisconfiguredService = errors.New("misconfigured service")
	// ErrUpstreamUnavailable は上流との通信やその他の予期しない失敗を表す。
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// クライアントに返すエラーメッセージ。
const (
	msgMissingInput         = "Please upload an audio file (wav)"
	msgMisconfiguredService = "Bhashini URL or Token not set"
)

// RequestError はクライアントに返すステータスコードとメッセージを持つエラー。
// errors.Isで分類（ErrMissingInput等）と原因の両方を判定できる。
type RequestError struct {
	// Status はクライアントに返すHTTPステータスコード。
	Status int
	// Message はレスポンスのerrorフィールドに載せる文字列。
	Message string

	kind  error
	cause error
}

// Error はクライアントに返すメッセージを返す。
func (e *RequestError) Error() string {
	return e.Message
}

// Unwrap は分類と原因を返す。
func (e *RequestError) Unwrap() []error {
	if e.cause == nil {
		return []error{e.kind}
	}
	return []error{e.kind, e.cause}
}

func missingInput(cause error) *RequestError {
	return &RequestError{
		Status:  http.StatusBadRequest,
		Message: msgMissingInput,
		kind:    ErrMissingInput,
		cause:   cause,
	}
}

func misconfiguredService() *RequestError {
	return &RequestError{
		Status:  http.StatusBadRequest,
		Message: msgMisconfiguredService,
		kind:    ErrMisconfiguredService,
	}
}

// upstreamUnavailable は原因のエラー文字列をそのままメッセージにする。
func upstreamUnavailable(cause error) *RequestError {
	return &RequestError{
		Status:  http.StatusInternalServerError,
		Message: cause.Error(),
		kind:    ErrUpstreamUnavailable,
		cause:   cause,
	}
}
