package event

import (
	"encoding/json"
	"time"
)

// AggregateType はイベントの対象となるエンティティの種類を表す。
type AggregateType string

const (
	// AggregateTypeRecognition は1回の音声認識リクエストを表す。
	AggregateTypeRecognition AggregateType = "Recognition"
)

// Type はイベントの種類を表す。
type Type string

const (
	// TypeRecognitionForwarded は音声ファイルを上流ASRに転送し、応答を受け取ったことを表す。
	// 上流がエラーステータスを返した場合もこのイベントになる。
	TypeRecognitionForwarded Type = "RecognitionForwarded"
	// TypeRecognitionFailed は上流ASRとの通信に失敗したことを表す。
	TypeRecognitionFailed Type = "RecognitionFailed"
	// TypeRecognitionRejected は入力不足や設定不備により転送前に拒否したことを表す。
	TypeRecognitionRejected Type = "RecognitionRejected"
)

// Event は追記専用のジャーナルに記録される不変のイベントレコードを表す。
type Event struct {
	// ID はイベントの一意識別子（UUID）。
	ID string `json:"id"`
	// AggregateID は対象エンティティの識別子。音声認識ではリクエストIDを使う。
	AggregateID string `json:"aggregate_id"`
	// AggregateType は対象エンティティの種類。
	AggregateType AggregateType `json:"aggregate_type"`
	// EventType はイベントの種類。
	EventType Type `json:"event_type"`
	// Data はイベント固有のデータ（JSON形式）。
	Data json.RawMessage `json:"data"`
	// Version はAggregate内でのイベントの順序番号。
	Version int64 `json:"version"`
	// CreatedAt はイベントが作成された日時。
	CreatedAt time.Time `json:"created_at"`
}

// RecognitionForwardedData はRecognitionForwardedイベントのデータ。
// 音声データやレスポンスボディそのものは保持しない。
type RecognitionForwardedData struct {
	// Filename はアップロードされたファイル名。
	Filename string `json:"filename"`
	// ContentType は上流に送ったMIMEタイプ。
	ContentType string `json:"content_type"`
	// Size は音声ファイルのサイズ（バイト）。
	Size int64 `json:"size"`
	// UpstreamStatus は上流が返したHTTPステータスコード。
	UpstreamStatus int `json:"upstream_status"`
	// LatencyMillis は上流呼び出しにかかった時間（ミリ秒）。
	LatencyMillis int64 `json:"latency_ms"`
}

// RecognitionFailedData はRecognitionFailedイベントのデータ。
type RecognitionFailedData struct {
	// Filename はアップロードされたファイル名。
	Filename string `json:"filename"`
	// Reason は失敗の理由。
	Reason string `json:"reason"`
}

// RecognitionRejectedData はRecognitionRejectedイベントのデータ。
type RecognitionRejectedData struct {
	// Reason はクライアントに返したエラーメッセージ。
	Reason string `json:"reason"`
	// Status はクライアントに返したHTTPステータスコード。
	Status int `json:"status"`
}
