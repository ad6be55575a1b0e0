package event

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// New はdataをJSONにしたイベントを生成する。IDは新しいUUID、作成日時はUTCの現在時刻になる。
func New(aggregateID string, aggregateType AggregateType, eventType Type, version int64, data any) (*Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("%sのデータをJSONにできません: %w", eventType, err)
	}

	return &Event{
		ID:            uuid.NewString(),
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Data:          raw,
		Version:       version,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

// NewRecognition はリクエストIDをAggregateIDとする音声認識イベントを生成する。
// 1リクエストにつき結果は1つなので、バージョンは常に1になる。
func NewRecognition(requestID string, eventType Type, data any) (*Event, error) {
	return New(requestID, AggregateTypeRecognition, eventType, 1, data)
}

// DecodeData はDataをTとして読み出す。
func DecodeData[T any](e *Event) (*T, error) {
	var data T
	if err := json.Unmarshal(e.Data, &data); err != nil {
		return nil, fmt.Errorf("%sのデータを読み出せません: %w", e.EventType, err)
	}
	return &data, nil
}

// Outcome は1回の音声認識リクエストの結果の要約。
type Outcome struct {
	// Status はクライアントに返したHTTPステータスコード。
	Status int `json:"status"`
	// Filename はアップロードされたファイル名。拒否された場合は空。
	Filename string `json:"filename,omitempty"`
}

// OutcomeOf はイベントの種類に応じてDataを読み出し、結果を要約する。
func OutcomeOf(e *Event) (Outcome, error) {
	switch e.EventType {
	case TypeRecognitionForwarded:
		d, err := DecodeData[RecognitionForwardedData](e)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Status: d.UpstreamStatus, Filename: d.Filename}, nil
	case TypeRecognitionFailed:
		d, err := DecodeData[RecognitionFailedData](e)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Status: http.StatusInternalServerError, Filename: d.Filename}, nil
	case TypeRecognitionRejected:
		d, err := DecodeData[RecognitionRejectedData](e)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Status: d.Status}, nil
	default:
		return Outcome{}, fmt.Errorf("未知のイベント種別: %s", e.EventType)
	}
}
