package gateway

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/nao1215/asrgateway/pkg/event"
	"github.com/nao1215/asrgateway/pkg/httpclient"
	"github.com/nao1215/asrgateway/pkg/middleware"
)

const (
	// fieldAudioFile は音声ファイルを受け取るmultipartのフィールド名。上流にも同じ名前で送る。
	fieldAudioFile = "audio_file"
	// headerAccessToken は上流の認証トークンを載せるヘッダー。
	headerAccessToken = "access-token"
	// defaultCallsLimit は転送記録一覧のデフォルト件数。
	defaultCallsLimit = 50
	// maxCallsLimit は転送記録一覧の最大件数。
	maxCallsLimit = 500
)

// audio はアップロードされた音声ファイル。1リクエストの間だけ保持する。
type audio struct {
	filename    string
	contentType string
	data        []byte
}

// handleRecognize は音声ファイルを上流の音声認識APIに転送するハンドラを返す。
// 上流が応答した場合は本文とステータスコードをそのまま返す。
func (s *Server) handleRecognize() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.cfg.Upstream.Configured() {
			s.fail(c, misconfiguredService(), "")
			return
		}

		in, err := readAudio(c)
		if err != nil {
			s.fail(c, err, "")
			return
		}

		ctx := httpclient.WithRequestID(c.Request.Context(), middleware.GetRequestID(c))
		start := time.Now()
		resp, err := s.upstream.PostFile(ctx, "", fieldAudioFile, httpclient.File{
			Filename:    in.filename,
			ContentType: in.contentType,
			Content:     bytes.NewReader(in.data),
		})
		if err != nil {
			s.fail(c, upstreamUnavailable(err), in.filename)
			return
		}
		latency := time.Since(start)

		s.record(c, event.TypeRecognitionForwarded, event.RecognitionForwardedData{
			Filename:       in.filename,
			ContentType:    in.contentType,
			Size:           int64(len(in.data)),
			UpstreamStatus: resp.StatusCode,
			LatencyMillis:  latency.Milliseconds(),
		})
		s.logger.InfoContext(c.Request.Context(), "音声を上流に転送しました",
			"request_id", middleware.GetRequestID(c),
			"filename", in.filename,
			"content_type", in.contentType,
			"size", len(in.data),
			"upstream_status", resp.StatusCode,
			"latency", latency,
		)

		relay(c, resp)
	}
}

// readAudio はリクエストからaudio_fileを読み取る。
// フィールドが無い場合やmultipartとして解釈できない場合はErrMissingInputになる。
// filenameが空のパートはmultipartの仕様上フォーム値として扱われるため、これも欠落とみなす。
// MIMEタイプが宣言されていない場合は中身から推定する。
func readAudio(c *gin.Context) (*audio, error) {
	fh, err := c.FormFile(fieldAudioFile)
	if err != nil {
		return nil, missingInput(err)
	}

	f, err := fh.Open()
	if err != nil {
		return nil, upstreamUnavailable(fmt.Errorf("アップロードファイルを開けません: %w", err))
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, upstreamUnavailable(fmt.Errorf("アップロードファイルの読み取りに失敗: %w", err))
	}

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = mimetype.Detect(data).String()
	}

	return &audio{
		filename:    fh.Filename,
		contentType: contentType,
		data:        data,
	}, nil
}

// relay は上流のレスポンスをクライアントに返す。
// JSONの本文はバイト列を変えずにapplication/jsonで返し、
// それ以外は上流のContent-Typeのまま返す。
func relay(c *gin.Context, resp *httpclient.Response) {
	if resp.IsJSON() {
		c.Data(resp.StatusCode, "application/json; charset=utf-8", resp.Body)
		return
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Data(resp.StatusCode, contentType, resp.Body)
}

// fail はエラーをJSONで返し、ジャーナルとログに残す。
// RequestError以外のエラーはUpstreamUnavailableとして扱う。
func (s *Server) fail(c *gin.Context, err error, filename string) {
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		reqErr = upstreamUnavailable(err)
	}

	if errors.Is(reqErr, ErrUpstreamUnavailable) {
		s.record(c, event.TypeRecognitionFailed, event.RecognitionFailedData{
			Filename: filename,
			Reason:   reqErr.Message,
		})
		s.logger.ErrorContext(c.Request.Context(), "上流の音声認識APIを呼び出せませんでした",
			"request_id", middleware.GetRequestID(c),
			"filename", filename,
			"error", err,
		)
	} else {
		s.record(c, event.TypeRecognitionRejected, event.RecognitionRejectedData{
			Reason: reqErr.Message,
			Status: reqErr.Status,
		})
		s.logger.WarnContext(c.Request.Context(), "リクエストを拒否しました",
			"request_id", middleware.GetRequestID(c),
			"reason", reqErr.Message,
		)
	}

	c.JSON(reqErr.Status, gin.H{"error": reqErr.Message})
}

// record はイベントをジャーナルに追記する。
// 追記に失敗してもクライアントへの応答は変えず、ログに残すだけにする。
func (s *Server) record(c *gin.Context, eventType event.Type, data any) {
	ctx := c.Request.Context()
	ev, err := event.NewRecognition(middleware.GetRequestID(c), eventType, data)
	if err == nil {
		// クライアントが切断してもジャーナルには書き込む
		err = s.journal.Append(context.WithoutCancel(ctx), ev)
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "ジャーナルへの記録に失敗しました",
			"request_id", middleware.GetRequestID(c),
			"event_type", eventType,
			"error", err,
		)
	}
}

// call は転送記録一覧の1件。イベントに結果の要約を添える。
type call struct {
	event.Event
	event.Outcome
}

// handleListCalls は転送記録を新しい順に返すハンドラを返す。
// クエリパラメータlimitで件数を指定できる（1〜500、デフォルト50）。
func (s *Server) handleListCalls() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := defaultCallsLimit
		if v := c.Query("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 || n > maxCallsLimit {
				c.JSON(http.StatusBadRequest, gin.H{
					"error": fmt.Sprintf("limitは1から%dの整数で指定してください", maxCallsLimit),
				})
				return
			}
			limit = n
		}

		events, err := s.journal.Recent(c.Request.Context(), limit)
		if err != nil {
			s.logger.ErrorContext(c.Request.Context(), "転送記録の取得に失敗しました", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "転送記録の取得に失敗しました"})
			return
		}

		calls := make([]call, 0, len(events))
		for _, ev := range events {
			outcome, err := event.OutcomeOf(&ev)
			if err != nil {
				s.logger.WarnContext(c.Request.Context(), "転送記録を要約できません", "event_id", ev.ID, "error", err)
			}
			calls = append(calls, call{Event: ev, Outcome: outcome})
		}

		c.JSON(http.StatusOK, gin.H{"calls": calls})
	}
}
