package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/asrgateway/internal/config"
	"github.com/nao1215/asrgateway/pkg/httpclient"
	"github.com/nao1215/asrgateway/pkg/middleware"
)

// ServiceName はヘルスチェックで返すサービス名。
const ServiceName = "Arogyabhashini Gateway"

// shutdownTimeout はグレースフルシャットダウンで処理中のリクエストを待つ上限。
const shutdownTimeout = 10 * time.Second

// Server は音声認識ゲートウェイのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// cfg はゲートウェイの設定。
	cfg *config.Config
	// logger は構造化ロガー。
	logger *slog.Logger
	// upstream は上流の音声認識APIへの通信クライアント。
	upstream *httpclient.Client
	// journal は転送結果の記録先。
	journal Journal
	// closeJournal はNewServerが開いたジャーナルを閉じる。
	closeJournal func() error
}

// NewServer は新しいゲートウェイサーバーを生成する。
// cfg.DBPathのSQLiteを開いてスキーマを適用する。
func NewServer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	journal, err := openJournal(ctx, logger, journalDSN(cfg.DBPath))
	if err != nil {
		return nil, err
	}

	s := newServer(cfg, logger, journal)
	s.closeJournal = journal.Close
	s.logUpstream()
	return s, nil
}

// newServer はジャーナルを外から与えてサーバーを組み立てる。
func newServer(cfg *config.Config, logger *slog.Logger, journal Journal) *Server {
	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.CORS([]string{cfg.FrontendURL}))

	s := &Server{
		router:  router,
		cfg:     cfg,
		logger:  logger,
		journal: journal,
		upstream: httpclient.New(cfg.Upstream.URL,
			httpclient.WithTimeout(cfg.Upstream.Timeout),
			httpclient.WithHeader(headerAccessToken, cfg.Upstream.Token),
		),
	}
	s.setupRoutes()

	return s
}

// Handler はルーターをhttp.Handlerとして返す。
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run はHTTPサーバーを起動し、ctxがキャンセルされるまで待ち受ける。
// キャンセル後は処理中のリクエストを待ってから戻る。
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.logger.Info("ゲートウェイを起動しました", "addr", srv.Addr, "env", s.cfg.Env)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("HTTPサーバーの起動に失敗: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("シャットダウンに失敗: %w", err)
	}
	s.logger.Info("ゲートウェイを停止しました")
	return nil
}

// Close はサーバーが保持するリソースを解放する。
func (s *Server) Close() error {
	if s.closeJournal == nil {
		return nil
	}
	return s.closeJournal()
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes() {
	// ヘルスチェック
	s.router.GET("/health", s.handleHealth())

	// 音声認識の転送
	s.router.POST("/test_asr", s.handleRecognize())

	api := s.router.Group("/api/v1")
	{
		// 転送結果の参照
		api.GET("/asr/calls", s.handleListCalls())
	}
}

// handleHealth はヘルスチェックのハンドラを返す。常に200を返す。
func (s *Server) handleHealth() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": ServiceName,
			"env":     s.cfg.Env,
		})
	}
}

// logUpstream は上流の設定状況を起動時にログへ出す。トークンそのものは出力しない。
func (s *Server) logUpstream() {
	up := s.cfg.Upstream
	if !up.Configured() {
		s.logger.Warn("上流のURLまたはトークンが未設定のため、/test_asrは400を返します")
		return
	}

	info := up.TokenInfo()
	attrs := []any{"url", up.URL, "timeout", up.Timeout, "jwt", info.IsJWT}
	if info.IsJWT {
		attrs = append(attrs, "subject", info.Subject, "role", info.Role)
	}
	s.logger.Info("上流の音声認識APIを設定しました", attrs...)

	if info.Expired(time.Now()) {
		s.logger.Warn("アクセストークンの有効期限が切れています", "expires_at", info.ExpiresAt)
	}
}
