// 音声認識ゲートウェイのエントリポイント。
// ヘルスチェックと、アップロードされた音声ファイルの上流ASRへの転送を担当する。
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/asrgateway/internal/config"
	"github.com/nao1215/asrgateway/internal/gateway"
	"github.com/nao1215/asrgateway/pkg/logging"
	"github.com/spf13/cobra"
)

// version はビルド時に -ldflags "-X main.version=..." で埋め込む。
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		port       string
	)

	cmd := &cobra.Command{
		Use:          "gateway",
		Short:        "音声認識APIへのゲートウェイを起動する",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("設定の読み込みに失敗: %w", err)
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "YAML設定ファイルのパス")
	cmd.Flags().StringVar(&port, "port", config.DefaultPort, "リッスンするポート番号（PORTより優先）")
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "バージョンを表示する",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Println(version)
		},
	}
}

// serve はサーバーを起動し、SIGINT/SIGTERMを受けるまで待ち受ける。
func serve(ctx context.Context, cfg *config.Config) error {
	var opts []logging.Option
	if cfg.LogFile != "" {
		opts = append(opts, logging.WithLogFile(cfg.LogFile))
	}
	logger := logging.New(cfg.Env, opts...)
	slog.SetDefault(logger)

	if !cfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	server, err := gateway.NewServer(ctx, cfg, logger)
	if err != nil {
		logger.Error("ゲートウェイの初期化に失敗しました", "error", err)
		return err
	}
	defer func() {
		if err := server.Close(); err != nil {
			logger.Error("リソースの解放に失敗しました", "error", err)
		}
	}()

	if err := server.Run(ctx); err != nil {
		logger.Error("ゲートウェイの実行に失敗しました", "error", err)
		return err
	}
	return nil
}
