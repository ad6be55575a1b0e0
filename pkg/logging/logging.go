// Package logging はゲートウェイ全体で使う構造化ロガーを生成する。
package logging

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	slogmulti "github.com/samber/slog-multi"
	"gopkg.in/natefinch/lumberjack.v2"
)

// EnvDevelopment は開発環境を表すAPP_ENVの値。
const EnvDevelopment = "development"

type options struct {
	level   slog.Level
	output  io.Writer
	logFile string
}

// Option はロガーの設定を変更する関数。
type Option func(*options)

// WithLevel は出力する最低ログレベルを設定する。
func WithLevel(level slog.Level) Option {
	return func(o *options) {
		o.level = level
	}
}

// WithOutput は標準エラー出力の代わりに使う出力先を設定する。
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		o.output = w
	}
}

// WithLogFile はログを追加で書き出すファイルを設定する。ファイルはサイズでローテートされる。
func WithLogFile(path string) Option {
	return func(o *options) {
		o.logFile = path
	}
}

// New は環境に応じたslog.Loggerを生成する。
// 開発環境ではtintによる色付きのテキスト、それ以外ではJSONで出力する。
// ログファイルが指定された場合、ファイルには環境によらずJSONで出力する。
func New(env string, opts ...Option) *slog.Logger {
	o := &options{
		level:  slog.LevelInfo,
		output: os.Stderr,
	}
	for _, opt := range opts {
		opt(o)
	}

	var handler slog.Handler
	if env == EnvDevelopment {
		handler = tint.NewHandler(o.output, &tint.Options{
			Level:      o.level,
			TimeFormat: time.TimeOnly,
		})
	} else {
		handler = slog.NewJSONHandler(o.output, &slog.HandlerOptions{Level: o.level})
	}

	if o.logFile != "" {
		file := slog.NewJSONHandler(&lumberjack.Logger{
			Filename:   o.logFile,
			MaxSize:    50, // MB
			MaxBackups: 5,
			MaxAge:     28, // days
			Compress:   true,
		}, &slog.HandlerOptions{Level: o.level})
		handler = slogmulti.Fanout(handler, file)
	}

	return slog.New(handler)
}
