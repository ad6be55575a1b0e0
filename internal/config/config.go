// Package config はゲートウェイの設定を読み込む。
//
// 設定は、組み込みのデフォルト値、YAMLファイル、環境変数の順に上書きされる。
// 上流の音声認識APIのURLとアクセストークンはコードに埋め込まず、
// 必ずファイルか環境変数から与える。
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"go.yaml.in/yaml/v3"
)

// デフォルト値。
const (
	DefaultEnv         = "development"
	DefaultPort        = "8000"
	DefaultFrontendURL = "http://localhost:5173"
	DefaultDBPath      = "/data/gateway.db"
	DefaultTimeout     = 30 * time.Second
)

// Config はゲートウェイ全体の設定。
type Config struct {
	// Env はデプロイ環境のラベル（APP_ENV）。ヘルスチェックで表示する。
	Env string `yaml:"env"`
	// Port はリッスンするポート番号。
	Port string `yaml:"port"`
	// FrontendURL はCORSで許可するフロントエンドのオリジン。
	FrontendURL string `yaml:"frontend_url"`
	// DBPath は転送記録を保存するSQLiteファイルのパス。
	DBPath string `yaml:"db_path"`
	// LogFile は空でなければログを書き出すファイル。
	LogFile string `yaml:"log_file"`
	// Upstream は上流の音声認識APIの設定。
	Upstream Upstream `yaml:"upstream"`
}

// Upstream は上流の音声認識APIの設定。
type Upstream struct {
	// URL は音声ファイルをPOSTする上流のエンドポイント。
	URL string `yaml:"url"`
	// Token はaccess-tokenヘッダーに載せる認証情報。
	Token string `yaml:"token"`
	// Timeout は上流呼び出し1回あたりのタイムアウト。0ならタイムアウトしない。
	Timeout time.Duration `yaml:"timeout"`
}

// Configured はURLとトークンの両方が設定されているかを返す。
func (u Upstream) Configured() bool {
	return u.URL != "" && u.Token != ""
}

// Debug は開発モードで動かすべきかを返す。
func (c *Config) Debug() bool {
	return c.Env == DefaultEnv
}

// Addr はhttp.Serverに渡すリッスンアドレスを返す。全インターフェースで待ち受ける。
func (c *Config) Addr() string {
	return ":" + c.Port
}

// Default はデフォルト値だけで構成した設定を返す。
func Default() *Config {
	return &Config{
		Env:         DefaultEnv,
		Port:        DefaultPort,
		FrontendURL: DefaultFrontendURL,
		DBPath:      DefaultDBPath,
		Upstream: Upstream{
			Timeout: DefaultTimeout,
		},
	}
}

// Load はpathのYAMLファイル（空なら読まない）と環境変数から設定を読み込む。
func Load(path string) (*Config, error) {
	return load(path, os.LookupEnv)
}

// load はLoadの実体。テストから環境変数の参照先を差し替えられるようにしている。
func load(path string, lookupEnv func(string) (string, bool)) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("設定ファイルの読み込みに失敗: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("設定ファイルのパースに失敗: %w", err)
		}
	}

	if err := applyEnv(cfg, lookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv は設定されている環境変数で値を上書きする。
func applyEnv(cfg *Config, lookupEnv func(string) (string, bool)) error {
	vars := []struct {
		key string
		dst *string
	}{
		{"APP_ENV", &cfg.Env},
		{"PORT", &cfg.Port},
		{"FRONTEND_URL", &cfg.FrontendURL},
		{"DB_PATH", &cfg.DBPath},
		{"LOG_FILE", &cfg.LogFile},
		{"BHASHINI_ASR_URL", &cfg.Upstream.URL},
		{"BHASHINI_TOKEN", &cfg.Upstream.Token},
	}
	for _, s := range vars {
		if v, ok := lookupEnv(s.key); ok && v != "" {
			*s.dst = v
		}
	}

	if v, ok := lookupEnv("UPSTREAM_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("UPSTREAM_TIMEOUTの値が不正: %w", err)
		}
		cfg.Upstream.Timeout = d
	}
	return nil
}

// validate は起動できない設定を検出する。
// 上流のURLとトークンの未設定はここではエラーにせず、リクエスト時に400として扱う。
func (c *Config) validate() error {
	if c.Env == "" {
		return errors.New("envが空です")
	}
	port, err := strconv.Atoi(c.Port)
	if err != nil || port < 0 || port > 65535 {
		return fmt.Errorf("ポート番号が不正: %q", c.Port)
	}
	if c.Upstream.Timeout < 0 {
		return fmt.Errorf("タイムアウトに負の値は指定できません: %s", c.Upstream.Timeout)
	}
	return nil
}
