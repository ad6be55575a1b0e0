package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

// TestRootCmd はコマンドライン引数の処理を検証する。
func TestRootCmd(t *testing.T) {
	t.Run("versionサブコマンドでバージョンが表示されること", func(t *testing.T) {
		var out bytes.Buffer
		cmd := newRootCmd()
		cmd.SetOut(&out)
		cmd.SetErr(&out)
		cmd.SetArgs([]string{"version"})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("Execute()でエラーが発生: %v", err)
		}
		if got := strings.TrimSpace(out.String()); got != version {
			t.Errorf("出力 = %q, want %q", got, version)
		}
	})

	t.Run("存在しない設定ファイルを指定するとエラーになること", func(t *testing.T) {
		var out bytes.Buffer
		cmd := newRootCmd()
		cmd.SetOut(&out)
		cmd.SetErr(&out)
		cmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")})

		if err := cmd.Execute(); err == nil {
			t.Fatal("Execute()がエラーを返すべきだが、nilが返った")
		}
	})
}
