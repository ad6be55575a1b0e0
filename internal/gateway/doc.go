// Package gateway は音声認識ゲートウェイのHTTPサーバーを提供する。
//
// ヘルスチェックに応答し、アップロードされた音声ファイルを上流の
// 音声認識API（Bhashini ASR）へ転送して、その応答を本文もステータスコードも
// 変えずに返す。上流への呼び出しはリクエストごとに1回だけで、リトライも
// キャッシュも行わない。
//
// 転送の結果はSQLiteのジャーナルに追記され、/api/v1/asr/calls で参照できる。
// ジャーナルに音声やレスポンス本文は保存しない。
package gateway
