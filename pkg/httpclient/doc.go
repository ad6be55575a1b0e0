// Package httpclient は上流のHTTP APIへファイルを送信するクライアントを提供する。
//
// ゲートウェイが受け取った音声ファイルを、ファイル名とMIMEタイプを
// 保ったままmultipart/form-dataで上流の音声認識APIに転送する。
// 上流のステータスコードは解釈せず、そのまま呼び出し元に返す。
package httpclient
