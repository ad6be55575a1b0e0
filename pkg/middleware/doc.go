// Package middleware はゲートウェイのGinルーターで使用する共通ミドルウェアを提供する。
//
// リクエストIDの採番、構造化アクセスログ、パニックリカバリ、
// フロントエンド向けのCORS設定を含む。呼び出し元の認証は行わない。
package middleware
