// Package event は音声認識ジャーナルに記録するイベントの型を提供する。
//
// ゲートウェイは転送結果をイベントとして追記するだけで、記録済みの
// イベントを転送処理で参照することはない。
package event
