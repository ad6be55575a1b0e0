package gateway

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/asrgateway/pkg/event"
	"github.com/nao1215/asrgateway/pkg/migration"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Journal は転送結果のイベントを追記・参照する。
// 転送処理はAppendのみを呼び、記録済みのイベントを応答に使うことはない。
type Journal interface {
	// Append はイベントを1件追記する。
	Append(ctx context.Context, ev *event.Event) error
	// Recent は新しい順に最大limit件のイベントを返す。
	Recent(ctx context.Context, limit int) ([]event.Event, error)
}

// sqliteJournal はSQLiteに保存するJournal。
type sqliteJournal struct {
	db *sql.DB
}

// openJournal はdsnのSQLiteを開き、マイグレーションを適用する。
func openJournal(ctx context.Context, logger *slog.Logger, dsn string) (*sqliteJournal, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}
	if dsn == ":memory:" {
		// :memory: は接続ごとに別DBになる
		db.SetMaxOpenConns(1)
	}

	if _, err := migration.Run(ctx, logger, db, migrationsFS, "migrations"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("スキーマ初期化に失敗: %w", err)
	}
	return &sqliteJournal{db: db}, nil
}

// journalDSN はファイルパスからWALとビジータイムアウトを有効にしたDSNを作る。
func journalDSN(path string) string {
	if path == ":memory:" {
		return path
	}
	return "file:" + path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
}

func (j *sqliteJournal) Append(ctx context.Context, ev *event.Event) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO events (id, aggregate_id, aggregate_type, event_type, data, version, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.AggregateID, string(ev.AggregateType), string(ev.EventType),
		string(ev.Data), ev.Version, ev.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("イベントの追記に失敗: %w", err)
	}
	return nil
}

func (j *sqliteJournal) Recent(ctx context.Context, limit int) ([]event.Event, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, aggregate_id, aggregate_type, event_type, data, version, created_at
		FROM events
		ORDER BY rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("イベントの取得に失敗: %w", err)
	}
	defer func() { _ = rows.Close() }()

	events := make([]event.Event, 0, limit)
	for rows.Next() {
		var (
			ev        event.Event
			data      string
			createdAt string
		)
		if err := rows.Scan(&ev.ID, &ev.AggregateID, &ev.AggregateType, &ev.EventType, &data, &ev.Version, &createdAt); err != nil {
			return nil, fmt.Errorf("イベントの読み取りに失敗: %w", err)
		}
		ev.Data = json.RawMessage(data)
		if ev.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("作成日時のパースに失敗: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// Close はデータベース接続を閉じる。
func (j *sqliteJournal) Close() error {
	return j.db.Close()
}
