package journal

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"AgentKit-Chain/deploy/migrations"
	xerrors "AgentKit-Chain/internal/errors"
	"AgentKit-Chain/internal/invocation"
)

const maxListLimit = 500

var embeddedMigrations fs.FS = migrations.Files

// SQLConfig 描述 SQL 调用记录的连接参数。
type SQLConfig struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// SQL 将调用记录写入 MySQL 或 SQLite。
type SQL struct {
	db     *sql.DB
	driver string
}

// OpenSQL 打开数据库并执行迁移。
func OpenSQL(ctx context.Context, cfg SQLConfig) (*SQL, error) {
	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return nil, err
	}
	j := &SQL{db: db, driver: cfg.Driver}
	if err := j.runMigrations(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return j, nil
}

func openDatabase(ctx context.Context, cfg SQLConfig) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("%s DSN 不能为空", cfg.Driver)
	}
	switch cfg.Driver {
	case "mysql", "sqlite":
	default:
		return nil, fmt.Errorf("不支持的 SQL 驱动: %s", cfg.Driver)
	}

	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("连接 %s 失败: %w", cfg.Driver, err)
	}

	if cfg.Driver == "sqlite" {
		// SQLite 只允许单个写连接。
		db.SetMaxOpenConns(1)
	} else {
		if cfg.MaxOpenConns > 0 {
			db.SetMaxOpenConns(cfg.MaxOpenConns)
		} else {
			db.SetMaxOpenConns(20)
		}
		if cfg.MaxIdleConns > 0 {
			db.SetMaxIdleConns(cfg.MaxIdleConns)
		} else {
			db.SetMaxIdleConns(10)
		}
		if cfg.ConnMaxLifetime > 0 {
			db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
		} else {
			db.SetConnMaxLifetime(30 * time.Minute)
		}
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("无法连接到 %s: %w", cfg.Driver, err)
	}
	return db, nil
}

// Record 实现 invocation.Recorder。
func (s *SQL) Record(ctx context.Context, rec invocation.Record) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO invocations
        (id, kind, name, input, status, error_code, message, duration_ns, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, string(rec.Kind), rec.Name, rec.Input, string(rec.Status),
		rec.ErrorCode, rec.Message, int64(rec.Duration), rec.CreatedAt.UnixNano())
	if err != nil {
		return xerrors.Wrap(xerrors.CodeJournalFailure, err, "写入调用记录失败")
	}
	return nil
}

// ListLatest 按时间倒序返回最近的调用记录。
func (s *SQL) ListLatest(ctx context.Context, limit int) ([]invocation.Record, error) {
	limit = clampLimit(limit, maxListLimit)
	rows, err := s.db.QueryContext(ctx, `SELECT id, kind, name, input, status, error_code, message, duration_ns, created_at
        FROM invocations ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeJournalFailure, err, "查询调用记录失败")
	}
	defer rows.Close()

	var out []invocation.Record
	for rows.Next() {
		var (
			rec                     invocation.Record
			kind, status            string
			input, code, message    sql.NullString
			durationNS, createdAtNS int64
		)
		if err := rows.Scan(&rec.ID, &kind, &rec.Name, &input, &status, &code, &message, &durationNS, &createdAtNS); err != nil {
			return nil, xerrors.Wrap(xerrors.CodeJournalFailure, err, "解析调用记录失败")
		}
		rec.Kind = invocation.Kind(kind)
		rec.Status = invocation.Status(status)
		rec.Input = input.String
		rec.ErrorCode = code.String
		rec.Message = message.String
		rec.Duration = time.Duration(durationNS)
		rec.CreatedAt = time.Unix(0, createdAtNS).UTC()
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, xerrors.Wrap(xerrors.CodeJournalFailure, err, "遍历调用记录失败")
	}
	return out, nil
}

// Close 关闭数据库连接。
func (s *SQL) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

type migrationFile struct {
	version    string
	name       string
	statements []string
}

func (s *SQL) runMigrations(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
        version VARCHAR(32) NOT NULL PRIMARY KEY,
        applied_at BIGINT NOT NULL
)`); err != nil {
		return fmt.Errorf("创建 schema_migrations 表失败: %w", err)
	}

	applied, err := s.loadAppliedVersions(ctx)
	if err != nil {
		return err
	}

	files, err := loadMigrationFiles()
	if err != nil {
		return err
	}
	for _, migration := range files {
		if _, ok := applied[migration.version]; ok {
			continue
		}
		if err := s.applyMigration(ctx, migration); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQL) loadAppliedVersions(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("查询 schema_migrations 失败: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]struct{})
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("解析 schema_migrations 失败: %w", err)
		}
		applied[version] = struct{}{}
	}
	return applied, rows.Err()
}

func (s *SQL) applyMigration(ctx context.Context, migration migrationFile) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("开启迁移事务失败: %w", err)
	}
	for _, stmt := range migration.statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			tx.Rollback()
			return fmt.Errorf("执行迁移 %s 失败: %w", migration.name, err)
		}
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)`, migration.version, time.Now().Unix()); err != nil {
		tx.Rollback()
		return fmt.Errorf("记录迁移版本失败: %w", err)
	}
	return tx.Commit()
}

func loadMigrationFiles() ([]migrationFile, error) {
	entries, err := fs.ReadDir(embeddedMigrations, ".")
	if err != nil {
		return nil, fmt.Errorf("读取迁移目录失败: %w", err)
	}

	var files []migrationFile
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		content, err := fs.ReadFile(embeddedMigrations, entry.Name())
		if err != nil {
			return nil, fmt.Errorf("读取迁移文件 %s 失败: %w", entry.Name(), err)
		}
		var statements []string
		for _, stmt := range strings.Split(string(content), ";") {
			if trimmed := strings.TrimSpace(stmt); trimmed != "" {
				statements = append(statements, trimmed)
			}
		}
		if len(statements) == 0 {
			continue
		}
		version := entry.Name()
		if idx := strings.IndexRune(version, '_'); idx > 0 {
			version = version[:idx]
		}
		files = append(files, migrationFile{version: version, name: entry.Name(), statements: statements})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].version < files[j].version })
	return files, nil
}
