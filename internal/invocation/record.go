package invocation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"AgentKit-Chain/internal/auth"
	xerrors "AgentKit-Chain/internal/errors"
	"AgentKit-Chain/pkg/logger"
)

// Kind 区分调用来源。
type Kind string

const (
	KindTool   Kind = "tool"
	KindAction Kind = "action"
)

// Status 表示一次调用的最终结果。
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// maxInputBytes 限制审计记录中保存的输入长度。
const maxInputBytes = 4096

// Record 描述一次工具或动作调用，用于审计与遥测。
type Record struct {
	ID        string        `json:"id"`
	Kind      Kind          `json:"kind"`
	Name      string        `json:"name"`
	Input     string        `json:"input,omitempty"`
	Status    Status        `json:"status"`
	ErrorCode string        `json:"error_code,omitempty"`
	Message   string        `json:"message,omitempty"`
	Duration  time.Duration `json:"duration"`
	CreatedAt time.Time     `json:"created_at"`

	// 以下字段只用于告警日志，不写入调用记录存储。
	Severity  xerrors.Severity `json:"-"`
	Retryable bool             `json:"-"`
}

// Recorder 接收调用记录。
type Recorder interface {
	Record(ctx context.Context, rec Record) error
}

// Lister 支持查询最近的调用记录。
type Lister interface {
	ListLatest(ctx context.Context, limit int) ([]Record, error)
}

// RecorderFunc 允许使用函数作为 Recorder。
type RecorderFunc func(ctx context.Context, rec Record) error

// Record 调用函数本身。
func (f RecorderFunc) Record(ctx context.Context, rec Record) error { return f(ctx, rec) }

// New 根据调用结果构造记录。err 为 nil 时视为成功。
func New(kind Kind, name, input string, started time.Time, err error) Record {
	rec := Record{
		ID:        uuid.NewString(),
		Kind:      kind,
		Name:      name,
		Input:     truncate(input),
		Status:    StatusSuccess,
		Duration:  time.Since(started),
		CreatedAt: started.UTC(),
	}
	if err != nil {
		rec.Status = StatusError
		rec.ErrorCode = string(xerrors.CodeOf(err))
		rec.Message = err.Error()
		rec.Severity = xerrors.SeverityOf(err)
		rec.Retryable = xerrors.RetryableError(err)
	}
	return rec
}

// Emit 写入审计日志并投递给 recorder。投递失败只记录日志，不影响调用结果。
func Emit(ctx context.Context, recorder Recorder, rec Record) {
	logger.Audit().Info("invocation",
		slog.String("id", rec.ID),
		slog.String("caller", auth.CallerName(ctx)),
		slog.String("kind", string(rec.Kind)),
		slog.String("name", rec.Name),
		slog.String("status", string(rec.Status)),
		slog.String("error_code", rec.ErrorCode),
		slog.Duration("duration", rec.Duration),
	)
	if rec.ErrorCode != "" {
		if attr := xerrors.AttributesOf(xerrors.Code(rec.ErrorCode)); attr.Alert {
			severity := rec.Severity
			if severity == "" {
				severity = attr.Severity
			}
			logger.L().Error("调用失败需要告警",
				slog.String("name", rec.Name),
				slog.String("error_code", rec.ErrorCode),
				slog.String("severity", string(severity)),
				slog.Bool("retryable", rec.Retryable),
				slog.String("message", rec.Message),
			)
		}
	}
	if recorder == nil {
		return
	}
	if err := recorder.Record(context.WithoutCancel(ctx), rec); err != nil {
		logger.L().Warn("写入调用记录失败", slog.String("name", rec.Name), slog.Any("error", err))
	}
}

// Fanout 将记录广播给多个 recorder。
type Fanout struct {
	recorders []Recorder
}

// NewFanout 创建 Fanout，忽略 nil recorder。
func NewFanout(recorders ...Recorder) *Fanout {
	set := make([]Recorder, 0, len(recorders))
	for _, r := range recorders {
		if r != nil {
			set = append(set, r)
		}
	}
	return &Fanout{recorders: set}
}

// Record 依次投递给所有 recorder，并合并错误。
func (f *Fanout) Record(ctx context.Context, rec Record) error {
	if f == nil {
		return nil
	}
	var errs []error
	for i, r := range f.recorders {
		if err := r.Record(ctx, rec); err != nil {
			errs = append(errs, fmt.Errorf("recorder %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// ListLatest 使用第一个支持查询的 recorder。
func (f *Fanout) ListLatest(ctx context.Context, limit int) ([]Record, error) {
	if f != nil {
		for _, r := range f.recorders {
			if lister, ok := r.(Lister); ok {
				return lister.ListLatest(ctx, limit)
			}
		}
	}
	return nil, xerrors.New(xerrors.CodeNotFound, "no recorder supports listing")
}

// truncate 在字符边界处截断，避免写出非法 UTF-8。
func truncate(input string) string {
	if len(input) <= maxInputBytes {
		return input
	}
	cut := maxInputBytes
	for cut > 0 && !utf8.RuneStart(input[cut]) {
		cut--
	}
	return input[:cut]
}
