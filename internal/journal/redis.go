package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	xerrors "AgentKit-Chain/internal/errors"
	"AgentKit-Chain/internal/invocation"
)

// RedisConfig 描述 Redis 调用记录的连接参数。
type RedisConfig struct {
	Address  string
	Password string
	DB       int
	Key      string
	MaxLen   int
}

// Redis 使用 list 保存最近的调用记录，LTRIM 控制长度。
type Redis struct {
	client *redis.Client
	key    string
	maxLen int
}

// NewRedis 创建 Redis 调用记录实例。
func NewRedis(ctx context.Context, cfg RedisConfig) (*Redis, error) {
	if cfg.Address == "" {
		return nil, errors.New("Redis address 不能为空")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("连接 Redis 失败: %w", err)
	}
	return newRedisWithClient(client, cfg.Key, cfg.MaxLen), nil
}

func newRedisWithClient(client *redis.Client, key string, maxLen int) *Redis {
	if key == "" {
		key = "agentkit:invocations"
	}
	if maxLen <= 0 {
		maxLen = defaultCapacity
	}
	return &Redis{client: client, key: key, maxLen: maxLen}
}

// Record 实现 invocation.Recorder。
func (r *Redis) Record(ctx context.Context, rec invocation.Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return xerrors.Wrap(xerrors.CodeJournalFailure, err, "序列化调用记录失败")
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, r.key, payload)
		pipe.LTrim(ctx, r.key, 0, int64(r.maxLen-1))
		return nil
	})
	if err != nil {
		return xerrors.Wrap(xerrors.CodeJournalFailure, err, "Redis 写入调用记录失败")
	}
	return nil
}

// ListLatest 返回最近的调用记录，最新的在前。
func (r *Redis) ListLatest(ctx context.Context, limit int) ([]invocation.Record, error) {
	limit = clampLimit(limit, r.maxLen)
	values, err := r.client.LRange(ctx, r.key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeJournalFailure, err, "Redis 查询调用记录失败")
	}
	out := make([]invocation.Record, 0, len(values))
	for _, value := range values {
		var rec invocation.Record
		if err := json.Unmarshal([]byte(value), &rec); err != nil {
			return nil, xerrors.Wrap(xerrors.CodeJournalFailure, err, "解析调用记录失败")
		}
		out = append(out, rec)
	}
	return out, nil
}

// Close 关闭 Redis 连接。
func (r *Redis) Close() error {
	if r == nil || r.client == nil {
		return nil
	}
	return r.client.Close()
}
