package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AgentKit-Chain/internal/config"
	xerrors "AgentKit-Chain/internal/errors"
	"AgentKit-Chain/internal/invocation"
)

func sampleRecords(n int) []invocation.Record {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]invocation.Record, 0, n)
	for i := 0; i < n; i++ {
		rec := invocation.Record{
			ID:        fmt.Sprintf("rec-%02d", i),
			Kind:      invocation.KindTool,
			Name:      "flash_open_trade",
			Input:     `{"token":"SOL"}`,
			Status:    invocation.StatusSuccess,
			Duration:  time.Duration(i+1) * time.Millisecond,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		if i%2 == 1 {
			rec.Status = invocation.StatusError
			rec.ErrorCode = string(xerrors.CodeValidationFailed)
			rec.Message = "missing required field: side"
		}
		out = append(out, rec)
	}
	return out
}

func ids(records []invocation.Record) []string {
	out := make([]string, 0, len(records))
	for _, rec := range records {
		out = append(out, rec.ID)
	}
	return out
}

func TestMemoryRing(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory(3)

	empty, err := mem.ListLatest(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, empty)

	for _, rec := range sampleRecords(5) {
		require.NoError(t, mem.Record(ctx, rec))
	}

	latest, err := mem.ListLatest(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"rec-04", "rec-03", "rec-02"}, ids(latest))

	latest, err = mem.ListLatest(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"rec-04", "rec-03"}, ids(latest))
	assert.NoError(t, mem.Close())
}

func TestSQLiteJournal(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "journal.db")

	j, err := OpenSQL(ctx, SQLConfig{Driver: "sqlite", DSN: dsn})
	require.NoError(t, err)

	records := sampleRecords(4)
	for _, rec := range records {
		require.NoError(t, j.Record(ctx, rec))
	}

	latest, err := j.ListLatest(ctx, 2)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, records[3], latest[0])
	assert.Equal(t, records[2], latest[1])
	require.NoError(t, j.Close())

	// Reopening must not re-run applied migrations.
	reopened, err := OpenSQL(ctx, SQLConfig{Driver: "sqlite", DSN: dsn})
	require.NoError(t, err)
	defer reopened.Close()
	all, err := reopened.ListLatest(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	err = reopened.Record(ctx, records[0])
	assert.Equal(t, xerrors.CodeJournalFailure, xerrors.CodeOf(err), "duplicate id must fail")
}

func TestOpenSQLValidation(t *testing.T) {
	_, err := OpenSQL(context.Background(), SQLConfig{Driver: "sqlite"})
	assert.Error(t, err)
	_, err = OpenSQL(context.Background(), SQLConfig{Driver: "postgres", DSN: "x"})
	assert.Error(t, err)
}

func TestRedisJournal(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	j, err := NewRedis(ctx, RedisConfig{Address: mr.Addr(), Key: "test:invocations", MaxLen: 3})
	require.NoError(t, err)
	defer j.Close()

	records := sampleRecords(5)
	for _, rec := range records {
		require.NoError(t, j.Record(ctx, rec))
	}

	values, err := mr.List("test:invocations")
	require.NoError(t, err)
	assert.Len(t, values, 3, "list is capped with LTRIM")

	latest, err := j.ListLatest(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"rec-04", "rec-03"}, ids(latest))
	assert.Equal(t, records[3].ErrorCode, latest[1].ErrorCode)
	assert.True(t, records[4].CreatedAt.Equal(latest[0].CreatedAt))
}

func TestRedisJournalFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	j := newRedisWithClient(client, "", 0)
	mr.Close()

	err := j.Record(context.Background(), sampleRecords(1)[0])
	assert.Equal(t, xerrors.CodeJournalFailure, xerrors.CodeOf(err))
	_ = j.Close()

	_, err = NewRedis(context.Background(), RedisConfig{})
	assert.Error(t, err)
}

type fakePublisher struct {
	published []amqp.Publishing
	keys      []string
	err       error
	closed    bool
}

func (f *fakePublisher) PublishWithContext(_ context.Context, _, key string, _, _ bool, msg amqp.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.keys = append(f.keys, key)
	f.published = append(f.published, msg)
	return nil
}

func (f *fakePublisher) Close() error {
	f.closed = true
	return nil
}

func TestRabbitMQJournalPublishes(t *testing.T) {
	pub := &fakePublisher{}
	j := &RabbitMQ{ch: pub, queue: "agentkit.invocations"}

	rec := sampleRecords(1)[0]
	require.NoError(t, j.Record(context.Background(), rec))

	require.Len(t, pub.published, 1)
	assert.Equal(t, "agentkit.invocations", pub.keys[0])
	assert.Equal(t, "application/json", pub.published[0].ContentType)
	assert.Equal(t, rec.ID, pub.published[0].MessageId)

	var decoded invocation.Record
	require.NoError(t, json.Unmarshal(pub.published[0].Body, &decoded))
	assert.Equal(t, rec.Name, decoded.Name)

	pub.err = errors.New("channel closed")
	err := j.Record(context.Background(), rec)
	assert.Equal(t, xerrors.CodeJournalFailure, xerrors.CodeOf(err))

	require.NoError(t, j.Close())
	assert.True(t, pub.closed)
	assert.Equal(t, xerrors.CodeJournalFailure, xerrors.CodeOf(j.Record(context.Background(), rec)))

	_, err = NewRabbitMQ(RabbitMQConfig{})
	assert.Error(t, err)
}

func TestOpenDrivers(t *testing.T) {
	ctx := context.Background()

	j, err := Open(ctx, config.JournalConfig{Driver: "memory", Capacity: 10})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, j)

	j, err = Open(ctx, config.JournalConfig{Driver: "none"})
	require.NoError(t, err)
	assert.Nil(t, j)

	j, err = Open(ctx, config.JournalConfig{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "j.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQL{}, j)
	require.NoError(t, j.Close())

	mr := miniredis.RunT(t)
	j, err = Open(ctx, config.JournalConfig{Driver: "redis", Redis: config.RedisConfig{Address: mr.Addr()}})
	require.NoError(t, err)
	_, ok := j.(invocation.Lister)
	assert.True(t, ok)
	require.NoError(t, j.Close())

	_, err = Open(ctx, config.JournalConfig{Driver: "kafka"})
	assert.Error(t, err)
}
