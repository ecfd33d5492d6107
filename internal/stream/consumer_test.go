package stream

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/RishiKendai/overlap/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStreamClient implements the stream commands the consumer uses.
// Any other command panics on the nil embedded interface.
type fakeStreamClient struct {
	redis.Cmdable

	pending  []redis.XPendingExt
	messages map[string]redis.XMessage
	claimed  []string
	acked    []string
	deleted  []string
	groupErr error
}

func newFakeStreamClient() *fakeStreamClient {
	return &fakeStreamClient{messages: make(map[string]redis.XMessage)}
}

func (f *fakeStreamClient) XGroupCreateMkStream(ctx context.Context, stream, group, start string) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx)
	if f.groupErr != nil {
		cmd.SetErr(f.groupErr)
		return cmd
	}
	cmd.SetVal("OK")
	return cmd
}

func (f *fakeStreamClient) XPendingExt(ctx context.Context, a *redis.XPendingExtArgs) *redis.XPendingExtCmd {
	cmd := redis.NewXPendingExtCmd(ctx)
	cmd.SetVal(f.pending)
	return cmd
}

func (f *fakeStreamClient) XClaim(ctx context.Context, a *redis.XClaimArgs) *redis.XMessageSliceCmd {
	msgs := make([]redis.XMessage, 0, len(a.Messages))
	for _, id := range a.Messages {
		f.claimed = append(f.claimed, id)
		if msg, ok := f.messages[id]; ok {
			msgs = append(msgs, msg)
		}
	}
	cmd := redis.NewXMessageSliceCmd(ctx)
	cmd.SetVal(msgs)
	return cmd
}

func (f *fakeStreamClient) XAck(ctx context.Context, stream, group string, ids ...string) *redis.IntCmd {
	f.acked = append(f.acked, ids...)
	cmd := redis.NewIntCmd(ctx)
	cmd.SetVal(int64(len(ids)))
	return cmd
}

func (f *fakeStreamClient) XDel(ctx context.Context, stream string, ids ...string) *redis.IntCmd {
	f.deleted = append(f.deleted, ids...)
	cmd := redis.NewIntCmd(ctx)
	cmd.SetVal(int64(len(ids)))
	return cmd
}

type fakeRunner struct {
	acceptErr  error
	processErr error
	accepted   []string
	processed  []string
}

func (r *fakeRunner) Accept(ctx context.Context, job *models.BatchJob) error {
	r.accepted = append(r.accepted, job.JobID)
	return r.acceptErr
}

func (r *fakeRunner) Process(ctx context.Context, job *models.BatchJob) error {
	r.processed = append(r.processed, job.JobID)
	return r.processErr
}

func validEntry(id string) redis.XMessage {
	return redis.XMessage{
		ID: id,
		Values: map[string]interface{}{
			FieldOriginalText: "the original essay",
			FieldCandidates:   `[{"id":"a","text":"first candidate"}]`,
		},
	}
}

func newTestConsumer(client redis.Cmdable, runner JobRunner) *Consumer {
	return NewConsumer(client, "comparison:stream", "comparison:group", "consumer-test", runner, Limits{
		MaxCandidates: 5,
		MaxTextBytes:  1024,
	})
}

func TestConsumer_ProcessMessage(t *testing.T) {
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name          string
		msg           redis.XMessage
		ctx           context.Context
		runner        *fakeRunner
		wantErr       bool
		wantDiscarded bool
		wantAccepted  int
		wantProcessed int
	}{
		{
			name:          "completed job is acknowledged and deleted",
			msg:           validEntry("1-0"),
			runner:        &fakeRunner{},
			wantDiscarded: true,
			wantAccepted:  1,
			wantProcessed: 1,
		},
		{
			name:          "unparseable entry is acknowledged and deleted",
			msg:           redis.XMessage{ID: "2-0", Values: map[string]interface{}{FieldOriginalText: "x"}},
			runner:        &fakeRunner{},
			wantErr:       true,
			wantDiscarded: true,
		},
		{
			name: "oversized text is acknowledged and deleted",
			msg: redis.XMessage{ID: "3-0", Values: map[string]interface{}{
				FieldOriginalText: string(make([]byte, 2048)),
				FieldCandidates:   `[{"text":"x"}]`,
			}},
			runner:        &fakeRunner{},
			wantErr:       true,
			wantDiscarded: true,
		},
		{
			name:         "accept failure stays pending",
			msg:          validEntry("4-0"),
			runner:       &fakeRunner{acceptErr: errors.New("mongo unavailable")},
			wantErr:      true,
			wantAccepted: 1,
		},
		{
			name:          "failed run is recorded and the entry removed",
			msg:           validEntry("5-0"),
			runner:        &fakeRunner{processErr: errors.New("store failed")},
			wantErr:       true,
			wantDiscarded: true,
			wantAccepted:  1,
			wantProcessed: 1,
		},
		{
			name:          "run interrupted by shutdown stays pending",
			msg:           validEntry("6-0"),
			ctx:           cancelled,
			runner:        &fakeRunner{processErr: context.Canceled},
			wantErr:       true,
			wantAccepted:  1,
			wantProcessed: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newFakeStreamClient()
			consumer := newTestConsumer(client, tt.runner)
			ctx := tt.ctx
			if ctx == nil {
				ctx = context.Background()
			}

			err := consumer.processMessage(ctx, &tt.msg)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			if tt.wantDiscarded {
				assert.Equal(t, []string{tt.msg.ID}, client.acked)
				assert.Equal(t, []string{tt.msg.ID}, client.deleted)
			} else {
				assert.Empty(t, client.acked)
				assert.Empty(t, client.deleted)
			}
			assert.Len(t, tt.runner.accepted, tt.wantAccepted)
			assert.Len(t, tt.runner.processed, tt.wantProcessed)
		})
	}
}

func TestConsumer_RedeliveryKeepsJobID(t *testing.T) {
	client := newFakeStreamClient()
	runner := &fakeRunner{acceptErr: errors.New("mongo unavailable")}
	consumer := newTestConsumer(client, runner)
	msg := validEntry("1700000000000-0")

	require.Error(t, consumer.processMessage(context.Background(), &msg))
	runner.acceptErr = nil
	require.NoError(t, consumer.processMessage(context.Background(), &msg))

	require.Len(t, runner.accepted, 2)
	assert.Equal(t, "stream-1700000000000-0", runner.accepted[0])
	assert.Equal(t, runner.accepted[0], runner.accepted[1])
	assert.Equal(t, []string{"stream-1700000000000-0"}, runner.processed)
}

func TestConsumer_RecoverPEL(t *testing.T) {
	client := newFakeStreamClient()
	client.pending = []redis.XPendingExt{
		{ID: "1-0", Idle: 2 * time.Minute, RetryCount: 1},
		{ID: "2-0", Idle: 2 * time.Minute, RetryCount: maxDeliveries},
		{ID: "3-0", Idle: time.Second, RetryCount: 1},
	}
	client.messages["1-0"] = validEntry("1-0")
	client.messages["2-0"] = validEntry("2-0")
	client.messages["3-0"] = validEntry("3-0")
	runner := &fakeRunner{}
	consumer := newTestConsumer(client, runner)

	require.NoError(t, consumer.recoverPEL(context.Background()))

	// Idle entries are claimed, exhausted ones dropped, busy ones left alone
	assert.Equal(t, []string{"1-0"}, client.claimed)
	assert.ElementsMatch(t, []string{"1-0", "2-0"}, client.acked)
	assert.ElementsMatch(t, []string{"1-0", "2-0"}, client.deleted)
	assert.Equal(t, []string{"stream-1-0"}, runner.processed)
}

func TestConsumer_RecoverPELNothingIdle(t *testing.T) {
	client := newFakeStreamClient()
	client.pending = []redis.XPendingExt{{ID: "1-0", Idle: time.Second, RetryCount: 1}}
	runner := &fakeRunner{}
	consumer := newTestConsumer(client, runner)

	require.NoError(t, consumer.recoverPEL(context.Background()))

	assert.Empty(t, client.claimed)
	assert.Empty(t, client.acked)
	assert.Empty(t, runner.accepted)
}

func TestConsumer_CreateGroupExists(t *testing.T) {
	client := newFakeStreamClient()
	client.groupErr = errors.New("BUSYGROUP Consumer Group name already exists")
	consumer := newTestConsumer(client, &fakeRunner{})

	assert.NoError(t, consumer.createConsumerGroup(context.Background()))

	client.groupErr = errors.New("NOPERM")
	assert.Error(t, consumer.createConsumerGroup(context.Background()))
}
