package stream

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/RishiKendai/overlap/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// maxDeliveries bounds how often a pending entry is claimed before it is dropped
const maxDeliveries = 3

// JobRunner accepts and processes batch jobs
type JobRunner interface {
	Accept(ctx context.Context, job *models.BatchJob) error
	Process(ctx context.Context, job *models.BatchJob) error
}

type Consumer struct {
	client              redis.Cmdable
	streamKey           string
	consumerGroup       string
	consumerName        string
	runner              JobRunner
	limits              Limits
	pelRecoveryInterval time.Duration
	minIdleTime         time.Duration
	lastPELCheck        time.Time
}

func NewConsumer(
	client redis.Cmdable,
	streamKey string,
	consumerGroup string,
	consumerName string,
	runner JobRunner,
	limits Limits,
) *Consumer {
	return &Consumer{
		client:              client,
		streamKey:           streamKey,
		consumerGroup:       consumerGroup,
		consumerName:        consumerName,
		runner:              runner,
		limits:              limits,
		pelRecoveryInterval: 30 * time.Second,
		minIdleTime:         time.Minute,
		lastPELCheck:        time.Now(),
	}
}

// Start reads the stream until ctx is cancelled
func (c *Consumer) Start(ctx context.Context) error {
	if err := c.createConsumerGroup(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to create consumer group, may be already exists")
	}

	// Recover PEL messages on startup (handle crash recovery)
	log.Info().Msg("Recovering PEL messages on startup")
	if err := c.recoverPEL(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to recover PEL messages on startup")
	}
	c.lastPELCheck = time.Now()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			if err := c.consume(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				log.Error().Err(err).Msg("Error consuming messages")
				time.Sleep(1 * time.Second) // Brief pause before retrying
			}
		}
	}
}

func (c *Consumer) createConsumerGroup(ctx context.Context) error {
	// MKSTREAM will create the stream if it doesn't exist
	err := c.client.XGroupCreateMkStream(ctx, c.streamKey, c.consumerGroup, "$").Err()
	if err != nil {
		if strings.Contains(err.Error(), "BUSYGROUP") {
			log.Debug().
				Str("group", c.consumerGroup).
				Msg("Consumer group already exists")
			return nil
		}
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	log.Info().
		Str("group", c.consumerGroup).
		Str("stream", c.streamKey).
		Msg("Created new consumer group (will only read new messages)")
	return nil
}

// recoverPEL claims idle entries from the Pending Entry List and reprocesses them.
// Entries delivered maxDeliveries times are discarded.
func (c *Consumer) recoverPEL(ctx context.Context) error {
	pending, err := c.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: c.streamKey,
		Group:  c.consumerGroup,
		Start:  "-",
		End:    "+",
		Count:  100,
	}).Result()

	if err != nil {
		if err == redis.Nil {
			return nil // No pending messages
		}
		return fmt.Errorf("failed to get pending messages: %w", err)
	}

	if len(pending) == 0 {
		return nil
	}

	log.Debug().Int("count", len(pending)).Msg("Found pending messages in PEL")

	messageIDs := make([]string, 0, len(pending))
	for _, p := range pending {
		if p.Idle < c.minIdleTime {
			continue
		}
		if p.RetryCount >= maxDeliveries {
			log.Warn().
				Str("message_id", p.ID).
				Int64("deliveries", p.RetryCount).
				Msg("Dropping stream entry after repeated failures")
			c.discard(ctx, p.ID)
			continue
		}
		messageIDs = append(messageIDs, p.ID)
	}

	if len(messageIDs) == 0 {
		return nil
	}

	claimed, err := c.client.XClaim(ctx, &redis.XClaimArgs{
		Stream:   c.streamKey,
		Group:    c.consumerGroup,
		Consumer: c.consumerName,
		MinIdle:  c.minIdleTime,
		Messages: messageIDs,
	}).Result()

	if err != nil {
		return fmt.Errorf("failed to claim messages: %w", err)
	}

	log.Info().
		Int("claimed", len(claimed)).
		Msg("Claimed PEL messages, processing")

	for _, msg := range claimed {
		if err := c.processMessage(ctx, &msg); err != nil {
			log.Error().
				Err(err).
				Str("message_id", msg.ID).
				Msg("Failed to process claimed PEL message")
		}
	}

	return nil
}

func (c *Consumer) consume(ctx context.Context) error {
	if time.Since(c.lastPELCheck) > c.pelRecoveryInterval {
		if err := c.recoverPEL(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to recover PEL messages")
		}
		c.lastPELCheck = time.Now()
	}

	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.consumerGroup,
		Consumer: c.consumerName,
		Streams:  []string{c.streamKey, ">"},
		Count:    10,          // Read up to 10 messages at a time
		Block:    time.Second, // Block for 1 second if no messages
	}).Result()

	if err == redis.Nil {
		return nil // No messages available
	}
	if err != nil {
		return fmt.Errorf("failed to read from stream: %w", err)
	}

	for _, stream := range streams {
		if stream.Stream != c.streamKey {
			continue
		}

		for _, msg := range stream.Messages {
			if err := c.processMessage(ctx, &msg); err != nil {
				log.Error().
					Err(err).
					Str("message_id", msg.ID).
					Msg("Failed to process message")
			}
		}
	}

	return nil
}

// processMessage runs one stream entry through the batch runner.
// Entries that fail to be accepted stay pending and are retried by PEL recovery.
func (c *Consumer) processMessage(ctx context.Context, msg *redis.XMessage) error {
	job, err := ParseJob(NewStreamMessage(msg), c.limits)
	if err != nil {
		log.Error().Err(err).Str("message_id", msg.ID).Msg("Failed to parse batch job")
		// Bad messages are removed to avoid reprocessing
		c.discard(ctx, msg.ID)
		return err
	}

	if err := c.runner.Accept(ctx, job); err != nil {
		return fmt.Errorf("failed to accept job %s: %w", job.JobID, err)
	}

	processErr := c.runner.Process(ctx, job)
	if processErr != nil && ctx.Err() != nil {
		// Interrupted by shutdown; the entry stays pending for another consumer
		return processErr
	}

	// A failed run is recorded on the report, so the entry is done either way
	c.discard(ctx, msg.ID)

	return processErr
}

// discard acknowledges an entry and deletes it so document text does not
// stay in the stream
func (c *Consumer) discard(ctx context.Context, messageID string) {
	if err := c.client.XAck(ctx, c.streamKey, c.consumerGroup, messageID).Err(); err != nil {
		log.Error().Err(err).Str("message_id", messageID).Msg("Failed to acknowledge message")
		return
	}

	if err := c.client.XDel(ctx, c.streamKey, messageID).Err(); err != nil {
		log.Error().Err(err).Str("message_id", messageID).Msg("Failed to delete message")
		return
	}

	log.Debug().
		Str("message_id", messageID).
		Msg("Message acknowledged and deleted")
}
