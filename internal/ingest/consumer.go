// v1
// internal/ingest/consumer.go

// Package ingest streams behavior records from Kafka into the JSONL
// behavior store so freshly observed segments become available to the
// simulation engine without a restart.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/anappleaday1984/cdp-visualization/internal/breaker"
	"github.com/anappleaday1984/cdp-visualization/internal/metrics"
	"github.com/anappleaday1984/cdp-visualization/internal/models"
)

// Ingest result labels fed into the metrics registry.
const (
	resultAppended    = "appended"
	resultDecodeError = "decode_error"
	resultInvalid     = "invalid_record"
	resultStoreError  = "store_error"
)

// ConsumerConfig captures the runtime tunables required to consume the
// behavior topic. All fields must be populated by the caller.
type ConsumerConfig struct {
	Brokers     []string
	Topic       string
	GroupID     string
	PollTimeout time.Duration
}

// recordSink is the subset of the behavior store the consumer needs.
type recordSink interface {
	Append(models.BehaviorRecord) error
}

// Consumer streams behavior records from Kafka and appends them to the
// store. Decode failures and invalid records are logged and counted,
// never fatal; only context cancellation or a closed reader stops the
// loop.
type Consumer struct {
	cfg    ConsumerConfig
	reader *kafka.Reader
	brk    *breaker.Breaker
	sink   recordSink
	log    *slog.Logger
	poll   time.Duration
}

// NewConsumer builds a Kafka reader guarded by a circuit breaker.
func NewConsumer(cfg ConsumerConfig, sink recordSink, log *slog.Logger) (*Consumer, error) {
	if log == nil {
		return nil, errors.New("logger must not be nil")
	}
	if sink == nil {
		return nil, errors.New("record sink must not be nil")
	}
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("at least one broker is required")
	}
	if strings.TrimSpace(cfg.Topic) == "" {
		return nil, errors.New("behavior topic must not be empty")
	}
	if strings.TrimSpace(cfg.GroupID) == "" {
		return nil, errors.New("consumer group must not be empty")
	}

	poll := cfg.PollTimeout
	if poll <= 0 {
		poll = 5 * time.Second
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		Topic:       cfg.Topic,
		StartOffset: kafka.FirstOffset,
		MinBytes:    1,
		MaxBytes:    10e6,
	})

	brk := breaker.New("behavior-consumer", breaker.Config{}, log)

	return &Consumer{cfg: cfg, reader: reader, brk: brk, sink: sink, log: log, poll: poll}, nil
}

// Close shuts down the underlying Kafka reader.
func (c *Consumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}

// Run blocks until the context is cancelled or the reader is closed,
// consuming messages and appending the decoded records to the store.
func (c *Consumer) Run(ctx context.Context) error {
	if c == nil {
		return errors.New("nil consumer")
	}

	c.log.Info("behavior_consumer_started",
		slog.String("topic", c.cfg.Topic),
		slog.String("group", c.cfg.GroupID),
		slog.String("brokers", strings.Join(c.cfg.Brokers, ",")),
		slog.Duration("pollTimeout", c.poll))
	defer c.log.Info("behavior_consumer_stopped")

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		var msg kafka.Message
		fetchCtx, cancel := context.WithTimeout(ctx, c.poll)
		err := c.brk.Execute(fetchCtx, func(ctx context.Context) error {
			var ferr error
			msg, ferr = c.reader.FetchMessage(ctx)
			return ferr
		})
		cancel()
		if err != nil {
			if errors.Is(err, breaker.ErrOpen) {
				time.Sleep(c.poll)
				continue
			}
			if errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			if errors.Is(err, context.Canceled) {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				continue
			}
			if errors.Is(err, io.ErrClosedPipe) || errors.Is(err, kafka.ErrGroupClosed) {
				return nil
			}
			c.log.Error("behavior_consumer_fetch_error", slog.Any("err", err))
			continue
		}

		c.handle(msg)

		commitCtx, commitCancel := context.WithTimeout(ctx, c.poll)
		if err := c.reader.CommitMessages(commitCtx, msg); err != nil {
			if !(errors.Is(err, context.Canceled) && ctx.Err() != nil) {
				c.log.Error("behavior_consumer_commit_error", slog.Any("err", err))
			}
		}
		commitCancel()
	}
}

// handle decodes and stores one message. Failures never abort the
// stream; each is counted under its reason so losses stay observable.
func (c *Consumer) handle(msg kafka.Message) {
	rec, err := decodeRecord(msg.Value)
	if err != nil {
		metrics.IncIngest(resultDecodeError)
		c.log.Warn("behavior_consumer_decode_error", slog.Any("err", err), slog.Int64("offset", msg.Offset))
		return
	}
	if err := rec.Validate(); err != nil {
		metrics.IncIngest(resultInvalid)
		c.log.Warn("behavior_consumer_invalid_record", slog.Any("err", err), slog.Int64("offset", msg.Offset))
		return
	}
	if err := c.sink.Append(rec); err != nil {
		metrics.IncIngest(resultStoreError)
		c.log.Error("behavior_consumer_store_error", slog.Any("err", err), slog.Int64("offset", msg.Offset))
		return
	}
	metrics.IncIngest(resultAppended)
	c.log.Info("behavior_record_ingested",
		slog.String("group", rec.Persona),
		slog.String("region", rec.Region),
		slog.Int64("offset", msg.Offset))
}

// decodeRecord parses a message value into a behavior record,
// tolerating extra fields the payload may grow over time.
func decodeRecord(raw []byte) (models.BehaviorRecord, error) {
	var rec models.BehaviorRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return models.BehaviorRecord{}, fmt.Errorf("decode behavior payload: %w", err)
	}
	if rec.Timestamp == "" {
		rec.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	return rec, nil
}
