package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"
)

const redisFieldSeparator = "\x1f"

// RedisStore keeps channel ledgers in Redis hashes:
//
//	<prefix>:ledger:<channel>:records   field "<id>\x1f<upload date>" -> JSON record
//	<prefix>:ledger:<channel>:latest    field "<id>" -> status of the newest write
//	<prefix>:ledger:<channel>:revision  monotonically increasing write counter
type RedisStore struct {
	client *redis.Client
	prefix string
	owned  bool
}

// OpenRedis connects to the server at url and verifies it answers PING.
func OpenRedis(ctx context.Context, url, prefix string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	store := NewRedis(client, prefix)
	store.owned = true
	return store, nil
}

// NewRedis wraps an existing client. The caller keeps ownership of client.
func NewRedis(client *redis.Client, prefix string) *RedisStore {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "tubeharvest"
	}
	return &RedisStore{client: client, prefix: prefix}
}

// ForChannel returns the ledger view for channel.
func (s *RedisStore) ForChannel(_ context.Context, channel, _ string) (Ledger, error) {
	channel = strings.TrimSpace(channel)
	if channel == "" {
		return nil, errors.New("channel is required")
	}
	base := s.prefix + ":ledger:" + channel
	return &redisLedger{
		client:      s.client,
		recordsKey:  base + ":records",
		latestKey:   base + ":latest",
		revisionKey: base + ":revision",
	}, nil
}

// Close releases the client when the store opened it.
func (s *RedisStore) Close() error {
	if s == nil || s.client == nil || !s.owned {
		return nil
	}
	return s.client.Close()
}

type redisLedger struct {
	client      *redis.Client
	recordsKey  string
	latestKey   string
	revisionKey string
}

type redisRecord struct {
	VideoURL   string `json:"video_url"`
	VideoID    string `json:"video_id"`
	UploadDate string `json:"upload_date"`
	ScrapedAt  string `json:"scraped_at"`
	Status     string `json:"status"`
	Reason     string `json:"reason,omitempty"`
	Detail     string `json:"detail,omitempty"`
	Revision   int64  `json:"revision"`
}

func (l *redisLedger) Merge(ctx context.Context, records []Record) error {
	batch := MergeRecords(nil, records)
	if len(batch) == 0 {
		return nil
	}
	top, err := l.client.IncrBy(ctx, l.revisionKey, int64(len(batch))).Result()
	if err != nil {
		return fmt.Errorf("reserve ledger revisions: %w", err)
	}
	revision := top - int64(len(batch))

	recordFields := make([]any, 0, len(batch)*2)
	latestFields := make([]any, 0, len(batch)*2)
	for _, rec := range batch {
		revision++
		payload, err := json.Marshal(redisRecord{
			VideoURL:   rec.VideoURL,
			VideoID:    rec.VideoID,
			UploadDate: rec.UploadDate,
			ScrapedAt:  rec.ScrapeDate(),
			Status:     string(rec.Status),
			Reason:     string(rec.Reason),
			Detail:     rec.Detail,
			Revision:   revision,
		})
		if err != nil {
			return fmt.Errorf("encode record %s: %w", rec.VideoID, err)
		}
		recordFields = append(recordFields, rec.VideoID+redisFieldSeparator+rec.UploadDate, payload)
		latestFields = append(latestFields, rec.VideoID, string(rec.Status))
	}

	_, err = l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, l.recordsKey, recordFields...)
		pipe.HSet(ctx, l.latestKey, latestFields...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("write ledger batch: %w", err)
	}
	return nil
}

func (l *redisLedger) Lookup(ctx context.Context, videoID string) (Status, bool, error) {
	raw, err := l.client.HGet(ctx, l.latestKey, videoID).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("lookup %s: %w", videoID, err)
	}
	status, err := ParseStatus(raw)
	if err != nil {
		return "", false, err
	}
	return status, true, nil
}

func (l *redisLedger) List(ctx context.Context) ([]Record, error) {
	values, err := l.client.HGetAll(ctx, l.recordsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	decoded := make([]redisRecord, 0, len(values))
	for field, payload := range values {
		var rec redisRecord
		if err := json.Unmarshal([]byte(payload), &rec); err != nil {
			return nil, fmt.Errorf("decode record %q: %w", field, err)
		}
		decoded = append(decoded, rec)
	}
	sort.Slice(decoded, func(i, j int) bool { return decoded[i].Revision < decoded[j].Revision })

	out := make([]Record, 0, len(decoded))
	for _, rec := range decoded {
		status, err := ParseStatus(rec.Status)
		if err != nil {
			return nil, err
		}
		out = append(out, Record{
			VideoURL:   rec.VideoURL,
			VideoID:    rec.VideoID,
			UploadDate: rec.UploadDate,
			ScrapedAt:  parseScrapeDate(rec.ScrapedAt),
			Status:     status,
			Reason:     Reason(rec.Reason),
			Detail:     rec.Detail,
		})
	}
	return out, nil
}
