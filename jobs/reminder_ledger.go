package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const reminderKeyPrefix = "jobs:reminder:sent:"

// minReminderTTL keeps a ledger entry alive for tasks already at their due time.
const minReminderTTL = time.Minute

// ReminderLedger remembers which due dates were already reminded about.
type ReminderLedger interface {
	// MarkSent claims the reminder for taskID at due. It reports false when
	// the reminder was claimed before.
	MarkSent(ctx context.Context, taskID string, due time.Time, ttl time.Duration) (bool, error)
	// Forget releases a claim so a later run can retry the delivery.
	Forget(ctx context.Context, taskID string, due time.Time) error
}

// RedisReminderLedger stores reminder claims as expiring redis keys.
type RedisReminderLedger struct {
	client *redis.Client
}

// NewRedisReminderLedger constructs a ledger backed by client.
func NewRedisReminderLedger(client *redis.Client) *RedisReminderLedger {
	return &RedisReminderLedger{client: client}
}

// MarkSent implements ReminderLedger.
func (l *RedisReminderLedger) MarkSent(ctx context.Context, taskID string, due time.Time, ttl time.Duration) (bool, error) {
	if ttl < minReminderTTL {
		ttl = minReminderTTL
	}
	return l.client.SetNX(ctx, reminderKey(taskID, due), 1, ttl).Result()
}

// Forget implements ReminderLedger.
func (l *RedisReminderLedger) Forget(ctx context.Context, taskID string, due time.Time) error {
	return l.client.Del(ctx, reminderKey(taskID, due)).Err()
}

func reminderKey(taskID string, due time.Time) string {
	return fmt.Sprintf("%s%s:%d", reminderKeyPrefix, taskID, due.UTC().Unix())
}
