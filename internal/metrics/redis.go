package metrics

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisQueueSize    = 256
	redisWriteTimeout = 2 * time.Second
)

// RedisReporter publishes each event as JSON on a Redis channel and keeps
// the most recent events in a capped list at "<channel>:recent". Events are
// queued and written from a single goroutine so AddEvent never blocks on
// the network; when the queue is full events are dropped and counted.
type RedisReporter struct {
	client  *redis.Client
	channel string
	keep    int64

	queue chan []byte
	done  chan struct{}
	once  sync.Once

	mu          sync.Mutex
	dropped     int64
	lastDropLog time.Time
}

func NewRedisReporter(client *redis.Client, channel string, keep int) *RedisReporter {
	if keep <= 0 {
		keep = 100
	}
	r := &RedisReporter{
		client:  client,
		channel: channel,
		keep:    int64(keep),
		queue:   make(chan []byte, redisQueueSize),
		done:    make(chan struct{}),
	}
	go r.run()
	return r
}

// RecentKey is the list holding the most recent events.
func (r *RedisReporter) RecentKey() string {
	return r.channel + ":recent"
}

func (r *RedisReporter) AddEvent(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Printf("[metrics] redis marshal %s: %v", ev.EventName(), err)
		return
	}
	select {
	case r.queue <- data:
	default:
		r.recordDrop()
	}
}

func (r *RedisReporter) recordDrop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dropped++
	now := time.Now()
	if r.lastDropLog.IsZero() || now.Sub(r.lastDropLog) >= 10*time.Second {
		log.Printf("[metrics] redis events dropped: %d (queue full)", r.dropped)
		r.dropped = 0
		r.lastDropLog = now
	}
}

func (r *RedisReporter) run() {
	defer close(r.done)
	for data := range r.queue {
		r.write(data)
	}
}

func (r *RedisReporter) write(data []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), redisWriteTimeout)
	defer cancel()

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Publish(ctx, r.channel, data)
		pipe.LPush(ctx, r.RecentKey(), data)
		pipe.LTrim(ctx, r.RecentKey(), 0, r.keep-1)
		return nil
	})
	if err != nil {
		log.Printf("[metrics] redis publish error: %v", err)
	}
}

// Close stops accepting events and waits for queued events to be written.
// The Redis client itself is owned by the caller.
func (r *RedisReporter) Close() error {
	r.once.Do(func() { close(r.queue) })
	<-r.done
	return nil
}
