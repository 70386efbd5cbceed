package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gomodule/redigo/redis"
)

// RedisQueue pushes notifications as JSON onto a Redis list for a mail
// worker to consume.
type RedisQueue struct {
	pool *redis.Pool
	key  string
}

// NewRedisPool dials addr lazily and pings connections borrowed after
// sitting idle.
func NewRedisPool(addr, password string, useTLS bool) *redis.Pool {
	return &redis.Pool{
		MaxIdle:     4,
		IdleTimeout: 5 * time.Minute,
		Dial: func() (redis.Conn, error) {
			return redis.Dial("tcp", addr,
				redis.DialPassword(password),
				redis.DialUseTLS(useTLS),
				redis.DialConnectTimeout(5*time.Second),
			)
		},
		TestOnBorrow: func(c redis.Conn, t time.Time) error {
			if time.Since(t) < time.Minute {
				return nil
			}
			_, err := c.Do("PING")
			return err
		},
	}
}

// NewRedisQueue constructs a RedisQueue writing to the list at key.
func NewRedisQueue(pool *redis.Pool, key string) *RedisQueue {
	return &RedisQueue{pool: pool, key: key}
}

// Send appends n to the queue.
func (q *RedisQueue) Send(ctx context.Context, n Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	conn, err := q.pool.GetContext(ctx)
	if err != nil {
		return fmt.Errorf("redis connection: %w", err)
	}
	defer conn.Close()

	if _, err := redis.DoContext(conn, ctx, "LPUSH", q.key, payload); err != nil {
		return fmt.Errorf("push notification: %w", err)
	}
	return nil
}

// Ping checks the queue is reachable.
func (q *RedisQueue) Ping(ctx context.Context) error {
	conn, err := q.pool.GetContext(ctx)
	if err != nil {
		return fmt.Errorf("redis connection: %w", err)
	}
	defer conn.Close()
	_, err = redis.DoContext(conn, ctx, "PING")
	return err
}
