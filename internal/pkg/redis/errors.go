package redis

import (
	"errors"

	"github.com/redis/go-redis/v9"
)

var (
	ErrNil    = redis.Nil
	ErrClosed = errors.New("redis: client is closed")
)

// IsNil reports a missing key
func IsNil(err error) bool {
	return errors.Is(err, redis.Nil)
}
