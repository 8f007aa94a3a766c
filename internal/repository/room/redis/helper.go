package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// addWithIncrement appends the value to the zset with a score one above the
// current maximum, so zset order is insertion order.
func (r repo) addWithIncrement(ctx context.Context, c redis.Scripter, key string, value any) {
	c.EvalSha(ctx, r.maxScoreScript, []string{key}, value)
}

func (r repo) executePipe(ctx context.Context, pipe redis.Pipeliner) error {
	cmds, err := pipe.Exec(ctx)
	if err != nil {
		for _, cmd := range cmds {
			if err := cmd.Err(); err != nil {
				return err
			}
		}

		return err
	}

	return nil
}
