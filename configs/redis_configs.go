package configs

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
)

func ConnectRedis(addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		if cerr := client.Close(); cerr != nil {
			log.Println("Error closing Redis client:", cerr)
		}
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}

	log.Println("Connected to Redis!")
	return client, nil
}
