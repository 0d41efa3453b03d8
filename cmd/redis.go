package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"ViewTube/cache"
	"ViewTube/config"

	"github.com/spf13/cobra"
)

var redisFlush bool

var redisCmd = &cobra.Command{
	Use:   "redis",
	Short: "Inspect the profile cache",
	Long:  `Lists cached user profile keys, optionally flushing them.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()

		if err := cache.ConnectRedis(cfg); err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer cache.CloseRedis()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		keys, err := cache.RedisClient.Keys(ctx, "user:profile:*").Result()
		if err != nil {
			log.Fatalf("Failed to list cache keys: %v", err)
		}

		fmt.Printf("Cached profiles: %d\n", len(keys))
		for _, key := range keys {
			ttl, _ := cache.RedisClient.TTL(ctx, key).Result()
			fmt.Printf("  %s (ttl %s)\n", key, ttl)
		}

		if redisFlush && len(keys) > 0 {
			if err := cache.RedisClient.Del(ctx, keys...).Err(); err != nil {
				log.Fatalf("Failed to flush cache keys: %v", err)
			}
			fmt.Printf("Flushed %d keys.\n", len(keys))
		}
	},
}

func init() {
	redisCmd.Flags().BoolVar(&redisFlush, "flush", false, "delete all cached profiles")
	rootCmd.AddCommand(redisCmd)
}
