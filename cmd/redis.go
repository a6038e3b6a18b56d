package cmd

import (
	"context"
	"fmt"
	"time"

	"Musarty/cache"

	"github.com/spf13/cobra"
)

var redisCmd = &cobra.Command{
	Use:   "redis",
	Short: "Redis连接测试",
	Long:  `连接Redis电台缓存，并进行写入、读取、删除的基本操作。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Redis: %s, DB: %d\n", cfg.RedisAddr(), cfg.RedisDB)

		if err := cache.ConnectRedis(cfg); err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer cache.CloseRedis()
		fmt.Fprintln(out, "Connected.")

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := cache.CheckRoundTrip(ctx, cache.RedisClient); err != nil {
			return fmt.Errorf("round trip: %w", err)
		}
		fmt.Fprintln(out, "Round trip OK.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(redisCmd)
}
