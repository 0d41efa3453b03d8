package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"ViewTube/config"
	"ViewTube/storage"

	"github.com/spf13/cobra"
)

var minioPrefix string

var minioCmd = &cobra.Command{
	Use:   "minio",
	Short: "Inspect the media bucket",
	Long:  `Shows object count, total size and last modification time for the media bucket, optionally restricted to a prefix such as avatars/ or covers/.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()

		client, err := storage.NewMinioClient(cfg)
		if err != nil {
			log.Fatalf("Failed to connect to MinIO: %v", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		count, size, last, err := client.Stat(ctx, minioPrefix)
		if err != nil {
			log.Fatalf("Failed to stat bucket: %v", err)
		}

		fmt.Printf("Bucket: %s\n", cfg.MinioBucket)
		if minioPrefix != "" {
			fmt.Printf("Prefix: %s\n", minioPrefix)
		}
		fmt.Printf("Objects: %d\n", count)
		fmt.Printf("Total size: %.2f MB\n", float64(size)/1024/1024)
		if !last.IsZero() {
			fmt.Printf("Last modified: %s\n", last.Format(time.RFC3339))
		}
	},
}

func init() {
	minioCmd.Flags().StringVarP(&minioPrefix, "prefix", "p", "", "object key prefix to restrict the listing")
	rootCmd.AddCommand(minioCmd)
}
