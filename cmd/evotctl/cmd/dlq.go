package cmd

import (
	"context"
	"fmt"
	"time"

	"evot/internal/infra"
	"evot/internal/worker"

	"github.com/spf13/cobra"
)

var dlqMax int

var dlqCmd = &cobra.Command{
	Use:   "dlq",
	Short: "Inspect and requeue failed notification emails",
}

var dlqLenCmd = &cobra.Command{
	Use:   "len",
	Short: "Number of emails in the dead-letter queue",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		rdb, err := infra.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer rdb.Close()

		n, err := worker.DLQLength(ctx, rdb, worker.QueueEmail)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), n)
		return nil
	},
}

var dlqRequeueCmd = &cobra.Command{
	Use:   "requeue",
	Short: "Move dead-lettered emails back to the work queue",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		rdb, err := infra.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer rdb.Close()

		n, err := worker.RequeueDLQ(ctx, rdb, worker.QueueEmail, dlqMax)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d jobs requeued\n", n)
		return nil
	},
}

func init() {
	dlqRequeueCmd.Flags().IntVar(&dlqMax, "max", 100, "maximum number of jobs to requeue")
	dlqCmd.AddCommand(dlqLenCmd)
	dlqCmd.AddCommand(dlqRequeueCmd)
}
