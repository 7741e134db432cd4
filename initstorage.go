package main

import (
	"os"

	"github.com/spf13/cobra"
	log "github.com/sirupsen/logrus"

	"github.com/GoldenManBel/project-management-app/storage"
)

func newInitStorageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-storage",
		Short: "Create the selection table and journal queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(false)
			log.Info("storage init starting")

			connStr := os.Getenv("STORAGE_CONNECTION_STRING")
			if connStr == "" {
				log.Fatal("missing STORAGE_CONNECTION_STRING")
			}
			ctx := cmd.Context()
			if err := storage.CreateTables(ctx, connStr, []string{os.Getenv("SELECTION_TABLE")}); err != nil {
				log.Fatalf("create tables: %v", err)
			}
			if err := storage.CreateQueues(ctx, connStr, []string{os.Getenv("JOURNAL_QUEUE")}); err != nil {
				log.Fatalf("create queues: %v", err)
			}

			log.Info("storage init complete")
			return nil
		},
	}
}
