package main

import (
	"fmt"

	"github.com/shinyyama/market-backend/internal/repository"
	"github.com/shinyyama/market-backend/internal/service"
	"github.com/spf13/cobra"
)

func purgeNotificationsCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "purge-notifications",
		Short: "Delete read notifications older than --days",
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := openDB()
			if err != nil {
				return err
			}
			svc := service.NewNotificationService(repository.NewNotificationRepository(conn))
			n, err := svc.PurgeRead(cmd.Context(), days)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d notifications\n", n)
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 30, "minimum age in days")
	return cmd
}
