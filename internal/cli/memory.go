package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nanairo/memobot/internal/domain"
	"github.com/nanairo/memobot/internal/store"
)

func newMemoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memory",
		Short: "Inspect the conversation memory",
	}

	cmd.AddCommand(newMemorySearchCmd())
	cmd.AddCommand(newMemoryStatsCmd())
	return cmd
}

func newMemorySearchCmd() *cobra.Command {
	var (
		keyword   string
		role      string
		startTime string
		endTime   string
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search stored conversations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			db, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			msgs, err := store.NewConversationStore(db).Query(domain.ConversationQuery{
				Keyword:   keyword,
				Role:      domain.Role(role),
				StartTime: startTime,
				EndTime:   endTime,
				Limit:     limit,
			})
			if err != nil {
				return err
			}

			if len(msgs) == 0 {
				fmt.Println("no matching conversations")
				return nil
			}
			for _, m := range msgs {
				fmt.Printf("[%s] %s: %s\n", m.Timestamp, m.Role, m.Content)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&keyword, "keyword", "", "match messages containing this substring")
	cmd.Flags().StringVar(&role, "role", "", `filter by role ("user" or "assistant")`)
	cmd.Flags().StringVar(&startTime, "start", "", "only messages at or after this timestamp")
	cmd.Flags().StringVar(&endTime, "end", "", "only messages at or before this timestamp")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of messages (0 = no limit)")

	return cmd
}

func newMemoryStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show conversation memory statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			db, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			stats, err := store.NewConversationStore(db).Stats()
			if err != nil {
				return err
			}

			fmt.Printf("total:     %d\n", stats.Total)
			fmt.Printf("user:      %d\n", stats.UserMessages)
			fmt.Printf("assistant: %d\n", stats.AssistantMessages)
			if stats.OldestTimestamp != nil {
				fmt.Printf("oldest:    %s\n", *stats.OldestTimestamp)
			}
			if stats.NewestTimestamp != nil {
				fmt.Printf("newest:    %s\n", *stats.NewestTimestamp)
			}
			return nil
		},
	}
}
