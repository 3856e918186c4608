package main

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/tablemind/recall/internal/memory"
	"github.com/tablemind/recall/internal/privacy"
	sqlitestore "github.com/tablemind/recall/modules/memory/sqlite"
)

// openStore loads the configuration and opens the fact store for a
// one-shot CLI command.
func openStore(cmd *cobra.Command) (*sqlitestore.Store, *privacy.Gate, *slog.Logger, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	gate := privacy.NewGate()
	logger := buildLogger(cfg.Logging, gate)

	store, err := sqlitestore.Open(cmd.Context(), cfg.Store, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	return store, gate, logger, nil
}

func factsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "facts",
		Short: "Inspect and correct stored facts",
	}
	cmd.AddCommand(factsListCmd(), factsCountCmd(), factsRememberCmd(), factsForgetCmd(), factsClearCmd())
	return cmd
}

func factsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored facts ordered by recall score",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, _, _, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			facts, err := store.All(cmd.Context())
			if err != nil {
				return err
			}
			if len(facts) == 0 {
				fmt.Println("No facts stored.")
				return nil
			}

			now := time.Now()
			sort.Slice(facts, func(i, j int) bool {
				return memory.Score(facts[i], now) > memory.Score(facts[j], now)
			})

			fmt.Printf("%-7s %-12s %-4s %s\n", "SCORE", "CATEGORY", "IMP", "CONTENT")
			for _, f := range facts {
				fmt.Printf("%-7.3f %-12s %-4d %s\n",
					memory.Score(f, now), string(f.Category), f.Importance, f.Content)
			}
			return nil
		},
	}
}

func factsCountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Show fact counts per category",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, _, _, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			counts, err := store.CountByCategory(cmd.Context())
			if err != nil {
				return err
			}
			session, err := store.CurrentSession(cmd.Context())
			if err != nil {
				return err
			}

			for _, category := range memory.Categories() {
				if n := counts[category]; n > 0 {
					fmt.Printf("%-12s %d\n", string(category), n)
				}
			}
			fmt.Printf("%-12s %d\n", "total", store.Len())
			fmt.Printf("%-12s %d\n", "session", session)
			return nil
		},
	}
}

func factsRememberCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remember <content>",
		Short: "Store an explicit fact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			categoryName, _ := cmd.Flags().GetString("category")
			importance, _ := cmd.Flags().GetInt("importance")

			category, err := memory.ParseCategory(categoryName)
			if err != nil {
				return err
			}

			store, gate, logger, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			engine := memory.NewEngine(store, memory.NopExtractor{}, gate, memory.WithLogger(logger))
			fact, err := engine.Remember(cmd.Context(), args[0], category, importance)
			if err != nil {
				return err
			}
			fmt.Printf("Remembered: %s (%s, importance %d)\n",
				fact.Content, string(fact.Category), fact.Importance)
			return nil
		},
	}
	cmd.Flags().String("category", "personal", "Fact category: "+strings.Join(categoryNames(), ", "))
	cmd.Flags().Int("importance", 5, "Importance from 1 to 10")
	return cmd
}

func factsForgetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "forget <fragment>",
		Short: "Forget every fact whose content contains the fragment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, _, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			removed, err := store.ForgetByContent(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(removed) == 0 {
				fmt.Println("Nothing matched.")
				return nil
			}
			for _, f := range removed {
				fmt.Printf("Forgot: %s\n", f.Content)
			}
			return nil
		},
	}
}

func factsClearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all stored facts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, _, _, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			yes, _ := cmd.Flags().GetBool("yes")
			if !yes {
				var confirmed bool
				prompt := huh.NewConfirm().
					Title(fmt.Sprintf("Delete all %d stored facts?", store.Len())).
					Description("The session counter is preserved.").
					Value(&confirmed)
				if err := prompt.Run(); err != nil {
					return err
				}
				if !confirmed {
					fmt.Println("Aborted.")
					return nil
				}
			}

			if err := store.ClearAll(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("All facts deleted.")
			return nil
		},
	}
	cmd.Flags().Bool("yes", false, "Skip the confirmation prompt")
	return cmd
}

func categoryNames() []string {
	categories := memory.Categories()
	names := make([]string, 0, len(categories))
	for _, c := range categories {
		names = append(names, string(c))
	}
	return names
}
