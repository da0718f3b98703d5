package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/spf13/cobra"
)

var (
	baseURL       string
	email         string
	password      string
	noteCount     int
	reminderEvery int
	seed          int64
)

var rootCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fill a Scribes server with fake sermon notes and reminders",
	Long: `Signs up (or signs in) one account over the REST API and creates notes
for it. Every --reminder-every-th note also gets a pending reminder.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		faker := gofakeit.New(seed)

		cli := newClient(baseURL)
		fmt.Fprintf(cmd.OutOrStdout(), "seeding %s (notes=%d) on %s\n", email, noteCount, baseURL)

		if err := cli.login(cmd.Context(), email, password); err != nil {
			return err
		}

		now := time.Now().UTC()
		for i := 1; i <= noteCount; i++ {
			id, err := cli.createNote(cmd.Context(), fakeNote(faker))
			if err != nil {
				return fmt.Errorf("note %d: %w", i, err)
			}
			if reminderEvery > 0 && i%reminderEvery == 0 {
				if err := cli.createReminder(cmd.Context(), id, fakeSchedule(faker, now)); err != nil {
					return fmt.Errorf("reminder for note %d: %w", i, err)
				}
			}
			if i%50 == 0 || i == noteCount {
				fmt.Fprintf(cmd.OutOrStdout(), "  %d/%d\n", i, noteCount)
			}
		}

		fmt.Fprintln(cmd.OutOrStdout(), "done")
		return nil
	},
}

func init() {
	rootCmd.Flags().StringVar(&baseURL, "url", env("API_BASE_URL", "http://localhost:8080"), "Server base URL")
	rootCmd.Flags().StringVar(&email, "email", env("EMAIL", "demo@example.com"), "Account e-mail")
	rootCmd.Flags().StringVar(&password, "pass", env("PASSWORD", "Password123"), "Account password")
	rootCmd.Flags().IntVarP(&noteCount, "notes", "n", 200, "How many notes to create")
	rootCmd.Flags().IntVar(&reminderEvery, "reminder-every", 5, "Schedule a reminder on every Nth note (0 disables)")
	rootCmd.Flags().Int64Var(&seed, "seed", 0, "Faker seed (0 picks one from the clock)")
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "FATAL:", err)
		os.Exit(1)
	}
}
