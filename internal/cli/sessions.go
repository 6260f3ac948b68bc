package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AtomAcer/CrossExamine/internal/archive"
)

var sessionsLimit int

var sessionsCmd = &cobra.Command{
	Use:   "sessions [session-id]",
	Short: "List archived practice sessions",
	Long: `List archived practice sessions, or show the turns of one session.

Requires a configured SurrealDB archive (CROSSEXAMINE_SURREALDB_URL).

Examples:
  crossexamine sessions
  crossexamine sessions 9w2k1xp4f8`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSessions,
}

func init() {
	sessionsCmd.Flags().IntVarP(&sessionsLimit, "limit", "n", 20, "max sessions to list")
}

func runSessions(cmd *cobra.Command, args []string) error {
	if !cfg.ArchiveEnabled() {
		return fmt.Errorf("session archive is not configured (set CROSSEXAMINE_SURREALDB_URL)")
	}

	ctx := cmd.Context()
	client, err := archive.Connect(ctx, cfg, nil)
	if err != nil {
		return fmt.Errorf("connect to archive: %w", err)
	}
	defer func() { _ = client.Close(ctx) }()

	if len(args) == 1 {
		return showSession(cmd, client, args[0])
	}

	sessions, err := client.ListSessions(ctx, sessionsLimit)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Println("No archived sessions yet.")
		return nil
	}

	for _, s := range sessions {
		fmt.Printf("%-24s %-28s %-10s %s\n",
			s.ID.String(), s.Collection, s.Voice, s.Started.Format("2006-01-02 15:04"))
	}
	return nil
}

func showSession(cmd *cobra.Command, client *archive.Client, id string) error {
	sessionID, err := archive.ParseSessionID(id)
	if err != nil {
		return err
	}

	turns, err := client.SessionTurns(cmd.Context(), sessionID)
	if err != nil {
		return err
	}
	if len(turns) == 0 {
		fmt.Println("No turns recorded for this session.")
		return nil
	}

	for _, turn := range turns {
		fmt.Printf("You:     %s\n", turn.Question)
		if turn.Standalone != "" && turn.Standalone != turn.Question {
			fmt.Printf("         %s\n", dimmed(turn.Standalone))
		}
		fmt.Printf("Witness: %s\n\n", turn.Answer)
	}
	return nil
}

func dimmed(s string) string {
	return sourceStyle.Render("(" + strings.TrimSpace(s) + ")")
}
