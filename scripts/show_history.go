// Command show_history prints the archived games from a history file.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/harunnryd/latentstage/pkg/store"
)

func main() {
	path := flag.String("path", "game_history.json", "history file")
	flag.Parse()

	s := store.NewJSONFile(*path)
	records, err := s.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load history: %v\n", err)
		os.Exit(1)
	}
	if len(records) == 0 {
		fmt.Println("no games archived yet")
		return
	}
	for _, rec := range records {
		fmt.Printf("%s  %s  user=%s rounds=%d\n", rec.Timestamp.Format("2006-01-02 15:04"), rec.ID, rec.User, len(rec.GameData.History))
		for _, h := range rec.GameData.History {
			fmt.Printf("  round %d [%s]: %s\n", h.Round, h.Scenario, h.UserPerformance)
		}
		fmt.Printf("  summary: %s\n\n", rec.HostSummary)
	}
}
