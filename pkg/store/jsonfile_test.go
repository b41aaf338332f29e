package store

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/harunnryd/latentstage/pkg/game"
)

func TestAppendCreatesFileAndAssignsID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history", "game_history.json")
	s := NewJSONFile(path)

	err := s.Append(context.Background(), Record{
		User:        "Rohan",
		GameData:    game.State{Phase: game.PhaseEnded, Round: 3, UserName: "Rohan", GameOver: true},
		HostSummary: "kya show tha!",
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	records, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	rec := records[0]
	if rec.ID == "" {
		t.Fatalf("expected generated id")
	}
	if rec.Timestamp.IsZero() {
		t.Fatalf("expected timestamp")
	}
	if rec.User != "Rohan" || rec.HostSummary != "kya show tha!" {
		t.Fatalf("record mangled: %+v", rec)
	}
	if rec.GameData.Phase != game.PhaseEnded || !rec.GameData.GameOver {
		t.Fatalf("game data mangled: %+v", rec.GameData)
	}
}

func TestAppendPreservesEarlierRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "game_history.json")
	s := NewJSONFile(path)
	ctx := context.Background()

	for _, user := range []string{"Rohan", "Priya", "Dost"} {
		if err := s.Append(ctx, Record{User: user}); err != nil {
			t.Fatalf("append %s: %v", user, err)
		}
	}

	records, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if records[0].User != "Rohan" || records[2].User != "Dost" {
		t.Fatalf("append order lost: %+v", records)
	}
}

func TestAppendConcurrentWritersLoseNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "game_history.json")
	s := NewJSONFile(path)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.Append(context.Background(), Record{User: "player"}); err != nil {
				t.Errorf("append: %v", err)
			}
		}()
	}
	wg.Wait()

	records, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(records) != 8 {
		t.Fatalf("expected 8 records, got %d", len(records))
	}
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	s := NewJSONFile(filepath.Join(t.TempDir(), "nope.json"))
	records, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected empty archive")
	}
}
