package game

// Phase identifies where a session is in the show's fixed progression.
type Phase string

const (
	PhaseStart          Phase = "start"
	PhaseWaitingForName Phase = "waiting_for_name"
	PhasePlaying        Phase = "playing"
	PhaseEnded          Phase = "ended"
)

// HistoryEntry records one completed performance round.
type HistoryEntry struct {
	Round           int    `json:"round"`
	Scenario        string `json:"scenario"`
	UserPerformance string `json:"user_performance"`
}

// State is the full game ledger. It is passed by value between the client
// and the stateless generation step on every turn; the engine reconstructs
// behavior purely from the echoed state.
type State struct {
	Phase           Phase          `json:"phase"`
	Round           int            `json:"round"`
	UserName        string         `json:"userName"`
	CurrentScenario string         `json:"currentScenario"`
	History         []HistoryEntry `json:"history"`
	GameOver        bool           `json:"isGameOver"`
}

// NewState returns the initial session state.
func NewState() State {
	return State{Phase: PhaseStart}
}

// Clone returns a deep copy so transitions never alias the caller's history.
func (s State) Clone() State {
	out := s
	if s.History != nil {
		out.History = make([]HistoryEntry, len(s.History))
		copy(out.History, s.History)
	}
	return out
}
