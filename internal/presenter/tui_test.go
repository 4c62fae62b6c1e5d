package presenter

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/spinpick/internal/ir"
	"github.com/roach88/spinpick/internal/reveal"
	"github.com/roach88/spinpick/internal/selection"
)

type fakeController struct {
	state    reveal.State
	requests [][]string
	aborts   int
	resets   int
	subs     []func(reveal.State)
}

func (f *fakeController) RequestReveal(tags []string) bool {
	f.requests = append(f.requests, tags)
	return true
}
func (f *fakeController) Abort() bool         { f.aborts++; return true }
func (f *fakeController) Reset() bool         { f.resets++; return true }
func (f *fakeController) State() reveal.State { return f.state }
func (f *fakeController) Subscribe(fn func(reveal.State)) func() {
	f.subs = append(f.subs, fn)
	return func() { f.subs = nil }
}

func keyPress(s string) tea.KeyMsg {
	if s == " " {
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func settledState() reveal.State {
	winner := ir.Candidate{ID: "m1", Title: "Alien", Payload: ir.Payload{Year: 1979, Rating: 8.5, Description: "Space."}}
	return reveal.State{
		Phase:      reveal.PhaseSettled,
		Generation: 1,
		Candidates: ir.CandidateSet{winner},
		Outcome:    &ir.Outcome{ID: "o1", Winner: winner, Source: ir.CandidateSet{winner}},
	}
}

func TestModel_KeysDriveController(t *testing.T) {
	fc := &fakeController{}
	m := NewModel(fc, []string{"Horror"}, time.Second)
	require.Len(t, fc.subs, 1)

	m.Update(keyPress(" "))
	m.Update(keyPress("x"))
	m.Update(keyPress("r"))

	assert.Equal(t, [][]string{{"Horror"}}, fc.requests)
	assert.Equal(t, 1, fc.aborts)
	assert.Equal(t, 1, fc.resets)

	_, cmd := m.Update(keyPress("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
	assert.Nil(t, fc.subs, "quitting unsubscribes")
}

func TestModel_StartsFromRestoredState(t *testing.T) {
	fc := &fakeController{state: settledState()}
	m := NewModel(fc, nil, time.Second)

	assert.Contains(t, m.View(), "Alien (1979)")
}

func TestModel_ShareOnlyWhenSettled(t *testing.T) {
	fc := &fakeController{}
	m := NewModel(fc, nil, time.Second)

	m.Update(keyPress("s"))
	assert.NotContains(t, m.View(), "Share:")

	m.Update(stateMsg(settledState()))
	m.Update(keyPress("s"))
	view := m.View()
	assert.Contains(t, view, "Share:")
	assert.Contains(t, view, "Alien (1979) - ⭐ 8.5/10")

	// A new spin clears the share text.
	m.Update(keyPress(" "))
	assert.NotContains(t, m.View(), "Share:")
}

func TestModel_AnimatesTowardTarget(t *testing.T) {
	fc := &fakeController{}
	m := NewModel(fc, nil, 4*time.Second)
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return start }

	set := ir.CandidateSet{{ID: "a", Title: "A"}, {ID: "b", Title: "B"}, {ID: "c", Title: "C"}, {ID: "d", Title: "D"}}
	plan := selection.PlanFor(2, 4, 0, 5)
	_, cmd := m.Update(stateMsg(reveal.State{
		Phase:      reveal.PhaseAnimating,
		Generation: 1,
		Candidates: set,
		Plan:       &plan,
		Rotation:   plan.TargetRotation,
	}))
	assert.NotNil(t, cmd)
	assert.Equal(t, 0.0, m.rotation, "starts from the previous rotation")

	m.Update(frameMsg(start.Add(2 * time.Second)))
	mid := m.rotation
	assert.Greater(t, mid, 0.0)
	assert.Less(t, mid, plan.TargetRotation)
	assert.Greater(t, mid, plan.TargetRotation/2, "ease-out covers more than half by mid-spin")

	m.Update(frameMsg(start.Add(5 * time.Second)))
	assert.Equal(t, plan.TargetRotation, m.rotation)
	assert.Contains(t, m.View(), "▶ C")
}

func TestModel_FramesStopOutsideAnimation(t *testing.T) {
	m := NewModel(&fakeController{}, nil, time.Second)
	_, cmd := m.Update(frameMsg(time.Now()))
	assert.Nil(t, cmd)
}

func TestMailbox_KeepsLatest(t *testing.T) {
	box := newMailbox()
	box.put(reveal.State{Phase: reveal.PhaseLoading})
	box.put(reveal.State{Phase: reveal.PhaseReady})

	msg := box.wait()
	assert.Equal(t, reveal.PhaseReady, reveal.State(msg.(stateMsg)).Phase)
}

func TestMailbox_WaitReturnsAfterClose(t *testing.T) {
	tests := []struct {
		name  string
		close func(m *Model)
	}{
		{name: "close", close: func(m *Model) { m.Close() }},
		{name: "quit key", close: func(m *Model) { m.Update(keyPress("q")) }},
		{name: "closed twice", close: func(m *Model) { m.Close(); m.Close() }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewModel(&fakeController{}, nil, time.Second)

			got := make(chan tea.Msg, 1)
			go func() { got <- m.box.wait() }()
			tt.close(m)

			select {
			case msg := <-got:
				assert.Nil(t, msg)
			case <-time.After(2 * time.Second):
				t.Fatal("wait still blocked after the model closed")
			}
		})
	}
}
