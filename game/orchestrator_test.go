package game

import (
	"math/rand"
	"net"
	"testing"
	"time"

	"github.com/wfunc/huntserver/models"
	"github.com/wfunc/huntserver/network"
	"github.com/wfunc/huntserver/room"
	"github.com/wfunc/huntserver/session"
)

// MockConnection is a test double for the network.Connection interface.
type MockConnection struct{}

func (m *MockConnection) Send(event string, payload interface{}) error { return nil }
func (m *MockConnection) Close() error                                 { return nil }
func (m *MockConnection) RemoteAddr() net.Addr                         { return &net.TCPAddr{} }
func (m *MockConnection) SetHeartbeat(interval time.Duration)          {}
func (m *MockConnection) ReadEnvelope() (*network.Envelope, error)     { return nil, nil }

type fixture struct {
	orch     *Orchestrator
	sessions *session.Manager
	rooms    *room.Manager
}

func newFixture(seed int64) *fixture {
	sessions := session.NewManager()
	rooms := room.NewRoomManager()
	return &fixture{
		orch:     NewOrchestrator(sessions, rooms, rand.New(rand.NewSource(seed))),
		sessions: sessions,
		rooms:    rooms,
	}
}

func (f *fixture) connect(id string) {
	f.sessions.Add(session.NewSession(id, &MockConnection{}))
}

// createRoom runs a CreateRoom command and returns the new room code.
func (f *fixture) createRoom(t *testing.T, connID, name string) string {
	t.Helper()
	f.connect(connID)
	msgs := f.orch.Dispatch(connID, CreateRoom{Name: name})

	reply, ok := findUnicast(msgs, connID, network.EventCreateRoom)
	if !ok {
		t.Fatal("CreateRoom should reply to the caller")
	}
	return reply.(CreateRoomReply).RoomCode
}

func (f *fixture) joinRoom(t *testing.T, connID, code, name string) []Outbound {
	t.Helper()
	f.connect(connID)
	return f.orch.Dispatch(connID, JoinRoom{RoomCode: code, Name: name})
}

func findUnicast(msgs []Outbound, to, event string) (interface{}, bool) {
	for _, m := range msgs {
		if m.Scope == ScopeUnicast && m.To == to && m.Event == event {
			return m.Payload, true
		}
	}
	return nil, false
}

func findEvent(msgs []Outbound, event string) (Outbound, bool) {
	for _, m := range msgs {
		if m.Event == event {
			return m, true
		}
	}
	return Outbound{}, false
}

func TestCreateRoom(t *testing.T) {
	f := newFixture(1)
	f.connect("c1")

	msgs := f.orch.Dispatch("c1", CreateRoom{Name: "Alice"})
	if len(msgs) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(msgs))
	}

	names, ok := findEvent(msgs, network.EventRoomPlayers)
	if !ok || names.Scope != ScopeRoom {
		t.Fatal("Expected a roomPlayers broadcast to the room")
	}
	list := names.Payload.([]string)
	if len(list) != 1 || list[0] != "Alice" {
		t.Errorf("Expected name list [Alice], got %v", list)
	}

	payload, ok := findUnicast(msgs, "c1", network.EventCreateRoom)
	if !ok {
		t.Fatal("Expected a reply to the creator")
	}
	reply := payload.(CreateRoomReply)
	if !reply.Success || !reply.IsHost || len(reply.RoomCode) != 4 {
		t.Errorf("Unexpected reply: %+v", reply)
	}

	sess, _ := f.sessions.Get("c1")
	if !sess.Host || sess.RoomCode != reply.RoomCode {
		t.Errorf("Creator session not marked as host of %q: %+v", reply.RoomCode, sess)
	}
}

func TestCreateRoom_UntrackedConnection(t *testing.T) {
	f := newFixture(1)

	if msgs := f.orch.Dispatch("ghost", CreateRoom{Name: "X"}); msgs != nil {
		t.Errorf("Untracked connection should be absorbed silently, got %v", msgs)
	}
}

func TestJoinRoom_OrderMatchesJoinOrder(t *testing.T) {
	f := newFixture(1)
	code := f.createRoom(t, "c1", "Alice")

	msgs := f.joinRoom(t, "c2", code, "Bob")

	payload, ok := findUnicast(msgs, "c2", network.EventJoinRoom)
	if !ok {
		t.Fatal("Expected a reply to the joiner")
	}
	reply := payload.(JoinRoomReply)
	if !reply.Success || reply.IsHost {
		t.Errorf("Unexpected reply: %+v", reply)
	}

	names, _ := findEvent(msgs, network.EventRoomPlayers)
	list := names.Payload.([]string)
	if len(list) != 2 || list[0] != "Alice" || list[1] != "Bob" {
		t.Errorf("Expected name list [Alice Bob], got %v", list)
	}
}

func TestJoinRoom_UnknownCode(t *testing.T) {
	f := newFixture(1)
	f.connect("c1")

	msgs := f.orch.Dispatch("c1", JoinRoom{RoomCode: "0000", Name: "Bob"})
	payload, ok := findUnicast(msgs, "c1", network.EventJoinRoom)
	if !ok {
		t.Fatal("Expected a failure reply")
	}
	reply := payload.(JoinRoomReply)
	if reply.Success || reply.Message == "" {
		t.Errorf("Expected a failure with a message, got %+v", reply)
	}
}

func TestJoinRoom_FullRoom(t *testing.T) {
	f := newFixture(1)
	code := f.createRoom(t, "c1", "Alice")

	joiners := []string{"c2", "c3", "c4", "c5", "c6"}
	for _, id := range joiners {
		msgs := f.joinRoom(t, id, code, "P"+id)
		payload, _ := findUnicast(msgs, id, network.EventJoinRoom)
		if !payload.(JoinRoomReply).Success {
			t.Fatalf("Join below capacity should succeed for %q", id)
		}
	}

	msgs := f.joinRoom(t, "c7", code, "Late")
	payload, _ := findUnicast(msgs, "c7", network.EventJoinRoom)
	if payload.(JoinRoomReply).Success {
		t.Fatal("Seventh member should be rejected")
	}

	r, _ := f.rooms.GetRoom(code)
	if r.MemberCount() != models.RoomCapacity {
		t.Errorf("Membership should be untouched at %d, got %d", models.RoomCapacity, r.MemberCount())
	}
}

func TestReady_NonHostReadyUpdatesHost(t *testing.T) {
	f := newFixture(1)
	code := f.createRoom(t, "c1", "Alice")
	f.joinRoom(t, "c2", code, "Bob")

	msgs := f.orch.Dispatch("c2", Ready{})
	if len(msgs) != 1 {
		t.Fatalf("Expected exactly one readyUpdate, got %d messages", len(msgs))
	}
	if msgs[0].Scope != ScopeHost || msgs[0].Event != network.EventReadyUpdate {
		t.Fatalf("Expected a host-only readyUpdate, got %+v", msgs[0])
	}

	update := msgs[0].Payload.(ReadyUpdate)
	if len(update.Names) != 1 || update.Names[0] != "Bob" {
		t.Errorf("Expected ready names [Bob], got %v", update.Names)
	}
	if !update.AllReady {
		t.Error("With one non-host member ready, allReady should be true")
	}
}

func TestReady_HostIsNeverCounted(t *testing.T) {
	f := newFixture(1)
	code := f.createRoom(t, "c1", "Alice")
	f.joinRoom(t, "c2", code, "Bob")

	msgs := f.orch.Dispatch("c1", Ready{})
	update := msgs[0].Payload.(ReadyUpdate)
	if len(update.Names) != 0 || update.AllReady {
		t.Errorf("Host readiness must not be tracked, got %+v", update)
	}

	r, _ := f.rooms.GetRoom(code)
	if r.ReadyCount() != 0 {
		t.Errorf("Ready set should be empty, got %d", r.ReadyCount())
	}
}

func TestReady_NamesFollowSignalOrder(t *testing.T) {
	f := newFixture(1)
	code := f.createRoom(t, "c1", "Alice")
	f.joinRoom(t, "c2", code, "Bob")
	f.joinRoom(t, "c3", code, "Cara")
	f.joinRoom(t, "c4", code, "Dan")

	// Cara signals before Bob; the roster lists them in that order,
	// not in join order.
	f.orch.Dispatch("c3", Ready{})
	msgs := f.orch.Dispatch("c2", Ready{})

	update := msgs[0].Payload.(ReadyUpdate)
	if len(update.Names) != 2 || update.Names[0] != "Cara" || update.Names[1] != "Bob" {
		t.Errorf("Expected ready names [Cara Bob], got %v", update.Names)
	}
	if update.AllReady {
		t.Error("Dan has not readied, allReady should be false")
	}

	// A repeated signal keeps the original position.
	msgs = f.orch.Dispatch("c3", Ready{})
	update = msgs[0].Payload.(ReadyUpdate)
	if len(update.Names) != 2 || update.Names[0] != "Cara" || update.Names[1] != "Bob" {
		t.Errorf("Re-ready should not reorder, got %v", update.Names)
	}
}

func TestReady_SoloHostIsTriviallyAllReady(t *testing.T) {
	f := newFixture(1)
	f.createRoom(t, "c1", "Alice")

	msgs := f.orch.Dispatch("c1", Ready{})
	update := msgs[0].Payload.(ReadyUpdate)
	if !update.AllReady {
		t.Error("A lone host should see allReady (0 == 0)")
	}
}

func TestReady_UntrackedConnection(t *testing.T) {
	f := newFixture(1)

	if msgs := f.orch.Dispatch("ghost", Ready{}); msgs != nil {
		t.Errorf("Ready from an untracked connection should be absorbed, got %v", msgs)
	}
}

func TestStartGame_FullSequence(t *testing.T) {
	f := newFixture(99)
	code := f.createRoom(t, "c1", "Alice")
	f.joinRoom(t, "c2", code, "Bob")
	f.orch.Dispatch("c2", Ready{})

	msgs := f.orch.Dispatch("c1", Start{RoomCode: code})

	// Hands: two distinct per-member unicasts of two cards each.
	hands := make(map[string][]models.Card)
	for _, m := range msgs {
		if m.Event == network.EventYourRoles {
			hands[m.To] = m.Payload.([]models.Card)
		}
	}
	if len(hands) != 2 {
		t.Fatalf("Expected 2 dealt hands, got %d", len(hands))
	}
	counts := make(map[models.Card]int)
	for id, hand := range hands {
		if len(hand) != models.HandSize {
			t.Errorf("Member %q got %d cards, want %d", id, len(hand), models.HandSize)
		}
		for _, c := range hand {
			counts[c]++
		}
	}

	// The undealt remainder plus both hands is exactly the full multiset.
	r, _ := f.rooms.GetRoom(code)
	if r.DeckLen() != models.DeckSize-2*models.HandSize {
		t.Errorf("Expected %d cards undealt, got %d", models.DeckSize-2*models.HandSize, r.DeckLen())
	}
	for {
		card, ok := r.PopCard()
		if !ok {
			break
		}
		counts[card]++
	}
	for _, kind := range models.CardKinds() {
		if counts[kind] != models.CopiesPerKind {
			t.Errorf("Deal broke multiplicity of %q: got %d", kind, counts[kind])
		}
	}

	// Rolls: one per member, winner is the earliest strict max.
	rolls := make(map[string]int)
	for _, m := range msgs {
		if m.Event == network.EventYourRoll {
			rolls[m.To] = m.Payload.(RollNotice).Roll
		}
	}
	if len(rolls) != 2 {
		t.Fatalf("Expected 2 roll notices, got %d", len(rolls))
	}
	hunt, ok := findEvent(msgs, network.EventFirstHunt)
	if !ok || hunt.Scope != ScopeRoom {
		t.Fatal("Expected a firstHunt room broadcast")
	}
	want := FirstHunter(r.Members(), rolls)
	if hunt.Payload.(FirstHunt).PlayerID != want {
		t.Errorf("Expected first hunter %q, got %q", want, hunt.Payload.(FirstHunt).PlayerID)
	}

	// Food: 2 private each, 50 shared, full snapshot for everyone.
	foodNotices := 0
	for _, m := range msgs {
		if m.Event != network.EventInitFood {
			continue
		}
		foodNotices++
		food := m.Payload.(InitFood)
		if food.YourFood != models.StartingFood || food.SharedFood != models.StartingShared {
			t.Errorf("Unexpected food for %q: %+v", m.To, food)
		}
		if len(food.PlayerFoods) != 2 {
			t.Errorf("Expected a 2-entry snapshot, got %v", food.PlayerFoods)
		}
	}
	if foodNotices != 2 {
		t.Errorf("Expected 2 initFood notices, got %d", foodNotices)
	}

	// gameStarted is the last message, readiness is cleared, room is in game.
	last := msgs[len(msgs)-1]
	if last.Event != network.EventGameStarted || last.Scope != ScopeRoom {
		t.Errorf("Expected gameStarted to be broadcast last, got %+v", last)
	}
	if r.ReadyCount() != 0 {
		t.Errorf("Ready set should be cleared after start, got %d", r.ReadyCount())
	}
	if !r.InGame() {
		t.Error("Room should be in game after start")
	}
}

func TestStartGame_SoloHost(t *testing.T) {
	f := newFixture(5)
	code := f.createRoom(t, "c1", "Alice")

	msgs := f.orch.Dispatch("c1", Start{RoomCode: code})
	if _, ok := findEvent(msgs, network.EventGameStarted); !ok {
		t.Fatal("A lone host should be able to start immediately")
	}

	r, _ := f.rooms.GetRoom(code)
	if r.DeckLen() != models.DeckSize-models.HandSize {
		t.Errorf("Expected %d cards undealt, got %d", models.DeckSize-models.HandSize, r.DeckLen())
	}
}

func TestStartGame_NonHostClearsReadySilently(t *testing.T) {
	f := newFixture(1)
	code := f.createRoom(t, "c1", "Alice")
	f.joinRoom(t, "c2", code, "Bob")
	f.orch.Dispatch("c2", Ready{})

	msgs := f.orch.Dispatch("c2", Start{RoomCode: code})
	if msgs != nil {
		t.Errorf("Non-host start should be silent, got %v", msgs)
	}

	r, _ := f.rooms.GetRoom(code)
	if r.ReadyCount() != 0 {
		t.Error("Ready set should still be cleared on a rejected start")
	}
	if r.InGame() {
		t.Error("A rejected start must not begin the game")
	}
}

func TestStartGame_UnknownRoom(t *testing.T) {
	f := newFixture(1)
	f.createRoom(t, "c1", "Alice")

	if msgs := f.orch.Dispatch("c1", Start{RoomCode: "0000"}); msgs != nil {
		t.Errorf("Start on an unknown room should be silent, got %v", msgs)
	}
}

func TestStartGame_SecondStartIsRejected(t *testing.T) {
	f := newFixture(1)
	code := f.createRoom(t, "c1", "Alice")

	f.orch.Dispatch("c1", Start{RoomCode: code})
	if msgs := f.orch.Dispatch("c1", Start{RoomCode: code}); msgs != nil {
		t.Errorf("Second start should be silent, got %v", msgs)
	}
}

func TestReveal_MovesCardFromHandToRevealed(t *testing.T) {
	f := newFixture(8)
	code := f.createRoom(t, "c1", "Alice")
	f.joinRoom(t, "c2", code, "Bob")
	f.orch.Dispatch("c1", Start{RoomCode: code})

	bob, _ := f.sessions.Get("c2")
	wantCard := bob.Hand[1]

	msgs := f.orch.Dispatch("c1", Reveal{TargetID: "c2", CardIndex: 1})

	payload, ok := findUnicast(msgs, "c2", network.EventCardLost)
	if !ok {
		t.Fatal("Expected cardLost to go to the target only")
	}
	if payload.(models.Card) != wantCard {
		t.Errorf("Expected revealed card %q, got %q", wantCard, payload)
	}

	lost, ok := findEvent(msgs, network.EventPlayerLostCard)
	if !ok || lost.Scope != ScopeRoom {
		t.Fatal("Expected a playerLostCard room broadcast")
	}
	got := lost.Payload.(PlayerLostCard)
	if got.PlayerID != "c2" || got.LostAnimal != wantCard {
		t.Errorf("Unexpected playerLostCard payload: %+v", got)
	}

	if len(bob.Hand) != models.HandSize-1 {
		t.Errorf("Hand should shrink by one, got %d", len(bob.Hand))
	}
	if len(bob.Revealed) != 1 || bob.Revealed[0] != wantCard {
		t.Errorf("Revealed should grow by one, got %v", bob.Revealed)
	}
}

func TestReveal_OutOfRangeIndexIsAnError(t *testing.T) {
	f := newFixture(8)
	code := f.createRoom(t, "c1", "Alice")
	f.joinRoom(t, "c2", code, "Bob")
	f.orch.Dispatch("c1", Start{RoomCode: code})

	bob, _ := f.sessions.Get("c2")
	handBefore := len(bob.Hand)

	if msgs := f.orch.Dispatch("c1", Reveal{TargetID: "c2", CardIndex: 5}); msgs != nil {
		t.Errorf("Out-of-range reveal should emit nothing, got %v", msgs)
	}
	if len(bob.Hand) != handBefore || len(bob.Revealed) != 0 {
		t.Error("Out-of-range reveal must not mutate the target")
	}
}

func TestReveal_TargetInAnotherRoom(t *testing.T) {
	f := newFixture(8)
	f.createRoom(t, "c1", "Alice")
	f.createRoom(t, "c2", "Mallory")

	if msgs := f.orch.Dispatch("c2", Reveal{TargetID: "c1", CardIndex: 0}); msgs != nil {
		t.Errorf("Cross-room reveal should be absorbed, got %v", msgs)
	}
}

func TestDisconnect_MemberLeavesAndHostIsUpdated(t *testing.T) {
	f := newFixture(1)
	code := f.createRoom(t, "c1", "Alice")
	f.joinRoom(t, "c2", code, "Bob")
	f.orch.Dispatch("c2", Ready{})

	msgs := f.orch.Dispatch("c2", Disconnect{})

	names, ok := findEvent(msgs, network.EventRoomPlayers)
	if !ok {
		t.Fatal("Expected a roomPlayers broadcast")
	}
	list := names.Payload.([]string)
	if len(list) != 1 || list[0] != "Alice" {
		t.Errorf("Expected name list [Alice], got %v", list)
	}

	update, ok := findEvent(msgs, network.EventReadyUpdate)
	if !ok || update.Scope != ScopeHost {
		t.Fatal("Expected a recomputed readyUpdate for the host")
	}
	ru := update.Payload.(ReadyUpdate)
	if len(ru.Names) != 0 || !ru.AllReady {
		t.Errorf("With no non-host members left, expected trivial allReady, got %+v", ru)
	}

	if _, exists := f.sessions.Get("c2"); exists {
		t.Error("Disconnected session should be removed from the registry")
	}
}

func TestDisconnect_HostDepartsAndEarliestMemberInherits(t *testing.T) {
	f := newFixture(1)
	code := f.createRoom(t, "c1", "Alice")
	f.joinRoom(t, "c2", code, "Bob")
	f.joinRoom(t, "c3", code, "Cara")
	f.orch.Dispatch("c2", Ready{})

	msgs := f.orch.Dispatch("c1", Disconnect{})

	bob, _ := f.sessions.Get("c2")
	if !bob.Host {
		t.Fatal("Earliest remaining member should inherit the host flag")
	}

	r, _ := f.rooms.GetRoom(code)
	if r.IsReady("c2") {
		t.Error("Promoted host must be dropped from the ready set")
	}

	update, _ := findEvent(msgs, network.EventReadyUpdate)
	ru := update.Payload.(ReadyUpdate)
	// Cara is the only non-host left and has not readied.
	if len(ru.Names) != 0 || ru.AllReady {
		t.Errorf("Expected no ready names and allReady=false, got %+v", ru)
	}
}

func TestDisconnect_LastMemberRetiresRoom(t *testing.T) {
	f := newFixture(1)
	code := f.createRoom(t, "c1", "Alice")

	if msgs := f.orch.Dispatch("c1", Disconnect{}); msgs != nil {
		t.Errorf("Retiring an empty room should be silent, got %v", msgs)
	}
	if _, exists := f.rooms.GetRoom(code); exists {
		t.Error("Empty room should be removed from the directory")
	}
}

func TestDisconnect_UntrackedConnection(t *testing.T) {
	f := newFixture(1)

	if msgs := f.orch.Dispatch("ghost", Disconnect{}); msgs != nil {
		t.Errorf("Disconnect for an untracked connection should be silent, got %v", msgs)
	}
}
