package trivia

import (
	"context"
	"encoding/json"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/blarphus/crossword/internal/domain/jeopardy"
	"github.com/blarphus/crossword/internal/infra/storage"
	"github.com/blarphus/crossword/internal/network"
	"github.com/blarphus/crossword/internal/platform/logger"
	"github.com/blarphus/crossword/internal/platform/metrics"
)

// roomIDAlphabet excludes I, O, 0 and 1 so spoken room codes survive.
const roomIDAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const roomIDLength = 4

// Manager is the trivia room registry.
type Manager struct {
	mu       sync.RWMutex
	rooms    map[string]*Room
	bySocket map[string]string // sid -> roomId

	emitter network.Emitter
	store   storage.Store
	log     *logger.Logger
	rng     *rand.Rand
}

// NewManager wires the registry to its collaborators.
func NewManager(emitter network.Emitter, store storage.Store, log *logger.Logger) *Manager {
	return &Manager{
		rooms:    make(map[string]*Room),
		bySocket: make(map[string]string),
		emitter:  emitter,
		store:    store,
		log:      log,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Bind registers every trivia event with the router.
func (mgr *Manager) Bind(router *network.Router) {
	router.Handle("create-room", mgr.handleCreate)
	router.Handle("join-room", mgr.handleJoin)
	router.Handle("leave-room", func(from network.Sender, _ json.RawMessage) {
		mgr.removeSocket(from.SID)
	})

	router.Handle("start-game", func(from network.Sender, _ json.RawMessage) {
		if room := mgr.roomOf(from.SID); room != nil {
			room.StartGame(from.SID)
		}
	})
	router.Handle("change-game", mgr.handleChangeGame)
	router.Handle("random-game", mgr.handleRandomGame)

	router.Handle("select-clue", func(from network.Sender, data json.RawMessage) {
		var p selectCluePayload
		if room := mgr.roomOf(from.SID); room != nil && json.Unmarshal(data, &p) == nil {
			room.SelectClue(from.SID, p.Cat, p.Row)
		}
	})
	router.Handle("buzz-in", func(from network.Sender, _ json.RawMessage) {
		if room := mgr.roomOf(from.SID); room != nil {
			room.BuzzIn(from.SID)
		}
	})
	router.Handle("submit-answer", func(from network.Sender, data json.RawMessage) {
		var p answerPayload
		if room := mgr.roomOf(from.SID); room != nil && json.Unmarshal(data, &p) == nil {
			room.SubmitAnswer(from.SID, cleanAnswer(p.Answer))
		}
	})
	router.Handle("daily-double-wager", func(from network.Sender, data json.RawMessage) {
		var p wagerPayload
		if room := mgr.roomOf(from.SID); room != nil && json.Unmarshal(data, &p) == nil {
			room.SubmitWager(from.SID, p.Wager)
		}
	})
	router.Handle("final-jeopardy-wager", func(from network.Sender, data json.RawMessage) {
		var p wagerPayload
		if room := mgr.roomOf(from.SID); room != nil && json.Unmarshal(data, &p) == nil {
			room.SubmitFinalWager(from.SID, p.Wager)
		}
	})
	router.Handle("final-jeopardy-answer", func(from network.Sender, data json.RawMessage) {
		var p answerPayload
		if room := mgr.roomOf(from.SID); room != nil && json.Unmarshal(data, &p) == nil {
			room.SubmitFinalAnswer(from.SID, cleanAnswer(p.Answer))
		}
	})

	router.Handle("add-cpu", func(from network.Sender, data json.RawMessage) {
		var p addCPUPayload
		if room := mgr.roomOf(from.SID); room != nil && json.Unmarshal(data, &p) == nil {
			room.AddCPU(from.SID, p.Difficulty, p.Name)
		}
	})
	router.Handle("remove-cpu", func(from network.Sender, data json.RawMessage) {
		var p removeCPUPayload
		if room := mgr.roomOf(from.SID); room != nil && json.Unmarshal(data, &p) == nil {
			room.RemoveCPU(from.SID, p.PlayerID)
		}
	})

	router.OnDisconnect(mgr.removeSocket)
}

func (mgr *Manager) handleCreate(from network.Sender, data json.RawMessage) {
	var p createRoomPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return
	}
	name := cleanPlayerName(p.PlayerName)
	if name == "" {
		return
	}

	game := mgr.loadGame(p.GameID)
	if game == nil {
		mgr.emitter.ToSocket(from.SID, "error", errorPayload{Error: "no game available"})
		return
	}

	mgr.removeSocket(from.SID)

	mgr.mu.Lock()
	id := mgr.mintIDLocked()
	room := newTriviaRoom(id, game, mgr.emitter, mgr.store, mgr.log, func() {
		mgr.dropRoom(id)
	})
	mgr.rooms[id] = room
	mgr.bySocket[from.SID] = id
	mgr.mu.Unlock()

	metrics.Get().RecordRoom(true, 1)
	room.Join(from.SID, name, p.DeviceID)
	mgr.log.Info("trivia room created", "roomId", id, "gameId", game.GameID)
}

func (mgr *Manager) handleJoin(from network.Sender, data json.RawMessage) {
	var p joinRoomPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return
	}
	name := cleanPlayerName(p.PlayerName)
	id := strings.ToUpper(strings.TrimSpace(p.RoomID))
	if name == "" || len(id) != roomIDLength {
		return
	}

	mgr.mu.RLock()
	room := mgr.rooms[id]
	mgr.mu.RUnlock()
	if room == nil {
		mgr.emitter.ToSocket(from.SID, "error", errorPayload{Error: "room not found"})
		return
	}

	mgr.removeSocket(from.SID)
	if !room.Join(from.SID, name, p.DeviceID) {
		mgr.emitter.ToSocket(from.SID, "error", errorPayload{Error: "room is full or already playing"})
		return
	}

	mgr.mu.Lock()
	mgr.bySocket[from.SID] = id
	mgr.mu.Unlock()
}

func (mgr *Manager) handleChangeGame(from network.Sender, data json.RawMessage) {
	var p changeGamePayload
	room := mgr.roomOf(from.SID)
	if room == nil || json.Unmarshal(data, &p) != nil || p.GameID == "" {
		return
	}
	game := mgr.loadGame(p.GameID)
	if game == nil {
		mgr.emitter.ToSocket(from.SID, "error", errorPayload{Error: "game not found"})
		return
	}
	room.SwapGame(from.SID, game)
}

func (mgr *Manager) handleRandomGame(from network.Sender, _ json.RawMessage) {
	room := mgr.roomOf(from.SID)
	if room == nil {
		return
	}
	game := mgr.loadGame("")
	if game == nil {
		mgr.emitter.ToSocket(from.SID, "error", errorPayload{Error: "no game available"})
		return
	}
	room.SwapGame(from.SID, game)
}

// loadGame fetches a specific archive game, or a random unplayed one
// when id is empty.
func (mgr *Manager) loadGame(id string) *jeopardy.Game {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var (
		game *jeopardy.Game
		err  error
	)
	if id == "" {
		game, err = mgr.store.GetRandomJeopardyGame(ctx)
	} else {
		game, err = mgr.store.GetJeopardyGame(ctx, id)
	}
	if err != nil {
		mgr.log.Error("game load failed", "gameId", id, "err", err)
		return nil
	}
	return game
}

// mintIDLocked draws unused 4-char codes until one is free.
func (mgr *Manager) mintIDLocked() string {
	for {
		b := make([]byte, roomIDLength)
		for i := range b {
			b[i] = roomIDAlphabet[mgr.rng.Intn(len(roomIDAlphabet))]
		}
		id := string(b)
		if _, taken := mgr.rooms[id]; !taken {
			return id
		}
	}
}

func (mgr *Manager) dropRoom(id string) {
	mgr.mu.Lock()
	_, ok := mgr.rooms[id]
	delete(mgr.rooms, id)
	for sid, rid := range mgr.bySocket {
		if rid == id {
			delete(mgr.bySocket, sid)
		}
	}
	mgr.mu.Unlock()

	if ok {
		metrics.Get().RecordRoom(true, -1)
		mgr.log.Info("trivia room destroyed", "roomId", id)
	}
}

func (mgr *Manager) roomOf(sid string) *Room {
	mgr.mu.RLock()
	defer mgr.mu.RUnlock()

	id, ok := mgr.bySocket[sid]
	if !ok {
		return nil
	}
	return mgr.rooms[id]
}

func (mgr *Manager) removeSocket(sid string) {
	mgr.mu.Lock()
	id, ok := mgr.bySocket[sid]
	delete(mgr.bySocket, sid)
	room := mgr.rooms[id]
	mgr.mu.Unlock()

	if ok && room != nil {
		room.Leave(sid)
	}
}

// ActiveRooms reports live room codes for the HTTP surface.
func (mgr *Manager) ActiveRooms() []string {
	mgr.mu.RLock()
	defer mgr.mu.RUnlock()

	out := make([]string, 0, len(mgr.rooms))
	for id := range mgr.rooms {
		out = append(out, id)
	}
	return out
}

func cleanPlayerName(s string) string {
	s = strings.TrimSpace(s)
	if runes := []rune(s); len(runes) > 20 {
		s = string(runes[:20])
	}
	return s
}
