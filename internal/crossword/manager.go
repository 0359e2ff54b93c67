package crossword

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/blarphus/crossword/internal/domain/puzzle"
	"github.com/blarphus/crossword/internal/infra/storage"
	"github.com/blarphus/crossword/internal/network"
	"github.com/blarphus/crossword/internal/platform/logger"
	"github.com/blarphus/crossword/internal/platform/metrics"
)

const (
	maxNameRunes    = 20
	puzzleCacheSize = 32
)

// Manager is the crossword room registry. Rooms are created on the first
// join for a date and torn down when the last human leaves. Reads vastly
// outnumber writes, so lookups take the read lock only.
type Manager struct {
	mu       sync.RWMutex
	rooms    map[string]*Room
	bySocket map[string]string // sid -> puzzle date

	cache   *lru.Cache[string, *puzzle.Puzzle]
	emitter network.Emitter
	store   storage.Store
	log     *logger.Logger
}

// NewManager wires the registry to its collaborators.
func NewManager(emitter network.Emitter, store storage.Store, log *logger.Logger) *Manager {
	cache, _ := lru.New[string, *puzzle.Puzzle](puzzleCacheSize)
	return &Manager{
		rooms:    make(map[string]*Room),
		bySocket: make(map[string]string),
		cache:    cache,
		emitter:  emitter,
		store:    store,
		log:      log,
	}
}

// Bind registers every crossword event with the router. Malformed or
// misaddressed messages are dropped without reply.
func (mgr *Manager) Bind(router *network.Router) {
	router.Handle("join-puzzle", mgr.handleJoin)
	router.Handle("leave-puzzle", func(from network.Sender, _ json.RawMessage) {
		mgr.removeSocket(from.SID)
	})

	router.Handle("cell-update", func(from network.Sender, data json.RawMessage) {
		var p cellUpdatePayload
		if room := mgr.roomOf(from.SID); room != nil && json.Unmarshal(data, &p) == nil {
			room.CellUpdate(from.SID, p.Row, p.Col, p.Letter)
		}
	})
	router.Handle("cursor-move", func(from network.Sender, data json.RawMessage) {
		var p cursorMovePayload
		if room := mgr.roomOf(from.SID); room != nil && json.Unmarshal(data, &p) == nil {
			room.CursorMove(from.SID, p.Row, p.Col, p.Direction)
		}
	})
	router.Handle("hint-vote", func(from network.Sender, _ json.RawMessage) {
		if room := mgr.roomOf(from.SID); room != nil {
			room.HintVote(from.SID)
		}
	})
	router.Handle("hint-available", func(from network.Sender, _ json.RawMessage) {
		if room := mgr.roomOf(from.SID); room != nil {
			room.HintAvailable(from.SID)
		}
	})
	router.Handle("pause-puzzle", func(from network.Sender, _ json.RawMessage) {
		if room := mgr.roomOf(from.SID); room != nil {
			room.Pause(from.SID)
		}
	})
	router.Handle("resume-puzzle", func(from network.Sender, _ json.RawMessage) {
		if room := mgr.roomOf(from.SID); room != nil {
			room.Resume(from.SID)
		}
	})
	router.Handle("clear-puzzle", func(from network.Sender, _ json.RawMessage) {
		if room := mgr.roomOf(from.SID); room != nil {
			room.Clear(from.SID)
		}
	})

	router.Handle("add-ai", func(from network.Sender, data json.RawMessage) {
		var p addBotPayload
		if room := mgr.roomOf(from.SID); room != nil && json.Unmarshal(data, &p) == nil {
			room.AddBot(p.Difficulty, p.Name)
		}
	})
	router.Handle("remove-ai", func(from network.Sender, data json.RawMessage) {
		var p removeBotPayload
		if room := mgr.roomOf(from.SID); room != nil && json.Unmarshal(data, &p) == nil && p.BotID != "" {
			room.RemoveBot(p.BotID)
		}
	})
	router.Handle("start-ai", func(from network.Sender, _ json.RawMessage) {
		if room := mgr.roomOf(from.SID); room != nil {
			room.StartBots()
		}
	})
	router.Handle("get-ai-bots", func(from network.Sender, _ json.RawMessage) {
		if room := mgr.roomOf(from.SID); room != nil {
			room.BotList(from.SID)
		}
	})

	// Calendar subscribers get debounced per-date progress summaries.
	router.Handle("join-calendar", func(from network.Sender, _ json.RawMessage) {
		mgr.emitter.Join(from.SID, CalendarRoom)
	})
	router.Handle("leave-calendar", func(from network.Sender, _ json.RawMessage) {
		mgr.emitter.Leave(from.SID, CalendarRoom)
	})

	router.OnDisconnect(mgr.handleDisconnect)
}

// handleDisconnect runs the leave path and ends the calendar
// subscription. Calendar membership is per-socket, not per-puzzle, so
// only a closed socket loses it.
func (mgr *Manager) handleDisconnect(sid string) {
	mgr.removeSocket(sid)
	mgr.emitter.Leave(sid, CalendarRoom)
}

func (mgr *Manager) handleJoin(from network.Sender, data json.RawMessage) {
	var p joinPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return
	}
	name := cleanName(p.UserName)
	if name == "" {
		return
	}
	if _, err := time.Parse("2006-01-02", p.Date); err != nil {
		return
	}

	// A socket joins at most one puzzle at a time.
	mgr.removeSocket(from.SID)

	room := mgr.getOrCreate(p.Date)
	if room == nil {
		mgr.log.Warn("join for unknown puzzle dropped", "date", p.Date, "sid", from.SID)
		return
	}

	mgr.mu.Lock()
	mgr.bySocket[from.SID] = p.Date
	mgr.mu.Unlock()

	room.Join(from.SID, name, p.Color, p.DeviceID, from.IP)
}

// getOrCreate returns the live room for a date, creating it when the
// puzzle exists. A nil return means no such puzzle.
func (mgr *Manager) getOrCreate(date string) *Room {
	mgr.mu.RLock()
	room, ok := mgr.rooms[date]
	mgr.mu.RUnlock()
	if ok {
		return room
	}

	puz := mgr.loadPuzzle(date)
	if puz == nil {
		return nil
	}

	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	if room, ok := mgr.rooms[date]; ok {
		return room
	}
	room = newRoom(date, puz, mgr.emitter, mgr.store, mgr.log, func() {
		mgr.dropRoom(date)
	})
	mgr.rooms[date] = room
	metrics.Get().RecordRoom(false, 1)
	mgr.log.Info("crossword room created", "date", date)
	return room
}

func (mgr *Manager) dropRoom(date string) {
	mgr.mu.Lock()
	_, ok := mgr.rooms[date]
	delete(mgr.rooms, date)
	mgr.mu.Unlock()

	if ok {
		metrics.Get().RecordRoom(false, -1)
		mgr.log.Info("crossword room destroyed", "date", date)
	}
}

func (mgr *Manager) loadPuzzle(date string) *puzzle.Puzzle {
	if puz, ok := mgr.cache.Get(date); ok {
		return puz
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	puz, err := mgr.store.GetPuzzle(ctx, date)
	if err != nil {
		mgr.log.Error("puzzle load failed", "date", date, "err", err)
		return nil
	}
	if puz == nil {
		return nil
	}
	mgr.cache.Add(date, puz)
	return puz
}

func (mgr *Manager) roomOf(sid string) *Room {
	mgr.mu.RLock()
	defer mgr.mu.RUnlock()

	date, ok := mgr.bySocket[sid]
	if !ok {
		return nil
	}
	return mgr.rooms[date]
}

// removeSocket detaches a socket from its room, if any. Shared by
// leave-puzzle, re-join, and disconnect.
func (mgr *Manager) removeSocket(sid string) {
	mgr.mu.Lock()
	date, ok := mgr.bySocket[sid]
	delete(mgr.bySocket, sid)
	room := mgr.rooms[date]
	mgr.mu.Unlock()

	if ok && room != nil {
		room.Leave(sid)
	}
}

// ActiveDates lists dates with a live room, for the HTTP surface.
func (mgr *Manager) ActiveDates() []string {
	mgr.mu.RLock()
	defer mgr.mu.RUnlock()

	out := make([]string, 0, len(mgr.rooms))
	for date := range mgr.rooms {
		out = append(out, date)
	}
	return out
}

func cleanName(s string) string {
	s = strings.TrimSpace(s)
	if runes := []rune(s); len(runes) > maxNameRunes {
		s = string(runes[:maxNameRunes])
	}
	return s
}
