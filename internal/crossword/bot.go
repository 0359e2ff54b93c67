package crossword

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/blarphus/crossword/internal/domain/puzzle"
	"github.com/blarphus/crossword/internal/platform/metrics"
)

type botPhase int

const (
	botWandering botPhase = iota
	botFilling
)

// defaultBotNames seed unnamed bots.
var defaultBotNames = []string{"Ada", "Grace", "Alan", "Edsger", "Barbara", "Donald"}

// Bot is a synthetic solver. It types toward the full solution on a
// shuffled word queue, pacing itself against a pre-drawn timing budget so
// the whole run lands near the per-difficulty target solve time.
type Bot struct {
	ID         string
	Name       string
	Color      string
	Difficulty Difficulty
	Running    bool

	words      []puzzle.Word
	wordIdx    int
	cellInWord int
	pending    bool // the current cell has a fill scheduled
	phase      botPhase

	thinks    []time.Duration
	cellTimes []time.Duration
	cellIdx   int

	seq int // timer sequence, gives each armed callback a unique name
}

// timerName returns a fresh scheduler name. All of a bot's timers share
// the "bot:<id>:" prefix so eviction can cancel them in one sweep.
func (b *Bot) timerName() string {
	b.seq++
	return fmt.Sprintf("bot:%s:%d", b.ID, b.seq)
}

// nextCellTime consumes one cell-time slot. Skipped cells consume slots
// too, which is what keeps the total near the target when humans race
// the bot to cells.
func (b *Bot) nextCellTime() time.Duration {
	i := b.cellIdx
	if i >= len(b.cellTimes) {
		i = len(b.cellTimes) - 1
	}
	b.cellIdx++
	return b.cellTimes[i]
}

func (b *Bot) consumeCellSlot() {
	b.cellIdx++
}

func (b *Bot) thinkTime() time.Duration {
	i := b.wordIdx
	if i >= len(b.thinks) {
		i = len(b.thinks) - 1
	}
	return b.thinks[i]
}

// AddBot seats an idle synthetic solver in the room.
func (r *Room) AddBot(difficulty, name string) {
	r.mu.Lock()
	id := "bot-" + uuid.NewString()[:8]
	if name = strings.TrimSpace(name); name == "" {
		name = r.pickBotNameLocked()
	}

	b := &Bot{
		ID:         id,
		Name:       name,
		Color:      r.pickColorLocked("", botPalette),
		Difficulty: ParseDifficulty(difficulty),
	}
	r.bots[id] = b
	r.members[id] = &Member{SID: id, Name: b.Name, Color: b.Color, IsBot: true}
	list := r.botListLocked()
	r.mu.Unlock()

	metrics.Get().RecordBot(1)
	r.emitter.ToRoom(r.channel(), "user-joined", userJoinedPayload{
		SocketID: id, UserName: b.Name, Color: b.Color, IsBot: true,
	})
	r.emitter.ToRoom(r.channel(), "ai-bot-list", list)
	r.log.Event("bot_added", id, "date", r.date, "difficulty", b.Difficulty.String())
}

func (r *Room) pickBotNameLocked() string {
	used := make(map[string]bool, len(r.members))
	for _, m := range r.members {
		used[m.Name] = true
	}
	for _, n := range defaultBotNames {
		if !used[n] {
			return n
		}
	}
	return fmt.Sprintf("Bot %d", len(r.bots)+1)
}

// RemoveBot evicts one bot by id.
func (r *Room) RemoveBot(id string) {
	r.mu.Lock()
	r.removeBotLocked(id)
	list := r.botListLocked()
	r.mu.Unlock()

	r.emitter.ToRoom(r.channel(), "ai-bot-list", list)
}

// removeBotLocked cancels all of the bot's timers, clears its fire state,
// and announces departure. Caller holds the lock.
func (r *Room) removeBotLocked(id string) {
	b, ok := r.bots[id]
	if !ok {
		return
	}
	m := r.members[id]

	r.sched.CancelPrefix("bot:" + id + ":")
	r.sched.Cancel("fire:" + id)

	fireWasOn := m != nil && m.Fire.OnFire
	if fireWasOn {
		m.Fire.Clear()
	}
	delete(r.bots, id)
	delete(r.members, id)

	metrics.Get().RecordBot(-1)
	if fireWasOn {
		r.emitter.ToRoom(r.channel(), "fire-expired", fireExpiredPayload{UserName: b.Name})
	}
	r.emitter.ToRoom(r.channel(), "user-left", userLeftPayload{SocketID: id, UserName: b.Name})
}

// StartBots kicks off every idle bot.
func (r *Room) StartBots() {
	r.mu.Lock()
	started := 0
	for _, b := range r.bots {
		if !b.Running {
			r.startBotLocked(b)
			started++
		}
	}
	list := r.botListLocked()
	r.mu.Unlock()

	if started > 0 {
		r.emitter.ToRoom(r.channel(), "ai-bot-list", list)
	}
}

// BotList replies to one socket with the current roster.
func (r *Room) BotList(sid string) {
	r.mu.Lock()
	list := r.botListLocked()
	r.mu.Unlock()

	r.emitter.ToSocket(sid, "ai-bot-list", list)
}

func (r *Room) botListLocked() botListPayload {
	out := botListPayload{Bots: make([]botInfo, 0, len(r.bots))}
	for _, b := range r.bots {
		out.Bots = append(out.Bots, botInfo{
			ID: b.ID, Name: b.Name, Color: b.Color,
			Difficulty: b.Difficulty.String(), Running: b.Running,
		})
	}
	return out
}

// startBotLocked draws the bot's target time, builds its shuffled word
// queue, and arms the first step.
func (r *Room) startBotLocked(b *Bot) {
	if r.completed {
		return
	}

	dow, err := r.puz.Weekday()
	if err != nil {
		r.log.Warn("bad puzzle date, assuming weekday", "date", r.date, "err", err)
		dow = time.Wednesday
	}
	totalMS := SolveSeconds(dow, b.Difficulty, r.rng) * 1000

	words := r.puz.Words()
	r.rng.Shuffle(len(words), func(i, j int) { words[i], words[j] = words[j], words[i] })
	// Offset each bot's queue so concurrent bots start on different words.
	if n := len(words); n > 0 {
		off := r.botSerial % n
		words = append(words[off:], words[:off]...)
	}
	r.botSerial++

	numCells := 0
	for _, w := range words {
		numCells += len(w.Cells)
	}
	b.words = words
	b.thinks, b.cellTimes = DistributeTimes(totalMS, len(words), numCells, r.rng)
	if len(b.words) == 0 || len(b.cellTimes) == 0 {
		return
	}

	b.Running = true
	b.wordIdx, b.cellInWord, b.cellIdx = 0, 0, 0
	b.phase = botWandering
	b.pending = false

	first := b.thinkTime() / 3
	if first < minBotStepInterval {
		first = minBotStepInterval
	}
	id := b.ID
	r.sched.Arm(b.timerName(), first, func() { r.botStep(id) })
	r.log.Event("bot_started", id, "date", r.date, "targetSeconds", int(totalMS/1000))
}

// botStep is the bot's single timer callback. It re-validates membership
// and room state, performs at most one visible action, and arms the next
// step.
func (r *Room) botStep(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bots[id]
	m := r.members[id]
	if !ok || m == nil || !b.Running || r.completed {
		return
	}

	switch b.phase {
	case botWandering:
		r.botWanderStepLocked(b, m)
	case botFilling:
		r.botFillStepLocked(b, m)
	}
}

// botWanderStepLocked either drifts the cursor or lands on the current
// word's first cell.
func (r *Room) botWanderStepLocked(b *Bot, m *Member) {
	step := b.thinkTime() / 3
	if step < minBotStepInterval {
		step = minBotStepInterval
	}
	id := b.ID

	if r.rng.Float64() < WanderProbability(b.Difficulty) {
		r.botHopLocked(m)
		r.sched.Arm(b.timerName(), step, func() { r.botStep(id) })
		return
	}

	w := b.words[b.wordIdx]
	start := w.Cells[0]
	r.botMoveCursorLocked(m, start.Row, start.Col, string(w.Direction))
	b.phase = botFilling
	r.sched.Arm(b.timerName(), step, func() { r.botStep(id) })
}

// botHopLocked moves the cursor 2 to 5 squares at a random angle,
// clamped to the grid.
func (r *Room) botHopLocked(m *Member) {
	dist := 2 + r.rng.Float64()*3
	angle := r.rng.Float64() * 2 * math.Pi
	row := m.CursorRow + int(math.Round(dist*math.Sin(angle)))
	col := m.CursorCol + int(math.Round(dist*math.Cos(angle)))

	row = clamp(row, 0, r.puz.Dimensions.Rows-1)
	col = clamp(col, 0, r.puz.Dimensions.Cols-1)
	r.botMoveCursorLocked(m, row, col, m.Direction)
}

func (r *Room) botMoveCursorLocked(m *Member, row, col int, direction string) {
	m.CursorRow, m.CursorCol, m.Direction = row, col, direction
	r.emitter.ToRoom(r.channel(), "cursor-moved", cursorMovedPayload{
		SocketID: m.SID, UserName: m.Name, Row: row, Col: col, Direction: direction,
	})
}

// botFillStepLocked fills the pending cell, then finds the next cell to
// schedule, skipping cells the live grid already has right. Skipped
// cells still consume their time slots.
func (r *Room) botFillStepLocked(b *Bot, m *Member) {
	w := b.words[b.wordIdx]

	if b.pending {
		b.pending = false
		cell := w.Cells[b.cellInWord]
		if !r.botCellCorrectLocked(cell) {
			r.botMoveCursorLocked(m, cell.Row, cell.Col, string(w.Direction))
			answer := strings.ToUpper(r.puz.CorrectAnswer(cell.Row, cell.Col))
			r.applyCellUpdateLocked(m, cell.Row, cell.Col, answer)
		}
		b.cellInWord++
		if r.completed || !b.Running {
			// Completion eviction may have removed the bot mid-update.
			return
		}
	}

	for b.cellInWord < len(w.Cells) && r.botCellCorrectLocked(w.Cells[b.cellInWord]) {
		b.cellInWord++
		b.consumeCellSlot()
	}

	id := b.ID
	if b.cellInWord >= len(w.Cells) {
		b.wordIdx++
		b.cellInWord = 0
		if b.wordIdx >= len(b.words) {
			b.Running = false
			r.emitter.ToRoom(r.channel(), "ai-bot-list", r.botListLocked())
			return
		}
		b.phase = botWandering
		r.sched.Arm(b.timerName(), minBotStepInterval, func() { r.botStep(id) })
		return
	}

	b.pending = true
	r.sched.Arm(b.timerName(), b.nextCellTime(), func() { r.botStep(id) })
}

func (r *Room) botCellCorrectLocked(c puzzle.Cell) bool {
	return strings.EqualFold(r.grid[c.Key()], r.puz.CorrectAnswer(c.Row, c.Col))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
