// Package crossword implements the collaborative crossword room: shared
// grid editing with authoritative scoring, fire streaks, hint voting, a
// persistent solve timer, and synthetic solver bots that share the human
// edit pipeline.
package crossword

import (
	"context"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/blarphus/crossword/internal/domain/puzzle"
	"github.com/blarphus/crossword/internal/infra/storage"
	"github.com/blarphus/crossword/internal/network"
	"github.com/blarphus/crossword/internal/platform/logger"
	"github.com/blarphus/crossword/internal/platform/scheduler"
)

// CalendarRoom is the transport room that receives puzzle-progress
// summaries for every puzzle date.
const CalendarRoom = "calendar"

// Member is one room participant, human or bot. Fire state lives here so
// eviction cannot leak a running streak.
type Member struct {
	SID       string
	UserID    string
	Name      string
	Color     string
	CursorRow int
	CursorCol int
	Direction string
	IsBot     bool
	Fire      FireStreak
}

// Room is the authoritative state for one puzzle date. All mutation goes
// through the room mutex; timer and bot callbacks re-acquire it and
// re-check membership before acting.
type Room struct {
	mu   sync.Mutex
	date string
	puz  *puzzle.Puzzle

	members map[string]*Member
	grid    map[string]string // "r,c" -> letters, authoritative fill
	fillers map[string]string // "r,c" -> user name or HintFiller
	points  map[string]int
	guesses map[string]storage.GuessStats

	timerAccum int       // persisted seconds
	timerStart time.Time // zero when stopped

	hintVotes     map[string]struct{}
	hintCells     map[string]struct{}
	hintAvailable bool

	paused    map[string]struct{}
	bots      map[string]*Bot
	botSerial int
	completed bool

	sched   *scheduler.Scheduler
	emitter network.Emitter
	store   storage.Store
	log     *logger.Logger
	rng     *rand.Rand

	// onEmpty runs after the last human leaves, outside the room lock.
	onEmpty func()
}

func newRoom(date string, puz *puzzle.Puzzle, emitter network.Emitter, store storage.Store, log *logger.Logger, onEmpty func()) *Room {
	return &Room{
		date:      date,
		puz:       puz,
		members:   make(map[string]*Member),
		grid:      make(map[string]string),
		fillers:   make(map[string]string),
		points:    make(map[string]int),
		guesses:   make(map[string]storage.GuessStats),
		hintVotes: make(map[string]struct{}),
		hintCells: make(map[string]struct{}),
		paused:    make(map[string]struct{}),
		bots:      make(map[string]*Bot),
		sched:     scheduler.New(),
		emitter:   emitter,
		store:     store,
		log:       log,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		onEmpty:   onEmpty,
	}
}

func (r *Room) channel() string {
	return "puzzle:" + r.date
}

// Join seats a human solver. The first joiner hydrates the room from the
// store and starts the solve timer. A returning user keeps the color
// persisted on earlier visits.
func (r *Room) Join(sid, userName, color, deviceID, ip string) {
	if stored := r.persistedColor(userName); stored != "" {
		color = stored
	}

	r.mu.Lock()

	if len(r.membersOfKind(false)) == 0 && len(r.grid) == 0 {
		r.hydrateLocked()
	}

	m := &Member{
		SID:    sid,
		UserID: deviceID,
		Name:   userName,
		Color:  r.pickColorLocked(color, humanPalette),
	}
	r.members[sid] = m

	if r.timerStart.IsZero() && !r.completed {
		r.timerStart = time.Now()
	}

	snapshot := r.snapshotLocked()
	timer := r.timerSyncLocked()
	count := len(r.membersOfKind(false))
	r.mu.Unlock()

	r.emitter.Join(sid, r.channel())
	r.emitter.ToRoomExcept(r.channel(), sid, "user-joined", userJoinedPayload{
		SocketID: sid, UserName: m.Name, Color: m.Color,
	})
	r.emitter.ToSocket(sid, "room-state", snapshot)
	r.emitter.ToSocket(sid, "timer-sync", timer)
	r.emitter.ToRoom(r.channel(), "room-count", roomCountPayload{Count: count})

	if deviceID != "" {
		go r.ensureUser(deviceID, ip, userName, m.Color)
	}
	r.log.Event("puzzle_join", userName, "date", r.date, "sid", sid)
}

// hydrateLocked loads the persisted room state and timer.
func (r *Room) hydrateLocked() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if state, err := r.store.GetState(ctx, r.date); err != nil {
		r.log.Error("failed to load room state", "date", r.date, "err", err)
	} else if state != nil {
		for k, v := range state.UserGrid {
			r.grid[k] = v
		}
		for k, v := range state.CellFillers {
			r.fillers[k] = v
			if v == HintFiller {
				r.hintCells[k] = struct{}{}
			}
		}
		for k, v := range state.Points {
			r.points[k] = v
		}
		for k, v := range state.Guesses {
			r.guesses[k] = v
		}
	}

	if seconds, err := r.store.GetTimer(ctx, r.date); err != nil {
		r.log.Error("failed to load solve timer", "date", r.date, "err", err)
	} else {
		r.timerAccum = seconds
	}
	r.completed = r.isCompleteLocked()
}

// persistedColor looks up the color saved for a user name. It wins over
// the client's requested color but still yields to pickColorLocked when
// a present member already wears it.
func (r *Room) persistedColor(name string) string {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	colors, err := r.store.GetUserColors(ctx, []string{name})
	if err != nil {
		r.log.Error("user color lookup failed", "name", name, "err", err)
		return ""
	}
	return colors[name]
}

func (r *Room) ensureUser(deviceID, ip, name, color string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	u, err := r.store.GetUser(ctx, deviceID)
	if err != nil {
		r.log.Error("user lookup failed", "deviceId", deviceID, "err", err)
		return
	}
	if u != nil {
		return
	}
	if _, err := r.store.CreateUser(ctx, ip, name, color, deviceID); err != nil {
		r.log.Error("user create failed", "deviceId", deviceID, "err", err)
	}
}

// Leave removes a member. Returns true when the room emptied of humans
// and was shut down.
func (r *Room) Leave(sid string) bool {
	r.mu.Lock()
	m, ok := r.members[sid]
	if !ok || m.IsBot {
		r.mu.Unlock()
		return false
	}

	fireWasOn := m.Fire.OnFire
	if fireWasOn {
		r.sched.Cancel("fire:" + sid)
		m.Fire.Clear()
	}
	delete(r.members, sid)
	delete(r.paused, sid)
	delete(r.hintVotes, sid)

	humans := len(r.membersOfKind(false))
	if humans == 0 {
		r.shutdownLocked()
	} else if r.allHumansPausedLocked() {
		r.stopTimerLocked(true)
	}
	count := humans
	r.mu.Unlock()

	r.emitter.Leave(sid, r.channel())
	if fireWasOn {
		r.emitter.ToRoom(r.channel(), "fire-expired", fireExpiredPayload{UserName: m.Name})
	}
	r.emitter.ToRoom(r.channel(), "user-left", userLeftPayload{SocketID: sid, UserName: m.Name})
	r.emitter.ToRoom(r.channel(), "room-count", roomCountPayload{Count: count})

	if humans == 0 && r.onEmpty != nil {
		r.onEmpty()
	}
	return humans == 0
}

// shutdownLocked persists the timer, evicts bots, and cancels every
// room timer. Hint and pause state dies with the room.
func (r *Room) shutdownLocked() {
	r.stopTimerLocked(true)
	for id := range r.bots {
		r.removeBotLocked(id)
	}
	r.hintVotes = make(map[string]struct{})
	r.hintAvailable = false
	r.paused = make(map[string]struct{})
	r.sched.CancelAll()
}

// CellUpdate applies a human edit.
func (r *Room) CellUpdate(sid string, row, col int, letter string) {
	r.mu.Lock()
	m, ok := r.members[sid]
	if !ok || r.puz.IsBlocked(row, col) {
		r.mu.Unlock()
		return
	}
	r.applyCellUpdateLocked(m, row, col, letter)
	r.mu.Unlock()
}

// applyCellUpdateLocked is the single edit pipeline shared by humans and
// bots. Hint reveals do not go through here. Caller holds the lock.
func (r *Room) applyCellUpdateLocked(m *Member, row, col int, letter string) {
	letter = strings.ToUpper(strings.TrimSpace(letter))
	key := puzzle.CellKey(row, col)
	isHintCell := false
	if _, ok := r.hintCells[key]; ok {
		isHintCell = true
	}

	if letter == "" {
		delete(r.grid, key)
		delete(r.fillers, key)
	} else {
		r.grid[key] = letter
		r.fillers[key] = m.Name
	}
	go r.persistCell(row, col, letter, r.fillers[key])

	out := cellUpdatedPayload{
		Row: row, Col: col, Letter: letter,
		UserName: m.Name, Color: m.Color,
	}

	if letter != "" && !isHintCell {
		out.Scored = true
		r.scoreLocked(m, row, col, letter, &out)
	}

	r.emitter.ToRoom(r.channel(), "cell-updated", out)
	if out.FireEvent != "" {
		r.emitter.ToSocket(m.SID, "fire-update", fireUpdatePayload{
			UserName:    m.Name,
			Type:        out.FireEvent,
			Multiplier:  m.Fire.Multiplier,
			RemainingMS: m.Fire.RemainingMS(time.Now()),
			FireCells:   keys(m.Fire.Cells),
		})
	}
	r.scheduleProgressLocked()
}

// scoreLocked applies the point, guess, word-bonus, fire, and completion
// side effects of one non-hint fill.
func (r *Room) scoreLocked(m *Member, row, col int, letter string, out *cellUpdatedPayload) {
	now := time.Now()
	correct := r.puz.CorrectAnswer(row, col)
	isCorrect := strings.EqualFold(letter, correct)
	isRebus := r.puz.IsRebus(row, col) && len([]rune(letter)) > 1
	wasOnFire := m.Fire.OnFire

	base := pointsPerCell
	if isRebus {
		base = pointsPerRebus
	}

	var delta int
	switch {
	case isCorrect && wasOnFire:
		delta = int(math.Round(float64(base) * m.Fire.Multiplier))
	case isCorrect:
		delta = base
	default:
		delta = pointsWrong
		if wasOnFire {
			r.sched.Cancel("fire:" + m.SID)
			m.Fire.Clear()
			out.FireEvent = "broken"
		} else {
			m.Fire.Recent = nil
		}
	}
	out.Delta = delta
	out.GuessCorrect = isCorrect
	r.points[m.Name] += delta
	g := r.guesses[m.Name]
	g.Total++
	if !isCorrect {
		g.Incorrect++
	}
	r.guesses[m.Name] = g
	go r.persistScore(m.Name, delta, isCorrect)

	if !isCorrect {
		return
	}

	completed := r.completedWordsLocked(row, col)
	wordBonus := 0
	switch {
	case completed >= 2:
		wordBonus = wordBonusDouble
	case completed == 1:
		wordBonus = wordBonusSingle
	}
	if wordBonus > 0 {
		if wasOnFire {
			wordBonus = int(math.Round(float64(wordBonus) * m.Fire.Multiplier))
		}
		out.WordBonus = wordBonus
		r.points[m.Name] += wordBonus
		go r.persistPoints(m.Name, wordBonus)

		r.hintAvailable = false
		r.hintVotes = make(map[string]struct{})

		r.fireTransitionLocked(m, now, completed, out)
	}

	if !r.completed && r.isCompleteLocked() {
		r.completed = true
		out.LastSquareBonus = lastSquareBonus
		r.points[m.Name] += lastSquareBonus
		go r.persistPoints(m.Name, lastSquareBonus)
		r.stopTimerLocked(true)
		for id := range r.bots {
			r.removeBotLocked(id)
		}
		r.emitter.ToRoom(r.channel(), "timer-sync", r.timerSyncLocked())
		r.log.Event("puzzle_completed", m.Name, "date", r.date)
	}
}

// fireTransitionLocked runs the streak state machine for one word-scoring
// correct fill.
func (r *Room) fireTransitionLocked(m *Member, now time.Time, completed int, out *cellUpdatedPayload) {
	if m.Fire.OnFire {
		m.Fire.Extend(completed, r.cellsFilledByLocked(m.Name))
		out.FireEvent = "extended"
	} else if m.Fire.Record(now, completed) {
		m.Fire.Ignite(now, r.cellsFilledByLocked(m.Name))
		out.FireEvent = "started"
	} else {
		return
	}

	sid := m.SID
	name := m.Name
	r.sched.Arm("fire:"+sid, time.Until(m.Fire.ExpiresAt), func() {
		r.expireFire(sid, name)
	})
}

func (r *Room) expireFire(sid, name string) {
	r.mu.Lock()
	m, ok := r.members[sid]
	if !ok || !m.Fire.OnFire || time.Now().Before(m.Fire.ExpiresAt) {
		r.mu.Unlock()
		return
	}
	m.Fire.Clear()
	r.mu.Unlock()

	r.emitter.ToRoom(r.channel(), "fire-expired", fireExpiredPayload{UserName: name})
}

// completedWordsLocked counts the across/down words through (row, col) in
// which every live cell matches its correct answer.
func (r *Room) completedWordsLocked(row, col int) int {
	n := 0
	for _, w := range r.puz.WordsThrough(row, col) {
		done := true
		for _, c := range w.Cells {
			if !strings.EqualFold(r.grid[c.Key()], r.puz.CorrectAnswer(c.Row, c.Col)) {
				done = false
				break
			}
		}
		if done {
			n++
		}
	}
	return n
}

func (r *Room) isCompleteLocked() bool {
	for row := 0; row < r.puz.Dimensions.Rows; row++ {
		for col := 0; col < r.puz.Dimensions.Cols; col++ {
			if r.puz.IsBlocked(row, col) {
				continue
			}
			if !strings.EqualFold(r.grid[puzzle.CellKey(row, col)], r.puz.CorrectAnswer(row, col)) {
				return false
			}
		}
	}
	return true
}

func (r *Room) cellsFilledByLocked(name string) map[string]struct{} {
	cells := make(map[string]struct{})
	for key, filler := range r.fillers {
		if filler == name {
			cells[key] = struct{}{}
		}
	}
	return cells
}

// CursorMove updates a member's cursor and tells its peers.
func (r *Room) CursorMove(sid string, row, col int, direction string) {
	r.mu.Lock()
	m, ok := r.members[sid]
	if !ok || !r.puz.InBounds(row, col) {
		r.mu.Unlock()
		return
	}
	m.CursorRow, m.CursorCol, m.Direction = row, col, direction
	name := m.Name
	r.mu.Unlock()

	r.emitter.ToRoomExcept(r.channel(), sid, "cursor-moved", cursorMovedPayload{
		SocketID: sid, UserName: name, Row: row, Col: col, Direction: direction,
	})
}

// Pause marks a member paused. When every human is paused the solve
// timer stops and persists.
func (r *Room) Pause(sid string) {
	r.mu.Lock()
	if _, ok := r.members[sid]; !ok {
		r.mu.Unlock()
		return
	}
	r.paused[sid] = struct{}{}
	stopped := false
	if r.allHumansPausedLocked() {
		r.stopTimerLocked(true)
		stopped = true
	}
	timer := r.timerSyncLocked()
	r.mu.Unlock()

	if stopped {
		r.emitter.ToRoom(r.channel(), "timer-sync", timer)
	}
}

// Resume unpauses a member and restarts a stopped timer.
func (r *Room) Resume(sid string) {
	r.mu.Lock()
	if _, ok := r.members[sid]; !ok {
		r.mu.Unlock()
		return
	}
	delete(r.paused, sid)
	resumed := false
	if r.timerStart.IsZero() && !r.completed {
		r.timerStart = time.Now()
		resumed = true
	}
	timer := r.timerSyncLocked()
	r.mu.Unlock()

	if resumed {
		r.emitter.ToRoom(r.channel(), "timer-sync", timer)
	}
}

// HintVote registers a vote. Unanimity among humans triggers a reveal of
// up to five incorrect cells.
func (r *Room) HintVote(sid string) {
	r.mu.Lock()
	m, ok := r.members[sid]
	if !ok || m.IsBot {
		r.mu.Unlock()
		return
	}
	r.hintVotes[sid] = struct{}{}
	votes := len(r.hintVotes)
	total := len(r.membersOfKind(false))

	var revealed []revealedCell
	if votes >= total && total > 0 {
		revealed = r.revealHintLocked()
		r.hintVotes = make(map[string]struct{})
		r.hintAvailable = false
	}
	r.mu.Unlock()

	r.emitter.ToRoom(r.channel(), "hint-vote-update", hintVoteUpdatePayload{Votes: votes, Total: total})
	if revealed != nil {
		r.emitter.ToRoom(r.channel(), "hint-reveal", hintRevealPayload{Cells: revealed})
	}
}

// revealHintLocked fills up to maxHintCells wrong or empty cells with
// their correct answers under the hint sentinel. Hint fills bypass
// scoring entirely.
func (r *Room) revealHintLocked() []revealedCell {
	var candidates []puzzle.Cell
	for row := 0; row < r.puz.Dimensions.Rows; row++ {
		for col := 0; col < r.puz.Dimensions.Cols; col++ {
			if r.puz.IsBlocked(row, col) {
				continue
			}
			key := puzzle.CellKey(row, col)
			if _, hinted := r.hintCells[key]; hinted {
				continue
			}
			if strings.EqualFold(r.grid[key], r.puz.CorrectAnswer(row, col)) {
				continue
			}
			candidates = append(candidates, puzzle.Cell{Row: row, Col: col})
		}
	}

	r.rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	if len(candidates) > maxHintCells {
		candidates = candidates[:maxHintCells]
	}

	revealed := make([]revealedCell, 0, len(candidates))
	for _, c := range candidates {
		letter := strings.ToUpper(r.puz.CorrectAnswer(c.Row, c.Col))
		key := c.Key()
		r.grid[key] = letter
		r.fillers[key] = HintFiller
		r.hintCells[key] = struct{}{}
		go r.persistCell(c.Row, c.Col, letter, HintFiller)
		revealed = append(revealed, revealedCell{Row: c.Row, Col: c.Col, Letter: letter})
	}

	if !r.completed && r.isCompleteLocked() {
		// A hint can finish the grid, but nobody earns the last-square bonus.
		r.completed = true
		r.stopTimerLocked(true)
		for id := range r.bots {
			r.removeBotLocked(id)
		}
	}
	r.scheduleProgressLocked()
	return revealed
}

// HintAvailable broadcasts availability once; repeat calls while the
// banner is up are ignored.
func (r *Room) HintAvailable(sid string) {
	r.mu.Lock()
	if _, ok := r.members[sid]; !ok || r.hintAvailable {
		r.mu.Unlock()
		return
	}
	r.hintAvailable = true
	r.mu.Unlock()

	r.emitter.ToRoom(r.channel(), "hint-available", struct{}{})
}

// Clear wipes the room and its persisted state, resetting the timer.
func (r *Room) Clear(sid string) {
	r.mu.Lock()
	if _, ok := r.members[sid]; !ok {
		r.mu.Unlock()
		return
	}
	for id := range r.bots {
		r.removeBotLocked(id)
	}
	r.grid = make(map[string]string)
	r.fillers = make(map[string]string)
	r.points = make(map[string]int)
	r.guesses = make(map[string]storage.GuessStats)
	r.hintVotes = make(map[string]struct{})
	r.hintCells = make(map[string]struct{})
	r.hintAvailable = false
	r.completed = false
	r.timerAccum = 0
	r.timerStart = time.Now()
	timer := r.timerSyncLocked()
	r.scheduleProgressLocked()
	r.mu.Unlock()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.store.ClearState(ctx, r.date); err != nil {
			r.log.Error("failed to clear persisted state", "date", r.date, "err", err)
		}
	}()

	r.emitter.ToRoom(r.channel(), "timer-sync", timer)
	r.emitter.ToRoom(r.channel(), "puzzle-cleared", struct{}{})
	r.log.Event("puzzle_cleared", sid, "date", r.date)
}

// Timer helpers. timerAccum holds persisted seconds; timerStart is the
// live segment's origin, zero while stopped.

func (r *Room) timerSecondsLocked() int {
	s := r.timerAccum
	if !r.timerStart.IsZero() {
		s += int(time.Since(r.timerStart).Seconds())
	}
	return s
}

func (r *Room) timerSyncLocked() timerSyncPayload {
	return timerSyncPayload{Seconds: r.timerSecondsLocked(), Running: !r.timerStart.IsZero()}
}

func (r *Room) stopTimerLocked(persist bool) {
	if r.timerStart.IsZero() {
		return
	}
	r.timerAccum += int(time.Since(r.timerStart).Seconds())
	r.timerStart = time.Time{}
	if persist {
		seconds := r.timerAccum
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := r.store.SaveTimer(ctx, r.date, seconds); err != nil {
				r.log.Error("failed to persist solve timer", "date", r.date, "err", err)
			}
		}()
	}
}

// scheduleProgressLocked debounces the calendar progress broadcast.
func (r *Room) scheduleProgressLocked() {
	r.sched.Arm("progress", progressDebounce, func() {
		r.mu.Lock()
		filled := 0
		for _, v := range r.grid {
			if v != "" {
				filled++
			}
		}
		payload := puzzleProgressPayload{Date: r.date, Filled: filled, Total: r.puz.OpenCellCount()}
		r.mu.Unlock()

		r.emitter.ToRoom(CalendarRoom, "puzzle-progress", payload)
		r.emitter.ToRoom(r.channel(), "puzzle-progress", payload)
	})
}

// Misc helpers.

func (r *Room) membersOfKind(bot bool) []*Member {
	var out []*Member
	for _, m := range r.members {
		if m.IsBot == bot {
			out = append(out, m)
		}
	}
	return out
}

func (r *Room) allHumansPausedLocked() bool {
	humans := r.membersOfKind(false)
	if len(humans) == 0 {
		return false
	}
	for _, m := range humans {
		if _, ok := r.paused[m.SID]; !ok {
			return false
		}
	}
	return true
}

// pickColorLocked keeps a requested color if free, otherwise assigns the
// first unused palette entry, falling back to a random one.
func (r *Room) pickColorLocked(requested string, palette []string) string {
	used := make(map[string]bool, len(r.members))
	for _, m := range r.members {
		used[m.Color] = true
	}
	if requested != "" && !used[requested] {
		return requested
	}
	for _, c := range palette {
		if !used[c] {
			return c
		}
	}
	return palette[r.rng.Intn(len(palette))]
}

func (r *Room) snapshotLocked() roomStatePayload {
	members := make([]memberInfo, 0, len(r.members))
	for _, m := range r.members {
		members = append(members, memberInfo{
			SocketID: m.SID, UserName: m.Name, Color: m.Color,
			CursorRow: m.CursorRow, CursorCol: m.CursorCol,
			Direction: m.Direction, IsBot: m.IsBot,
		})
	}
	return roomStatePayload{
		Date:        r.date,
		Puzzle:      r.puz,
		UserGrid:    copyMap(r.grid),
		CellFillers: copyMap(r.fillers),
		Points:      copyMap(r.points),
		Guesses:     copyMap(r.guesses),
		Members:     members,
		HintVotes:   len(r.hintVotes),
		Completed:   r.completed,
	}
}

// Persistence side effects are fire-and-forget; faults are logged and
// never surface to clients.

func (r *Room) persistCell(row, col int, letter, filler string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := r.store.UpsertCell(ctx, r.date, row, col, letter); err != nil {
		r.log.Error("cell upsert failed", "date", r.date, "err", err)
	}
	if err := r.store.UpsertCellFiller(ctx, r.date, row, col, filler); err != nil {
		r.log.Error("filler upsert failed", "date", r.date, "err", err)
	}
}

func (r *Room) persistScore(name string, delta int, correct bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := r.store.AddPoints(ctx, r.date, name, delta); err != nil {
		r.log.Error("points write failed", "date", r.date, "err", err)
	}
	if err := r.store.AddGuess(ctx, r.date, name, correct); err != nil {
		r.log.Error("guess write failed", "date", r.date, "err", err)
	}
}

func (r *Room) persistPoints(name string, delta int) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := r.store.AddPoints(ctx, r.date, name, delta); err != nil {
		r.log.Error("points write failed", "date", r.date, "err", err)
	}
}

func copyMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func keys(in map[string]struct{}) []string {
	out := make([]string, 0, len(in))
	for k := range in {
		out = append(out, k)
	}
	return out
}

// Completed reports whether the grid is fully solved.
func (r *Room) Completed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.completed
}

// Points returns a copy of the live score map.
func (r *Room) Points() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return copyMap(r.points)
}
