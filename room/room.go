// room/room.go
package room

import (
	"errors"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/wfunc/huntserver/models"
	"github.com/wfunc/huntserver/state"
)

// ErrAlreadyStarted is returned when a start is attempted on a room that is already in game.
var ErrAlreadyStarted = errors.New("game already started")

// Room 是游戏房间的核心结构。成员列表按加入顺序排列，第一个加入者是房主。
// 所有修改都经过调度器串行执行，互斥锁只保护监控/RPC等旁路读取
type Room struct {
	Code         string
	StateMachine state.StateMachine
	CreatedAt    time.Time
	SharedFood   int // 开局后有效

	members    []string            // 连接ID，加入顺序
	ready      map[string]struct{} // 已准备的非房主成员
	readyOrder []string            // 准备信号的先后顺序
	deck       []models.Card       // 开局后剩余的牌，从尾部弹出
	mutex      sync.RWMutex
}

// NewRoom 创建一个新房间，初始在大厅状态
func NewRoom(code string) *Room {
	room := &Room{
		Code:      code,
		CreatedAt: time.Now(),
		ready:     make(map[string]struct{}),
	}

	// 初始化状态机，将房间自身作为上下文传入；游戏状态不允许退回大厅
	lobby := state.NewLobbyState(room)
	inGame := state.NewInGameState(room)
	room.StateMachine = state.NewBaseStateMachine(lobby)
	room.StateMachine.AddTransition(inGame, lobby, func() bool { return false })

	return room
}

// --- 实现 state.RoomContext 接口 ---

// GetCode 返回房间号
func (r *Room) GetCode() string {
	return r.Code
}

// MemberCount 返回当前成员数
func (r *Room) MemberCount() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.members)
}

// --- 成员管理 ---

// AddMember 按加入顺序追加成员，房间已满时返回false
func (r *Room) AddMember(sessionID string) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if len(r.members) >= models.RoomCapacity {
		return false
	}
	r.members = append(r.members, sessionID)
	return true
}

// RemoveMember 移除成员并同时清掉它的准备标记
func (r *Room) RemoveMember(sessionID string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for i, id := range r.members {
		if id == sessionID {
			r.members = append(r.members[:i], r.members[i+1:]...)
			break
		}
	}
	r.dropReady(sessionID)
}

// Members 返回成员ID副本，加入顺序
func (r *Room) Members() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	members := make([]string, len(r.members))
	copy(members, r.members)
	return members
}

// --- 准备集合 ---

// MarkReady 幂等地记录一个成员已准备。重复标记不改变先后顺序
func (r *Room) MarkReady(sessionID string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, ok := r.ready[sessionID]; ok {
		return
	}
	r.ready[sessionID] = struct{}{}
	r.readyOrder = append(r.readyOrder, sessionID)
}

// UnmarkReady 撤掉一个成员的准备标记（仅用于房主接任）
func (r *Room) UnmarkReady(sessionID string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.dropReady(sessionID)
}

// dropReady 调用方须持有锁
func (r *Room) dropReady(sessionID string) {
	if _, ok := r.ready[sessionID]; !ok {
		return
	}
	delete(r.ready, sessionID)
	for i, id := range r.readyOrder {
		if id == sessionID {
			r.readyOrder = append(r.readyOrder[:i], r.readyOrder[i+1:]...)
			break
		}
	}
}

func (r *Room) IsReady(sessionID string) bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	_, ok := r.ready[sessionID]
	return ok
}

func (r *Room) ReadyCount() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.ready)
}

// ReadyIDs 返回已准备成员的ID副本，按准备信号的先后顺序
func (r *Room) ReadyIDs() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	ids := make([]string, len(r.readyOrder))
	copy(ids, r.readyOrder)
	return ids
}

// ClearReady 无条件清空准备集合。每次开局尝试后调用，无论成败
func (r *Room) ClearReady() {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.ready = make(map[string]struct{})
	r.readyOrder = nil
}

// --- 牌堆 ---

// SetDeck 保存洗好的牌作为房间的存牌堆
func (r *Room) SetDeck(deck []models.Card) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.deck = deck
}

// PopCard 从牌堆尾部弹出一张牌
func (r *Room) PopCard() (models.Card, bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if len(r.deck) == 0 {
		return "", false
	}
	card := r.deck[len(r.deck)-1]
	r.deck = r.deck[:len(r.deck)-1]
	return card, true
}

func (r *Room) DeckLen() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.deck)
}

// --- 状态 ---

// Start 把房间切到游戏状态，已经开局则报错
func (r *Room) Start() error {
	if r.InGame() {
		return ErrAlreadyStarted
	}
	return r.StateMachine.ChangeState(state.NewInGameState(r))
}

// InGame 判断房间是否已开局
func (r *Room) InGame() bool {
	return r.StateMachine.GetCurrentState().GetID() == state.StateInGame
}

// --- 房间管理器 ---

// Manager 管理所有开着的房间，房间号在开着的房间中唯一
type Manager struct {
	rooms map[string]*Room
	mutex sync.RWMutex
}

// NewRoomManager 创建一个新的房间管理器
func NewRoomManager() *Manager {
	return &Manager{
		rooms: make(map[string]*Room),
	}
}

// CreateRoom 采样一个未占用的4位房间号并创建房间
func (m *Manager) CreateRoom(rng *rand.Rand) *Room {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	code := m.sampleCode(rng)
	room := NewRoom(code)
	m.rooms[code] = room
	return room
}

// sampleCode 撞号就重采。采样空间远大于同时开着的房间数，碰撞重试是正确性要求
func (m *Manager) sampleCode(rng *rand.Rand) string {
	for {
		code := strconv.Itoa(1000 + rng.Intn(9000))
		if _, exists := m.rooms[code]; !exists {
			return code
		}
	}
}

// RemoveRoom 从管理器中移除一个房间，房间号随之回收
func (m *Manager) RemoveRoom(code string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.rooms, code)
}

// GetRoom 从管理器中获取一个房间
func (m *Manager) GetRoom(code string) (*Room, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	room, exists := m.rooms[code]
	return room, exists
}

// Count 返回开着的房间数
func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.rooms)
}

// Codes 返回所有开着的房间号
func (m *Manager) Codes() []string {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	codes := make([]string, 0, len(m.rooms))
	for code := range m.rooms {
		codes = append(codes, code)
	}
	return codes
}
