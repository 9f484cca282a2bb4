// session/session.go
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/wfunc/huntserver/models"
	"github.com/wfunc/huntserver/network"
)

// ErrCardIndex is returned when a reveal targets an index beyond the current hand.
var ErrCardIndex = errors.New("card index out of range")

// Session 一条连接对应的玩家档案。游戏字段只由调度器串行修改
type Session struct {
	ID         string
	Conn       network.Connection
	Name       string
	RoomCode   string // 加入房间前为空
	Host       bool
	Hand       []models.Card // 暗牌
	Revealed   []models.Card // 明牌，只增不减
	Food       int
	CreatedAt  time.Time

	activeMutex sync.RWMutex
	lastActive  time.Time
}

func NewSession(id string, conn network.Connection) *Session {
	now := time.Now()
	return &Session{
		ID:         id,
		Conn:       conn,
		CreatedAt:  now,
		lastActive: now,
	}
}

func (s *Session) Send(event string, payload interface{}) error {
	s.touch()
	return s.Conn.Send(event, payload)
}

func (s *Session) touch() {
	s.activeMutex.Lock()
	s.lastActive = time.Now()
	s.activeMutex.Unlock()
}

// LastActive 最近一次向该连接发消息的时间
func (s *Session) LastActive() time.Time {
	s.activeMutex.RLock()
	defer s.activeMutex.RUnlock()
	return s.lastActive
}

func (s *Session) GetID() string {
	return s.ID
}

// RevealCard 把暗牌中第index张移到明牌列表尾部
func (s *Session) RevealCard(index int) (models.Card, error) {
	if index < 0 || index >= len(s.Hand) {
		return "", ErrCardIndex
	}
	card := s.Hand[index]
	s.Hand = append(s.Hand[:index], s.Hand[index+1:]...)
	s.Revealed = append(s.Revealed, card)
	return card, nil
}

func (s *Session) Close() error {
	return s.Conn.Close()
}

// Session管理器
type Manager struct {
	sessions map[string]*Session
	mutex    sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
	}
}

func (m *Manager) Add(session *Session) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.sessions[session.ID] = session
}

func (m *Manager) Remove(sessionID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.sessions, sessionID)
}

func (m *Manager) Get(sessionID string) (*Session, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	session, exists := m.sessions[sessionID]
	return session, exists
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.sessions)
}
