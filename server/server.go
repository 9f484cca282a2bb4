package server

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	netrpc "net/rpc"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/wfunc/huntserver/broadcast"
	"github.com/wfunc/huntserver/game"
	"github.com/wfunc/huntserver/logger"
	"github.com/wfunc/huntserver/models"
	"github.com/wfunc/huntserver/monitor"
	"github.com/wfunc/huntserver/network"
	"github.com/wfunc/huntserver/persistence"
	"github.com/wfunc/huntserver/room"
	huntrpc "github.com/wfunc/huntserver/rpc"
	"github.com/wfunc/huntserver/services"
	"github.com/wfunc/huntserver/session"
	"github.com/wfunc/huntserver/timer"
)

const roomGaugeInterval = 5 * time.Second

type GameServer struct {
	addr           string
	monitorAddr    string
	upgrader       websocket.Upgrader
	roomManager    *room.Manager
	sessionManager *session.Manager
	orchestrator   *game.Orchestrator
	broadcaster    broadcast.Broadcaster
	gameService    *services.GameService
	monitor        *monitor.Monitor
	timers         *timer.Manager
	rpcServer      *huntrpc.Server
	dispatchMutex  sync.Mutex // 入站刺激严格串行
	shutdownChan   chan struct{}
}

func NewGameServer(addr, rpcAddr, monitorAddr string, db persistence.Database) *GameServer {
	s := &GameServer{
		addr:           addr,
		monitorAddr:    monitorAddr,
		roomManager:    room.NewRoomManager(),
		sessionManager: session.NewManager(),
		gameService:    services.NewGameService(db),
		monitor:        monitor.NewMonitor("huntserver"),
		timers:         timer.NewManager(),
		shutdownChan:   make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 允许所有跨域请求
			},
		},
	}

	s.orchestrator = game.NewOrchestrator(
		s.sessionManager,
		s.roomManager,
		rand.New(rand.NewSource(time.Now().UnixNano())),
	)

	// 初始化广播器
	s.broadcaster = broadcast.NewRoomBroadcaster(s.roomManager, s.sessionManager)

	// 初始化RPC服务器
	rpcServer, err := huntrpc.NewServer(rpcAddr)
	if err != nil {
		logger.Log.Fatalf("Failed to create RPC server: %v", err)
	}
	s.rpcServer = rpcServer

	// 注册RPC服务
	adminService := huntrpc.NewAdminService(s.roomManager, s.gameService)
	netrpc.Register(adminService)

	return s
}

func (s *GameServer) Start() error {
	go s.rpcServer.Start()
	s.monitor.StartServer(s.monitorAddr)

	// 定时刷新房间数指标
	s.timers.AddTimer(roomGaugeInterval, roomGaugeInterval, func() {
		s.monitor.SetActiveRooms(s.roomManager.Count())
	})

	http.HandleFunc("/ws", s.handleWebSocket)
	logger.Log.Infof("Game server listening on %s", s.addr)
	return http.ListenAndServe(s.addr, nil)
}

func (s *GameServer) Shutdown() {
	close(s.shutdownChan)
	s.timers.Stop()
	s.rpcServer.Stop()
}

func (s *GameServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	s.handleConnection(conn)
}

func (s *GameServer) handleConnection(conn *websocket.Conn) {
	wsConn := network.NewWSConnection(conn)
	sess := session.NewSession(uuid.New().String(), wsConn)
	s.sessionManager.Add(sess)
	s.monitor.IncOnlinePlayers()

	logger.Log.Infof("New connection from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())

	defer func() {
		logger.Log.Infof("Connection closed from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())
		s.dispatch(sess.GetID(), game.Disconnect{})
		s.monitor.DecOnlinePlayers()
		wsConn.Close()
	}()

	for {
		select {
		case <-s.shutdownChan:
			return
		default:
			env, err := wsConn.ReadEnvelope()
			if err != nil {
				return
			}
			s.handleEnvelope(sess, env)
		}
	}
}

func (s *GameServer) handleEnvelope(sess *session.Session, env *network.Envelope) {
	cmd, err := commandFromEnvelope(env)
	if err != nil {
		logger.Log.Infof("Session %s: %v", sess.GetID(), err)
		return
	}

	msgs := s.dispatch(sess.GetID(), cmd)

	// 开局成功时落历史存档，放在调度路径之外
	if start, ok := cmd.(game.Start); ok && containsEvent(msgs, network.EventGameStarted) {
		record := s.buildGameRecord(start.RoomCode, msgs)
		go func() {
			if err := s.gameService.RecordGameStart(record); err != nil {
				logger.Log.Warnf("房间 %s 开局存档失败: %v", record.RoomCode, err)
			}
		}()
	}
}

// dispatch 串行执行一条指令并投递产出的消息。
// 投递也要在锁内完成，保证各条指令的消息批次不会交错送达。
func (s *GameServer) dispatch(connID string, cmd game.Command) []game.Outbound {
	s.dispatchMutex.Lock()
	start := time.Now()
	msgs := s.orchestrator.Dispatch(connID, cmd)
	s.broadcaster.Deliver(msgs)
	s.dispatchMutex.Unlock()

	s.monitor.IncCommandsReceived()
	s.monitor.ObserveDispatchLatency(time.Since(start))
	return msgs
}

func commandFromEnvelope(env *network.Envelope) (game.Command, error) {
	switch env.Event {
	case network.EventCreateRoom:
		var p struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return nil, fmt.Errorf("bad %s payload: %w", env.Event, err)
		}
		return game.CreateRoom{Name: p.Name}, nil

	case network.EventJoinRoom:
		var p struct {
			RoomCode string `json:"roomCode"`
			Name     string `json:"name"`
		}
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return nil, fmt.Errorf("bad %s payload: %w", env.Event, err)
		}
		return game.JoinRoom{RoomCode: p.RoomCode, Name: p.Name}, nil

	case network.EventPlayerReady:
		return game.Ready{}, nil

	case network.EventStartGame:
		var p struct {
			RoomCode string `json:"roomCode"`
		}
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return nil, fmt.Errorf("bad %s payload: %w", env.Event, err)
		}
		return game.Start{RoomCode: p.RoomCode}, nil

	case network.EventAssassinate, network.EventCoup:
		// 两个动作在核心层是同一个亮牌变更
		var p struct {
			TargetID  string `json:"targetId"`
			CardIndex int    `json:"cardIndex"`
		}
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return nil, fmt.Errorf("bad %s payload: %w", env.Event, err)
		}
		return game.Reveal{TargetID: p.TargetID, CardIndex: p.CardIndex}, nil
	}

	return nil, fmt.Errorf("unknown event %q", env.Event)
}

func containsEvent(msgs []game.Outbound, event string) bool {
	for _, m := range msgs {
		if m.Event == event {
			return true
		}
	}
	return false
}

// buildGameRecord 从房间现状和开局消息拼出存档
func (s *GameServer) buildGameRecord(roomCode string, msgs []game.Outbound) *models.GameRecord {
	record := &models.GameRecord{
		RoomCode:  roomCode,
		CreatedAt: time.Now(),
	}

	rolls := make(map[string]int)
	for _, m := range msgs {
		switch p := m.Payload.(type) {
		case game.RollNotice:
			rolls[m.To] = p.Roll
		case game.FirstHunt:
			record.FirstHunter = p.PlayerName
		}
	}

	if r, exists := s.roomManager.GetRoom(roomCode); exists {
		for _, id := range r.Members() {
			member, ok := s.sessionManager.Get(id)
			if !ok {
				continue
			}
			record.Players = append(record.Players, models.PlayerInfo{
				Name: member.Name,
				Host: member.Host,
				Roll: rolls[id],
			})
		}
	}
	return record
}
