package rpc

import (
	"net"
	"net/rpc"

	"github.com/wfunc/huntserver/logger"
	"github.com/wfunc/huntserver/models"
	"github.com/wfunc/huntserver/room"
	"github.com/wfunc/huntserver/services"
)

// Server manages the RPC listener for the ops/admin surface.
type Server struct {
	listener net.Listener
	address  string
}

// NewServer creates a new RPC server.
func NewServer(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		address:  addr,
	}, nil
}

// Start begins listening for RPC requests.
func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.address)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			// Check if the error is due to the listener being closed.
			if _, ok := err.(*net.OpError); ok {
				logger.Log.Info("RPC server listener closed.")
				return
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}
		go rpc.ServeConn(conn)
	}
}

// Stop closes the RPC listener.
func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("Stopping RPC server.")
		s.listener.Close()
	}
}

// AdminService exposes room inspection and player stats over net/rpc.
type AdminService struct {
	roomManager *room.Manager
	gameService *services.GameService
}

// NewAdminService creates a new AdminService.
func NewAdminService(rooms *room.Manager, gs *services.GameService) *AdminService {
	return &AdminService{roomManager: rooms, gameService: gs}
}

type ListRoomsArgs struct{}

type RoomSummary struct {
	Code    string
	Members int
	InGame  bool
}

type ListRoomsReply struct {
	Rooms []RoomSummary
}

// ListRooms returns a summary of every open room.
func (as *AdminService) ListRooms(args *ListRoomsArgs, reply *ListRoomsReply) error {
	for _, code := range as.roomManager.Codes() {
		r, exists := as.roomManager.GetRoom(code)
		if !exists {
			continue
		}
		reply.Rooms = append(reply.Rooms, RoomSummary{
			Code:    r.Code,
			Members: r.MemberCount(),
			InGame:  r.InGame(),
		})
	}
	return nil
}

type PlayerStatsArgs struct {
	Name string
}

type PlayerStatsReply struct {
	Stats models.PlayerStats
}

// GetPlayerStats returns the archived stats for a player name.
func (as *AdminService) GetPlayerStats(args *PlayerStatsArgs, reply *PlayerStatsReply) error {
	stats, err := as.gameService.PlayerStats(args.Name)
	if err != nil {
		return err
	}
	reply.Stats = *stats
	return nil
}
