// game/orchestrator.go
package game

import (
	"math/rand"

	"github.com/wfunc/huntserver/logger"
	"github.com/wfunc/huntserver/models"
	"github.com/wfunc/huntserver/network"
	"github.com/wfunc/huntserver/room"
	"github.com/wfunc/huntserver/session"
)

const joinFailedMessage = "Room full or not found."

// Orchestrator 会话调度器。所有入站指令都经它串行处理，它读写
// 注册表和房间目录，产出一批出站消息。随机源显式注入，测试可以播种
type Orchestrator struct {
	sessions *session.Manager
	rooms    *room.Manager
	rng      *rand.Rand
}

func NewOrchestrator(sessions *session.Manager, rooms *room.Manager, rng *rand.Rand) *Orchestrator {
	return &Orchestrator{
		sessions: sessions,
		rooms:    rooms,
		rng:      rng,
	}
}

// Dispatch 消费一条指令。未跟踪连接或越权的指令静默吸收，返回空消息列表
func (o *Orchestrator) Dispatch(connID string, cmd Command) []Outbound {
	switch c := cmd.(type) {
	case CreateRoom:
		return o.createRoom(connID, c)
	case JoinRoom:
		return o.joinRoom(connID, c)
	case Ready:
		return o.markReady(connID)
	case Start:
		return o.startGame(connID, c)
	case Reveal:
		return o.revealCard(connID, c)
	case Disconnect:
		return o.disconnect(connID)
	}
	return nil
}

// --- 房间创建与加入 ---

func (o *Orchestrator) createRoom(connID string, cmd CreateRoom) []Outbound {
	sess, ok := o.sessions.Get(connID)
	if !ok {
		return nil
	}

	r := o.rooms.CreateRoom(o.rng)
	r.AddMember(connID)
	sess.Name = cmd.Name
	sess.RoomCode = r.Code
	sess.Host = true

	return []Outbound{
		RoomCast(r.Code, network.EventRoomPlayers, o.memberNames(r)),
		Unicast(connID, network.EventCreateRoom, CreateRoomReply{
			Success:  true,
			RoomCode: r.Code,
			IsHost:   true,
		}),
	}
}

func (o *Orchestrator) joinRoom(connID string, cmd JoinRoom) []Outbound {
	sess, ok := o.sessions.Get(connID)
	if !ok {
		return nil
	}

	r, exists := o.rooms.GetRoom(cmd.RoomCode)
	if !exists || !r.AddMember(connID) {
		return []Outbound{
			Unicast(connID, network.EventJoinRoom, JoinRoomReply{
				Success: false,
				Message: joinFailedMessage,
			}),
		}
	}

	sess.Name = cmd.Name
	sess.RoomCode = r.Code
	sess.Host = false

	return []Outbound{
		RoomCast(r.Code, network.EventRoomPlayers, o.memberNames(r)),
		Unicast(connID, network.EventJoinRoom, JoinRoomReply{Success: true, IsHost: false}),
	}
}

// --- 准备聚合 ---

func (o *Orchestrator) markReady(connID string) []Outbound {
	sess, ok := o.sessions.Get(connID)
	if !ok || sess.RoomCode == "" {
		return nil
	}
	r, exists := o.rooms.GetRoom(sess.RoomCode)
	if !exists {
		return nil
	}

	// 房主的准备不记录也不需要
	if !sess.Host {
		r.MarkReady(connID)
	}

	return []Outbound{o.readyUpdate(r)}
}

// readyUpdate 汇总当前准备情况发给房主，名单按准备信号的先后顺序。
// 人数为0==0时allReady平凡成立，单人房主可以直接开局
func (o *Orchestrator) readyUpdate(r *room.Room) Outbound {
	readyIDs := r.ReadyIDs()
	names := make([]string, 0, len(readyIDs))
	for _, id := range readyIDs {
		if member, ok := o.sessions.Get(id); ok {
			names = append(names, o.displayName(member))
		}
	}

	nonHost := 0
	for _, id := range r.Members() {
		if member, ok := o.sessions.Get(id); ok && !member.Host {
			nonHost++
		}
	}

	return HostCast(r.Code, network.EventReadyUpdate, ReadyUpdate{
		Names:    names,
		AllReady: r.ReadyCount() == nonHost,
	})
}

// --- 开局 ---

func (o *Orchestrator) startGame(connID string, cmd Start) []Outbound {
	r, exists := o.rooms.GetRoom(cmd.RoomCode)
	if !exists {
		return nil
	}

	// 非房主或外人的开局请求静默失败，但准备集合照样被清掉
	sess, ok := o.sessions.Get(connID)
	if !ok || sess.RoomCode != cmd.RoomCode || !sess.Host {
		r.ClearReady()
		return nil
	}
	if err := r.Start(); err != nil {
		logger.Log.Warnf("房间 %s 重复开局被拒绝: %v", r.Code, err)
		r.ClearReady()
		return nil
	}

	members := r.Members()
	msgs := make([]Outbound, 0, 3*len(members)+2)

	// 洗牌并发牌：每人从牌堆尾部拿两张，剩牌留在房间里
	deck := NewDeck()
	ShuffleDeck(o.rng, deck)
	r.SetDeck(deck)
	for _, id := range members {
		member, ok := o.sessions.Get(id)
		if !ok {
			continue
		}
		hand := make([]models.Card, 0, models.HandSize)
		for i := 0; i < models.HandSize; i++ {
			card, _ := r.PopCard()
			hand = append(hand, card)
		}
		member.Hand = hand
		member.Revealed = nil
		msgs = append(msgs, Unicast(id, network.EventYourRoles, hand))
	}

	// 掷先手骰
	rolls := make(map[string]int, len(members))
	for _, id := range members {
		rolls[id] = RollDie(o.rng)
	}
	for _, id := range members {
		msgs = append(msgs, Unicast(id, network.EventYourRoll, RollNotice{Roll: rolls[id]}))
	}
	hunterID := FirstHunter(members, rolls)
	msgs = append(msgs, RoomCast(r.Code, network.EventFirstHunt, FirstHunt{
		PlayerID:   hunterID,
		PlayerName: o.nameOf(hunterID, "Unknown"),
	}))

	// 初始化食物
	r.SharedFood = models.StartingShared
	snapshot := make([]PlayerFood, 0, len(members))
	for _, id := range members {
		member, ok := o.sessions.Get(id)
		if !ok {
			continue
		}
		member.Food = models.StartingFood
		snapshot = append(snapshot, PlayerFood{Name: o.displayName(member), Food: member.Food})
	}
	for _, id := range members {
		member, ok := o.sessions.Get(id)
		if !ok {
			continue
		}
		msgs = append(msgs, Unicast(id, network.EventInitFood, InitFood{
			YourFood:    member.Food,
			SharedFood:  r.SharedFood,
			PlayerFoods: snapshot,
		}))
	}

	r.ClearReady()
	msgs = append(msgs, RoomCast(r.Code, network.EventGameStarted, nil))
	return msgs
}

// --- 亮牌 ---

func (o *Orchestrator) revealCard(connID string, cmd Reveal) []Outbound {
	caller, ok := o.sessions.Get(connID)
	if !ok || caller.RoomCode == "" {
		return nil
	}
	target, ok := o.sessions.Get(cmd.TargetID)
	if !ok || target.RoomCode != caller.RoomCode {
		return nil
	}

	card, err := target.RevealCard(cmd.CardIndex)
	if err != nil {
		// 越界索引是显式错误：不改状态，不发消息
		logger.Log.Warnf("房间 %s 亮牌索引越界: target=%s index=%d", caller.RoomCode, cmd.TargetID, cmd.CardIndex)
		return nil
	}

	return []Outbound{
		Unicast(cmd.TargetID, network.EventCardLost, card),
		RoomCast(caller.RoomCode, network.EventPlayerLostCard, PlayerLostCard{
			PlayerID:   cmd.TargetID,
			LostAnimal: card,
		}),
	}
}

// --- 断开 ---

func (o *Orchestrator) disconnect(connID string) []Outbound {
	sess, ok := o.sessions.Get(connID)
	if !ok {
		return nil
	}
	o.sessions.Remove(connID)

	if sess.RoomCode == "" {
		return nil
	}
	r, exists := o.rooms.GetRoom(sess.RoomCode)
	if !exists {
		return nil
	}

	r.RemoveMember(connID)
	if r.MemberCount() == 0 {
		// 空房间立刻关闭，房间号回到采样池
		o.rooms.RemoveRoom(r.Code)
		return nil
	}

	// 房主离开时最早加入的剩余成员接任，接任者的准备标记作废
	if sess.Host {
		heirID := r.Members()[0]
		if heir, ok := o.sessions.Get(heirID); ok {
			heir.Host = true
			r.UnmarkReady(heirID)
			logger.Log.Infof("房间 %s 房主离开，%s 接任", r.Code, o.displayName(heir))
		}
	}

	return []Outbound{
		RoomCast(r.Code, network.EventRoomPlayers, o.memberNames(r)),
		o.readyUpdate(r),
	}
}

// --- 辅助 ---

func (o *Orchestrator) memberNames(r *room.Room) []string {
	members := r.Members()
	names := make([]string, 0, len(members))
	for _, id := range members {
		names = append(names, o.nameOf(id, "Unnamed"))
	}
	return names
}

func (o *Orchestrator) nameOf(sessionID, fallback string) string {
	sess, ok := o.sessions.Get(sessionID)
	if !ok {
		return fallback
	}
	return o.displayName(sess)
}

func (o *Orchestrator) displayName(sess *session.Session) string {
	if sess.Name == "" {
		return "Unnamed"
	}
	return sess.Name
}
