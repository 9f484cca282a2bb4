// game/command.go
package game

// Command 是一条入站指令。每个外部刺激在服务层被解成一个指令变体，
// 交给调度器串行消费
type Command interface {
	isCommand()
}

// CreateRoom 创建房间，调用者成为房主
type CreateRoom struct {
	Name string
}

// JoinRoom 加入已有房间
type JoinRoom struct {
	RoomCode string
	Name     string
}

// Ready 调用者宣布准备就绪。没有反悔操作
type Ready struct{}

// Start 房主开局
type Start struct {
	RoomCode string
}

// Reveal 亮出目标玩家的一张暗牌。assassinate和coup在这一层语义相同
type Reveal struct {
	TargetID  string
	CardIndex int
}

// Disconnect 连接断开，由传输层产生
type Disconnect struct{}

func (CreateRoom) isCommand() {}
func (JoinRoom) isCommand()   {}
func (Ready) isCommand()      {}
func (Start) isCommand()      {}
func (Reveal) isCommand()     {}
func (Disconnect) isCommand() {}
