package network

// 入站事件
const (
	EventCreateRoom  = "createRoom"
	EventJoinRoom    = "joinRoom"
	EventPlayerReady = "playerReady"
	EventStartGame   = "startGame"
	EventAssassinate = "assassinate"
	EventCoup        = "coup"
)

// 出站事件
const (
	EventRoomPlayers    = "roomPlayers"
	EventReadyUpdate    = "readyUpdate"
	EventGameStarted    = "gameStarted"
	EventYourRoles      = "yourRoles"
	EventYourRoll       = "yourRoll"
	EventFirstHunt      = "firstHunt"
	EventInitFood       = "initFood"
	EventCardLost       = "cardLost"
	EventPlayerLostCard = "playerLostCard"
)
