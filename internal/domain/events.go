package domain

// Event is a lobby event parsed from a single chat log line.
//
// One of JoinedLobby, LeftLobby, LobbyList, GameStart or Nothing.
type Event interface {
	isEvent()
}

type JoinedLobby struct {
	Username string
}

type LeftLobby struct {
	Username string
}

// LobbyList is the response to /who, in the order the server listed the players
type LobbyList struct {
	Usernames []string
}

type GameStart struct{}

type Nothing struct{}

func (JoinedLobby) isEvent() {}
func (LeftLobby) isEvent()   {}
func (LobbyList) isEvent()   {}
func (GameStart) isEvent()   {}
func (Nothing) isEvent()     {}
