package parsing

import (
	"regexp"
	"strings"

	"github.com/Amund211/lobbytracker/internal/domain"
)

var (
	joinedPattern    = regexp.MustCompile(`\[CHAT\] ([^ ]+) has joined`)
	quitPattern      = regexp.MustCompile(`\[CHAT\] ([^ ]+) has quit`)
	onlinePattern    = regexp.MustCompile(`\[CHAT\] ONLINE: (.+)`)
	gameStartPattern = regexp.MustCompile(`\[CHAT\] The game starts in 1 seconds!`)
)

// ParseLine maps one line of the client log to a lobby event.
// Lines that match none of the chat patterns give domain.Nothing.
func ParseLine(line string) domain.Event {
	if match := joinedPattern.FindStringSubmatch(line); match != nil {
		return domain.JoinedLobby{Username: match[1]}
	}

	if match := quitPattern.FindStringSubmatch(line); match != nil {
		return domain.LeftLobby{Username: match[1]}
	}

	if match := onlinePattern.FindStringSubmatch(line); match != nil {
		return domain.LobbyList{Usernames: strings.Split(match[1], ", ")}
	}

	if gameStartPattern.MatchString(line) {
		return domain.GameStart{}
	}

	return domain.Nothing{}
}

// SplitLines splits decoded log text into lines, dropping the empty element after a final newline
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}

	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}

	return lines
}
