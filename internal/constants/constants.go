package constants

const USER_AGENT = "lobbytracker/0.1.0 (+https://github.com/Amund211/lobbytracker)"
