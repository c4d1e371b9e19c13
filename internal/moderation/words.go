package moderation

// DefaultWords is the built-in profanity list
var DefaultWords = []string{
	"arse", "arsehole", "ass", "asshole", "bastard", "bitch", "bitches", "bollocks",
	"bullshit", "cock", "crap", "cunt", "damn", "dick", "dickhead", "dumbass",
	"fag", "faggot", "fuck", "fucked", "fucker", "fucking", "goddamn", "idiot",
	"jackass", "motherfucker", "nigger", "piss", "prick", "pussy", "retard",
	"shit", "shitty", "slut", "stupid", "twat", "wanker", "whore",
}
