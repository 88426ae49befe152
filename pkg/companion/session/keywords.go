package session

import "strings"

// parentKeywords marks an utterance as a message for the supervising
// adult. A match short-circuits the dialogue collaborator entirely.
var parentKeywords = []string{
	"엄마한테",
	"아빠한테",
	"부모님한테",
	"엄마에게",
	"아빠에게",
	"부모님에게",
	"전해줘",
	"말해줘",
}

// ForwardsToParent reports whether text requests forwarding to the
// supervising adult.
func ForwardsToParent(text string) bool {
	for _, kw := range parentKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
