package models

import (
	"fmt"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// Reaction is one of the emoji a user can leave on a comment
type Reaction string

const (
	ReactionThumbsUp Reaction = "👍"
	ReactionHeart    Reaction = "❤️"
	ReactionLaugh    Reaction = "😂"
	ReactionWow      Reaction = "😮"
	ReactionSad      Reaction = "😢"
	ReactionFire     Reaction = "🔥"
)

// Reactions lists every accepted reaction in display order
var Reactions = []Reaction{ReactionThumbsUp, ReactionHeart, ReactionLaugh, ReactionWow, ReactionSad, ReactionFire}

var reactionAliases = map[string]Reaction{
	"like":     ReactionThumbsUp,
	"thumbsup": ReactionThumbsUp,
	"+1":       ReactionThumbsUp,
	"love":     ReactionHeart,
	"heart":    ReactionHeart,
	"❤":        ReactionHeart,
	"laugh":    ReactionLaugh,
	"haha":     ReactionLaugh,
	"wow":      ReactionWow,
	"sad":      ReactionSad,
	"fire":     ReactionFire,
}

// ParseReaction validates an incoming emoji or alias
func ParseReaction(s string) (Reaction, error) {
	s = strings.TrimSpace(s)
	for _, r := range Reactions {
		if s == string(r) {
			return r, nil
		}
	}
	if r, ok := reactionAliases[strings.ToLower(s)]; ok {
		return r, nil
	}
	return "", fmt.Errorf("unsupported reaction %q", s)
}

// ReactionCounts tallies reactions per emoji
func ReactionCounts(reactions map[string]Reaction) map[Reaction]int {
	counts := make(map[Reaction]int)
	for _, r := range reactions {
		counts[r]++
	}
	return counts
}

// NormalizeReactions converts a stored reactions field of any historical shape into the strict map.
// Documents, arrays of {userId, emoji} pairs and missing values are understood; entries with an
// unknown emoji are dropped. changed is true when the stored value differs from the result.
func NormalizeReactions(raw bson.RawValue) (reactions map[string]Reaction, changed bool) {
	reactions = make(map[string]Reaction)

	switch raw.Type {
	case 0, bsontype.Null, bsontype.Undefined:
		return reactions, raw.Type != 0
	case bsontype.EmbeddedDocument:
		doc, _ := raw.DocumentOK()
		elems, err := doc.Elements()
		if err != nil {
			return reactions, true
		}
		for _, el := range elems {
			s, ok := el.Value().StringValueOK()
			if !ok {
				changed = true
				continue
			}
			r, err := ParseReaction(s)
			if err != nil {
				changed = true
				continue
			}
			if string(r) != s {
				changed = true
			}
			reactions[el.Key()] = r
		}
		return reactions, changed
	case bsontype.Array:
		arr, _ := raw.ArrayOK()
		values, err := arr.Values()
		if err != nil {
			return reactions, true
		}
		for _, v := range values {
			doc, ok := v.DocumentOK()
			if !ok {
				continue
			}
			userID := lookupString(doc, "userId", "user_id", "user")
			emoji := lookupString(doc, "emoji", "reaction", "type")
			if userID == "" {
				continue
			}
			if r, err := ParseReaction(emoji); err == nil {
				reactions[userID] = r
			}
		}
		return reactions, true
	default:
		return reactions, true
	}
}

func lookupString(doc bson.Raw, keys ...string) string {
	for _, k := range keys {
		v, err := doc.LookupErr(k)
		if err != nil {
			continue
		}
		if s, ok := v.StringValueOK(); ok {
			return s
		}
		if n, ok := v.AsInt64OK(); ok {
			return strconv.FormatInt(n, 10)
		}
		if oid, ok := v.ObjectIDOK(); ok {
			return oid.Hex()
		}
	}
	return ""
}
