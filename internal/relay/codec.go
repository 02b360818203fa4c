package relay

import (
	"errors"
	"strconv"
	"strings"
	"unicode/utf16"

	"seminar-bot/internal/domain"
)

const (
	tagPrefix     = "#id"
	entityHashtag = "hashtag"
)

var (
	// ErrNoTag means the message carries no trailing hashtag at all.
	ErrNoTag = errors.New("relay: no address tag")
	// ErrMalformedTag means a trailing hashtag exists but does not hold a user id.
	ErrMalformedTag = errors.New("relay: malformed address tag")
)

// Encode returns the address tag for userID. Negative ids produce a tag that Decode
// rejects as malformed.
func Encode(userID int64) string {
	return tagPrefix + strconv.FormatInt(userID, 10)
}

// AppendTag appends the address tag of userID to text as its last paragraph.
func AppendTag(text string, userID int64) string {
	return text + "\n\n" + Encode(userID)
}

// Decode extracts the user id from the trailing hashtag of a relayed message.
//
// When entities are present the last one must be a hashtag entity. Without entity
// metadata the last whitespace separated token is used instead.
func Decode(text string, entities []domain.Entity) (int64, error) {
	tag, err := trailingTag(text, entities)
	if err != nil {
		return 0, err
	}
	return parseTag(tag)
}

func trailingTag(text string, entities []domain.Entity) (string, error) {
	if len(entities) > 0 {
		last := entities[len(entities)-1]
		if last.Type != entityHashtag {
			return "", ErrNoTag
		}
		tag, ok := extractUTF16(text, last.Offset, last.Length)
		if !ok {
			return "", ErrMalformedTag
		}
		return tag, nil
	}

	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "", ErrNoTag
	}
	tag := fields[len(fields)-1]
	if !strings.HasPrefix(tag, "#") {
		return "", ErrNoTag
	}
	return tag, nil
}

func parseTag(tag string) (int64, error) {
	if len(tag) <= len(tagPrefix) || !strings.HasPrefix(tag, tagPrefix) {
		return 0, ErrMalformedTag
	}
	digits := tag[len(tagPrefix):]
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, ErrMalformedTag
		}
	}
	id, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, ErrMalformedTag
	}
	return id, nil
}

// extractUTF16 slices text the way Telegram counts entity offsets.
func extractUTF16(text string, offset, length int) (string, bool) {
	units := utf16.Encode([]rune(text))
	if offset < 0 || length <= 0 || offset+length > len(units) {
		return "", false
	}
	return string(utf16.Decode(units[offset : offset+length])), true
}
