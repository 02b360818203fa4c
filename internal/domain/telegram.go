package domain

// Update is the part of a Telegram update the bot acts on.
type Update struct {
	UpdateID int64
	Message  *Message
}

type User struct {
	ID        int64
	IsBot     bool
	FirstName string
	Username  string
}

type Chat struct {
	ID   int64
	Type string
}

type Contact struct {
	PhoneNumber string
	FirstName   string
	UserID      int64
}

// Entity marks a span of message text. Offset and Length are in UTF-16 code units.
type Entity struct {
	Type   string
	Offset int
	Length int
}

type Message struct {
	MessageID       int64
	From            *User
	Chat            Chat
	Text            string
	Caption         string
	Entities        []Entity
	CaptionEntities []Entity
	Contact         *Contact
	ReplyToMessage  *Message
}

// SenderID returns the id of the sending user, falling back to the chat id.
func (m Message) SenderID() int64 {
	if m.From != nil {
		return m.From.ID
	}
	return m.Chat.ID
}

// SenderUsername returns the sender's username or "".
func (m Message) SenderUsername() string {
	if m.From != nil {
		return m.From.Username
	}
	return ""
}

// Body returns the text of a message, or its caption for media messages.
func (m Message) Body() (string, []Entity) {
	if m.Text != "" {
		return m.Text, m.Entities
	}
	return m.Caption, m.CaptionEntities
}
