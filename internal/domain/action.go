package domain

// ParseModeHTML asks Telegram to render the text as HTML.
const ParseModeHTML = "HTML"

// Button is a reply keyboard button.
type Button struct {
	Text           string
	RequestContact bool
}

// Keyboard is a reply keyboard shown under the input field.
type Keyboard struct {
	Rows [][]Button
}

// SendOptions tune an outbound text message.
type SendOptions struct {
	Keyboard         *Keyboard
	ParseMode        string
	ReplyToMessageID int64
}

// ActionKind selects which transport call executes an Action.
type ActionKind int

const (
	ActionSendText ActionKind = iota + 1
	ActionSendMediaGroup
	ActionRelay
)

// Action is one outbound effect produced by a conversation step.
type Action struct {
	Kind     ActionKind
	ChatID   int64
	Text     string
	Options  SendOptions
	Media    []string
	Envelope *RelayEnvelope
}
