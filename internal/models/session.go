package models

// Message roles. The chat log only distinguishes what the user said from what
// the assistant answered.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry in a session's chat log.
type Message struct {
	// Role is RoleUser or RoleAssistant.
	Role string

	// Text is the message body.
	Text string

	// CreatedAt is the Unix timestamp when the message was recorded.
	CreatedAt int64
}

// Session is one shared-bill conversation. It owns the current Bill and the
// chat log. The bill is replaced wholesale on every receipt upload; prior
// assignments are discarded, not merged.
type Session struct {
	// ID is the unique identifier for the session (UUID format).
	ID string

	// Title is a human-readable name for the session.
	// Auto-generated when the client does not provide one.
	Title string

	// Bill is the receipt currently being split. Empty until the first
	// successful receipt upload.
	Bill Bill

	// Messages is the chat log, oldest first.
	Messages []Message

	// PassphraseHash is the bcrypt hash of the optional session passphrase.
	// Empty for unprotected sessions.
	PassphraseHash string

	// CreatedAt is the Unix timestamp when the session was created.
	CreatedAt int64
}
