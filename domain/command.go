package domain

// PostMessageCommand is the intent of one session to publish a message.
// Author and Body come straight from the wire; the store validates them.
type PostMessageCommand struct {
	Session SessionID
	Author  string
	Body    string
}

// RecentCommand asks for the latest persisted messages, oldest first.
type RecentCommand struct {
	Limit int
}
