package model

import "time"

// Party kinds used by messages and comments to reference either an
// owner or a renter. The kind and id always travel together.
const (
	PartyOwner  = "OWNER"
	PartyRenter = "RENTER"
)

// Message status values. The column is free text so owners can set
// their own labels; these are the ones the application writes.
const (
	MessageUnread      = "Non lu"
	MessageDone        = "Terminé"
	MessageArchived    = "Archivé"
	MessageTaskCreated = "Tâche créé"
)

// Message is a note exchanged between an owner and a renter as
// stored in the `messages` table. Sender and recipient are tagged
// (kind, id) pairs so the same table serves both directions.
//
// Fields:
//  ID            – primary key identifier.
//  Title         – subject line.
//  Content       – body text.
//  Status        – free-text status (see constants above).
//  SenderKind    – OWNER or RENTER.
//  SenderID      – id in the table named by SenderKind.
//  RecipientKind – OWNER or RENTER.
//  RecipientID   – id in the table named by RecipientKind.
//  CreatedAt     – creation timestamp.
//  UpdatedAt     – last update timestamp.
type Message struct {
	ID            uint64    // messages.id
	Title         string    // messages.title
	Content       string    // messages.content
	Status        string    // messages.status
	SenderKind    string    // messages.sender_kind
	SenderID      uint64    // messages.sender_id
	RecipientKind string    // messages.recipient_kind
	RecipientID   uint64    // messages.recipient_id
	CreatedAt     time.Time // messages.created_at
	UpdatedAt     time.Time // messages.updated_at
}

// Comment is a reply attached to a message. Comments are deleted
// together with their message.
type Comment struct {
	ID         uint64    // comments.id
	MessageID  uint64    // comments.message_id
	AuthorKind string    // comments.author_kind
	AuthorID   uint64    // comments.author_id
	Content    string    // comments.content
	CreatedAt  time.Time // comments.created_at
}
