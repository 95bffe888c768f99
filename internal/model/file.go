package model

import "time"

// File is a reference to an externally stored document attached to
// a domain entity. Only the reference lives in the database; the
// binary itself is stored elsewhere under StorageKey.
//
// Fields:
//  ID          – primary key identifier.
//  OwnerID     – owner who attached the file.
//  EntityKind  – apartment, contract, renter, bill or repair.
//  EntityID    – id in the table named by EntityKind.
//  Name        – display name of the document.
//  ContentType – MIME type.
//  StorageKey  – key in the external store.
//  CreatedAt   – creation timestamp.
type File struct {
	ID          uint64    // files.id
	OwnerID     uint64    // files.owner_id
	EntityKind  string    // files.entity_kind
	EntityID    uint64    // files.entity_id
	Name        string    // files.name
	ContentType string    // files.content_type
	StorageKey  string    // files.storage_key
	CreatedAt   time.Time // files.created_at
}
