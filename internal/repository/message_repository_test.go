package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aroschi/gestimmo/internal/model"
)

func messageRows(id uint64, status, senderKind string, senderID uint64, recipientKind string, recipientID uint64) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "title", "content", "status", "sender_kind", "sender_id", "recipient_kind", "recipient_id", "created_at", "updated_at",
	}).AddRow(id, "Chaudière en panne", "", status, senderKind, senderID, recipientKind, recipientID, now, now)
}

func TestMessageGetForPartyRejectsOutsider(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewMessageRepo(db)

	mock.ExpectQuery("SELECT id, title, content, status").
		WithArgs(uint64(12)).
		WillReturnRows(messageRows(12, model.MessageUnread, model.PartyRenter, 2, model.PartyOwner, 1))

	// Renter 7 is neither the sender nor the recipient.
	_, err = repo.GetForParty(context.Background(), 12, Party{Kind: model.PartyRenter, ID: 7})
	assert.ErrorIs(t, err, ErrForbidden)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageGetForPartyAllowsRecipient(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewMessageRepo(db)

	mock.ExpectQuery("SELECT id, title, content, status").
		WithArgs(uint64(12)).
		WillReturnRows(messageRows(12, model.MessageUnread, model.PartyRenter, 2, model.PartyOwner, 1))

	m, err := repo.GetForParty(context.Background(), 12, Party{Kind: model.PartyOwner, ID: 1})
	require.NoError(t, err)
	assert.Equal(t, uint64(12), m.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageCreateUnknownRecipient(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewMessageRepo(db)

	mock.ExpectQuery("SELECT id FROM renters").
		WithArgs(uint64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = repo.Create(context.Background(),
		Party{Kind: model.PartyOwner, ID: 1},
		Party{Kind: model.PartyRenter, ID: 99},
		"Bonjour", "")
	assert.ErrorIs(t, err, ErrValidation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageDeleteBlockedByTask(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewMessageRepo(db)

	mock.ExpectQuery("SELECT id, title, content, status").
		WithArgs(uint64(12)).
		WillReturnRows(messageRows(12, model.MessageTaskCreated, model.PartyRenter, 2, model.PartyOwner, 1))
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM tasks`).
		WithArgs(uint64(12)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	err = repo.Delete(context.Background(), 12, Party{Kind: model.PartyOwner, ID: 1})
	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPartyTable(t *testing.T) {
	table, err := partyTable(model.PartyOwner)
	require.NoError(t, err)
	assert.Equal(t, "owners", table)

	table, err = partyTable(model.PartyRenter)
	require.NoError(t, err)
	assert.Equal(t, "renters", table)

	_, err = partyTable("ADMIN")
	assert.ErrorIs(t, err, ErrValidation)
}
