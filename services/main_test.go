package services

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newMockDB opens GORM over a sqlmock connection. The default transaction
// wrapper is disabled so single-statement writes map to single
// expectations; explicit DB.Transaction calls still begin/commit.
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return db, mock
}

type createdRoom struct {
	Name            string
	DurationMinutes int
	Capacity        int
}

// fakeRoomProvider records calls; FailFirst makes only the first
// CreateRoom call fail, to exercise partial-failure isolation.
type fakeRoomProvider struct {
	Created   []createdRoom
	Deleted   []string
	FailFirst bool
	calls     int
}

func (f *fakeRoomProvider) CreateRoom(_ context.Context, name string, durationMinutes, capacity int) error {
	f.calls++
	if f.FailFirst && f.calls == 1 {
		return errors.New("room service unavailable")
	}
	f.Created = append(f.Created, createdRoom{Name: name, DurationMinutes: durationMinutes, Capacity: capacity})
	return nil
}

func (f *fakeRoomProvider) IssueToken(userID, roomName, identity string) (string, error) {
	return "token-" + userID, nil
}

func (f *fakeRoomProvider) DeleteRoom(_ context.Context, name string) error {
	f.Deleted = append(f.Deleted, name)
	return nil
}
