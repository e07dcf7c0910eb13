package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/zlnvch/canvashub/service"
	"github.com/zlnvch/canvashub/store"
)

func TestRecordCollaborator_Added(t *testing.T) {
	svc, mockStore, _, _ := setupService(t)
	ctx := context.Background()

	mockStore.On("AddCollaborator", ctx, "project1", "session1").Return(true, nil)

	added, err := svc.RecordCollaborator(ctx, "project1", "session1")
	assert.NoError(t, err)
	assert.True(t, added)
}

func TestRecordCollaborator_AlreadyRecorded(t *testing.T) {
	svc, mockStore, _, _ := setupService(t)
	ctx := context.Background()

	// Rejoining is not an error; the log keeps exactly one entry
	mockStore.On("AddCollaborator", ctx, "project1", "session1").Return(false, nil)

	added, err := svc.RecordCollaborator(ctx, "project1", "session1")
	assert.NoError(t, err)
	assert.False(t, added)
}

func TestRecordCollaborator_MissingProject(t *testing.T) {
	svc, mockStore, _, _ := setupService(t)
	ctx := context.Background()

	mockStore.On("AddCollaborator", ctx, "ghost", "session1").
		Return(false, store.ErrItemNotFound)

	_, err := svc.RecordCollaborator(ctx, "ghost", "session1")
	assert.ErrorIs(t, err, service.ErrRoomNotFound)
}

func TestRecordCollaborator_StoreError(t *testing.T) {
	svc, mockStore, _, _ := setupService(t)
	ctx := context.Background()

	boom := errors.New("dynamo unavailable")
	mockStore.On("AddCollaborator", ctx, "project1", "session1").Return(false, boom)

	_, err := svc.RecordCollaborator(ctx, "project1", "session1")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, service.ErrRoomNotFound)
	assert.ErrorIs(t, err, boom)
}
