package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/zlnvch/canvashub/store"
)

// ErrRoomNotFound rejects joins against rooms whose project id does not
// exist. The hub reports it to the caller instead of crashing the
// connection.
var ErrRoomNotFound = errors.New("room has no matching project")

// RecordCollaborator durably appends the session id to the project's
// collaborator log before the session is admitted to the room. The append
// is atomic append-if-absent in the store, so reconnects and concurrent
// joins leave the log duplicate-free. Returns whether a new entry was
// written.
func (s *Service) RecordCollaborator(ctx context.Context, roomId string, sessionId string) (bool, error) {
	added, err := s.Store.AddCollaborator(ctx, roomId, sessionId)
	if err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			return false, ErrRoomNotFound
		}
		return false, fmt.Errorf("collaborator append failed: %w", err)
	}
	return added, nil
}
