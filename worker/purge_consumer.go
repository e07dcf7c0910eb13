package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/zlnvch/canvashub/cache"
	"github.com/zlnvch/canvashub/mq"
	"github.com/zlnvch/canvashub/store"
)

// PurgeMessage is the purge queue's payload. Exactly one of the two shapes
// is used: a single-project image purge (ProjectId set) after DeleteProject,
// or an owner cascade (CascadeOwner set) after account deletion.
type PurgeMessage struct {
	ProjectId    string `json:"projectId,omitempty"`
	OwnerId      string `json:"ownerId,omitempty"`
	CascadeOwner bool   `json:"cascadeOwner,omitempty"`
}

type PurgeConsumer struct {
	purgeQueue   mq.MessageQueue
	projectStore store.ProjectStore
	projectCache cache.ProjectCache
}

func NewPurgeConsumer(purgeQueue mq.MessageQueue, projectStore store.ProjectStore, projectCache cache.ProjectCache) *PurgeConsumer {
	return &PurgeConsumer{
		purgeQueue:   purgeQueue,
		projectStore: projectStore,
		projectCache: projectCache,
	}
}

// Allow up to 5 minutes for the throttled cascade delete of a prolific owner
const visibilityTimeout = 300

func (purgeConsumer PurgeConsumer) Run(shutdownCtx context.Context) {
	for {
		msg, err := purgeConsumer.purgeQueue.Receive(shutdownCtx, visibilityTimeout)

		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			log.Printf("purgeConsumer receive error: %v", err)
			continue
		}

		if msg == nil {
			continue
		}

		var purgeMsg PurgeMessage
		if err := json.Unmarshal([]byte(msg.Body), &purgeMsg); err != nil {
			continue
		}

		// timeout should be a little less than queue visibility timeout
		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(visibilityTimeout-1)*time.Second)

		if purgeMsg.CascadeOwner {
			err = purgeConsumer.cascadeOwner(ctx, purgeMsg.OwnerId)
		} else {
			err = purgeConsumer.purgeProject(ctx, purgeMsg.ProjectId)
		}
		cancel()

		if err != nil {
			log.Printf("purgeConsumer processing error: %v", err)
			continue
		}

		err = purgeConsumer.purgeQueue.Delete(context.Background(), msg)
		if err != nil {
			log.Printf("purgeConsumer delete error: %v", err)
			continue
		}
	}
}

func (purgeConsumer PurgeConsumer) purgeProject(ctx context.Context, projectId string) error {
	if projectId == "" {
		return nil
	}
	return purgeConsumer.projectStore.PurgeProjectImage(ctx, projectId)
}

// cascadeOwner removes every project of a deleted account. Cache
// invalidation uses the id list captured before the rows disappear.
func (purgeConsumer PurgeConsumer) cascadeOwner(ctx context.Context, ownerId string) error {
	if ownerId == "" {
		return nil
	}

	projectIds, err := purgeConsumer.projectStore.ListProjectIdsByOwner(ctx, ownerId)
	if err != nil {
		log.Printf("Failed to list projects for owner %s: %v", ownerId, err)
	}

	if err := purgeConsumer.projectStore.DeleteProjectsByOwner(ctx, ownerId); err != nil {
		return err
	}

	if len(projectIds) > 0 {
		if err := purgeConsumer.projectCache.InvalidateProjects(ctx, projectIds); err != nil {
			log.Printf("Failed to invalidate projects for owner %s: %v", ownerId, err)
		}
	}

	return nil
}
