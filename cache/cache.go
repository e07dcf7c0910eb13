package cache

import (
	"context"
	"errors"
)

// ErrCacheMiss is returned by read operations when the key is absent.
var ErrCacheMiss = errors.New("cache miss")

type ProjectCache interface {
	// Publish/Subscribe back the collaboration hub's per-room event
	// fan-out plus the user-deleted control channel.
	Publish(ctx context.Context, channel string, message []byte) error
	Subscribe(ctx context.Context, channel string, handler func(message []byte)) error

	// Full-image read-through cache. Images are the heavy part of a
	// project row; GetProject backfills on miss.
	SetProjectImage(ctx context.Context, projectId string, image string) error
	GetProjectImage(ctx context.Context, projectId string) (string, error)
	InvalidateProjects(ctx context.Context, projectIds []string) error
}
