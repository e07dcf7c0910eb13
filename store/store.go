package store

import (
	"context"
	"errors"

	"github.com/zlnvch/canvashub/models"
)

type ProjectStore interface {
	// CreateUser inserts the profile if absent and returns the stored row.
	// The bool reports whether this call created it; an existing profile
	// wins and comes back unchanged.
	CreateUser(ctx context.Context, user models.User) (models.User, bool, error)
	GetUser(ctx context.Context, provider string, providerId string) (models.User, error)
	DeleteUser(ctx context.Context, provider string, providerId string) error

	CreateProject(ctx context.Context, project models.Project) (models.Project, error)
	// GetProject returns the project's metadata. The image blob lives in a
	// separate row; use GetProjectImage. Owner mismatch surfaces as
	// ErrItemNotFound so callers never learn about foreign projects.
	GetProject(ctx context.Context, id string, ownerId string) (models.Project, error)
	GetProjectImage(ctx context.Context, id string) (string, error)
	// ListProjectsByOwner returns summaries ordered by LastModified
	// descending. Pagination is the caller's concern.
	ListProjectsByOwner(ctx context.Context, ownerId string) ([]models.ProjectSummary, error)
	ListProjectIdsByOwner(ctx context.Context, ownerId string) ([]string, error)
	SaveProject(ctx context.Context, id string, ownerId string, name string, image string, preview string) error
	DeleteProject(ctx context.Context, id string, ownerId string) error

	// AddCollaborator appends sessionId to the project's collaborator log
	// if and only if it is not already recorded. The append is atomic in
	// the store, so concurrent joins cannot produce duplicates. Returns
	// whether a new entry was written; ErrItemNotFound if the project does
	// not exist.
	AddCollaborator(ctx context.Context, projectId string, sessionId string) (bool, error)

	// PurgeProjectImage removes the orphaned image row of an already
	// deleted project. Used by the purge worker, not by request paths.
	PurgeProjectImage(ctx context.Context, projectId string) error
	DeleteProjectsByOwner(ctx context.Context, ownerId string) error
}

// Custom error types for clarity
var (
	ErrItemNotFound    = errors.New("item does not exist")
	ErrConditionFailed = errors.New("condition not met")
)
