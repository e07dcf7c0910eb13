package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/zlnvch/canvashub/cache"
	"github.com/zlnvch/canvashub/models"
	"github.com/zlnvch/canvashub/worker"
)

// ErrNoProjects distinguishes "this page is empty" from a storage failure
// so the REST surface can answer 404 instead of 500.
var ErrNoProjects = errors.New("no projects found")

func (s *Service) CreateProject(ctx context.Context, ownerId string, name string, width int, height int) (string, error) {
	if err := ValidateProjectName(name); err != nil {
		return "", err
	}

	image, err := CreateImage(width, height)
	if err != nil {
		return "", err
	}

	return s.persistNewProject(ctx, ownerId, name, width, height, image)
}

// UploadProject is CreateProject with a caller-supplied image instead of a
// generated blank canvas.
func (s *Service) UploadProject(ctx context.Context, ownerId string, name string, width int, height int, image string) (string, error) {
	if err := ValidateProjectName(name); err != nil {
		return "", err
	}
	if err := ValidateDimensions(width, height); err != nil {
		return "", err
	}

	return s.persistNewProject(ctx, ownerId, name, width, height, image)
}

func (s *Service) persistNewProject(ctx context.Context, ownerId string, name string, width int, height int, image string) (string, error) {
	preview, err := CompressImage(image)
	if err != nil {
		return "", err
	}

	project := models.Project{
		Name:    name,
		OwnerId: ownerId,
		Width:   width,
		Height:  height,
		Image:   image,
		Preview: preview,
	}

	created, err := s.Store.CreateProject(ctx, project)
	if err != nil {
		return "", fmt.Errorf("create project failed: %w", err)
	}

	return created.Id, nil
}

// ListProjects returns the requested 1-based window of the owner's
// projects, newest-modified first. An empty window is ErrNoProjects.
func (s *Service) ListProjects(ctx context.Context, ownerId string, pageNumber int, pageSize int) ([]models.ProjectSummary, error) {
	pageNumber, pageSize, err := ValidatePage(pageNumber, pageSize)
	if err != nil {
		return nil, err
	}

	summaries, err := s.Store.ListProjectsByOwner(ctx, ownerId)
	if err != nil {
		return nil, fmt.Errorf("list projects failed: %w", err)
	}

	start := (pageNumber - 1) * pageSize
	if start >= len(summaries) {
		return nil, ErrNoProjects
	}
	end := start + pageSize
	if end > len(summaries) {
		end = len(summaries)
	}

	return summaries[start:end], nil
}

// GetProject returns the project's name and full image, reading the image
// through the cache. Store misses caused by a foreign owner come back as
// ErrItemNotFound from the META lookup before the image is ever touched.
func (s *Service) GetProject(ctx context.Context, id string, ownerId string) (models.Project, error) {
	project, err := s.Store.GetProject(ctx, id, ownerId)
	if err != nil {
		return models.Project{}, err
	}

	image, err := s.Cache.GetProjectImage(ctx, id)
	if err == nil {
		project.Image = image
		return project, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		log.Printf("Image cache read failed for project %s: %v", id, err)
	}

	image, err = s.Store.GetProjectImage(ctx, id)
	if err != nil {
		return models.Project{}, fmt.Errorf("image fetch failed: %w", err)
	}
	project.Image = image

	// Backfill off the request path
	go func() {
		if err := s.Cache.SetProjectImage(context.Background(), id, image); err != nil {
			log.Printf("Image cache backfill failed for project %s: %v", id, err)
		}
	}()

	return project, nil
}

// SaveProject replaces the project's name and image, regenerates the
// preview and bumps the last-modified timestamp.
func (s *Service) SaveProject(ctx context.Context, id string, ownerId string, name string, image string) error {
	if err := ValidateProjectName(name); err != nil {
		return err
	}

	preview, err := CompressImage(image)
	if err != nil {
		return err
	}

	if err := s.Store.SaveProject(ctx, id, ownerId, name, image, preview); err != nil {
		return err
	}

	// Write through so the next GetProject doesn't pay for a miss
	go func() {
		if err := s.Cache.SetProjectImage(context.Background(), id, image); err != nil {
			log.Printf("Image cache write failed for project %s: %v", id, err)
		}
	}()

	return nil
}

// DeleteProject removes the metadata row synchronously; the orphaned image
// row is purged by the worker so the caller doesn't wait on it.
func (s *Service) DeleteProject(ctx context.Context, id string, ownerId string) error {
	if err := s.Store.DeleteProject(ctx, id, ownerId); err != nil {
		return err
	}

	go func() {
		ctx := context.Background()
		if err := s.Cache.InvalidateProjects(ctx, []string{id}); err != nil {
			log.Printf("Cache invalidation failed for project %s: %v", id, err)
		}

		msg := worker.PurgeMessage{ProjectId: id}
		if msgBytes, err := json.Marshal(msg); err == nil {
			if err := s.MQ.Send(ctx, string(msgBytes)); err != nil {
				log.Printf("Failed to enqueue purge for project %s: %v", id, err)
			}
		}
	}()

	return nil
}
