package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/gofrs/uuid/v5"

	"github.com/zlnvch/canvashub/models"
	"github.com/zlnvch/canvashub/store"
)

const ownerProjectsIndex = "GSI_OwnerProjects"

type DynamoProjectStore struct {
	client    *dynamodb.Client
	tableName string
}

func NewDynamoProjectStore(ctx context.Context, devMode bool, dynamodbEndpoint string, tableName string) (*DynamoProjectStore, error) {
	client, err := newDynamoDBClient(context.Background(), devMode, dynamodbEndpoint)
	if err != nil {
		return nil, err
	}

	tables, err := getTables(client, ctx)
	if err != nil {
		return nil, err
	}

	foundTable := false
	for _, table := range tables {
		if table == tableName {
			foundTable = true
			break
		}
	}
	if !foundTable {
		return nil, fmt.Errorf("given table name '%s' not found in dynamodb", tableName)
	}

	return &DynamoProjectStore{client: client, tableName: tableName}, nil
}

func (dynamoStore *DynamoProjectStore) CreateUser(ctx context.Context, user models.User) (models.User, bool, error) {
	userId, err := uuid.NewV4()
	if err != nil {
		return models.User{}, false, err
	}
	user.Id = userId.String()

	du := userToDynamo(user)
	du.Created = time.Now().Unix()
	// Conditional insert: an existing profile wins and the caller learns
	// it lost the race through the created flag.
	du, created, err := ensureItem(dynamoStore, ctx, du)
	if err != nil {
		return models.User{}, false, err
	}

	return userFromDynamo(du), created, nil
}

func (dynamoStore *DynamoProjectStore) GetUser(ctx context.Context, provider string, providerId string) (models.User, error) {
	du, err := getItem[dynamoUser](dynamoStore, ctx, "USER#"+provider+"#"+providerId, "PROFILE", false)
	if err != nil {
		return models.User{}, err
	}

	return userFromDynamo(du), nil
}

func (dynamoStore *DynamoProjectStore) DeleteUser(ctx context.Context, provider string, providerId string) error {
	return deleteItemWithCondition(dynamoStore, ctx, "USER#"+provider+"#"+providerId, "PROFILE", "", "")
}

func (dynamoStore *DynamoProjectStore) CreateProject(ctx context.Context, project models.Project) (models.Project, error) {
	projectId, err := uuid.NewV4()
	if err != nil {
		return models.Project{}, err
	}
	project.Id = projectId.String()

	now := time.Now().UnixMilli()
	project.Created = now
	project.LastModified = now

	image := project.Image
	project.Image = "" // META row never carries the blob

	dp := projectToDynamo(project)
	dp, created, err := ensureItem(dynamoStore, ctx, dp)
	if err != nil {
		return models.Project{}, err
	}
	if !created {
		// v4 collision is not a realistic event; treat it as a hard fault
		return models.Project{}, fmt.Errorf("project id collision: %s", project.Id)
	}

	if err := putItem(dynamoStore, ctx, imageToDynamo(project.Id, image)); err != nil {
		return models.Project{}, err
	}

	result := projectFromDynamo(dp)
	result.Image = image
	return result, nil
}

func (dynamoStore *DynamoProjectStore) GetProject(ctx context.Context, id string, ownerId string) (models.Project, error) {
	dp, err := getItem[dynamoProject](dynamoStore, ctx, projectPK(id), "META", false)
	if err != nil {
		return models.Project{}, err
	}

	// Ownership filter: a foreign project is indistinguishable from an
	// absent one.
	if dp.OwnerId != ownerId {
		return models.Project{}, store.ErrItemNotFound
	}

	return projectFromDynamo(dp), nil
}

func (dynamoStore *DynamoProjectStore) GetProjectImage(ctx context.Context, id string) (string, error) {
	di, err := getItem[dynamoProjectImage](dynamoStore, ctx, projectPK(id), "IMAGE", false)
	if err != nil {
		return "", err
	}
	return di.Image, nil
}

func (dynamoStore *DynamoProjectStore) ListProjectsByOwner(ctx context.Context, ownerId string) ([]models.ProjectSummary, error) {
	// Newest-first comes straight from the index sort key (LastModified)
	dps, err := queryItemsByGSI[dynamoProject](dynamoStore, ctx, ownerProjectsIndex, "OwnerId", ownerId, false)
	if err != nil {
		return nil, err
	}

	summaries := make([]models.ProjectSummary, 0, len(dps))
	for _, dp := range dps {
		summaries = append(summaries, summaryFromDynamo(dp))
	}

	return summaries, nil
}

func (dynamoStore *DynamoProjectStore) ListProjectIdsByOwner(ctx context.Context, ownerId string) ([]string, error) {
	pks, err := queryPKsByGSI(dynamoStore, ctx, ownerProjectsIndex, "OwnerId", ownerId)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(pks))
	for _, pk := range pks {
		// PK format is PROJECT#<id>
		if len(pk) > 8 && pk[:8] == "PROJECT#" {
			ids = append(ids, pk[8:])
		}
	}

	return ids, nil
}

func (dynamoStore *DynamoProjectStore) SaveProject(ctx context.Context, id string, ownerId string, name string, image string, preview string) error {
	dp := dynamoProject{
		PK:           projectPK(id),
		SK:           "META",
		Name:         name,
		Preview:      preview,
		LastModified: time.Now().UnixMilli(),
	}

	// Owner guard rides on the conditional update; a mismatch or missing
	// row never touches the IMAGE row below.
	_, err := updateItem(dynamoStore, ctx, dp, []string{"Name", "Preview", "LastModified"}, "OwnerId", ownerId)
	if err != nil {
		if errors.Is(err, store.ErrConditionFailed) {
			return store.ErrItemNotFound
		}
		return err
	}

	return putItem(dynamoStore, ctx, imageToDynamo(id, image))
}

func (dynamoStore *DynamoProjectStore) DeleteProject(ctx context.Context, id string, ownerId string) error {
	err := deleteItemWithCondition(dynamoStore, ctx, projectPK(id), "META", "OwnerId", ownerId)
	if errors.Is(err, store.ErrConditionFailed) {
		// Not the owner: same outcome as a missing project
		return store.ErrItemNotFound
	}
	return err
}

func (dynamoStore *DynamoProjectStore) AddCollaborator(ctx context.Context, projectId string, sessionId string) (bool, error) {
	return appendIfAbsent(dynamoStore, ctx, projectPK(projectId), "META", "Collaborators", sessionId)
}

func (dynamoStore *DynamoProjectStore) PurgeProjectImage(ctx context.Context, projectId string) error {
	return deleteItemWithCondition(dynamoStore, ctx, projectPK(projectId), "IMAGE", "", "")
}

func (dynamoStore *DynamoProjectStore) DeleteProjectsByOwner(ctx context.Context, ownerId string) error {
	return deleteProjectRowsThrottled(dynamoStore, ctx, ownerProjectsIndex, "OwnerId", ownerId, 50*time.Millisecond)
}
