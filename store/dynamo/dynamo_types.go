package dynamo

import (
	"github.com/zlnvch/canvashub/models"
)

type dynamoUser struct {
	PK           string `dynamodbav:"PK"`
	SK           string `dynamodbav:"SK"`
	Id           string `dynamodbav:"Id"`
	Provider     string `dynamodbav:"Provider"`
	ProviderId   string `dynamodbav:"ProviderId"`
	Username     string `dynamodbav:"Username"`
	PasswordHash string `dynamodbav:"PasswordHash"`
	Created      int64  `dynamodbav:"Created"`
}

// Map domain User -> Dynamo
func userToDynamo(u models.User) dynamoUser {
	return dynamoUser{
		PK:           "USER#" + u.Provider + "#" + u.ProviderId,
		SK:           "PROFILE",
		Id:           u.Id,
		Provider:     u.Provider,
		ProviderId:   u.ProviderId,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		Created:      u.Created,
	}
}

// Map Dynamo -> domain User
func userFromDynamo(du dynamoUser) models.User {
	return models.User{
		Id:           du.Id,
		Username:     du.Username,
		Provider:     du.Provider,
		ProviderId:   du.ProviderId,
		PasswordHash: du.PasswordHash,
		Created:      du.Created,
	}
}

// dynamoProject is the META row: everything except the full image blob.
// OwnerId + LastModified back the GSI_OwnerProjects index so listings come
// back sorted by recency without touching IMAGE rows.
type dynamoProject struct {
	PK            string   `dynamodbav:"PK"`
	SK            string   `dynamodbav:"SK"`
	Id            string   `dynamodbav:"Id"`
	Name          string   `dynamodbav:"Name"`
	OwnerId       string   `dynamodbav:"OwnerId"`
	Width         int      `dynamodbav:"Width"`
	Height        int      `dynamodbav:"Height"`
	Collaborators []string `dynamodbav:"Collaborators"`
	Created       int64    `dynamodbav:"Created"`
	LastModified  int64    `dynamodbav:"LastModified"`
	Preview       string   `dynamodbav:"Preview"`
}

// dynamoProjectImage is the IMAGE row, split from META because the blob is
// large and list/metadata reads must not pay for it.
type dynamoProjectImage struct {
	PK    string `dynamodbav:"PK"`
	SK    string `dynamodbav:"SK"`
	Image string `dynamodbav:"Image"`
}

func projectPK(id string) string {
	return "PROJECT#" + id
}

// Map domain Project -> Dynamo META row
func projectToDynamo(p models.Project) dynamoProject {
	collaborators := p.Collaborators
	if collaborators == nil {
		collaborators = []string{}
	}
	return dynamoProject{
		PK:            projectPK(p.Id),
		SK:            "META",
		Id:            p.Id,
		Name:          p.Name,
		OwnerId:       p.OwnerId,
		Width:         p.Width,
		Height:        p.Height,
		Collaborators: collaborators,
		Created:       p.Created,
		LastModified:  p.LastModified,
		Preview:       p.Preview,
	}
}

// Map Dynamo META row -> domain Project (Image left empty)
func projectFromDynamo(dp dynamoProject) models.Project {
	return models.Project{
		Id:            dp.Id,
		Name:          dp.Name,
		OwnerId:       dp.OwnerId,
		Width:         dp.Width,
		Height:        dp.Height,
		Collaborators: dp.Collaborators,
		Created:       dp.Created,
		LastModified:  dp.LastModified,
		Preview:       dp.Preview,
	}
}

// Map Dynamo META row -> listing summary
func summaryFromDynamo(dp dynamoProject) models.ProjectSummary {
	return models.ProjectSummary{
		Id:                 dp.Id,
		Name:               dp.Name,
		CollaboratorsCount: len(dp.Collaborators),
		Preview:            dp.Preview,
		Created:            dp.Created,
		LastModified:       dp.LastModified,
	}
}

func imageToDynamo(projectId string, image string) dynamoProjectImage {
	return dynamoProjectImage{
		PK:    projectPK(projectId),
		SK:    "IMAGE",
		Image: image,
	}
}
