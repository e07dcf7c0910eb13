package models

type User struct {
	Id           string
	Username     string
	Provider     string
	ProviderId   string
	PasswordHash string
	Created      int64
}

// Project is an image canvas owned by one user. Collaborators is an
// append-only log of every session id that has ever joined the project's
// room; it is not a presence indicator.
type Project struct {
	Id            string   `json:"id"`
	Name          string   `json:"name"`
	OwnerId       string   `json:"ownerId"`
	Width         int      `json:"width"`
	Height        int      `json:"height"`
	Collaborators []string `json:"collaborators"`
	Created       int64    `json:"created"`
	LastModified  int64    `json:"lastModified"`
	Image         string   `json:"image,omitempty"`
	Preview       string   `json:"preview,omitempty"`
}

// ProjectSummary is the listing shape: no full image, collaborator list
// collapsed to a count.
type ProjectSummary struct {
	Id                 string `json:"id"`
	Name               string `json:"name"`
	CollaboratorsCount int    `json:"collaboratorsCount"`
	Preview            string `json:"preview,omitempty"`
	Created            int64  `json:"created"`
	LastModified       int64  `json:"lastModified"`
}
