package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Community struct {
	Id         primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	ExternalId string               `bson:"id" json:"id"`
	Username   string               `bson:"username" json:"username"`
	Name       string               `bson:"name" json:"name"`
	Image      string               `bson:"image" json:"image"`
	Bio        string               `bson:"bio" json:"bio"`
	CreatedBy  primitive.ObjectID   `bson:"createdBy" json:"createdBy"`
	Threads    []primitive.ObjectID `bson:"threads" json:"threads"`
	Members    []primitive.ObjectID `bson:"members" json:"members"`
	CreatedAt  time.Time            `bson:"createdAt" json:"createdAt"`
}

// CommunitySummary is the populated form of a community reference.
type CommunitySummary struct {
	Id         primitive.ObjectID `bson:"_id" json:"_id"`
	ExternalId string             `bson:"id" json:"id"`
	Name       string             `bson:"name" json:"name"`
	Image      string             `bson:"image" json:"image"`
}

// CommunityDetails is a community with its creator and members populated.
type CommunityDetails struct {
	Community
	Creator *AuthorSummary
	Members []AuthorSummary
}

// to iterate thru layers: handler -> service -> storage
type CommunityCreationData struct {
	ExternalId  ExternalId
	Name        string
	Username    string
	Image       string
	Bio         string
	CreatedById ExternalId // identity provider id of the creator
}

type CommunityUpdateData struct {
	ExternalId ExternalId
	Name       string
	Username   string
	Image      string
}

type CommunitySearch struct {
	SearchString string
	PageNumber   int
	PageSize     int
	SortAsc      bool
}

type CommunityPage struct {
	Communities []Community
	IsNext      bool
}
