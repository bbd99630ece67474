package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a profile record keyed by the identity provider's user id.
type User struct {
	Id          primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	ExternalId  string               `bson:"id" json:"id"`
	Username    string               `bson:"username" json:"username"`
	Name        string               `bson:"name" json:"name"`
	Bio         string               `bson:"bio" json:"bio"`
	Image       string               `bson:"image" json:"image"`
	Onboarded   bool                 `bson:"onboarded" json:"onboarded"`
	Threads     []primitive.ObjectID `bson:"threads" json:"threads"`
	Communities []primitive.ObjectID `bson:"communities" json:"communities"`
	CreatedAt   time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// AuthorSummary is the populated form of a user reference.
type AuthorSummary struct {
	Id         primitive.ObjectID `bson:"_id" json:"_id"`
	ExternalId string             `bson:"id" json:"id"`
	Name       string             `bson:"name" json:"name"`
	Username   string             `bson:"username" json:"username"`
	Image      string             `bson:"image" json:"image"`
}

// to iterate thru layers: handler -> service -> storage
type UserUpdateData struct {
	UserId   ExternalId
	Username string
	Name     string
	Bio      string
	Image    string
}

type UserSearch struct {
	UserId       ExternalId // excluded from results
	SearchString string
	PageNumber   int
	PageSize     int
	SortAsc      bool
}

type UserPage struct {
	Users  []User
	IsNext bool
}

// UserThreads is a profile with its authored threads populated.
type UserThreads struct {
	User    User
	Threads []ThreadView
}
