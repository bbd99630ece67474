package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Thread is a post; a comment is a Thread with a non-nil ParentId.
type Thread struct {
	Id        primitive.ObjectID   `bson:"_id,omitempty"`
	Text      string               `bson:"text"`
	Author    primitive.ObjectID   `bson:"author"`
	Community *primitive.ObjectID  `bson:"community"`
	ParentId  *primitive.ObjectID  `bson:"parentId"`
	Children  []primitive.ObjectID `bson:"children"`
	CreatedAt time.Time            `bson:"createdAt"`
}

func (t *Thread) IsComment() bool {
	return t.ParentId != nil
}

// ThreadView is a Thread with its references populated.
type ThreadView struct {
	Id        primitive.ObjectID
	Text      string
	ParentId  *primitive.ObjectID
	Author    AuthorSummary
	Community *CommunitySummary
	Children  []ThreadView
	CreatedAt time.Time
}

func (t *ThreadView) IsComment() bool {
	return t.ParentId != nil
}

// to iterate thru layers: handler -> service -> storage
type ThreadCreationData struct {
	Text        string
	Author      primitive.ObjectID
	CommunityId *ExternalId // identity provider organization id, nil for personal threads
}

type CommentCreationData struct {
	ThreadId primitive.ObjectID
	Text     string
	Author   primitive.ObjectID
}

type ThreadPage struct {
	Posts  []ThreadView
	IsNext bool
}
