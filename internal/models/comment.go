package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DeletedCommentContent replaces the content of a comment that was deleted while it still had replies
const DeletedCommentContent = "[This comment was deleted]"

// Comment represents a comment on a blog, stored in MongoDB
type Comment struct {
	ID        primitive.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	BlogID    primitive.ObjectID  `json:"blog_id" bson:"blog_id"`
	AuthorID  uint                `json:"author_id" bson:"author_id"`
	Content   string              `json:"content" bson:"content"`
	ParentID  *primitive.ObjectID `json:"parent_id,omitempty" bson:"parent_id,omitempty"` // nil for top-level comments
	Depth     int                 `json:"depth" bson:"depth"`
	IsPinned  bool                `json:"is_pinned" bson:"is_pinned"`
	IsDeleted bool                `json:"is_deleted" bson:"is_deleted"`
	Reactions map[string]Reaction `json:"-" bson:"reactions"` // user ID -> reaction
	CreatedAt time.Time           `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time           `json:"updated_at" bson:"updated_at"`
}

// CreateCommentRequest defines the request body for creating a comment or a reply
type CreateCommentRequest struct {
	Content string `json:"content" validate:"required,min=1,max=2000"`
}

// ReactRequest defines the request body for reacting to a comment
type ReactRequest struct {
	Emoji string `json:"emoji" validate:"required"`
}
