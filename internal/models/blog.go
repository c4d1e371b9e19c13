package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BlogStatus controls who can see a blog
type BlogStatus string

const (
	BlogStatusDraft     BlogStatus = "draft"
	BlogStatusPublished BlogStatus = "published"
	BlogStatusPrivate   BlogStatus = "private"
)

// Blog represents a blog post stored in MongoDB
type Blog struct {
	ID            primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	AuthorID      uint               `json:"author_id" bson:"author_id"` // PostgreSQL user ID of the author
	Title         string             `json:"title" bson:"title"`
	Body          string             `json:"body" bson:"body"`
	CoverImageURL string             `json:"cover_image_url,omitempty" bson:"cover_image_url,omitempty"`
	Category      string             `json:"category" bson:"category"`
	Tags          []string           `json:"tags" bson:"tags"`
	Status        BlogStatus         `json:"status" bson:"status"`
	Featured      bool               `json:"featured" bson:"featured"`
	Views         int64              `json:"views" bson:"views"`
	LikesCount    int                `json:"likes_count" bson:"likes_count"`
	CommentsCount int                `json:"comments_count" bson:"comments_count"`
	Embedding     []float64          `json:"-" bson:"embedding,omitempty"` // filled in the background, may lag creation
	CreatedAt     time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at" bson:"updated_at"`
}

// IsPublic reports whether anyone may read the blog
func (b *Blog) IsPublic() bool {
	return b.Status == "" || b.Status == BlogStatusPublished
}

// HasEmbedding reports whether the background embedding has been computed
func (b *Blog) HasEmbedding() bool {
	return len(b.Embedding) > 0
}

// CreateBlogRequest defines the request body for creating a new blog
type CreateBlogRequest struct {
	Title         string     `json:"title" validate:"required,min=3,max=200"`
	Body          string     `json:"body" validate:"required"`
	CoverImageURL string     `json:"cover_image_url,omitempty" validate:"omitempty,url"`
	Category      string     `json:"category" validate:"required,max=50"`
	Tags          []string   `json:"tags" validate:"required,min=1,max=10,dive,required,max=30"`
	Status        BlogStatus `json:"status,omitempty" validate:"omitempty,oneof=draft published private"`
}

// UpdateBlogRequest defines the request body for updating an existing blog
type UpdateBlogRequest struct {
	Title         string     `json:"title,omitempty" validate:"omitempty,min=3,max=200"`
	Body          string     `json:"body,omitempty"`
	CoverImageURL *string    `json:"cover_image_url,omitempty" validate:"omitempty,url"`
	Category      string     `json:"category,omitempty" validate:"omitempty,max=50"`
	Tags          []string   `json:"tags,omitempty" validate:"omitempty,max=10,dive,required,max=30"`
	Status        BlogStatus `json:"status,omitempty" validate:"omitempty,oneof=draft published private"`
}

// BlogCompact is the trimmed blog shape used in lists and recommendations
type BlogCompact struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	CoverImageURL string    `json:"cover_image_url,omitempty"`
	Category      string    `json:"category"`
	AuthorID      uint      `json:"author_id"`
	CreatedAt     time.Time `json:"created_at"`
}

// ToCompact converts a blog to its list representation
func (b *Blog) ToCompact() BlogCompact {
	return BlogCompact{
		ID:            b.ID.Hex(),
		Title:         b.Title,
		CoverImageURL: b.CoverImageURL,
		Category:      b.Category,
		AuthorID:      b.AuthorID,
		CreatedAt:     b.CreatedAt,
	}
}
