package repositories

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/anonto42/lumina/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	CreateComment(ctx context.Context, comment *models.Comment) error
	GetCommentByID(ctx context.Context, id string) (*models.Comment, error)
	GetCommentsByBlogID(ctx context.Context, blogID string) ([]models.Comment, error)
	HasReplies(ctx context.Context, id string) (bool, error)
	SoftDeleteComment(ctx context.Context, id string) error
	DeleteComment(ctx context.Context, id string) error
	DeleteCommentsByBlogID(ctx context.Context, blogID string) (int64, error)
	SetPinned(ctx context.Context, comment *models.Comment, pinned bool) error
	SetReaction(ctx context.Context, id string, userID uint, reaction models.Reaction) (map[string]models.Reaction, error)
	RemoveReaction(ctx context.Context, id string, userID uint) (map[string]models.Reaction, error)
	GetLastCommentByAuthor(ctx context.Context, authorID uint) (*models.Comment, error)
	CountComments(ctx context.Context) (int64, error)
}

// MongoCommentRepository implements CommentRepository for MongoDB
type MongoCommentRepository struct {
	collection *mongo.Collection
}

// NewMongoCommentRepository creates a new MongoCommentRepository
func NewMongoCommentRepository(db *mongo.Database) *MongoCommentRepository {
	return &MongoCommentRepository{collection: db.Collection("comments")}
}

// EnsureIndexes creates the indexes used to load threads
func (r *MongoCommentRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "blog_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "parent_id", Value: 1}}},
		{Keys: bson.D{{Key: "author_id", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	return err
}

func notFoundComment(id string, err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("comment %s: %w", id, ErrNotFound)
	}
	return err
}

// CreateComment creates a new comment in MongoDB
func (r *MongoCommentRepository) CreateComment(ctx context.Context, comment *models.Comment) error {
	comment.ID = primitive.NewObjectID()
	comment.CreatedAt = time.Now()
	comment.UpdatedAt = comment.CreatedAt
	if comment.Reactions == nil {
		comment.Reactions = map[string]models.Reaction{}
	}
	_, err := r.collection.InsertOne(ctx, comment)
	return err
}

// GetCommentByID retrieves a comment by ID from MongoDB
func (r *MongoCommentRepository) GetCommentByID(ctx context.Context, id string) (*models.Comment, error) {
	objID, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}

	var comment models.Comment
	if err := r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&comment); err != nil {
		return nil, notFoundComment(id, err)
	}
	return &comment, nil
}

// GetCommentsByBlogID retrieves every comment of a blog as a flat list, newest first
func (r *MongoCommentRepository) GetCommentsByBlogID(ctx context.Context, blogID string) ([]models.Comment, error) {
	objID, err := parseObjectID(blogID)
	if err != nil {
		return nil, err
	}

	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"blog_id": objID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	comments := []models.Comment{}
	if err = cursor.All(ctx, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// HasReplies reports whether any comment points at the given one as its parent
func (r *MongoCommentRepository) HasReplies(ctx context.Context, id string) (bool, error) {
	objID, err := parseObjectID(id)
	if err != nil {
		return false, err
	}
	n, err := r.collection.CountDocuments(ctx, bson.M{"parent_id": objID}, options.Count().SetLimit(1))
	return n > 0, err
}

// SoftDeleteComment replaces the content with a tombstone so replies keep their parent
func (r *MongoCommentRepository) SoftDeleteComment(ctx context.Context, id string) error {
	objID, err := parseObjectID(id)
	if err != nil {
		return err
	}
	update := bson.M{"$set": bson.M{
		"content":    models.DeletedCommentContent,
		"is_deleted": true,
		"is_pinned":  false,
		"reactions":  bson.M{},
		"updated_at": time.Now(),
	}}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("comment %s: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteComment deletes a comment by ID from MongoDB
func (r *MongoCommentRepository) DeleteComment(ctx context.Context, id string) error {
	objID, err := parseObjectID(id)
	if err != nil {
		return err
	}
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("comment %s: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteCommentsByBlogID removes every comment of a blog
func (r *MongoCommentRepository) DeleteCommentsByBlogID(ctx context.Context, blogID string) (int64, error) {
	objID, err := parseObjectID(blogID)
	if err != nil {
		return 0, err
	}
	res, err := r.collection.DeleteMany(ctx, bson.M{"blog_id": objID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// SetPinned pins or unpins a comment. At most one comment per blog is pinned, so
// pinning first clears the flag on the others.
func (r *MongoCommentRepository) SetPinned(ctx context.Context, comment *models.Comment, pinned bool) error {
	if pinned {
		_, err := r.collection.UpdateMany(ctx,
			bson.M{"blog_id": comment.BlogID, "is_pinned": true, "_id": bson.M{"$ne": comment.ID}},
			bson.M{"$set": bson.M{"is_pinned": false}},
		)
		if err != nil {
			return err
		}
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": comment.ID}, bson.M{"$set": bson.M{"is_pinned": pinned}})
	if err != nil {
		return err
	}
	comment.IsPinned = pinned
	return nil
}

func reactionKey(userID uint) string {
	return "reactions." + strconv.FormatUint(uint64(userID), 10)
}

func (r *MongoCommentRepository) updateReactions(ctx context.Context, id string, update bson.M) (map[string]models.Reaction, error) {
	objID, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}

	var comment models.Comment
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": objID}, update, opts).Decode(&comment); err != nil {
		return nil, notFoundComment(id, err)
	}
	if comment.Reactions == nil {
		comment.Reactions = map[string]models.Reaction{}
	}
	return comment.Reactions, nil
}

// SetReaction records the user's reaction and returns the updated reaction map
func (r *MongoCommentRepository) SetReaction(ctx context.Context, id string, userID uint, reaction models.Reaction) (map[string]models.Reaction, error) {
	return r.updateReactions(ctx, id, bson.M{"$set": bson.M{reactionKey(userID): reaction}})
}

// RemoveReaction clears the user's reaction and returns the updated reaction map
func (r *MongoCommentRepository) RemoveReaction(ctx context.Context, id string, userID uint) (map[string]models.Reaction, error) {
	return r.updateReactions(ctx, id, bson.M{"$unset": bson.M{reactionKey(userID): ""}})
}

// GetLastCommentByAuthor returns the newest comment written by a user
func (r *MongoCommentRepository) GetLastCommentByAuthor(ctx context.Context, authorID uint) (*models.Comment, error) {
	var comment models.Comment
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})
	err := r.collection.FindOne(ctx, bson.M{"author_id": authorID}, opts).Decode(&comment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &comment, nil
}

// CountComments counts every comment
func (r *MongoCommentRepository) CountComments(ctx context.Context) (int64, error) {
	return r.collection.EstimatedDocumentCount(ctx)
}

// RawReactions is the stored reactions field of one comment, as read by the migration
type RawReactions struct {
	ID        primitive.ObjectID `bson:"_id"`
	Reactions bson.RawValue      `bson:"reactions"`
}

// IterateRawReactions streams the reactions field of every comment without decoding it
func (r *MongoCommentRepository) IterateRawReactions(ctx context.Context, fn func(RawReactions) error) error {
	findOptions := options.Find().SetProjection(bson.M{"_id": 1, "reactions": 1})
	cursor, err := r.collection.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var row RawReactions
		if err := cursor.Decode(&row); err != nil {
			return err
		}
		if err := fn(row); err != nil {
			return err
		}
	}
	return cursor.Err()
}

// ReplaceReactions overwrites the reactions field of a comment
func (r *MongoCommentRepository) ReplaceReactions(ctx context.Context, id primitive.ObjectID, reactions map[string]models.Reaction) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"reactions": reactions}})
	return err
}
