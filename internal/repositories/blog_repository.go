package repositories

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/anonto42/lumina/backend/internal/models"
	"github.com/anonto42/lumina/backend/internal/similarity"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// BlogSort selects the ordering of a blog listing
type BlogSort string

const (
	BlogSortNewest     BlogSort = "newest"
	BlogSortTrending   BlogSort = "trending"    // most viewed first
	BlogSortHiddenGems BlogSort = "hidden_gems" // least viewed first, then newest
)

// BlogFilter narrows a blog listing
type BlogFilter struct {
	Search        string
	Category      string
	Tag           string
	FeaturedOnly  bool
	PublishedOnly bool
	AuthorID      uint
	Since         time.Time
	Sort          BlogSort
	Skip          int64
	Limit         int64
}

// TagCount is a tag with the number of published blogs using it
type TagCount struct {
	Tag   string `json:"tag" bson:"_id"`
	Count int    `json:"count" bson:"count"`
}

// BlogRepository defines the interface for blog data operations
type BlogRepository interface {
	CreateBlog(ctx context.Context, blog *models.Blog) error
	GetBlogByID(ctx context.Context, id string) (*models.Blog, error)
	GetBlogsByIDs(ctx context.Context, ids []string) ([]models.Blog, error)
	ListBlogs(ctx context.Context, filter BlogFilter) ([]models.Blog, error)
	CountBlogs(ctx context.Context, filter BlogFilter) (int64, error)
	UpdateBlog(ctx context.Context, id string, blog *models.Blog) error
	DeleteBlog(ctx context.Context, id string) error
	DeleteBlogsByAuthor(ctx context.Context, authorID uint) ([]string, error)
	IncrementViews(ctx context.Context, id string) (*models.Blog, error)
	IncrementLikesCount(ctx context.Context, blogID string) error
	DecrementLikesCount(ctx context.Context, blogID string) error
	IncrementCommentsCount(ctx context.Context, blogID string) error
	DecrementCommentsCount(ctx context.Context, blogID string) error
	SetFeatured(ctx context.Context, id string, featured bool) error
	SetEmbedding(ctx context.Context, id string, embedding []float64) error
	GetEmbeddings(ctx context.Context, ids []string) (map[string][]float64, error)
	ListCandidates(ctx context.Context, since time.Time, excludeID string) ([]similarity.Candidate, error)
	ListMissingEmbeddings(ctx context.Context, limit int64) ([]models.Blog, error)
	TrendingTags(ctx context.Context, limit int) ([]TagCount, error)
	Categories(ctx context.Context) ([]string, error)
}

// MongoBlogRepository implements BlogRepository for MongoDB
type MongoBlogRepository struct {
	collection *mongo.Collection
}

// NewMongoBlogRepository creates a new MongoBlogRepository
func NewMongoBlogRepository(db *mongo.Database) *MongoBlogRepository {
	return &MongoBlogRepository{collection: db.Collection("blogs")}
}

// EnsureIndexes creates the indexes used by listings and candidate generation
func (r *MongoBlogRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "author_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "views", Value: -1}}},
		{Keys: bson.D{{Key: "tags", Value: 1}}},
	})
	return err
}

func parseObjectID(id string) (primitive.ObjectID, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return objID, nil
}

func parseObjectIDs(ids []string) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if objID, err := primitive.ObjectIDFromHex(id); err == nil {
			out = append(out, objID)
		}
	}
	return out
}

var publicStatus = bson.M{"$nin": bson.A{models.BlogStatusDraft, models.BlogStatusPrivate}}

var hasEmbedding = bson.M{"$exists": true, "$ne": bson.A{}}

func (f BlogFilter) query() bson.M {
	q := bson.M{}
	if f.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		q["$or"] = bson.A{bson.M{"title": pattern}, bson.M{"body": pattern}}
	}
	if f.Category != "" {
		q["category"] = primitive.Regex{Pattern: "^" + regexp.QuoteMeta(f.Category) + "$", Options: "i"}
	}
	if f.Tag != "" {
		q["tags"] = primitive.Regex{Pattern: "^" + regexp.QuoteMeta(f.Tag) + "$", Options: "i"}
	}
	if f.FeaturedOnly {
		q["featured"] = true
	}
	if f.PublishedOnly {
		q["status"] = publicStatus
	}
	if f.AuthorID != 0 {
		q["author_id"] = f.AuthorID
	}
	if !f.Since.IsZero() {
		q["created_at"] = bson.M{"$gte": f.Since}
	}
	return q
}

func (f BlogFilter) sort() bson.D {
	switch f.Sort {
	case BlogSortTrending:
		return bson.D{{Key: "views", Value: -1}, {Key: "created_at", Value: -1}}
	case BlogSortHiddenGems:
		return bson.D{{Key: "views", Value: 1}, {Key: "created_at", Value: -1}}
	default:
		return bson.D{{Key: "created_at", Value: -1}}
	}
}

// CreateBlog creates a new blog in MongoDB
func (r *MongoBlogRepository) CreateBlog(ctx context.Context, blog *models.Blog) error {
	blog.ID = primitive.NewObjectID()
	blog.CreatedAt = time.Now()
	blog.UpdatedAt = blog.CreatedAt
	if blog.Status == "" {
		blog.Status = models.BlogStatusPublished
	}
	_, err := r.collection.InsertOne(ctx, blog)
	return err
}

// GetBlogByID retrieves a blog by ID from MongoDB
func (r *MongoBlogRepository) GetBlogByID(ctx context.Context, id string) (*models.Blog, error) {
	objID, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}

	var blog models.Blog
	err = r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&blog)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("blog %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &blog, nil
}

// GetBlogsByIDs loads full blogs for the given IDs. Order is not preserved.
func (r *MongoBlogRepository) GetBlogsByIDs(ctx context.Context, ids []string) ([]models.Blog, error) {
	objIDs := parseObjectIDs(ids)
	if len(objIDs) == 0 {
		return []models.Blog{}, nil
	}

	var blogs []models.Blog
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": objIDs}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &blogs); err != nil {
		return nil, err
	}
	return blogs, nil
}

// ListBlogs retrieves blogs matching the filter with pagination
func (r *MongoBlogRepository) ListBlogs(ctx context.Context, filter BlogFilter) ([]models.Blog, error) {
	findOptions := options.Find().SetSort(filter.sort()).SetProjection(bson.M{"embedding": 0})
	if filter.Skip > 0 {
		findOptions.SetSkip(filter.Skip)
	}
	if filter.Limit > 0 {
		findOptions.SetLimit(filter.Limit)
	}

	var blogs []models.Blog
	cursor, err := r.collection.Find(ctx, filter.query(), findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &blogs); err != nil {
		return nil, err
	}
	if blogs == nil {
		blogs = []models.Blog{}
	}
	return blogs, nil
}

// CountBlogs counts blogs matching the filter, ignoring pagination
func (r *MongoBlogRepository) CountBlogs(ctx context.Context, filter BlogFilter) (int64, error) {
	return r.collection.CountDocuments(ctx, filter.query())
}

// UpdateBlog updates the editable fields of a blog
func (r *MongoBlogRepository) UpdateBlog(ctx context.Context, id string, blog *models.Blog) error {
	objID, err := parseObjectID(id)
	if err != nil {
		return err
	}

	blog.UpdatedAt = time.Now()
	update := bson.M{
		"$set": bson.M{
			"title":           blog.Title,
			"body":            blog.Body,
			"cover_image_url": blog.CoverImageURL,
			"category":        blog.Category,
			"tags":            blog.Tags,
			"status":          blog.Status,
			"updated_at":      blog.UpdatedAt,
		},
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("blog %s: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteBlog deletes a blog by ID from MongoDB
func (r *MongoBlogRepository) DeleteBlog(ctx context.Context, id string) error {
	objID, err := parseObjectID(id)
	if err != nil {
		return err
	}

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("blog %s: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteBlogsByAuthor removes every blog of a user and returns the deleted IDs
func (r *MongoBlogRepository) DeleteBlogsByAuthor(ctx context.Context, authorID uint) ([]string, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"author_id": authorID}, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	if _, err = r.collection.DeleteMany(ctx, bson.M{"author_id": authorID}); err != nil {
		return nil, err
	}

	ids := make([]string, len(rows))
	for i, row := range rows {
		ids[i] = row.ID.Hex()
	}
	return ids, nil
}

// IncrementViews atomically bumps the view counter and returns the updated blog
func (r *MongoBlogRepository) IncrementViews(ctx context.Context, id string) (*models.Blog, error) {
	objID, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}

	var blog models.Blog
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err = r.collection.FindOneAndUpdate(ctx, bson.M{"_id": objID}, bson.M{"$inc": bson.M{"views": 1}}, opts).Decode(&blog)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("blog %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &blog, nil
}

func (r *MongoBlogRepository) incrementField(ctx context.Context, blogID, field string, delta int) error {
	objID, err := parseObjectID(blogID)
	if err != nil {
		return err
	}
	filter := bson.M{"_id": objID}
	if delta < 0 {
		// counters never go negative
		filter[field] = bson.M{"$gt": 0}
	}
	_, err = r.collection.UpdateOne(ctx, filter, bson.M{"$inc": bson.M{field: delta}})
	return err
}

// IncrementLikesCount increments the likes count of a blog
func (r *MongoBlogRepository) IncrementLikesCount(ctx context.Context, blogID string) error {
	return r.incrementField(ctx, blogID, "likes_count", 1)
}

// DecrementLikesCount decrements the likes count of a blog
func (r *MongoBlogRepository) DecrementLikesCount(ctx context.Context, blogID string) error {
	return r.incrementField(ctx, blogID, "likes_count", -1)
}

// IncrementCommentsCount increments the comments count of a blog
func (r *MongoBlogRepository) IncrementCommentsCount(ctx context.Context, blogID string) error {
	return r.incrementField(ctx, blogID, "comments_count", 1)
}

// DecrementCommentsCount decrements the comments count of a blog
func (r *MongoBlogRepository) DecrementCommentsCount(ctx context.Context, blogID string) error {
	return r.incrementField(ctx, blogID, "comments_count", -1)
}

// SetFeatured marks or unmarks a blog as featured
func (r *MongoBlogRepository) SetFeatured(ctx context.Context, id string, featured bool) error {
	objID, err := parseObjectID(id)
	if err != nil {
		return err
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$set": bson.M{"featured": featured}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("blog %s: %w", id, ErrNotFound)
	}
	return nil
}

// SetEmbedding stores the computed embedding of a blog
func (r *MongoBlogRepository) SetEmbedding(ctx context.Context, id string, embedding []float64) error {
	objID, err := parseObjectID(id)
	if err != nil {
		return err
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$set": bson.M{"embedding": embedding}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("blog %s: %w", id, ErrNotFound)
	}
	return nil
}

type embeddingRow struct {
	ID        primitive.ObjectID `bson:"_id"`
	Embedding []float64          `bson:"embedding"`
}

// GetEmbeddings returns the non-empty embeddings of the given blogs keyed by ID
func (r *MongoBlogRepository) GetEmbeddings(ctx context.Context, ids []string) (map[string][]float64, error) {
	result := make(map[string][]float64)
	objIDs := parseObjectIDs(ids)
	if len(objIDs) == 0 {
		return result, nil
	}

	findOptions := options.Find().SetProjection(bson.M{"_id": 1, "embedding": 1})
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": objIDs}, "embedding": hasEmbedding}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []embeddingRow
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	for _, row := range rows {
		if len(row.Embedding) > 0 {
			result[row.ID.Hex()] = row.Embedding
		}
	}
	return result, nil
}

// ListCandidates fetches only ID and embedding of published blogs created since the given time.
// A zero since means no time bound.
func (r *MongoBlogRepository) ListCandidates(ctx context.Context, since time.Time, excludeID string) ([]similarity.Candidate, error) {
	query := bson.M{"embedding": hasEmbedding, "status": publicStatus}
	if !since.IsZero() {
		query["created_at"] = bson.M{"$gte": since}
	}
	if excludeID != "" {
		if objID, err := primitive.ObjectIDFromHex(excludeID); err == nil {
			query["_id"] = bson.M{"$ne": objID}
		}
	}

	findOptions := options.Find().SetProjection(bson.M{"_id": 1, "embedding": 1})
	cursor, err := r.collection.Find(ctx, query, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	candidates := make([]similarity.Candidate, 0)
	for cursor.Next(ctx) {
		var row embeddingRow
		if err := cursor.Decode(&row); err != nil {
			return nil, err
		}
		candidates = append(candidates, similarity.Candidate{ID: row.ID.Hex(), Vector: row.Embedding})
	}
	return candidates, cursor.Err()
}

// ListMissingEmbeddings returns blogs that have not been embedded yet, oldest first
func (r *MongoBlogRepository) ListMissingEmbeddings(ctx context.Context, limit int64) ([]models.Blog, error) {
	query := bson.M{"$or": bson.A{
		bson.M{"embedding": bson.M{"$exists": false}},
		bson.M{"embedding": bson.A{}},
	}}
	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	if limit > 0 {
		findOptions.SetLimit(limit)
	}

	var blogs []models.Blog
	cursor, err := r.collection.Find(ctx, query, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &blogs); err != nil {
		return nil, err
	}
	return blogs, nil
}

// TrendingTags returns the most used tags across published blogs
func (r *MongoBlogRepository) TrendingTags(ctx context.Context, limit int) ([]TagCount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"status": publicStatus}}},
		{{Key: "$unwind", Value: "$tags"}},
		{{Key: "$group", Value: bson.M{"_id": "$tags", "count": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
		{{Key: "$limit", Value: limit}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	tags := []TagCount{}
	if err = cursor.All(ctx, &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

// Categories returns the distinct categories of published blogs
func (r *MongoBlogRepository) Categories(ctx context.Context) ([]string, error) {
	values, err := r.collection.Distinct(ctx, "category", bson.M{"status": publicStatus})
	if err != nil {
		return nil, err
	}
	categories := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok && s != "" {
			categories = append(categories, s)
		}
	}
	return categories, nil
}
