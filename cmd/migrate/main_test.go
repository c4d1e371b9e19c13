package main

import (
	"context"
	"errors"
	"testing"

	"github.com/anonto42/lumina/backend/internal/models"
	"github.com/anonto42/lumina/backend/internal/repositories"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func rawReactions(t *testing.T, v any) bson.RawValue {
	t.Helper()
	b, err := bson.Marshal(bson.M{"reactions": v})
	require.NoError(t, err)
	return bson.Raw(b).Lookup("reactions")
}

type fakeReactionStore struct {
	rows     []repositories.RawReactions
	replaced map[primitive.ObjectID]map[string]models.Reaction
	failOn   primitive.ObjectID
}

func (s *fakeReactionStore) IterateRawReactions(_ context.Context, fn func(repositories.RawReactions) error) error {
	for _, row := range s.rows {
		if err := fn(row); err != nil {
			return err
		}
	}
	return nil
}

func (s *fakeReactionStore) ReplaceReactions(_ context.Context, id primitive.ObjectID, reactions map[string]models.Reaction) error {
	if id == s.failOn {
		return errors.New("write failed")
	}
	s.replaced[id] = reactions
	return nil
}

func TestMigrateReactions(t *testing.T) {
	clean, alias, legacyArray, null := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
	store := &fakeReactionStore{
		rows: []repositories.RawReactions{
			{ID: clean, Reactions: rawReactions(t, bson.M{"1": "👍"})},
			{ID: alias, Reactions: rawReactions(t, bson.M{"2": "like", "3": "🔥"})},
			{ID: legacyArray, Reactions: rawReactions(t, bson.A{bson.M{"userId": "4", "emoji": "love"}})},
			{ID: null, Reactions: rawReactions(t, nil)},
		},
		replaced: map[primitive.ObjectID]map[string]models.Reaction{},
	}

	res, err := migrateReactions(context.Background(), store, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, 4, res.Scanned)
	assert.Equal(t, 3, res.Rewritten)

	assert.NotContains(t, store.replaced, clean)
	assert.Equal(t, map[string]models.Reaction{"2": models.ReactionThumbsUp, "3": models.ReactionFire}, store.replaced[alias])
	assert.Equal(t, map[string]models.Reaction{"4": models.ReactionHeart}, store.replaced[legacyArray])
	assert.Empty(t, store.replaced[null])
}

func TestMigrateReactions_StopsOnWriteError(t *testing.T) {
	bad := primitive.NewObjectID()
	store := &fakeReactionStore{
		rows: []repositories.RawReactions{
			{ID: bad, Reactions: rawReactions(t, bson.M{"1": "wow"})},
			{ID: primitive.NewObjectID(), Reactions: rawReactions(t, bson.M{"2": "sad"})},
		},
		replaced: map[primitive.ObjectID]map[string]models.Reaction{},
		failOn:   bad,
	}

	res, err := migrateReactions(context.Background(), store, zerolog.Nop())
	assert.Error(t, err)
	assert.Equal(t, 1, res.Scanned)
	assert.Empty(t, store.replaced)
}

type fakeRoleStore struct {
	users map[string]*models.User
	set   map[uint]models.Role
}

func (s *fakeRoleStore) GetUserByEmail(email string) (*models.User, error) {
	if u, ok := s.users[email]; ok {
		return u, nil
	}
	return nil, repositories.ErrNotFound
}

func (s *fakeRoleStore) SetRole(id uint, role models.Role) error {
	s.set[id] = role
	return nil
}

func TestPromote(t *testing.T) {
	store := &fakeRoleStore{
		users: map[string]*models.User{
			"jane@example.com":  {ID: 1, Role: models.RoleUser},
			"admin@example.com": {ID: 2, Role: models.RoleAdmin},
		},
		set: map[uint]models.Role{},
	}

	require.NoError(t, promote(store, "jane@example.com"))
	assert.Equal(t, models.RoleAdmin, store.set[1])

	require.NoError(t, promote(store, "admin@example.com"))
	assert.NotContains(t, store.set, uint(2))

	assert.EqualError(t, promote(store, "nobody@example.com"), "no user with that email")
}
