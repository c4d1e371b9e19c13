// Command migrate creates the relational schema and Mongo indexes, and runs one-off data fixes.
package main

import (
	"context"
	"errors"
	"flag"
	"strings"
	"time"

	"github.com/anonto42/lumina/backend/internal/models"
	"github.com/anonto42/lumina/backend/internal/repositories"
	"github.com/anonto42/lumina/backend/pkg/config"
	"github.com/anonto42/lumina/backend/pkg/logger"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func main() {
	reactions := flag.Bool("reactions", false, "normalize legacy comment reactions")
	makeAdmin := flag.String("make-admin", "", "promote the user with this email to ADMIN")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log := logger.New("production")
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	log := logger.New(cfg.Env).With().Str("command", "migrate").Logger()

	db, err := config.InitDB(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize databases")
	}
	defer db.CloseDB()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	err = db.Postgres.AutoMigrate(
		&models.User{},
		&models.Like{},
		&models.Follow{},
		&models.Bookmark{},
		&models.Notification{},
		&models.ReadingHistory{},
		&models.ModerationLog{},
		&models.Announcement{},
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to auto migrate models")
	}
	log.Info().Msg("PostgreSQL auto-migrations completed")

	blogs := repositories.NewMongoBlogRepository(db.MongoDB)
	comments := repositories.NewMongoCommentRepository(db.MongoDB)
	if err := blogs.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to create blog indexes")
	}
	if err := comments.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to create comment indexes")
	}
	log.Info().Msg("MongoDB indexes ensured")

	if *reactions {
		res, err := migrateReactions(ctx, comments, log)
		if err != nil {
			log.Fatal().Err(err).Msg("reaction migration failed")
		}
		log.Info().Int("scanned", res.Scanned).Int("rewritten", res.Rewritten).Msg("reaction migration finished")
	}

	if email := strings.TrimSpace(*makeAdmin); email != "" {
		if err := promote(repositories.NewPostgresUserRepository(db.Postgres), email); err != nil {
			log.Fatal().Err(err).Str("email", email).Msg("failed to promote user")
		}
		log.Info().Str("email", email).Msg("user promoted to ADMIN")
	}
}

type reactionStore interface {
	IterateRawReactions(ctx context.Context, fn func(repositories.RawReactions) error) error
	ReplaceReactions(ctx context.Context, id primitive.ObjectID, reactions map[string]models.Reaction) error
}

type reactionResult struct {
	Scanned   int
	Rewritten int
}

// migrateReactions rewrites every comment whose stored reactions are not in the current
// user-id to emoji map shape. Comments that are already clean are left untouched.
func migrateReactions(ctx context.Context, store reactionStore, log zerolog.Logger) (reactionResult, error) {
	var res reactionResult
	err := store.IterateRawReactions(ctx, func(raw repositories.RawReactions) error {
		res.Scanned++
		normalized, changed := models.NormalizeReactions(raw.Reactions)
		if !changed {
			return nil
		}
		if err := store.ReplaceReactions(ctx, raw.ID, normalized); err != nil {
			return err
		}
		res.Rewritten++
		log.Debug().Str("comment_id", raw.ID.Hex()).Int("reactions", len(normalized)).Msg("reactions normalized")
		return nil
	})
	return res, err
}

type roleStore interface {
	GetUserByEmail(email string) (*models.User, error)
	SetRole(id uint, role models.Role) error
}

func promote(users roleStore, email string) error {
	user, err := users.GetUserByEmail(email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return errors.New("no user with that email")
		}
		return err
	}
	if user.IsAdmin() {
		return nil
	}
	return users.SetRole(user.ID, models.RoleAdmin)
}
