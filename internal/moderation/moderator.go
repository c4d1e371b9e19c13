package moderation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/anonto42/lumina/backend/internal/ai"
	"github.com/anonto42/lumina/backend/internal/content"
	"github.com/anonto42/lumina/backend/internal/metrics"
	"github.com/anonto42/lumina/backend/internal/models"
	"github.com/rs/zerolog"
)

const (
	StageNone  = "none"
	StageLocal = "local"
	StageAI    = "ai"
)

// SafetyChecker is the AI stage
type SafetyChecker interface {
	CheckSafety(ctx context.Context, text string) (ai.Verdict, error)
}

// LogStore persists moderation decisions
type LogStore interface {
	CreateLog(log *models.ModerationLog) error
}

// Meta describes who submitted the content
type Meta struct {
	UserID uint
	IP     string
}

// Decision is the outcome of a moderation check
type Decision struct {
	Allowed     bool
	Reason      string
	Stage       string
	FlaggedWord string
}

// Moderator runs the local filter and then the AI check.
// The AI stage fails open: errors from the model allow the content.
type Moderator struct {
	filter  *WordFilter
	checker SafetyChecker
	logs    LogStore
	log     zerolog.Logger
	pending sync.WaitGroup
}

// NewModerator creates a Moderator. checker may be nil to run the local filter only.
func NewModerator(filter *WordFilter, checker SafetyChecker, logs LogStore, log zerolog.Logger) *Moderator {
	return &Moderator{filter: filter, checker: checker, logs: logs, log: log}
}

// Check moderates text and records blocked submissions in the background
func (m *Moderator) Check(ctx context.Context, text string, meta Meta) Decision {
	if strings.TrimSpace(text) == "" {
		return Decision{Allowed: true, Stage: StageNone}
	}

	plain := content.StripHTML(text)
	if word, found := m.filter.FirstMatch(plain); found {
		d := Decision{
			Reason:      fmt.Sprintf("Contains profane word: %q (Local Filter)", word),
			Stage:       StageLocal,
			FlaggedWord: word,
		}
		m.record(d, plain, meta)
		return d
	}

	if m.checker == nil {
		metrics.RecordModeration(string(models.ModerationAllowed), StageLocal)
		return Decision{Allowed: true, Stage: StageLocal}
	}

	verdict, err := m.checker.CheckSafety(ctx, plain)
	if err != nil {
		if !errors.Is(err, ai.ErrNotConfigured) {
			m.log.Warn().Err(err).Uint("user_id", meta.UserID).Msg("AI moderation failed, allowing content")
		}
		metrics.RecordModeration(string(models.ModerationAllowed), StageLocal)
		return Decision{Allowed: true, Stage: StageLocal}
	}
	if !verdict.Safe {
		d := Decision{Reason: verdict.Reason, Stage: StageAI}
		m.record(d, plain, meta)
		return d
	}

	metrics.RecordModeration(string(models.ModerationAllowed), StageAI)
	return Decision{Allowed: true, Stage: StageAI}
}

func (m *Moderator) record(d Decision, text string, meta Meta) {
	metrics.RecordModeration(string(models.ModerationBlocked), d.Stage)
	m.log.Info().
		Uint("user_id", meta.UserID).
		Str("stage", d.Stage).
		Str("reason", d.Reason).
		Msg("content blocked")

	if m.logs == nil {
		return
	}
	entry := &models.ModerationLog{
		UserID:       meta.UserID,
		Content:      content.Truncate(text, 2000),
		Reason:       d.Reason,
		FlaggedWords: d.FlaggedWord,
		Stage:        d.Stage,
		Action:       models.ModerationBlocked,
		IP:           meta.IP,
	}

	m.pending.Add(1)
	go func() {
		defer m.pending.Done()
		if err := m.logs.CreateLog(entry); err != nil {
			m.log.Error().Err(err).Msg("failed to write moderation log")
		}
	}()
}

// Wait blocks until pending log writes finish
func (m *Moderator) Wait() {
	m.pending.Wait()
}
