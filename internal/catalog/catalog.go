// Package catalog holds the in-memory index of every sound effect. The
// index is built from the repository once at startup and rebuilt wholesale
// after each create or edit; readers always see either the old or the new
// index, never a partially updated one.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/foxseedlab/sfxboard/internal/repository"
)

const (
	MinNameLength = 1
	MaxNameLength = 12
)

type index struct {
	all    []repository.SoundEffect
	byName map[string]*repository.SoundEffect
	byID   map[int]*repository.SoundEffect
}

type Catalog struct {
	repo repository.SoundEffectRepository

	// writeMu serializes create/edit; reads go through idx alone.
	writeMu sync.Mutex
	idx     atomic.Pointer[index]
}

func New(repo repository.SoundEffectRepository) *Catalog {
	c := &Catalog{repo: repo}
	c.idx.Store(buildIndex(nil))
	return c
}

// Load reads the full sound effect set from the repository and swaps in a
// fresh index.
func (c *Catalog) Load(ctx context.Context) error {
	effects, err := c.repo.ListSoundEffects(ctx)
	if err != nil {
		return fmt.Errorf("failed to load sound effects: %w", err)
	}
	c.writeMu.Lock()
	c.idx.Store(buildIndex(effects))
	c.writeMu.Unlock()
	slog.Info("catalog loaded", "sound_effects", len(effects))
	return nil
}

func buildIndex(effects []repository.SoundEffect) *index {
	idx := &index{
		all:    effects,
		byName: make(map[string]*repository.SoundEffect, len(effects)),
		byID:   make(map[int]*repository.SoundEffect, len(effects)),
	}
	for i := range idx.all {
		sfx := &idx.all[i]
		idx.byName[sfx.Name] = sfx
		idx.byID[sfx.ID] = sfx
	}
	return idx
}

// All returns every sound effect in id order.
func (c *Catalog) All() []repository.SoundEffect {
	idx := c.idx.Load()
	out := make([]repository.SoundEffect, len(idx.all))
	copy(out, idx.all)
	return out
}

// FindPartial returns all effects whose name contains query
// case-insensitively, best matches first.
func (c *Catalog) FindPartial(query string) []repository.SoundEffect {
	idx := c.idx.Load()
	type scored struct {
		sfx   repository.SoundEffect
		score float64
	}
	var matches []scored
	for _, sfx := range idx.all {
		score := scoreNameMatch(query, sfx.Name)
		if score < 0 {
			continue
		}
		matches = append(matches, scored{sfx: sfx, score: score})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score < matches[j].score
	})
	out := make([]repository.SoundEffect, len(matches))
	for i, m := range matches {
		out[i] = m.sfx
	}
	return out
}

// ByName returns the exact-name match. On a miss it strips a leading icon
// token and retries once before giving up.
func (c *Catalog) ByName(name string) (*repository.SoundEffect, error) {
	idx := c.idx.Load()
	if sfx, ok := idx.byName[name]; ok {
		return sfx, nil
	}
	if sfx, ok := idx.byName[stripLeadingIcon(name)]; ok {
		return sfx, nil
	}
	return nil, ErrNotFound
}

func (c *Catalog) ByID(id int) (*repository.SoundEffect, error) {
	if sfx, ok := c.idx.Load().byID[id]; ok {
		return sfx, nil
	}
	return nil, ErrNotFound
}

// Draft is the caller-supplied portion of a new or edited sound effect.
type Draft struct {
	Name        string
	Icon        string
	SourceURL   string
	FilePath    string
	StartMillis int
	EndMillis   *int
	Tags        string
	AuthorID    string
	GuildID     string
}

// Create validates the draft against the whole catalog, persists it and
// swaps in the rebuilt index. Every violated constraint is reported.
func (c *Catalog) Create(ctx context.Context, draft Draft) (*repository.SoundEffect, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if violations := c.validateDraft(draft, -1); len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}
	created, err := c.repo.InsertSoundEffect(ctx, repository.InsertSoundEffectInput{
		Name:        draft.Name,
		Icon:        draft.Icon,
		SourceURL:   draft.SourceURL,
		FilePath:    draft.FilePath,
		StartMillis: draft.StartMillis,
		EndMillis:   draft.EndMillis,
		Tags:        draft.Tags,
		AuthorID:    draft.AuthorID,
		GuildID:     draft.GuildID,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to persist sound effect: %w", err)
	}
	c.reindexLocked(ctx)
	slog.Info("sound effect created", "id", created.ID, "name", created.Name, "author_id", created.AuthorID)
	return created, nil
}

// Edit re-validates every field against the same constraints as Create,
// tolerating the effect keeping its own name and icon.
func (c *Catalog) Edit(ctx context.Context, id int, draft Draft) (*repository.SoundEffect, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if _, ok := c.idx.Load().byID[id]; !ok {
		return nil, ErrNotFound
	}
	if violations := c.validateDraft(draft, id); len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}
	updated, err := c.repo.UpdateSoundEffect(ctx, repository.UpdateSoundEffectInput{
		ID:          id,
		Name:        draft.Name,
		Icon:        draft.Icon,
		StartMillis: draft.StartMillis,
		EndMillis:   draft.EndMillis,
		Tags:        draft.Tags,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update sound effect: %w", err)
	}
	c.reindexLocked(ctx)
	slog.Info("sound effect edited", "id", updated.ID, "name", updated.Name)
	return updated, nil
}

// validateDraft collects all violations at once. selfID exempts the effect
// being edited from its own uniqueness checks; pass -1 for creates.
func (c *Catalog) validateDraft(draft Draft, selfID int) []string {
	var violations []string
	nameLen := utf8.RuneCountInString(draft.Name)
	if nameLen < MinNameLength || nameLen > MaxNameLength {
		violations = append(violations,
			fmt.Sprintf("name must be %d-%d characters, got %d", MinNameLength, MaxNameLength, nameLen))
	}
	if draft.Icon == "" {
		violations = append(violations, "icon must not be empty")
	}
	if draft.StartMillis < 0 {
		violations = append(violations, fmt.Sprintf("start offset must not be negative, got %d", draft.StartMillis))
	}
	if draft.EndMillis != nil && *draft.EndMillis < draft.StartMillis {
		violations = append(violations,
			fmt.Sprintf("end offset %d is before start offset %d", *draft.EndMillis, draft.StartMillis))
	}
	idx := c.idx.Load()
	if existing, ok := idx.byName[draft.Name]; ok && existing.ID != selfID {
		violations = append(violations, fmt.Sprintf("name %q is already taken", draft.Name))
	}
	for i := range idx.all {
		if idx.all[i].Icon == draft.Icon && idx.all[i].ID != selfID {
			violations = append(violations, fmt.Sprintf("icon %q is already taken", draft.Icon))
			break
		}
	}
	return violations
}

// reindexLocked rebuilds the index from the repository and swaps it in.
// Caller must hold writeMu.
func (c *Catalog) reindexLocked(ctx context.Context) {
	effects, err := c.repo.ListSoundEffects(ctx)
	if err != nil {
		// The write itself committed; readers keep the previous index
		// until the next successful rebuild.
		slog.Error("failed to rebuild catalog index", "error", err)
		return
	}
	c.idx.Store(buildIndex(effects))
}
