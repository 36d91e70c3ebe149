package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/foxseedlab/sfxboard/internal/repository"
)

type mockSoundEffectRepo struct {
	effects    []repository.SoundEffect
	nextID     int
	insertErr  error
	listCalls  int
	updateErrs error
}

func (m *mockSoundEffectRepo) ListSoundEffects(_ context.Context) ([]repository.SoundEffect, error) {
	m.listCalls++
	out := make([]repository.SoundEffect, len(m.effects))
	copy(out, m.effects)
	return out, nil
}

func (m *mockSoundEffectRepo) InsertSoundEffect(_ context.Context, input repository.InsertSoundEffectInput) (*repository.SoundEffect, error) {
	if m.insertErr != nil {
		return nil, m.insertErr
	}
	m.nextID++
	sfx := repository.SoundEffect{
		ID:          m.nextID,
		Name:        input.Name,
		Icon:        input.Icon,
		SourceURL:   input.SourceURL,
		FilePath:    input.FilePath,
		StartMillis: input.StartMillis,
		EndMillis:   input.EndMillis,
		Tags:        input.Tags,
		AuthorID:    input.AuthorID,
		GuildID:     input.GuildID,
		CreatedAt:   input.CreatedAt,
	}
	m.effects = append(m.effects, sfx)
	return &sfx, nil
}

func (m *mockSoundEffectRepo) UpdateSoundEffect(_ context.Context, input repository.UpdateSoundEffectInput) (*repository.SoundEffect, error) {
	if m.updateErrs != nil {
		return nil, m.updateErrs
	}
	for i := range m.effects {
		if m.effects[i].ID == input.ID {
			m.effects[i].Name = input.Name
			m.effects[i].Icon = input.Icon
			m.effects[i].StartMillis = input.StartMillis
			m.effects[i].EndMillis = input.EndMillis
			m.effects[i].Tags = input.Tags
			return &m.effects[i], nil
		}
	}
	return nil, errors.New("no such row")
}

func newTestCatalog(t *testing.T, names ...string) (*Catalog, *mockSoundEffectRepo) {
	t.Helper()
	repo := &mockSoundEffectRepo{}
	for i, name := range names {
		repo.effects = append(repo.effects, repository.SoundEffect{
			ID:        i + 1,
			Name:      name,
			Icon:      string(rune('🍎' + i)),
			FilePath:  "data/sounds/" + name + ".opus",
			CreatedAt: time.Now(),
		})
		repo.nextID = i + 1
	}
	c := New(repo)
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	return c, repo
}

func TestFindPartial_RankingPrefersExactCase(t *testing.T) {
	c, _ := newTestCatalog(t, "Boo", "Zoo", "foo", "blast")

	matches := c.FindPartial("oo")
	if len(matches) != 3 {
		t.Fatalf("expected 3 matches, got %d", len(matches))
	}
	if matches[0].Name != "foo" {
		t.Fatalf("expected exact-case match foo first, got %s", matches[0].Name)
	}
	for _, m := range matches {
		if m.Name == "blast" {
			t.Fatal("blast has no substring match and must be excluded")
		}
	}
}

func TestFindPartial_StableOrderOnTies(t *testing.T) {
	c, _ := newTestCatalog(t, "Boo", "Zoo")
	matches := c.FindPartial("oo")
	if len(matches) != 2 || matches[0].Name != "Boo" || matches[1].Name != "Zoo" {
		t.Fatalf("expected stable catalog order Boo, Zoo; got %v", matches)
	}
}

func TestByName_ExactLookup(t *testing.T) {
	c, _ := newTestCatalog(t, "blast")
	sfx, err := c.ByName("blast")
	if err != nil {
		t.Fatalf("expected match, got %v", err)
	}
	if sfx.Name != "blast" {
		t.Fatalf("wrong effect: %s", sfx.Name)
	}
}

func TestByName_StripsLeadingIcon(t *testing.T) {
	c, _ := newTestCatalog(t, "blast")
	sfx, err := c.ByName("🔥 blast")
	if err != nil {
		t.Fatalf("expected icon-stripped match, got %v", err)
	}
	if sfx.Name != "blast" {
		t.Fatalf("wrong effect: %s", sfx.Name)
	}
}

func TestByName_NotFound(t *testing.T) {
	c, _ := newTestCatalog(t, "blast")
	if _, err := c.ByName("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestByID(t *testing.T) {
	c, _ := newTestCatalog(t, "blast")
	sfx, err := c.ByID(1)
	if err != nil {
		t.Fatalf("expected match, got %v", err)
	}
	if sfx.Name != "blast" {
		t.Fatalf("wrong effect: %s", sfx.Name)
	}
	if _, err := c.ByID(99); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreate_AggregatesAllViolations(t *testing.T) {
	c, _ := newTestCatalog(t, "blast")
	end := 100
	_, err := c.Create(context.Background(), Draft{
		Name:        "blast", // duplicate
		Icon:        "🍎",     // duplicate
		StartMillis: 500,
		EndMillis:   &end, // before start
	})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(vErr.Violations) != 3 {
		t.Fatalf("expected 3 violations, got %d: %v", len(vErr.Violations), vErr.Violations)
	}
}

func TestCreate_RejectsLongName(t *testing.T) {
	c, _ := newTestCatalog(t)
	_, err := c.Create(context.Background(), Draft{Name: "thisnameiswaytoolong", Icon: "🎺"})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestCreate_InsertsAndReindexes(t *testing.T) {
	c, _ := newTestCatalog(t, "blast")
	created, err := c.Create(context.Background(), Draft{
		Name:     "horn",
		Icon:     "🎺",
		FilePath: "data/sounds/horn.opus",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	got, err := c.ByID(created.ID)
	if err != nil {
		t.Fatalf("created effect not indexed: %v", err)
	}
	if got.Name != "horn" {
		t.Fatalf("wrong effect indexed: %s", got.Name)
	}
}

func TestEdit_AllowsKeepingOwnNameAndIcon(t *testing.T) {
	c, _ := newTestCatalog(t, "blast")
	end := 2000
	updated, err := c.Edit(context.Background(), 1, Draft{
		Name:        "blast",
		Icon:        "🍎",
		StartMillis: 100,
		EndMillis:   &end,
	})
	if err != nil {
		t.Fatalf("edit failed: %v", err)
	}
	if updated.StartMillis != 100 {
		t.Fatalf("start offset not updated: %d", updated.StartMillis)
	}
}

func TestEdit_UnknownID(t *testing.T) {
	c, _ := newTestCatalog(t, "blast")
	if _, err := c.Edit(context.Background(), 42, Draft{Name: "x", Icon: "y"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestEdit_RejectsStolenName(t *testing.T) {
	c, _ := newTestCatalog(t, "blast", "horn")
	_, err := c.Edit(context.Background(), 2, Draft{Name: "blast", Icon: "🎺"})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}
