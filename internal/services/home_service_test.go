package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/escola-solidaria/solidaria-api/internal/cache"
	"github.com/escola-solidaria/solidaria-api/internal/models"
)

// disabledCache returns a cache with no Redis behind it, which misses on
// every read.
func disabledCache() *cache.Cache {
	return cache.New("", "", newTestLogger())
}

func newHomeService(repo *MockHomeRepository) *HomeService {
	return NewHomeService(repo, disabledCache(), 5*time.Minute, newTestLogger())
}

func TestHomeService_GetPublic_FallsBackToDatabase(t *testing.T) {
	calls := 0
	repo := &MockHomeRepository{
		GetFunc: func(ctx context.Context) (*models.HomeContent, error) {
			calls++
			content := models.DefaultHomeContent()
			content.ID = "home-1"
			return content, nil
		},
	}
	service := newHomeService(repo)

	content, err := service.GetPublic(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "home-1", content.ID)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "Fundação Escola Solidária", content.Hero.Title)
}

func TestHomeService_GetPublic_HidesUnpublishedDraft(t *testing.T) {
	repo := &MockHomeRepository{
		GetFunc: func(ctx context.Context) (*models.HomeContent, error) {
			draft := models.DefaultHomeContent()
			draft.ID = "home-1"
			draft.Hero.Title = "Rascunho em edição"
			draft.Published = false
			return draft, nil
		},
	}
	service := newHomeService(repo)

	content, err := service.GetPublic(context.Background())

	require.NoError(t, err)
	assert.NotEqual(t, "Rascunho em edição", content.Hero.Title, "draft edits stay private until published")
	assert.Equal(t, "Fundação Escola Solidária", content.Hero.Title)

	// The editor view still serves the draft
	editorView, err := service.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Rascunho em edição", editorView.Hero.Title)
}

func TestHomeService_UpdateSection(t *testing.T) {
	var gotSection string
	var gotPayload json.RawMessage
	repo := &MockHomeRepository{
		GetFunc: func(ctx context.Context) (*models.HomeContent, error) {
			content := models.DefaultHomeContent()
			content.ID = "home-1"
			return content, nil
		},
		UpdateSectionFunc: func(ctx context.Context, id, section string, payload json.RawMessage) (*models.HomeContent, error) {
			assert.Equal(t, "home-1", id)
			gotSection = section
			gotPayload = payload
			return models.DefaultHomeContent(), nil
		},
	}
	service := newHomeService(repo)

	payload := json.RawMessage(`{"title":"Bem-vindos","ctaVisible":true}`)
	_, err := service.UpdateSection(context.Background(), "hero", payload)

	require.NoError(t, err)
	assert.Equal(t, "hero", gotSection)
	assert.JSONEq(t, string(payload), string(gotPayload))
}

func TestHomeService_UpdateSection_Validation(t *testing.T) {
	service := newHomeService(&MockHomeRepository{})

	tests := []struct {
		name    string
		section string
		payload string
	}{
		{"unknown section", "rodape", `{}`},
		{"unknown field", "hero", `{"title":"x","surprise":true}`},
		{"wrong shape", "stats", `{"number":"1"}`},
		{"not json", "hero", `{{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.UpdateSection(context.Background(), tt.section, json.RawMessage(tt.payload))
			assert.ErrorIs(t, err, models.ErrBadRequest)
		})
	}
}

func TestHomeService_UpdateSection_ListSections(t *testing.T) {
	repo := &MockHomeRepository{
		GetFunc: func(ctx context.Context) (*models.HomeContent, error) {
			content := models.DefaultHomeContent()
			content.ID = "home-1"
			return content, nil
		},
		UpdateSectionFunc: func(ctx context.Context, id, section string, payload json.RawMessage) (*models.HomeContent, error) {
			return models.DefaultHomeContent(), nil
		},
	}
	service := newHomeService(repo)

	payload := json.RawMessage(`[{"number":"250","label":"Alunos atendidos"}]`)
	_, err := service.UpdateSection(context.Background(), "stats", payload)

	require.NoError(t, err)
}

func TestHomeService_Publish(t *testing.T) {
	repo := &MockHomeRepository{
		GetFunc: func(ctx context.Context) (*models.HomeContent, error) {
			content := models.DefaultHomeContent()
			content.ID = "home-1"
			return content, nil
		},
		PublishFunc: func(ctx context.Context, id, publishedBy string) (*models.HomeContent, error) {
			now := time.Now()
			content := models.DefaultHomeContent()
			content.ID = id
			content.Published = true
			content.PublishedAt = &now
			content.LastPublishedBy = publishedBy
			return content, nil
		},
	}
	service := newHomeService(repo)

	content, err := service.Publish(context.Background(), "editor@escola.org")

	require.NoError(t, err)
	assert.True(t, content.Published)
	assert.Equal(t, "editor@escola.org", content.LastPublishedBy)
	assert.NotNil(t, content.PublishedAt)
}
