package guidance

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ziadkadry99/naflume/internal/db"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewStore(database)
}

func seedFixtures(t *testing.T, s *Store) {
	t.Helper()
	for _, e := range fixtures() {
		require.NoError(t, s.Upsert(context.Background(), e))
	}
}

func TestStoreListOrder(t *testing.T) {
	s := setupTestStore(t)
	seedFixtures(t, s)

	es, err := s.List(context.Background(), Filter{}, 10, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"h-1", "q-2", "q-1", "h-2", "q-3"}, ids(es))
	assert.True(t, es[0].CreatedAt.Equal(base))
}

func TestStoreCursorContinuation(t *testing.T) {
	s := setupTestStore(t)
	seedFixtures(t, s)
	ctx := context.Background()

	var all []string
	var after *Cursor
	for {
		page, err := s.List(ctx, Filter{}, 2, after)
		require.NoError(t, err)
		if len(page) == 0 {
			break
		}
		all = append(all, ids(page)...)
		after = CursorAfter(page[len(page)-1])
	}
	assert.Equal(t, []string{"h-1", "q-2", "q-1", "h-2", "q-3"}, all, "pages are disjoint and cover everything")
}

func TestStoreFilters(t *testing.T) {
	s := setupTestStore(t)
	seedFixtures(t, s)
	ctx := context.Background()

	tests := []struct {
		filter Filter
		want   []string
	}{
		{Filter{Source: SourceHadith}, []string{"h-1", "h-2"}},
		{Filter{Type: TypeMotivation}, []string{"q-1", "h-2", "q-3"}},
		{Filter{Theme: "HOPE"}, []string{"h-2", "q-3"}},
		{Filter{Source: SourceQuran, Theme: "hope"}, []string{"q-3"}},
		{Filter{Source: SourceHadith, Type: TypeGuidance, Theme: "sincerity"}, []string{"h-1"}},
		{Filter{Theme: "nothing"}, nil},
	}
	for _, tt := range tests {
		es, err := s.All(ctx, tt.filter)
		require.NoError(t, err)
		assert.Equal(t, tt.want, idsOrNil(es), "%+v", tt.filter)
	}
}

func idsOrNil(es []Entry) []string {
	if len(es) == 0 {
		return nil
	}
	return ids(es)
}

func TestStoreGetByReference(t *testing.T) {
	s := setupTestStore(t)
	seedFixtures(t, s)
	ctx := context.Background()

	e, err := s.GetByReference(ctx, "Sahih al-Bukhari 1")
	require.NoError(t, err)
	assert.Equal(t, "h-1", e.ID)
	assert.Equal(t, []string{"sincerity"}, e.Themes)

	_, err = s.GetByReference(ctx, "sahih al-bukhari 1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreUpsertReplaces(t *testing.T) {
	s := setupTestStore(t)
	seedFixtures(t, s)
	ctx := context.Background()

	e := fixtures()[0]
	e.Priority = 99
	e.Themes = []string{" Patience ", "patience", "Trust"}
	require.NoError(t, s.Upsert(ctx, e))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	es, err := s.List(ctx, Filter{}, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, "q-1", es[0].ID)
	assert.Equal(t, []string{"patience", "trust"}, es[0].Themes)
}

func TestStoreUpsertRejectsInvalid(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	bad := fixtures()[0]
	bad.Themes = []string{"  "}
	assert.Error(t, s.Upsert(ctx, bad))

	bad = fixtures()[0]
	bad.Priority = 0
	assert.Error(t, s.Upsert(ctx, bad))

	bad = fixtures()[0]
	bad.Type = "other"
	assert.Error(t, s.Upsert(ctx, bad))
}

func TestServiceOverStore(t *testing.T) {
	s := setupTestStore(t)
	seedFixtures(t, s)
	svc, _ := newTestService(s, nil, nil)
	ctx := context.Background()

	first, err := svc.List(ctx, Filter{}, 3, "")
	require.NoError(t, err)
	second, err := svc.List(ctx, Filter{}, 3, first.Cursor)
	require.NoError(t, err)
	assert.Equal(t, []string{"h-1", "q-2", "q-1"}, ids(first.Items))
	assert.Equal(t, []string{"h-2", "q-3"}, ids(second.Items))
	assert.True(t, first.HasMore)
	assert.False(t, second.HasMore)
}
