package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/cognicore/trigramlm/pkg/trigramlm/internalerr"
	"github.com/cognicore/trigramlm/pkg/trigramlm/ngram"
	"github.com/cognicore/trigramlm/pkg/trigramlm/score"
	"github.com/cognicore/trigramlm/pkg/trigramlm/store"
)

func openTestStore(t *testing.T) store.Store {
	t.Helper()
	st, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func trainModel(t *testing.T, corpus ...[]string) *ngram.Model {
	t.Helper()
	c := ngram.NewCounter()
	for _, s := range corpus {
		c.AddSentence(s)
	}
	m, err := ngram.Estimate(c)
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}
	return m
}

// TestSQLiteModelRoundTrip checks that stored tables come back bit-identical
func TestSQLiteModelRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	m := trainModel(t,
		[]string{"아", "더빙", "..", "진짜", "짜증나네요"},
		[]string{"흠", "...", "포스터보고", "초딩영화줄"},
		[]string{"아", "진짜"},
	)
	created := time.Date(2024, 5, 1, 12, 30, 0, 123, time.UTC)

	info, err := st.SaveModel(ctx, store.ModelInfo{Name: "nsmc", CreatedAt: created}, m)
	if err != nil {
		t.Fatalf("SaveModel: %v", err)
	}

	gotInfo, got, err := st.LoadModel(ctx, info.ID)
	if err != nil {
		t.Fatalf("LoadModel: %v", err)
	}
	if !reflect.DeepEqual(got.AllEntries(), m.AllEntries()) {
		t.Error("loaded tables differ from saved tables")
	}
	if got.Meta() != m.Meta() {
		t.Errorf("Meta = %+v, want %+v", got.Meta(), m.Meta())
	}
	if !gotInfo.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, want %v", gotInfo.CreatedAt, created)
	}
	if gotInfo.ID != info.ID || gotInfo.Name != "nsmc" {
		t.Errorf("info = %+v, want %+v", gotInfo, info)
	}
	if gotInfo.Unigrams != m.Len(1) || gotInfo.Bigrams != m.Len(2) || gotInfo.Trigrams != m.Len(3) {
		t.Errorf("entry counts = %d/%d/%d", gotInfo.Unigrams, gotInfo.Bigrams, gotInfo.Trigrams)
	}
}

func TestSQLiteReloadedModelScoresTheSame(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	m := trainModel(t,
		[]string{"the", "movie", "was", "great"},
		[]string{"the", "movie", "was", "bad"},
		[]string{"the", "acting", "was", "great"},
	)
	info, err := st.SaveModel(ctx, store.ModelInfo{Name: "reviews"}, m)
	if err != nil {
		t.Fatalf("SaveModel: %v", err)
	}
	_, loaded, err := st.LoadModel(ctx, info.ID)
	if err != nil {
		t.Fatalf("LoadModel: %v", err)
	}

	corpus := [][]string{
		{"the", "movie", "was", "great"},
		{"the", "acting", "was", "bad"},
		{"unseen"},
		{},
	}
	want, err := score.New(m, score.DefaultOptions())
	if err != nil {
		t.Fatalf("score.New: %v", err)
	}
	got, err := score.New(loaded, score.DefaultOptions())
	if err != nil {
		t.Fatalf("score.New loaded: %v", err)
	}

	for n := 1; n <= ngram.MaxOrder; n++ {
		w, _ := want.RawAll(n, corpus)
		g, _ := got.RawAll(n, corpus)
		if !reflect.DeepEqual(g, w) {
			t.Errorf("order %d scores = %v, want %v", n, g, w)
		}
	}
	if g, w := got.InterpolatedAll(corpus), want.InterpolatedAll(corpus); !reflect.DeepEqual(g, w) {
		t.Errorf("interpolated scores = %v, want %v", g, w)
	}
}

func TestOpenSQLiteUnavailable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "dir", "test.db")
	_, err := OpenSQLite(context.Background(), path)
	if !errors.Is(err, internalerr.ErrStoreUnavailable) {
		t.Errorf("OpenSQLite error = %v; want ErrStoreUnavailable", err)
	}
}

func TestSQLiteNotFound(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	if _, _, err := st.LoadModel(ctx, "missing"); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("LoadModel error = %v; want ErrNotFound", err)
	}
	if err := st.DeleteModel(ctx, "missing"); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("DeleteModel error = %v; want ErrNotFound", err)
	}
	if err := st.SaveScores(ctx, "missing", store.KindUnigram, nil); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("SaveScores error = %v; want ErrNotFound", err)
	}
	if _, err := st.GetScores(ctx, "missing", store.KindUnigram); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("GetScores error = %v; want ErrNotFound", err)
	}
}

func TestSQLiteScores(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	info, err := st.SaveModel(ctx, store.ModelInfo{}, trainModel(t, []string{"a", "b"}))
	if err != nil {
		t.Fatalf("SaveModel: %v", err)
	}

	first := []float64{-3.25, -1000, -0.5}
	if err := st.SaveScores(ctx, info.ID, store.KindInterpolated, first); err != nil {
		t.Fatalf("SaveScores: %v", err)
	}
	second := []float64{-7}
	if err := st.SaveScores(ctx, info.ID, store.KindInterpolated, second); err != nil {
		t.Fatalf("SaveScores again: %v", err)
	}

	got, err := st.GetScores(ctx, info.ID, store.KindInterpolated)
	if err != nil {
		t.Fatalf("GetScores: %v", err)
	}
	if !reflect.DeepEqual(got, second) {
		t.Errorf("GetScores = %v, want replaced run %v", got, second)
	}

	if err := st.SaveScores(ctx, info.ID, store.KindBigram, []float64{}); err != nil {
		t.Fatalf("SaveScores empty: %v", err)
	}
	empty, err := st.GetScores(ctx, info.ID, store.KindBigram)
	if err != nil {
		t.Fatalf("empty run should be found: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("empty run = %v", empty)
	}
}

func TestSQLiteDeleteCascades(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	info, err := st.SaveModel(ctx, store.ModelInfo{}, trainModel(t, []string{"a"}))
	if err != nil {
		t.Fatalf("SaveModel: %v", err)
	}
	if err := st.SaveScores(ctx, info.ID, store.KindUnigram, []float64{-1}); err != nil {
		t.Fatalf("SaveScores: %v", err)
	}
	if err := st.DeleteModel(ctx, info.ID); err != nil {
		t.Fatalf("DeleteModel: %v", err)
	}
	if _, err := st.GetScores(ctx, info.ID, store.KindUnigram); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("scores survived delete: %v", err)
	}

	// re-saving under the same ID starts clean
	if _, err := st.SaveModel(ctx, info, trainModel(t, []string{"b"})); err != nil {
		t.Fatalf("SaveModel again: %v", err)
	}
	_, m, err := st.LoadModel(ctx, info.ID)
	if err != nil {
		t.Fatalf("LoadModel: %v", err)
	}
	if _, ok := m.Unigram("a"); ok {
		t.Error("old table rows leaked into the replacement model")
	}
}

func TestSQLiteListModels(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	m := trainModel(t, []string{"a"})

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	names := []string{"old", "middle", "new"}
	for i, name := range names {
		info := store.ModelInfo{Name: name, CreatedAt: base.Add(time.Duration(i) * time.Hour)}
		if _, err := st.SaveModel(ctx, info, m); err != nil {
			t.Fatalf("SaveModel %s: %v", name, err)
		}
	}

	models, err := st.ListModels(ctx)
	if err != nil {
		t.Fatalf("ListModels: %v", err)
	}
	if len(models) != len(names) {
		t.Fatalf("got %d models, want %d", len(models), len(names))
	}
	for i, info := range models {
		if info.Name != names[i] {
			t.Errorf("models[%d] = %q, want %q", i, info.Name, names[i])
		}
	}
}
