package memstore

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/cognicore/trigramlm/pkg/trigramlm/internalerr"
	"github.com/cognicore/trigramlm/pkg/trigramlm/ngram"
	"github.com/cognicore/trigramlm/pkg/trigramlm/store"
)

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

func TestSaveAndLoadModel(t *testing.T) {
	ctx := context.Background()
	s := New()
	m := trainModel(t, []string{"a", "b"}, []string{"a", "c"})

	info, err := s.SaveModel(ctx, store.ModelInfo{Name: "reviews"}, m)
	if err != nil {
		t.Fatalf("SaveModel: %v", err)
	}
	if info.ID == "" {
		t.Fatal("SaveModel should assign an ID")
	}
	if info.Sentences != 2 || info.Tokens != 6 {
		t.Errorf("info sizes = %d sentences, %d tokens; want 2, 6", info.Sentences, info.Tokens)
	}
	if info.Unigrams != m.Len(1) || info.Bigrams != m.Len(2) || info.Trigrams != m.Len(3) {
		t.Errorf("entry counts = %d/%d/%d", info.Unigrams, info.Bigrams, info.Trigrams)
	}

	gotInfo, got, err := s.LoadModel(ctx, info.ID)
	if err != nil {
		t.Fatalf("LoadModel: %v", err)
	}
	if gotInfo.Name != "reviews" {
		t.Errorf("Name = %q", gotInfo.Name)
	}
	if !reflect.DeepEqual(got.AllEntries(), m.AllEntries()) {
		t.Error("loaded tables differ from saved tables")
	}
}

func TestMissingModel(t *testing.T) {
	ctx := context.Background()
	s := New()

	if _, _, err := s.LoadModel(ctx, "nope"); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("LoadModel error = %v; want ErrNotFound", err)
	}
	if err := s.DeleteModel(ctx, "nope"); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("DeleteModel error = %v; want ErrNotFound", err)
	}
	if err := s.SaveScores(ctx, "nope", store.KindUnigram, []float64{-1}); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("SaveScores error = %v; want ErrNotFound", err)
	}
	if _, err := s.SaveModel(ctx, store.ModelInfo{}, nil); !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Errorf("SaveModel(nil) error = %v; want ErrInvalidInput", err)
	}
}

func TestScoresRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New()
	info, err := s.SaveModel(ctx, store.ModelInfo{}, trainModel(t, []string{"a"}))
	if err != nil {
		t.Fatalf("SaveModel: %v", err)
	}

	scores := []float64{-1.5, -1000, 0}
	if err := s.SaveScores(ctx, info.ID, store.KindTrigram, scores); err != nil {
		t.Fatalf("SaveScores: %v", err)
	}
	scores[0] = 99 // caller mutation must not leak in

	got, err := s.GetScores(ctx, info.ID, store.KindTrigram)
	if err != nil {
		t.Fatalf("GetScores: %v", err)
	}
	if !reflect.DeepEqual(got, []float64{-1.5, -1000, 0}) {
		t.Errorf("GetScores = %v", got)
	}

	if _, err := s.GetScores(ctx, info.ID, store.KindBigram); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("unsaved kind error = %v; want ErrNotFound", err)
	}
}

func TestDeleteDropsScores(t *testing.T) {
	ctx := context.Background()
	s := New()
	info, err := s.SaveModel(ctx, store.ModelInfo{}, trainModel(t, []string{"a"}))
	if err != nil {
		t.Fatalf("SaveModel: %v", err)
	}
	if err := s.SaveScores(ctx, info.ID, store.KindInterpolated, []float64{-2}); err != nil {
		t.Fatalf("SaveScores: %v", err)
	}
	if err := s.DeleteModel(ctx, info.ID); err != nil {
		t.Fatalf("DeleteModel: %v", err)
	}
	if _, err := s.GetScores(ctx, info.ID, store.KindInterpolated); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("scores survived delete: %v", err)
	}
	models, _ := s.ListModels(ctx)
	if len(models) != 0 {
		t.Errorf("ListModels after delete = %v", models)
	}
}

func TestListModelsOrdered(t *testing.T) {
	ctx := context.Background()
	s := New()
	m := trainModel(t, []string{"a"})

	var ids []string
	for _, name := range []string{"first", "second", "third"} {
		info, err := s.SaveModel(ctx, store.ModelInfo{Name: name}, m)
		if err != nil {
			t.Fatalf("SaveModel: %v", err)
		}
		ids = append(ids, info.ID)
	}

	models, err := s.ListModels(ctx)
	if err != nil {
		t.Fatalf("ListModels: %v", err)
	}
	if len(models) != 3 {
		t.Fatalf("got %d models, want 3", len(models))
	}
	for i, info := range models {
		if info.ID != ids[i] {
			t.Errorf("models[%d] = %s, want %s", i, info.ID, ids[i])
		}
	}
}
