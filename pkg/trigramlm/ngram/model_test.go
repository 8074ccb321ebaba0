package ngram

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/cognicore/trigramlm/pkg/trigramlm/internalerr"
)

func TestEntriesSorted(t *testing.T) {
	m, err := FromEntries([]Entry{
		{Gram: []string{"b", "a"}, LogProb: -1},
		{Gram: []string{"a", "z"}, LogProb: -2},
		{Gram: []string{"a", "b"}, LogProb: -3},
		{Gram: []string{"c"}, LogProb: -1},
	}, Meta{})
	if err != nil {
		t.Fatalf("FromEntries: %v", err)
	}

	var got [][]string
	for _, e := range m.Entries(2) {
		got = append(got, e.Gram)
	}
	want := [][]string{{"a", "b"}, {"a", "z"}, {"b", "a"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Entries(2) order = %v, want %v", got, want)
	}

	all := m.AllEntries()
	if len(all) != 4 || len(all[0].Gram) != 1 {
		t.Errorf("AllEntries should start with the unigram table: %v", all)
	}
}

func TestFromEntriesRejects(t *testing.T) {
	tests := []struct {
		name    string
		entries []Entry
		want    error
	}{
		{"positive", []Entry{{Gram: []string{"a"}, LogProb: 0.5}}, internalerr.ErrInvalidInput},
		{"nan", []Entry{{Gram: []string{"a"}, LogProb: math.NaN()}}, internalerr.ErrInvalidInput},
		{"inf", []Entry{{Gram: []string{"a"}, LogProb: math.Inf(-1)}}, internalerr.ErrInvalidInput},
		{"order", []Entry{{Gram: []string{"a", "b", "c", "d"}, LogProb: -1}}, internalerr.ErrInvalidInput},
		{"duplicate", []Entry{
			{Gram: []string{"a", "b"}, LogProb: -1},
			{Gram: []string{"a", "b"}, LogProb: -2},
		}, internalerr.ErrDuplicate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromEntries(tt.entries, Meta{})
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestLogProbByOrder(t *testing.T) {
	m, err := FromEntries([]Entry{
		{Gram: []string{"a"}, LogProb: -1},
		{Gram: []string{"a", "b"}, LogProb: -2},
		{Gram: []string{"a", "b", "c"}, LogProb: -3},
	}, Meta{Sentences: 1})
	if err != nil {
		t.Fatalf("FromEntries: %v", err)
	}

	for gram, want := range map[string]float64{"a": -1, "ab": -2, "abc": -3} {
		parts := make([]string, 0, len(gram))
		for _, r := range gram {
			parts = append(parts, string(r))
		}
		got, ok := m.LogProb(parts...)
		if !ok || got != want {
			t.Errorf("LogProb(%v) = %v, %v; want %v", parts, got, ok, want)
		}
	}
	if _, ok := m.LogProb(); ok {
		t.Error("empty key should not be found")
	}

	m2 := m.WithMeta(Meta{Sentences: 9})
	if m2.Meta().Sentences != 9 || m.Meta().Sentences != 1 {
		t.Error("WithMeta must not modify the original model")
	}
}
