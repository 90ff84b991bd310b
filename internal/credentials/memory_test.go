package credentials

import (
	"context"
	"errors"
	"testing"

	"quizclient/internal/models"
)

func TestMemoryStore_SaveLoadClear(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	pair, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if pair.Valid() {
		t.Fatalf("expected empty store, got %+v", pair)
	}

	want := models.CredentialPair{AccessToken: "a1", RefreshToken: "r1"}
	if err := s.Save(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, _ := s.Load(ctx)
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	got, _ = s.Load(ctx)
	if got.AccessToken != "" || got.RefreshToken != "" {
		t.Fatalf("expected cleared store, got %+v", got)
	}
}

func TestMemoryStore_RejectsHalfPair(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	original := models.CredentialPair{AccessToken: "a1", RefreshToken: "r1"}
	s.Save(ctx, original)

	tests := []struct {
		name string
		pair models.CredentialPair
	}{
		{"missing refresh", models.CredentialPair{AccessToken: "a2"}},
		{"missing access", models.CredentialPair{RefreshToken: "r2"}},
		{"empty", models.CredentialPair{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := s.Save(ctx, tc.pair)
			if !errors.Is(err, ErrIncompletePair) {
				t.Fatalf("expected ErrIncompletePair, got %v", err)
			}
			got, _ := s.Load(ctx)
			if got != original {
				t.Fatalf("store changed after rejected save: %+v", got)
			}
		})
	}
}
