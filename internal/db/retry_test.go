package db

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, _ := conn.DB()
	sqlDB.SetMaxOpenConns(1)
	if err := Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func TestIsTransient(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"bad conn", driver.ErrBadConn, true},
		{"wrapped bad conn", fmt.Errorf("insert: %w", driver.ErrBadConn), true},
		{"record not found", gorm.ErrRecordNotFound, false},
		{"plain", errors.New("boom"), false},
	}
	for _, tc := range cases {
		if got := IsTransient(tc.err); got != tc.want {
			t.Errorf("%s: IsTransient = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestWithRetryRetriesTransientErrors(t *testing.T) {
	conn := openTestDB(t)

	calls := 0
	err := WithRetry(context.Background(), conn, 3, func(tx *gorm.DB) error {
		calls++
		if calls < 3 {
			return driver.ErrBadConn
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success on third attempt, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestWithRetryStopsOnPermanentError(t *testing.T) {
	conn := openTestDB(t)

	calls := 0
	permanent := errors.New("constraint violated")
	err := WithRetry(context.Background(), conn, 5, func(tx *gorm.DB) error {
		calls++
		return permanent
	})
	if !errors.Is(err, permanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected a single attempt, got %d", calls)
	}
}

func TestSeedCosmeticsIsIdempotent(t *testing.T) {
	conn := openTestDB(t)

	if err := SeedCosmetics(conn); err != nil {
		t.Fatalf("first seed: %v", err)
	}
	if err := SeedCosmetics(conn); err != nil {
		t.Fatalf("second seed: %v", err)
	}

	var count int64
	conn.Table("decorations").Count(&count)
	if count != 5 {
		t.Errorf("expected 5 decorations after two seeds, got %d", count)
	}
}
