package services

import (
	"context"
	"errors"
	"testing"

	"mangareader/internal/models"
)

func TestCheckEquip(t *testing.T) {
	cases := []struct {
		name            string
		level, req      int
		locked, granted bool
		wantErr         error
	}{
		{"level met", 5, 5, false, false, nil},
		{"level too low", 3, 5, false, false, ErrLevelTooLow},
		{"granted below level", 1, 5, false, true, nil},
		{"locked without grant", 50, 1, true, false, ErrItemLocked},
		{"locked with grant", 1, 1, true, true, nil},
	}
	for _, tc := range cases {
		err := CheckEquip("decoration", tc.level, tc.req, tc.locked, tc.granted)
		if tc.wantErr == nil && err != nil {
			t.Errorf("%s: unexpected error %v", tc.name, err)
		}
		if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.wantErr, err)
		}
	}
}

func TestEquipDecorationLevelGate(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	user := createUser(t, conn, "climber")
	setLevel(t, conn, user.ID, 3, 0)
	ink := &models.Decoration{Name: "Ink", ImageURL: "/ink.png", LevelRequirement: 5}
	conn.Create(ink)

	err := svc.EquipDecoration(ctx, user.ID, &ink.ID)
	if !errors.Is(err, ErrLevelTooLow) {
		t.Fatalf("expected ErrLevelTooLow, got %v", err)
	}
	if err.Error() != "You need to be level 5 to equip this!" {
		t.Errorf("unexpected message %q", err.Error())
	}

	setLevel(t, conn, user.ID, 5, 0)
	if err := svc.EquipDecoration(ctx, user.ID, &ink.ID); err != nil {
		t.Fatalf("expected equip to succeed at level 5, got %v", err)
	}
	stored := reloadUser(t, conn, user.ID)
	if stored.EquippedDecorationID == nil || *stored.EquippedDecorationID != ink.ID {
		t.Errorf("expected decoration %d equipped, got %v", ink.ID, stored.EquippedDecorationID)
	}

	if err := svc.EquipDecoration(ctx, user.ID, nil); err != nil {
		t.Fatalf("unequip failed: %v", err)
	}
	if reloadUser(t, conn, user.ID).EquippedDecorationID != nil {
		t.Error("expected decoration to be unequipped")
	}
}

func TestEquipDecorationAfterAward(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	user := createUser(t, conn, "lucky")
	setLevel(t, conn, user.ID, 3, 0)
	ink := &models.Decoration{Name: "Ink", ImageURL: "/ink.png", LevelRequirement: 5}
	conn.Create(ink)

	if err := svc.AwardDecoration(ctx, user.ID, ink.ID); err != nil {
		t.Fatalf("AwardDecoration failed: %v", err)
	}
	if err := svc.EquipDecoration(ctx, user.ID, &ink.ID); err != nil {
		t.Errorf("expected awarded decoration to be equippable, got %v", err)
	}
}

func TestEquipLockedTitle(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	user := createUser(t, conn, "veteran")
	setLevel(t, conn, user.ID, 30, 0)
	title := &models.Title{Name: "Translator", LevelRequirement: 1, IsLocked: true}
	conn.Create(title)

	err := svc.EquipTitle(ctx, user.ID, &title.ID)
	if !errors.Is(err, ErrItemLocked) {
		t.Fatalf("expected ErrItemLocked, got %v", err)
	}
	if err.Error() != "This title is locked and you haven't unlocked it yet!" {
		t.Errorf("unexpected message %q", err.Error())
	}

	if err := svc.EquipTitle(ctx, user.ID, uintPtr(999)); err != ErrTitleNotFound {
		t.Errorf("expected ErrTitleNotFound, got %v", err)
	}
	if err := svc.EquipTitle(ctx, user.ID, uintPtr(0)); err != nil {
		t.Errorf("equip 0 should unequip, got %v", err)
	}
}

func TestListCosmetics(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	user := createUser(t, conn, "collector")
	setLevel(t, conn, user.ID, 4, 0)
	conn.Create(&models.Decoration{Name: "Leaf", ImageURL: "/leaf.png", LevelRequirement: 2})
	conn.Create(&models.Decoration{Name: "Gold", ImageURL: "/gold.png", LevelRequirement: 20})

	got, err := svc.ListCosmetics(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListCosmetics failed: %v", err)
	}
	if len(got.Decorations) != 2 {
		t.Fatalf("expected 2 decorations, got %d", len(got.Decorations))
	}
	if !got.Decorations[0].Equippable || got.Decorations[1].Equippable {
		t.Errorf("unexpected equippable flags %+v", got.Decorations)
	}
	if len(got.Titles) != 0 {
		t.Errorf("expected no titles, got %d", len(got.Titles))
	}
}

func TestEquipRefusedWhileFeatureDisabled(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	user := createUser(t, conn, "reader")
	title := &models.Title{Name: "Newcomer", LevelRequirement: 1}
	conn.Create(title)

	if err := svc.UpdateSetting(ctx, SettingEnableTitles, "false"); err != nil {
		t.Fatalf("UpdateSetting failed: %v", err)
	}
	if err := svc.EquipTitle(ctx, user.ID, &title.ID); !errors.Is(err, ErrFeatureDisabled) {
		t.Fatalf("expected ErrFeatureDisabled, got %v", err)
	}
	if err := svc.EquipTitle(ctx, user.ID, nil); err != nil {
		t.Errorf("unequip should still work, got %v", err)
	}

	if err := svc.UpdateSetting(ctx, SettingEnableTitles, "true"); err != nil {
		t.Fatalf("UpdateSetting failed: %v", err)
	}
	if err := svc.EquipTitle(ctx, user.ID, &title.ID); err != nil {
		t.Errorf("expected equip to succeed once re-enabled, got %v", err)
	}
}
