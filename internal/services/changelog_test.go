package services

import (
	"context"
	"strings"
	"testing"

	"mangareader/internal/models"
	"mangareader/internal/utils"
)

func TestCreateChangelogBroadcastsToFollowers(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	a := createUser(t, conn, "a")
	b := createUser(t, conn, "b")
	quiet := createUser(t, conn, "quiet")

	following, err := svc.ToggleFollowChangelog(ctx, quiet.ID)
	if err != nil || following {
		t.Fatalf("expected quiet to unfollow, got %v %v", following, err)
	}

	entry, sent, err := svc.CreateChangelog(ctx, "Dark mode", "Now with **dark mode**.")
	if err != nil {
		t.Fatalf("CreateChangelog failed: %v", err)
	}
	if sent != 2 {
		t.Errorf("expected 2 recipients, got %d", sent)
	}
	for _, u := range []*models.User{a, b} {
		notes := notificationsFor(t, conn, u.ID)
		if len(notes) != 1 || notes[0].Message != "New Update: Dark mode" || notes[0].Type != models.NotificationSystem {
			t.Errorf("unexpected notifications for %s: %+v", u.Username, notes)
		}
	}
	if n := len(notificationsFor(t, conn, quiet.ID)); n != 0 {
		t.Errorf("unfollowed user should get nothing, got %d", n)
	}

	list, err := svc.ListChangelog(ctx)
	if err != nil || len(list) != 1 || list[0].ID != entry.ID {
		t.Fatalf("unexpected changelog list %+v err %v", list, err)
	}
	if !strings.Contains(string(list[0].ContentHTML), "<strong>dark mode</strong>") {
		t.Errorf("expected rendered content, got %s", list[0].ContentHTML)
	}

	if _, _, err := svc.CreateChangelog(ctx, " ", "body"); err != ErrTitleRequired {
		t.Errorf("expected ErrTitleRequired, got %v", err)
	}
}

func TestSettingsDefaultsAndUpdates(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if !svc.SettingEnabled(ctx, SettingEnableTitles) {
		t.Error("titles should be enabled by default")
	}
	if err := svc.UpdateSetting(ctx, SettingEnableTitles, "false"); err != nil {
		t.Fatalf("UpdateSetting failed: %v", err)
	}
	if svc.SettingEnabled(ctx, SettingEnableTitles) {
		t.Error("titles should be disabled after update")
	}
	if err := svc.UpdateSetting(ctx, SettingEnableTitles, "true"); err != nil {
		t.Fatalf("UpdateSetting failed: %v", err)
	}
	if !svc.SettingEnabled(ctx, SettingEnableTitles) {
		t.Error("upsert should overwrite the stored value")
	}
	if err := svc.UpdateSetting(ctx, "Nope", "1"); err != ErrUnknownSetting {
		t.Errorf("expected ErrUnknownSetting, got %v", err)
	}
	if got := svc.Settings(ctx); len(got) != 2 {
		t.Errorf("expected 2 settings, got %v", got)
	}
}

func TestSettingsSurviveMissingTable(t *testing.T) {
	_, conn := newTestService(t)
	if err := conn.Migrator().DropTable(&models.SiteSetting{}); err != nil {
		t.Fatalf("drop table: %v", err)
	}
	svc := New(conn, Options{Cache: utils.NewLocalCache(10)})
	if !svc.SettingEnabled(context.Background(), SettingEnableDecorations) {
		t.Error("missing settings table should fall back to defaults")
	}
}
