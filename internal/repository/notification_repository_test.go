package repository

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shinyyama/centace-backend/internal/model"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(mysql.New(mysql.Config{
		DSN:                       "user:pass@tcp(127.0.0.1:3306)/centace?parseTime=true",
		SkipInitializeWithVersion: true,
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true})
	if err != nil {
		t.Fatalf("open dry-run db: %v", err)
	}
	return db
}

func TestOwnedByScopesToUser(t *testing.T) {
	db := dryRunDB(t)

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var n model.Notification
		return tx.Scopes(ownedBy(7, "uid-a")).First(&n)
	})
	for _, want := range []string{"`notifications`", "id = 7", "user_uid = ", "uid-a"} {
		if !strings.Contains(sql, want) {
			t.Errorf("sql %q does not contain %q", sql, want)
		}
	}

	sql = db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return tx.Scopes(ownedBy(7, "uid-a")).Delete(&model.Notification{})
	})
	if !strings.HasPrefix(sql, "DELETE") || !strings.Contains(sql, "uid-a") {
		t.Errorf("delete sql %q is not scoped to the owner", sql)
	}
}

func TestRepositoriesRequireDB(t *testing.T) {
	ctx := context.Background()
	notifications := NewNotificationRepository(nil)
	prefs := NewPreferenceRepository(nil)
	profiles := NewProfileRepository(nil)

	checks := []struct {
		name string
		err  error
	}{
		{"create", notifications.Create(ctx, &model.Notification{})},
		{"mark read", second(notifications.MarkRead(ctx, 1, "u"))},
		{"mark all read", second(notifications.MarkAllRead(ctx, "u"))},
		{"delete", second(notifications.Delete(ctx, 1, "u"))},
		{"count", second(notifications.CountUnread(ctx, "u"))},
		{"prefs get", second(prefs.Get(ctx, "u"))},
		{"prefs save", prefs.Save(ctx, &model.EmailPreference{UserUID: "u"})},
		{"profile upsert", second(profiles.Upsert(ctx, &model.Profile{UserUID: "u"}))},
	}
	for _, c := range checks {
		if !errors.Is(c.err, ErrDBNotReady) {
			t.Errorf("%s: err = %v, want ErrDBNotReady", c.name, c.err)
		}
	}
}

func second[T any](_ T, err error) error {
	return err
}
