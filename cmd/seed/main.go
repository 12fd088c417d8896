package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/shinyyama/centace-backend/internal/config"
	"github.com/shinyyama/centace-backend/internal/db"
	"github.com/shinyyama/centace-backend/internal/logging"
	"github.com/shinyyama/centace-backend/internal/model"
)

type seedNotification struct {
	Type    model.NotificationType
	Title   string
	Message string
	IsRead  bool
	Age     time.Duration
}

func main() {
	uid := flag.String("uid", "", "firebase uid to seed (required)")
	email := flag.String("email", "", "profile email")
	name := flag.String("name", "Demo Investor", "profile full name")
	flag.Parse()

	if err := run(*uid, *email, *name); err != nil {
		logging.Fatal().Err(err).Msg("seed failed")
	}
}

func run(uid, email, name string) error {
	ctx := context.Background()
	_ = godotenv.Load()

	uid = strings.TrimSpace(uid)
	if uid == "" {
		return fmt.Errorf("-uid is required")
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	gdb, err := db.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	if err := db.Migrate(gdb); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	canSeed, err := shouldSeed(ctx, gdb, uid)
	if err != nil {
		return err
	}
	if !canSeed {
		logging.Info().Str("uid", uid).Msg("notifications already exist; skipping seed (set FORCE_SEED=true to override)")
		return nil
	}

	now := time.Now()
	return gdb.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_uid = ?", uid).Delete(&model.Notification{}).Error; err != nil {
			return fmt.Errorf("clear notifications: %w", err)
		}
		profile := model.Profile{UserUID: uid, Email: email, FullName: name, Role: model.RoleUser}
		if err := tx.Where(model.Profile{UserUID: uid}).Assign(model.Profile{Email: email, FullName: name}).FirstOrCreate(&profile).Error; err != nil {
			return fmt.Errorf("upsert profile: %w", err)
		}
		for _, sn := range buildSeedNotifications() {
			n := model.Notification{
				UserUID:   uid,
				Type:      sn.Type,
				Title:     sn.Title,
				Message:   sn.Message,
				IsRead:    sn.IsRead,
				CreatedAt: now.Add(-sn.Age),
				UpdatedAt: now.Add(-sn.Age),
			}
			if err := tx.Create(&n).Error; err != nil {
				return fmt.Errorf("insert notification %q: %w", sn.Title, err)
			}
		}
		logging.Info().Str("uid", uid).Int("count", len(buildSeedNotifications())).Msg("seeded notifications")
		return nil
	})
}

func shouldSeed(ctx context.Context, gdb *gorm.DB, uid string) (bool, error) {
	if strings.EqualFold(os.Getenv("FORCE_SEED"), "true") {
		return true, nil
	}
	var cnt int64
	if err := gdb.WithContext(ctx).Model(&model.Notification{}).Where("user_uid = ?", uid).Count(&cnt).Error; err != nil {
		return false, fmt.Errorf("count notifications: %w", err)
	}
	return cnt == 0, nil
}

func buildSeedNotifications() []seedNotification {
	return []seedNotification{
		{model.TypeWelcome, "Welcome to Centace", "Your account is ready. Browse open projects and make your first investment.", true, 72 * time.Hour},
		{model.TypeNew, "New project: Lakeside Lofts", "A new residential project is open for investment.", true, 48 * time.Hour},
		{model.TypeInvestment, "Investment Confirmed", "Your investment of 500.00 USD in Lakeside Lofts is confirmed.", false, 30 * time.Hour},
		{model.TypeVisit, "Site Visit Confirmed", "Your visit to Lakeside Lofts is confirmed.", false, 6 * time.Hour},
		{model.TypeUpdate, "Construction update", "Lakeside Lofts finished its foundation phase.", false, 2 * time.Hour},
		{model.TypeReturn, "Quarterly return paid", "A distribution of 12.40 USD was paid to your wallet.", false, 30 * time.Minute},
	}
}
