package repository

import (
	"strings"
	"testing"

	"github.com/shinyyama/centace-backend/internal/model"
	"gorm.io/gorm"
)

func TestInsertIfAbsentToleratesExistingRow(t *testing.T) {
	db := dryRunDB(t)

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return insertIfAbsent(tx, &model.Profile{UserUID: "uid-a", Email: "a@example.com", Role: model.RoleUser})
	})
	for _, want := range []string{"INSERT INTO `profiles`", "ON DUPLICATE KEY UPDATE", "uid-a"} {
		if !strings.Contains(sql, want) {
			t.Errorf("sql %q does not contain %q", sql, want)
		}
	}
	// an existing row must keep its email and role on the conflict path
	if strings.Contains(sql, "`email`=VALUES") || strings.Contains(sql, "`role`=VALUES") {
		t.Errorf("conflict clause overwrites columns: %q", sql)
	}
}
