package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/yungbote/lms-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(types.Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// EnsureIndexes adds the lookup indexes gorm tags cannot express.
func EnsureIndexes(db *gorm.DB) error {
	stmts := []struct {
		name string
		sql  string
	}{
		{"idx_course_created_at", `CREATE INDEX IF NOT EXISTS idx_course_created_at ON course(created_at DESC);`},
		{"idx_lecture_course_position", `CREATE INDEX IF NOT EXISTS idx_lecture_course_position ON lecture(course_id, position);`},
		{"idx_enrollment_user_enrolled_at", `CREATE INDEX IF NOT EXISTS idx_enrollment_user_enrolled_at ON enrollment(user_id, enrolled_at DESC);`},
	}
	for _, s := range stmts {
		if err := db.Exec(s.sql).Error; err != nil {
			return fmt.Errorf("create %s: %w", s.name, err)
		}
	}
	return nil
}
