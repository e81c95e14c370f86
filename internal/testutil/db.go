package testutil

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/yuqie6/TimeBudget/internal/schema"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenTestDB 打开内存 SQLite，自动迁移所有表并写入兜底分类
func OpenTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	// 内存库每个连接是独立实例
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(schema.AllModels()...); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	// 与 repository.NewDatabase 走同一条写入路径
	if err := schema.SeedDefaults(db); err != nil {
		t.Fatalf("seed defaults: %v", err)
	}

	return db
}
