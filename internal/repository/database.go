package repository

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"github.com/yuqie6/TimeBudget/internal/pkg/buildinfo"
	"github.com/yuqie6/TimeBudget/internal/schema"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	memoryDSN           = ":memory:"
	latestSchemaVersion = 1
)

// sqlitePragmas 每次打开连接后执行
var sqlitePragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA busy_timeout=5000", // 多个记录端并发写入时等待锁
	"PRAGMA foreign_keys=OFF",  // 级联删除由仓储层显式处理
	"PRAGMA temp_store=MEMORY",
}

// Database 持有 gorm 连接与迁移结果
type Database struct {
	DB   *gorm.DB
	Path string

	SchemaVersion int
	// SafeMode 迁移失败时仍然开库，只读诊断可用
	SafeMode       bool
	MigrationError string
}

// NewDatabase 打开 sqlite，迁移表结构并写入兜底分类
func NewDatabase(dbPath string) (*Database, error) {
	if dbPath != memoryDSN {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("创建数据目录失败: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}
	if err := applyPragmas(db, dbPath == memoryDSN); err != nil {
		return nil, fmt.Errorf("配置数据库失败: %w", err)
	}

	d := &Database{DB: db, Path: dbPath}
	if err := d.migrate(); err != nil {
		d.SafeMode = true
		d.MigrationError = err.Error()
		slog.Error("数据库迁移失败，进入安全模式", "path", dbPath, "error", err)
		return d, nil
	}
	if err := EnsureDefaultRows(db); err != nil {
		return nil, err
	}

	slog.Info("数据库初始化成功", "path", dbPath, "schema_version", d.SchemaVersion)
	return d, nil
}

func applyPragmas(db *gorm.DB, inMemory bool) error {
	if inMemory {
		// 内存库每个连接都是独立实例
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	for _, p := range sqlitePragmas {
		if err := db.Exec(p).Error; err != nil {
			return fmt.Errorf("执行 %s 失败: %w", p, err)
		}
	}
	return nil
}

// EnsureDefaultRows 写入保留的兜底分类与兜底规则（已存在则忽略）
func EnsureDefaultRows(db *gorm.DB) error {
	if err := schema.SeedDefaults(db); err != nil {
		return fmt.Errorf("写入默认分类失败: %w", err)
	}
	return nil
}

// migrate 按 schema_meta 记录的版本决定是否迁移
func (d *Database) migrate() error {
	// schema_meta 单独建，迁移失败也能留下版本记录
	if err := d.DB.AutoMigrate(&schema.SchemaMeta{}); err != nil {
		return fmt.Errorf("创建 schema_meta 失败: %w", err)
	}

	meta, err := loadSchemaMeta(d.DB)
	if err != nil {
		return err
	}
	d.SchemaVersion = meta.SchemaVersion

	switch {
	case meta.SchemaVersion > latestSchemaVersion:
		return fmt.Errorf("数据库 schema_version=%d 高于当前程序支持的版本=%d", meta.SchemaVersion, latestSchemaVersion)
	case meta.SchemaVersion == latestSchemaVersion:
		return nil
	}

	err = d.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.AutoMigrate(schema.AllModels()...); err != nil {
			return fmt.Errorf("迁移数据库失败: %w", err)
		}
		meta.SchemaVersion = latestSchemaVersion
		meta.AppVersion = buildinfo.Version
		if err := tx.Save(meta).Error; err != nil {
			return fmt.Errorf("写入 schema_meta 失败: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	d.SchemaVersion = latestSchemaVersion
	return nil
}

func loadSchemaMeta(db *gorm.DB) (*schema.SchemaMeta, error) {
	var meta schema.SchemaMeta
	err := db.First(&meta, 1).Error
	if err == nil {
		return &meta, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("读取 schema_meta 失败: %w", err)
	}
	meta = schema.SchemaMeta{ID: 1}
	if err := db.Create(&meta).Error; err != nil {
		return nil, fmt.Errorf("初始化 schema_meta 失败: %w", err)
	}
	return &meta, nil
}

// Close 关闭底层连接
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
