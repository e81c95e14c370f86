package service

import (
	"context"

	"github.com/yuqie6/TimeBudget/internal/repository"
	"github.com/yuqie6/TimeBudget/internal/schema"
)

// 仓储依赖的最小接口集合（ISP）

type ClassRepository interface {
	Create(ctx context.Context, name string) (int64, error)
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*schema.Class, error)
	List(ctx context.Context) ([]schema.Class, error)
	CreateRule(ctx context.Context, classID int64, priority int, pattern string) (int64, error)
	DeleteRule(ctx context.Context, id int64) error
	ListRules(ctx context.Context) ([]schema.ClassificationRule, error)
}

type BudgetRepository interface {
	Create(ctx context.Context, name string) (int64, error)
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*schema.Budget, error)
	List(ctx context.Context) ([]schema.Budget, error)
	SetConfig(ctx context.Context, budgetID int64, key, value string) error
	ClearConfig(ctx context.Context, budgetID int64, key string) error
	GetConfig(ctx context.Context, budgetID int64) (map[string]string, error)
	GetMappedConfigs(ctx context.Context, user string) ([]repository.MappedBudgetConfig, error)
	ListAllConfigs(ctx context.Context) ([]repository.BudgetConfigRow, error)
}

type MappingRepository interface {
	Add(ctx context.Context, user string, classID, budgetID int64) error
	Remove(ctx context.Context, user string, classID, budgetID int64) error
	GetByUser(ctx context.Context, user string) ([]schema.Mapping, error)
	ListUsers(ctx context.Context) ([]string, error)
}

type SampleRepository interface {
	AppendBatch(ctx context.Context, samples []schema.Sample) error
	GetByTimeRange(ctx context.Context, user string, from, to int64) ([]schema.Sample, error)
}

type OverrideRepository interface {
	SetMinutes(ctx context.Context, user, date string, budgetID int64, minutes int) error
	SetUnlocked(ctx context.Context, user, date string, budgetID int64) error
	Clear(ctx context.Context, user, date string, budgetID int64) error
	GetByDate(ctx context.Context, user, date string) (map[int64]schema.Override, error)
	GetSince(ctx context.Context, user, fromDate string) ([]repository.OverrideWithBudget, error)
}

type ConfigRepository interface {
	SetUser(ctx context.Context, user, key, value string) error
	ClearUser(ctx context.Context, user, key string) error
	GetUser(ctx context.Context, user string) (map[string]string, error)
	GetAllUsers(ctx context.Context) ([]schema.UserConfig, error)
	SetGlobal(ctx context.Context, key, value string) error
	ClearGlobal(ctx context.Context, key string) error
	GetGlobal(ctx context.Context) (map[string]string, error)
}
