package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuqie6/TimeBudget/internal/pkg/buildinfo"
	"github.com/yuqie6/TimeBudget/internal/schema"
	"github.com/yuqie6/TimeBudget/internal/testutil"
)

func TestSampleRepository_AppendBatchIsIdempotent(t *testing.T) {
	db := testutil.OpenTestDB(t)
	repo := NewSampleRepository(db)
	ctx := context.Background()

	batch := []schema.Sample{
		{User: "u", Timestamp: 100, ClassID: 1, Focus: true, Title: "a"},
		{User: "u", Timestamp: 100, ClassID: 1, Focus: false, Title: "b"},
	}
	require.NoError(t, repo.AppendBatch(ctx, batch))
	require.NoError(t, repo.AppendBatch(ctx, batch))

	count, err := repo.Count(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestSampleRepository_GetByTimeRange(t *testing.T) {
	db := testutil.OpenTestDB(t)
	repo := NewSampleRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.AppendBatch(ctx, []schema.Sample{
		{User: "u", Timestamp: 30, ClassID: 1, Title: "c"},
		{User: "u", Timestamp: 10, ClassID: 1, Title: "a"},
		{User: "u", Timestamp: 20, ClassID: 1, Title: "b"},
		{User: "other", Timestamp: 15, ClassID: 1, Title: "x"},
	}))

	got, err := repo.GetByTimeRange(ctx, "u", 10, 30)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(10), got[0].Timestamp)
	assert.Equal(t, int64(20), got[1].Timestamp)

	open, err := repo.GetByTimeRange(ctx, "u", 15, 0)
	require.NoError(t, err)
	require.Len(t, open, 2)
	assert.Equal(t, "b", open[0].Title)
	assert.Equal(t, "c", open[1].Title)
}

func TestBudgetRepository_GetMappedConfigs(t *testing.T) {
	db := testutil.OpenTestDB(t)
	budgets := NewBudgetRepository(db)
	classes := NewClassRepository(db)
	mappings := NewMappingRepository(db)
	ctx := context.Background()

	classID, err := classes.Create(ctx, "games")
	require.NoError(t, err)
	b1, err := budgets.Create(ctx, "b1")
	require.NoError(t, err)
	b2, err := budgets.Create(ctx, "b2")
	require.NoError(t, err)
	_, err = budgets.Create(ctx, "unmapped")
	require.NoError(t, err)

	require.NoError(t, mappings.Add(ctx, "u", classID, b2))
	require.NoError(t, mappings.Add(ctx, "u", classID, b1))
	require.NoError(t, mappings.Add(ctx, "u", classID, b1))
	require.NoError(t, budgets.SetConfig(ctx, b1, schema.ConfigDailyLimitMinutesDefault, "10"))
	require.NoError(t, budgets.SetConfig(ctx, b1, schema.ConfigDailyLimitMinutesDefault, "20"))

	got, err := budgets.GetMappedConfigs(ctx, "u")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, b1, got[0].Budget.ID)
	assert.Equal(t, "20", got[0].Config[schema.ConfigDailyLimitMinutesDefault])
	assert.Equal(t, b2, got[1].Budget.ID)
	assert.Empty(t, got[1].Config)

	none, err := budgets.GetMappedConfigs(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)

	users, err := mappings.ListUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"u"}, users)

	rows, err := budgets.ListAllConfigs(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "b1", rows[0].BudgetName)
	assert.Equal(t, "20", rows[0].Value)
}

func TestBudgetRepository_DeleteCascades(t *testing.T) {
	db := testutil.OpenTestDB(t)
	budgets := NewBudgetRepository(db)
	mappings := NewMappingRepository(db)
	overrides := NewOverrideRepository(db)
	ctx := context.Background()

	id, err := budgets.Create(ctx, "b")
	require.NoError(t, err)
	require.NoError(t, mappings.Add(ctx, "u", schema.DefaultClassID, id))
	require.NoError(t, budgets.SetConfig(ctx, id, schema.ConfigRequireUnlock, "1"))
	require.NoError(t, overrides.SetUnlocked(ctx, "u", "2024-01-01", id))

	require.NoError(t, budgets.Delete(ctx, id))

	b, err := budgets.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, b)
	m, err := mappings.GetByUser(ctx, "u")
	require.NoError(t, err)
	assert.Empty(t, m)
	o, err := overrides.GetByDate(ctx, "u", "2024-01-01")
	require.NoError(t, err)
	assert.Empty(t, o)
}

func TestClassRepository_RulesAndDelete(t *testing.T) {
	db := testutil.OpenTestDB(t)
	classes := NewClassRepository(db)
	ctx := context.Background()

	id, err := classes.Create(ctx, "work")
	require.NoError(t, err)
	_, err = classes.CreateRule(ctx, id, 5, "editor")
	require.NoError(t, err)

	rules, err := classes.ListRules(ctx)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, 5, rules[0].Priority)
	assert.Equal(t, schema.DefaultRuleID, rules[1].ID)

	require.NoError(t, classes.Delete(ctx, id))
	rules, err = classes.ListRules(ctx)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, schema.DefaultRuleID, rules[0].ID)
}

func TestOverrideRepository_FieldsAreIndependent(t *testing.T) {
	db := testutil.OpenTestDB(t)
	budgets := NewBudgetRepository(db)
	overrides := NewOverrideRepository(db)
	ctx := context.Background()

	id, err := budgets.Create(ctx, "b")
	require.NoError(t, err)

	require.NoError(t, overrides.SetMinutes(ctx, "u", "2024-03-04", id, 42))
	require.NoError(t, overrides.SetUnlocked(ctx, "u", "2024-03-04", id))
	require.NoError(t, overrides.SetMinutes(ctx, "u", "2024-03-04", id, 43))

	row, err := overrides.Get(ctx, "u", "2024-03-04", id)
	require.NoError(t, err)
	require.NotNil(t, row)
	require.NotNil(t, row.Minutes)
	require.NotNil(t, row.Unlocked)
	assert.Equal(t, 43, *row.Minutes)
	assert.True(t, *row.Unlocked)

	since, err := overrides.GetSince(ctx, "u", "2024-03-01")
	require.NoError(t, err)
	require.Len(t, since, 1)
	assert.Equal(t, "b", since[0].BudgetName)

	later, err := overrides.GetSince(ctx, "u", "2024-03-05")
	require.NoError(t, err)
	assert.Empty(t, later)

	require.NoError(t, overrides.Clear(ctx, "u", "2024-03-04", id))
	row, err = overrides.Get(ctx, "u", "2024-03-04", id)
	require.NoError(t, err)
	assert.Nil(t, row)
}

func TestConfigRepository_UserAndGlobal(t *testing.T) {
	db := testutil.OpenTestDB(t)
	repo := NewConfigRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.SetUser(ctx, "u", "theme", "dark"))
	require.NoError(t, repo.SetUser(ctx, "u", "theme", "light"))
	require.NoError(t, repo.SetGlobal(ctx, schema.GlobalConfigLogLevel, "debug"))

	user, err := repo.GetUser(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"theme": "light"}, user)

	global, err := repo.GetGlobal(ctx)
	require.NoError(t, err)
	assert.Equal(t, "debug", global[schema.GlobalConfigLogLevel])

	require.NoError(t, repo.ClearUser(ctx, "u", "theme"))
	require.NoError(t, repo.ClearGlobal(ctx, schema.GlobalConfigLogLevel))
	all, err := repo.GetAllUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
	global, err = repo.GetGlobal(ctx)
	require.NoError(t, err)
	assert.Empty(t, global)
}

func TestDayRange(t *testing.T) {
	start, end, err := DayRange("2024-01-02", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, int64(86400), end-start)

	_, _, err = DayRange("not-a-date", nil)
	assert.Error(t, err)
}

func TestNewDatabase_MigratesAndSeeds(t *testing.T) {
	d, err := NewDatabase(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	require.False(t, d.SafeMode, d.MigrationError)
	assert.Equal(t, latestSchemaVersion, d.SchemaVersion)

	var meta schema.SchemaMeta
	require.NoError(t, d.DB.First(&meta, 1).Error)
	assert.Equal(t, buildinfo.Version, meta.AppVersion)

	var classes int64
	require.NoError(t, d.DB.Model(&schema.Class{}).Count(&classes).Error)
	assert.Equal(t, int64(1), classes)

	rules, err := NewClassRepository(d.DB).ListRules(context.Background())
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, schema.DefaultRuleID, rules[0].ID)
	assert.Equal(t, schema.DefaultClassID, rules[0].ClassID)
	assert.Equal(t, schema.DefaultRulePattern, rules[0].Pattern)

	// 再次迁移不重复写入
	require.NoError(t, d.migrate())
	require.NoError(t, EnsureDefaultRows(d.DB))
	require.NoError(t, d.DB.Model(&schema.Class{}).Count(&classes).Error)
	assert.Equal(t, int64(1), classes)
	var ruleCount int64
	require.NoError(t, d.DB.Model(&schema.ClassificationRule{}).Count(&ruleCount).Error)
	assert.Equal(t, int64(1), ruleCount)
}

func TestNewDatabase_NewerSchemaEntersSafeMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tb.db")
	d, err := NewDatabase(path)
	require.NoError(t, err)
	require.NoError(t, d.DB.Model(&schema.SchemaMeta{}).Where("id = ?", 1).
		Update("schema_version", latestSchemaVersion+1).Error)
	require.NoError(t, d.Close())

	d, err = NewDatabase(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	assert.True(t, d.SafeMode)
	assert.NotEmpty(t, d.MigrationError)
	assert.Equal(t, latestSchemaVersion+1, d.SchemaVersion)
}
