package service

import (
	"context"
	"errors"
	"testing"

	"github.com/yuqie6/TimeBudget/internal/schema"
)

func TestValidateBudgetConfig(t *testing.T) {
	t.Parallel()

	cases := []struct {
		key, value string
		ok         bool
	}{
		{key: schema.ConfigRequireUnlock, value: "1", ok: true},
		{key: schema.ConfigRequireUnlock, value: "yes", ok: false},
		{key: schema.ConfigDailyLimitMinutesDefault, value: "60", ok: true},
		{key: "daily_limit_minutes_sat", value: " 90 ", ok: true},
		{key: "daily_limit_minutes_xyz", value: "90", ok: false},
		{key: schema.ConfigWeeklyLimitMinutes, value: "-1", ok: false},
		{key: schema.ConfigWeeklyLimitMinutes, value: "300", ok: true},
		{key: "color", value: "red", ok: false},
	}
	for _, c := range cases {
		err := ValidateBudgetConfig(c.key, c.value)
		if c.ok && err != nil {
			t.Fatalf("ValidateBudgetConfig(%s=%s) err=%v", c.key, c.value, err)
		}
		if !c.ok && !errors.Is(err, ErrValidation) {
			t.Fatalf("ValidateBudgetConfig(%s=%s) err=%v, want ErrValidation", c.key, c.value, err)
		}
	}
}

func TestAdminServiceGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.admin.RemoveClass(ctx, schema.DefaultClassID); !errors.Is(err, ErrValidation) {
		t.Fatalf("remove default class err=%v", err)
	}
	if err := f.admin.RemoveRule(ctx, schema.DefaultRuleID); !errors.Is(err, ErrValidation) {
		t.Fatalf("remove default rule err=%v", err)
	}
	if _, err := f.admin.AddClass(ctx, "  "); !errors.Is(err, ErrValidation) {
		t.Fatalf("blank class err=%v", err)
	}
	if _, err := f.admin.AddRule(ctx, schema.DefaultClassID, 1, "(oops"); !errors.Is(err, ErrValidation) {
		t.Fatalf("bad regex err=%v", err)
	}
	if _, err := f.admin.AddRule(ctx, 404, 1, "ok"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing class err=%v", err)
	}
	if err := f.admin.AddMapping(ctx, testUser, schema.DefaultClassID, 404); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing budget err=%v", err)
	}
	if err := f.admin.SetBudgetConfig(ctx, 404, schema.ConfigRequireUnlock, "1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("config on missing budget err=%v", err)
	}
	if err := f.admin.RemoveBudget(ctx, 404); !errors.Is(err, ErrNotFound) {
		t.Fatalf("remove missing budget err=%v", err)
	}

	b := mustID(t)(f.admin.AddBudget(ctx, "b"))
	if err := f.admin.OverrideMinutes(ctx, testUser, "2024-13-01", b, 10); !errors.Is(err, ErrValidation) {
		t.Fatalf("bad date err=%v", err)
	}
	if err := f.admin.OverrideMinutes(ctx, testUser, "2024-05-01", b, -1); !errors.Is(err, ErrValidation) {
		t.Fatalf("negative minutes err=%v", err)
	}
	if err := f.admin.SetUserConfig(ctx, testUser, "", "v"); !errors.Is(err, ErrValidation) {
		t.Fatalf("blank key err=%v", err)
	}
}

func TestAdminServiceRemoveClassDropsRulesAndMappings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c := mustID(t)(f.admin.AddClass(ctx, "games"))
	b := mustID(t)(f.admin.AddBudget(ctx, "b"))
	mustID(t)(f.admin.AddRule(ctx, c, 5, "game"))
	if err := f.admin.AddMapping(ctx, testUser, c, b); err != nil {
		t.Fatalf("AddMapping: %v", err)
	}

	if err := f.admin.RemoveClass(ctx, c); err != nil {
		t.Fatalf("RemoveClass: %v", err)
	}

	res, err := f.svc.Classify(ctx, testUser, []string{"game"})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if res[0].ClassID != schema.DefaultClassID {
		t.Fatalf("class=%d, want default", res[0].ClassID)
	}
	mappings, err := f.admin.ListMappings(ctx, testUser)
	if err != nil {
		t.Fatalf("ListMappings: %v", err)
	}
	if len(mappings) != 0 {
		t.Fatalf("mappings=%v, want none", mappings)
	}
}

func TestAdminServiceConfigs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.admin.SetGlobalConfig(ctx, schema.GlobalConfigLogLevel, "debug"); err != nil {
		t.Fatalf("SetGlobalConfig: %v", err)
	}
	global, err := f.admin.GetGlobalConfig(ctx)
	if err != nil || global[schema.GlobalConfigLogLevel] != "debug" {
		t.Fatalf("global=%v err=%v", global, err)
	}

	if err := f.admin.SetUserConfig(ctx, testUser, "note", "hi"); err != nil {
		t.Fatalf("SetUserConfig: %v", err)
	}
	all, err := f.admin.ListUserConfigs(ctx)
	if err != nil || len(all) != 1 || all[0].User != testUser {
		t.Fatalf("all=%v err=%v", all, err)
	}

	b := mustID(t)(f.admin.AddBudget(ctx, "b"))
	if err := f.admin.SetBudgetConfig(ctx, b, schema.ConfigDailyLimitMinutesDefault, "45"); err != nil {
		t.Fatalf("SetBudgetConfig: %v", err)
	}
	rows, err := f.admin.ListBudgetConfigs(ctx)
	if err != nil || len(rows) != 1 || rows[0].BudgetName != "b" || rows[0].Value != "45" {
		t.Fatalf("rows=%v err=%v", rows, err)
	}
	if err := f.admin.ClearBudgetConfig(ctx, b, schema.ConfigDailyLimitMinutesDefault); err != nil {
		t.Fatalf("ClearBudgetConfig: %v", err)
	}
	cfg, err := f.admin.GetBudgetConfig(ctx, b)
	if err != nil || len(cfg) != 0 {
		t.Fatalf("cfg=%v err=%v", cfg, err)
	}
}

func TestAdminServiceRejectsBadGlobalLogLevel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.admin.SetGlobalConfig(ctx, schema.GlobalConfigLogLevel, "loud"); !errors.Is(err, ErrValidation) {
		t.Fatalf("bad log_level err=%v", err)
	}
	if err := f.admin.SetGlobalConfig(ctx, schema.GlobalConfigLogLevel, "debug"); err != nil {
		t.Fatalf("SetGlobalConfig: %v", err)
	}
	got, err := f.admin.GetGlobalConfig(ctx)
	if err != nil || got[schema.GlobalConfigLogLevel] != "debug" {
		t.Fatalf("global=%v err=%v", got, err)
	}
}
