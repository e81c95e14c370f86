package service

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/yuqie6/TimeBudget/internal/repository"
	"github.com/yuqie6/TimeBudget/internal/schema"
	"github.com/yuqie6/TimeBudget/internal/testutil"
)

const testUser = "user_1"

type fixture struct {
	svc     *TimeBudgetService
	admin   *AdminService
	samples *repository.SampleRepository
	now     int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.OpenTestDB(t)
	classes := repository.NewClassRepository(db)
	budgets := repository.NewBudgetRepository(db)
	mappings := repository.NewMappingRepository(db)
	samples := repository.NewSampleRepository(db)
	overrides := repository.NewOverrideRepository(db)
	configs := repository.NewConfigRepository(db)

	f := &fixture{now: 1000, samples: samples}
	f.svc = NewTimeBudgetService(classes, budgets, mappings, samples, overrides,
		Aggregator{SessionGapSec: DefaultSessionGapSec, Location: time.UTC})
	f.svc.SetClock(func() time.Time { return time.Unix(f.now, 0) })
	f.admin = NewAdminService(classes, budgets, mappings, overrides, configs)
	return f
}

func (f *fixture) record(t *testing.T, titles ...string) {
	t.Helper()
	if _, err := f.svc.RecordSnapshot(context.Background(), testUser, f.now, titles, 0); err != nil {
		t.Fatalf("RecordSnapshot(%v): %v", titles, err)
	}
}

func (f *fixture) spent(t *testing.T) TimeSpent {
	t.Helper()
	got, err := f.svc.TimeSpentByBudgetAndDate(context.Background(), testUser, 1000, 0)
	if err != nil {
		t.Fatalf("TimeSpentByBudgetAndDate: %v", err)
	}
	return got
}

// mustID 用法: mustID(t)(f.admin.AddBudget(ctx, "b"))
func mustID(t *testing.T) func(int64, error) int64 {
	t.Helper()
	return func(id int64, err error) int64 {
		t.Helper()
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		return id
	}
}

func assertSpent(t *testing.T, got TimeSpent, want map[BudgetRef]int64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("buckets=%v, want %v", got, want)
	}
	for ref, sec := range want {
		days, ok := got[ref]
		if !ok {
			t.Fatalf("missing bucket %v in %v", ref, got)
		}
		if days["1970-01-01"] != sec {
			t.Fatalf("bucket %v=%d, want %d", ref, days["1970-01-01"], sec)
		}
	}
}

func TestTimeSpent_SingleWindowNoBudget(t *testing.T) {
	f := newFixture(t)

	if got := f.spent(t); len(got) != 0 {
		t.Fatalf("empty store got=%v", got)
	}

	f.record(t, "window 1")
	assertSpent(t, f.spent(t), map[BudgetRef]int64{NoBudget: 0})

	f.now += 5
	f.record(t, "window 1")
	assertSpent(t, f.spent(t), map[BudgetRef]int64{NoBudget: 5})

	f.now += 10
	f.record(t, "window 1")
	assertSpent(t, f.spent(t), map[BudgetRef]int64{NoBudget: 15})

	// 35 秒空档被丢弃
	f.now += 35
	f.record(t, "window 1")
	assertSpent(t, f.spent(t), map[BudgetRef]int64{NoBudget: 15})
}

func TestTimeSpent_TwoWindowsNoBudget(t *testing.T) {
	f := newFixture(t)

	f.record(t, "window 1", "window 2")
	assertSpent(t, f.spent(t), map[BudgetRef]int64{NoBudget: 0})

	f.now += 5
	f.record(t, "window 1", "window 2")
	f.now += 10
	f.record(t, "window 1", "window 2")
	assertSpent(t, f.spent(t), map[BudgetRef]int64{NoBudget: 15})

	f.now += 7
	f.record(t, "window 2")
	assertSpent(t, f.spent(t), map[BudgetRef]int64{NoBudget: 22})
}

func TestClassifyResolvesAllMappedBudgets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b1 := mustID(t)(f.admin.AddBudget(ctx, "b1"))
	b2 := mustID(t)(f.admin.AddBudget(ctx, "b2"))
	c1 := mustID(t)(f.admin.AddClass(ctx, "c1"))
	c2 := mustID(t)(f.admin.AddClass(ctx, "c2"))
	mustID(t)(f.admin.AddRule(ctx, c1, 0, "1$"))
	mustID(t)(f.admin.AddRule(ctx, c2, 10, "2$"))
	if err := f.admin.AddMapping(ctx, testUser, c1, b1); err != nil {
		t.Fatalf("AddMapping: %v", err)
	}

	check := func(want []Classification) {
		t.Helper()
		got, err := f.svc.Classify(ctx, testUser, []string{"window 0", "window 1", "window 2"})
		if err != nil {
			t.Fatalf("Classify: %v", err)
		}
		if len(got) != len(want) {
			t.Fatalf("len=%d, want %d", len(got), len(want))
		}
		for i := range want {
			if got[i].ClassID != want[i].ClassID || got[i].ClassName != want[i].ClassName || !slices.Equal(got[i].BudgetIDs, want[i].BudgetIDs) {
				t.Fatalf("row %d=%+v, want %+v", i, got[i], want[i])
			}
		}
	}

	check([]Classification{
		{ClassID: schema.DefaultClassID, ClassName: schema.DefaultClassName, BudgetIDs: []int64{}},
		{ClassID: c1, ClassName: "c1", BudgetIDs: []int64{b1}},
		{ClassID: c2, ClassName: "c2", BudgetIDs: []int64{}},
	})

	if err := f.admin.AddMapping(ctx, testUser, c1, b2); err != nil {
		t.Fatalf("AddMapping: %v", err)
	}
	if err := f.admin.AddMapping(ctx, testUser, schema.DefaultClassID, b2); err != nil {
		t.Fatalf("AddMapping: %v", err)
	}
	check([]Classification{
		{ClassID: schema.DefaultClassID, ClassName: schema.DefaultClassName, BudgetIDs: []int64{b2}},
		{ClassID: c1, ClassName: "c1", BudgetIDs: []int64{b1, b2}},
		{ClassID: c2, ClassName: "c2", BudgetIDs: []int64{}},
	})

	// 其它用户不受映射影响
	other, err := f.svc.Classify(ctx, "user_2", []string{"window 1"})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if len(other[0].BudgetIDs) != 0 {
		t.Fatalf("user_2 budgets=%v, want none", other[0].BudgetIDs)
	}
}

func TestTimeSpent_TwoWindowsWithBudgets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b1 := mustID(t)(f.admin.AddBudget(ctx, "b1"))
	b2 := mustID(t)(f.admin.AddBudget(ctx, "b2"))
	b3 := mustID(t)(f.admin.AddBudget(ctx, "b3"))
	c1 := mustID(t)(f.admin.AddClass(ctx, "c1"))
	c2 := mustID(t)(f.admin.AddClass(ctx, "c2"))
	c3 := mustID(t)(f.admin.AddClass(ctx, "c3"))
	mustID(t)(f.admin.AddRule(ctx, c1, 0, "1$"))
	mustID(t)(f.admin.AddRule(ctx, c2, 10, "2$"))
	mustID(t)(f.admin.AddRule(ctx, c3, 20, "3$"))
	// b1 <= default, c1；b2 <= c2；b3 <= c2, c3
	for _, m := range [][2]int64{{schema.DefaultClassID, b1}, {c1, b1}, {c2, b2}, {c2, b3}, {c3, b3}} {
		if err := f.admin.AddMapping(ctx, testUser, m[0], m[1]); err != nil {
			t.Fatalf("AddMapping: %v", err)
		}
	}

	if got := f.spent(t); len(got) != 0 {
		t.Fatalf("empty store got=%v", got)
	}

	f.record(t, "window 1", "window 2")
	assertSpent(t, f.spent(t), map[BudgetRef]int64{BudgetOf(b1): 0, BudgetOf(b2): 0, BudgetOf(b3): 0})

	f.now += 5
	f.record(t, "window 1", "window 2")
	assertSpent(t, f.spent(t), map[BudgetRef]int64{BudgetOf(b1): 5, BudgetOf(b2): 5, BudgetOf(b3): 5})

	f.now += 5
	f.record(t, "window 1")
	assertSpent(t, f.spent(t), map[BudgetRef]int64{BudgetOf(b1): 10, BudgetOf(b2): 5, BudgetOf(b3): 5})

	// 同一时间戳两个 c1 窗口只计一次
	f.now += 5
	f.record(t, "window 1", "another window 1")
	assertSpent(t, f.spent(t), map[BudgetRef]int64{BudgetOf(b1): 15, BudgetOf(b2): 5, BudgetOf(b3): 5})

	f.now += 10
	f.record(t, "window 1", "window 2")
	assertSpent(t, f.spent(t), map[BudgetRef]int64{BudgetOf(b1): 25, BudgetOf(b2): 15, BudgetOf(b3): 15})

	f.now += 7
	f.record(t, "window 2")
	got := f.spent(t)
	assertSpent(t, got, map[BudgetRef]int64{BudgetOf(b1): 25, BudgetOf(b2): 22, BudgetOf(b3): 22})

	refs := got.Refs()
	if !slices.Equal(refs, []BudgetRef{BudgetOf(b1), BudgetOf(b2), BudgetOf(b3)}) {
		t.Fatalf("Refs=%v", refs)
	}
}

func TestTimeSpentByTitle_SingleWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	query := func() []TitleTime {
		t.Helper()
		got, err := f.svc.TimeSpentByTitle(ctx, testUser, 1000)
		if err != nil {
			t.Fatalf("TimeSpentByTitle: %v", err)
		}
		return got
	}

	if got := query(); len(got) != 0 {
		t.Fatalf("empty got=%v", got)
	}
	f.record(t, "window 1")
	if got := query(); len(got) != 0 {
		t.Fatalf("single sample got=%v", got)
	}

	f.now += 5
	f.record(t, "window 1")
	got := query()
	if len(got) != 1 || got[0].LastSeen != f.now || got[0].Seconds != 5 || got[0].ClassName != schema.DefaultClassName || got[0].Title != "window 1" {
		t.Fatalf("got=%+v", got)
	}

	f.now += 10
	f.record(t, "window 1")
	got = query()
	if len(got) != 1 || got[0].LastSeen != f.now || got[0].Seconds != 15 {
		t.Fatalf("got=%+v", got)
	}

	// 窗口之外（次日）的记录不计入
	f.now += 86400
	f.record(t, "window 1")
	f.now += 5
	f.record(t, "window 1")
	if got := query(); got[0].Seconds != 15 {
		t.Fatalf("next day leaked into window: %+v", got)
	}
}

func TestRecordSnapshotIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.record(t, "window 1", "window 2")
	f.now += 5
	f.record(t, "window 1", "window 2")
	once := f.spent(t)

	f.record(t, "window 1", "window 2")
	twice := f.spent(t)
	if once[NoBudget]["1970-01-01"] != twice[NoBudget]["1970-01-01"] {
		t.Fatalf("duplicate snapshot changed totals: %v vs %v", once, twice)
	}

	count, err := f.samples.Count(ctx, testUser)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 4 {
		t.Fatalf("rows=%d, want 4", count)
	}
}

func TestRecordSnapshotHeartbeatAndPlaceholder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.RecordSnapshot(ctx, testUser, f.now, nil, NoFocus)
	if err != nil {
		t.Fatalf("heartbeat: %v", err)
	}
	if len(res) != 0 {
		t.Fatalf("heartbeat result=%v, want empty", res)
	}
	if got := f.spent(t); len(got) != 0 {
		t.Fatalf("heartbeat created bucket: %v", got)
	}

	f.now += 5
	res, err = f.svc.RecordSnapshot(ctx, testUser, f.now, []string{"", "x"}, 1)
	if err != nil {
		t.Fatalf("RecordSnapshot: %v", err)
	}
	if res[0].Title != schema.UntitledPlaceholder {
		t.Fatalf("empty title stored as %q", res[0].Title)
	}

	seq, err := f.svc.TitleSequence(ctx, testUser, "1970-01-01")
	if err != nil {
		t.Fatalf("TitleSequence: %v", err)
	}
	if len(seq) != 3 {
		t.Fatalf("sequence=%v", seq)
	}
	if seq[0].Timestamp != f.now || !seq[len(seq)-1].IsHeartbeat() {
		t.Fatalf("sequence not newest first: %v", seq)
	}
	focused := 0
	for _, s := range seq {
		if s.Focus {
			focused++
			if s.Title != "x" {
				t.Fatalf("focus on %q, want x", s.Title)
			}
		}
	}
	if focused != 1 {
		t.Fatalf("focused=%d, want 1", focused)
	}

	// 占位标题计时
	if got := f.spent(t); got[NoBudget]["1970-01-01"] != 5 {
		t.Fatalf("got=%v", got)
	}
}

func TestRecordSnapshotRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.RecordSnapshot(ctx, "", f.now, []string{"a"}, 0); !errors.Is(err, ErrValidation) {
		t.Fatalf("empty user err=%v", err)
	}
	if _, err := f.svc.RecordSnapshot(ctx, testUser, f.now, []string{"a"}, 3); !errors.Is(err, ErrValidation) {
		t.Fatalf("bad focus err=%v", err)
	}
	if _, err := f.svc.TitleSequence(ctx, testUser, "yesterday"); !errors.Is(err, ErrValidation) {
		t.Fatalf("bad date err=%v", err)
	}
}

func TestRecordSnapshotHeartbeatIgnoresFocusIndex(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// 客户端在没有窗口时仍带着 focus_index=0
	res, err := f.svc.RecordSnapshot(ctx, testUser, f.now, []string{}, 0)
	if err != nil {
		t.Fatalf("heartbeat with focus 0: %v", err)
	}
	if len(res) != 0 {
		t.Fatalf("heartbeat result=%v, want empty", res)
	}
	seq, err := f.svc.TitleSequence(ctx, testUser, "1970-01-01")
	if err != nil {
		t.Fatalf("TitleSequence: %v", err)
	}
	if len(seq) != 1 || !seq[0].IsHeartbeat() || seq[0].Focus {
		t.Fatalf("sequence=%v, want one heartbeat", seq)
	}

	if _, err := f.svc.RecordSnapshot(ctx, testUser, f.now+5, []string{"a"}, 1); !errors.Is(err, ErrValidation) {
		t.Fatalf("focus out of range err=%v", err)
	}
}

type failingSampleRepo struct{}

func (f *failingSampleRepo) AppendBatch(ctx context.Context, samples []schema.Sample) error {
	return errors.New("disk full")
}

func (f *failingSampleRepo) GetByTimeRange(ctx context.Context, user string, from, to int64) ([]schema.Sample, error) {
	return nil, errors.New("disk full")
}

func TestStoreFailureIsPropagated(t *testing.T) {
	db := testutil.OpenTestDB(t)
	svc := NewTimeBudgetService(
		repository.NewClassRepository(db),
		repository.NewBudgetRepository(db),
		repository.NewMappingRepository(db),
		&failingSampleRepo{},
		repository.NewOverrideRepository(db),
		Aggregator{},
	)
	ctx := context.Background()

	if _, err := svc.RecordSnapshot(ctx, testUser, 1000, []string{"a", "b"}, 0); err == nil {
		t.Fatalf("expected store error")
	}
	if _, err := svc.TimeSpentByBudgetAndDate(ctx, testUser, 0, 0); err == nil {
		t.Fatalf("expected store error")
	}
	if _, err := svc.TimeLeftToday(ctx, testUser); err == nil {
		t.Fatalf("expected store error")
	}
}

func TestTimeLeftToday(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b1 := mustID(t)(f.admin.AddBudget(ctx, "daily"))
	b2 := mustID(t)(f.admin.AddBudget(ctx, "locked"))
	b3 := mustID(t)(f.admin.AddBudget(ctx, "gone"))
	games := mustID(t)(f.admin.AddClass(ctx, "games"))
	mustID(t)(f.admin.AddRule(ctx, games, 10, "game"))
	for _, b := range []int64{b1, b2} {
		if err := f.admin.AddMapping(ctx, testUser, games, b); err != nil {
			t.Fatalf("AddMapping: %v", err)
		}
	}
	if err := f.admin.SetBudgetConfig(ctx, b1, schema.ConfigDailyLimitMinutesDefault, "60"); err != nil {
		t.Fatalf("SetBudgetConfig: %v", err)
	}
	if err := f.admin.SetBudgetConfig(ctx, b1, schema.ConfigWeeklyLimitMinutes, "70"); err != nil {
		t.Fatalf("SetBudgetConfig: %v", err)
	}
	if err := f.admin.SetBudgetConfig(ctx, b2, schema.ConfigRequireUnlock, "1"); err != nil {
		t.Fatalf("SetBudgetConfig: %v", err)
	}

	// 周一玩 20 分钟（每 10 秒一次快照）
	monday := time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC).Unix()
	for i := int64(0); i <= 120; i++ {
		f.now = monday + i*10
		f.record(t, "game")
	}
	// 周三上午 10 秒未映射活动
	wed := time.Date(2024, 5, 8, 9, 0, 0, 0, time.UTC).Unix()
	f.now = wed
	f.record(t, "browser")
	f.now = wed + 10
	f.record(t, "browser")
	f.now = time.Date(2024, 5, 8, 12, 0, 0, 0, time.UTC).Unix()

	// 已删除预算的例外不参与计算
	if err := f.admin.AddMapping(ctx, testUser, games, b3); err != nil {
		t.Fatalf("AddMapping: %v", err)
	}
	if err := f.admin.OverrideMinutes(ctx, testUser, "2024-05-08", b3, 999); err != nil {
		t.Fatalf("OverrideMinutes: %v", err)
	}
	if err := f.admin.RemoveBudget(ctx, b3); err != nil {
		t.Fatalf("RemoveBudget: %v", err)
	}

	left, err := f.svc.TimeLeftToday(ctx, testUser)
	if err != nil {
		t.Fatalf("TimeLeftToday: %v", err)
	}
	want := []BudgetLeft{
		{Budget: BudgetOf(b1), BudgetName: "daily", SecondsLeft: 3000},
		{Budget: BudgetOf(b2), BudgetName: "locked", SecondsLeft: 0},
		{Budget: NoBudget, SecondsLeft: -10},
	}
	if !slices.Equal(left, want) {
		t.Fatalf("left=%+v, want %+v", left, want)
	}

	// 解锁 + 30 分钟例外
	if err := f.admin.OverrideUnlock(ctx, testUser, "2024-05-08", b2); err != nil {
		t.Fatalf("OverrideUnlock: %v", err)
	}
	if err := f.admin.OverrideMinutes(ctx, testUser, "2024-05-08", b2, 30); err != nil {
		t.Fatalf("OverrideMinutes: %v", err)
	}
	left, err = f.svc.TimeLeftToday(ctx, testUser)
	if err != nil {
		t.Fatalf("TimeLeftToday: %v", err)
	}
	if left[1].SecondsLeft != 1800 {
		t.Fatalf("unlocked left=%d, want 1800", left[1].SecondsLeft)
	}

	recent, err := f.svc.RecentOverrides(ctx, testUser)
	if err != nil {
		t.Fatalf("RecentOverrides: %v", err)
	}
	if len(recent) != 1 || recent[0].BudgetName != "locked" || recent[0].Minutes == nil || *recent[0].Minutes != 30 {
		t.Fatalf("recent=%+v", recent)
	}

	users, err := f.svc.Users(ctx)
	if err != nil {
		t.Fatalf("Users: %v", err)
	}
	if !slices.Equal(users, []string{testUser}) {
		t.Fatalf("users=%v", users)
	}
}
