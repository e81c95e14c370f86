package httpapi

import (
	"strconv"
	"time"

	"github.com/yuqie6/TimeBudget/internal/dto"
	"github.com/yuqie6/TimeBudget/internal/repository"
	"github.com/yuqie6/TimeBudget/internal/schema"
	"github.com/yuqie6/TimeBudget/internal/service"
)

const timeLayout = "2006-01-02 15:04:05"

func budgetIDPtr(ref service.BudgetRef) *int64 {
	id, ok := ref.ID()
	if !ok {
		return nil
	}
	return &id
}

func toClassificationDTOs(in []service.Classification) []dto.ClassificationDTO {
	out := make([]dto.ClassificationDTO, 0, len(in))
	for _, c := range in {
		ids := c.BudgetIDs
		if ids == nil {
			ids = []int64{}
		}
		out = append(out, dto.ClassificationDTO{
			Title:     c.Title,
			ClassID:   c.ClassID,
			ClassName: c.ClassName,
			BudgetIDs: ids,
		})
	}
	return out
}

// toBudgetTimeSpentDTOs 按预算全序输出，无预算桶排最后
func toBudgetTimeSpentDTOs(spent service.TimeSpent) []dto.BudgetTimeSpentDTO {
	refs := spent.Refs()
	out := make([]dto.BudgetTimeSpentDTO, 0, len(refs))
	for _, ref := range refs {
		out = append(out, dto.BudgetTimeSpentDTO{
			BudgetID: budgetIDPtr(ref),
			Days:     spent[ref],
		})
	}
	return out
}

func toTitleTimeDTOs(in []service.TitleTime, loc *time.Location) []dto.TitleTimeDTO {
	out := make([]dto.TitleTimeDTO, 0, len(in))
	for _, t := range in {
		out = append(out, dto.TitleTimeDTO{
			LastSeen:   t.LastSeen,
			LastSeenAt: time.Unix(t.LastSeen, 0).In(loc).Format(timeLayout),
			Seconds:    t.Seconds,
			ClassName:  t.ClassName,
			Title:      t.Title,
		})
	}
	return out
}

func toBudgetLeftDTOs(in []service.BudgetLeft) []dto.BudgetLeftDTO {
	out := make([]dto.BudgetLeftDTO, 0, len(in))
	for _, b := range in {
		out = append(out, dto.BudgetLeftDTO{
			BudgetID:    budgetIDPtr(b.Budget),
			BudgetName:  b.BudgetName,
			SecondsLeft: b.SecondsLeft,
		})
	}
	return out
}

func toSampleDTOs(in []service.SequenceEntry, loc *time.Location) []dto.SampleDTO {
	out := make([]dto.SampleDTO, 0, len(in))
	for _, s := range in {
		out = append(out, dto.SampleDTO{
			Timestamp: s.Timestamp,
			Time:      time.Unix(s.Timestamp, 0).In(loc).Format(timeLayout),
			ClassID:   s.ClassID,
			ClassName: s.ClassName,
			Focus:     s.Focus,
			Title:     s.Title,
		})
	}
	return out
}

func toOverrideDTOs(in []repository.OverrideWithBudget) []dto.OverrideDTO {
	out := make([]dto.OverrideDTO, 0, len(in))
	for _, o := range in {
		row := dto.OverrideDTO{
			Date:       o.Date,
			BudgetID:   o.BudgetID,
			BudgetName: o.BudgetName,
			Minutes:    "default",
			Unlocked:   "default",
		}
		if o.Minutes != nil {
			row.Minutes = strconv.Itoa(*o.Minutes)
		}
		if o.Unlocked != nil {
			row.Unlocked = strconv.FormatBool(*o.Unlocked)
		}
		out = append(out, row)
	}
	return out
}

func toClassDTOs(in []schema.Class) []dto.ClassDTO {
	out := make([]dto.ClassDTO, 0, len(in))
	for _, c := range in {
		out = append(out, dto.ClassDTO{ID: c.ID, Name: c.Name})
	}
	return out
}

func toRuleDTOs(in []schema.ClassificationRule) []dto.RuleDTO {
	out := make([]dto.RuleDTO, 0, len(in))
	for _, r := range in {
		out = append(out, dto.RuleDTO{ID: r.ID, ClassID: r.ClassID, Priority: r.Priority, Pattern: r.Pattern})
	}
	return out
}

func toBudgetDTOs(in []schema.Budget) []dto.BudgetDTO {
	out := make([]dto.BudgetDTO, 0, len(in))
	for _, b := range in {
		out = append(out, dto.BudgetDTO{ID: b.ID, Name: b.Name})
	}
	return out
}

func toBudgetConfigDTOs(in []repository.BudgetConfigRow) []dto.BudgetConfigDTO {
	out := make([]dto.BudgetConfigDTO, 0, len(in))
	for _, c := range in {
		out = append(out, dto.BudgetConfigDTO{
			BudgetID:   c.BudgetID,
			BudgetName: c.BudgetName,
			Key:        c.Key,
			Value:      c.Value,
		})
	}
	return out
}

func toMappingDTOs(in []schema.Mapping) []dto.MappingDTO {
	out := make([]dto.MappingDTO, 0, len(in))
	for _, m := range in {
		out = append(out, dto.MappingDTO{ClassID: m.ClassID, BudgetID: m.BudgetID})
	}
	return out
}
