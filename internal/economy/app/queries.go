package app

import (
	"context"
	"sort"
	"time"

	"Polis/internal/economy/app/model"
	"Polis/internal/economy/domain"
)

// GetCityView 返回结算到当前时间的城市快照。
func (s *EconomyService) GetCityView(ctx context.Context, callerID, cityID string) (*model.CityView, error) {
	city, err := s.ownedCity(ctx, callerID, cityID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if city, err = s.accrueAndSave(ctx, city, now); err != nil {
		return nil, err
	}
	bs, err := s.store.ListBuildings(ctx, cityID)
	if err != nil {
		return nil, sysErr(ReasonCityRepoUnavailable, err)
	}
	open, err := s.store.ListOpenEntries(ctx, cityID)
	if err != nil {
		return nil, sysErr(ReasonQueueRepoUnavailable, err)
	}

	view := &model.CityView{
		ID:                 city.ID,
		Name:               city.Name,
		Resources:          city.Balance(),
		Rates:              city.Rates(),
		ResourceCap:        s.settings.Accrual.Cap,
		PopulationCapacity: city.PopulationCapacity,
		PopulationUsed:     city.PopulationUsed,
		LastResourceUpdate: city.LastResourceUpdate,
		Buildings:          s.buildingViews(bs),
		Queue:              s.projectQueue(cityID, open, now),
	}
	return view, nil
}

// GetQueueStatus 返回城市的未完成队列，按开始时间排序。
func (s *EconomyService) GetQueueStatus(ctx context.Context, callerID, cityID string) (*model.QueueStatus, error) {
	if _, err := s.ownedCity(ctx, callerID, cityID); err != nil {
		return nil, err
	}
	open, err := s.store.ListOpenEntries(ctx, cityID)
	if err != nil {
		return nil, sysErr(ReasonQueueRepoUnavailable, err)
	}
	st := s.projectQueue(cityID, open, s.now())
	return &st, nil
}

// RecentCompletions 列出窗口内完成的队列项，最新的在前。window <= 0 时用配置值。
func (s *EconomyService) RecentCompletions(ctx context.Context, callerID, cityID string, window time.Duration) ([]model.QueueItem, error) {
	if _, err := s.ownedCity(ctx, callerID, cityID); err != nil {
		return nil, err
	}
	if window <= 0 {
		window = s.settings.CompletionWindow
	}
	now := s.now()
	done, err := s.store.ListCompletedSince(ctx, cityID, now.Add(-window))
	if err != nil {
		return nil, sysErr(ReasonQueueRepoUnavailable, err)
	}
	sort.SliceStable(done, func(i, j int) bool {
		return completedAt(done[i]).After(completedAt(done[j]))
	})
	items := make([]model.QueueItem, 0, len(done))
	for _, e := range done {
		items = append(items, model.NewQueueItem(e, now))
	}
	return items, nil
}

// ListActiveQueue 列出调用者所有城市的未完成队列项，按完成时间排序。
func (s *EconomyService) ListActiveQueue(ctx context.Context, callerID string) ([]model.QueueItem, error) {
	cities, err := s.store.ListCitiesByOwner(ctx, callerID)
	if err != nil {
		return nil, sysErr(ReasonCityRepoUnavailable, err)
	}
	if len(cities) == 0 {
		return []model.QueueItem{}, nil
	}
	names := make(map[string]string, len(cities))
	ids := make([]string, 0, len(cities))
	for _, c := range cities {
		names[c.ID] = c.Name
		ids = append(ids, c.ID)
	}
	open, err := s.store.ListOpenEntriesByCities(ctx, ids)
	if err != nil {
		return nil, sysErr(ReasonQueueRepoUnavailable, err)
	}
	sort.SliceStable(open, func(i, j int) bool {
		if !open[i].CompletesAt.Equal(open[j].CompletesAt) {
			return open[i].CompletesAt.Before(open[j].CompletesAt)
		}
		return open[i].ID < open[j].ID
	})
	now := s.now()
	items := make([]model.QueueItem, 0, len(open))
	for _, e := range open {
		item := model.NewQueueItem(e, now)
		item.CityName = names[e.CityID]
		items = append(items, item)
	}
	return items, nil
}

// CheckDue 检查调用者的城市是否有到期未结算的队列项，有则触发一次 tick。
func (s *EconomyService) CheckDue(ctx context.Context, callerID string) (*model.DueCheck, error) {
	cities, err := s.store.ListCitiesByOwner(ctx, callerID)
	if err != nil {
		return nil, sysErr(ReasonCityRepoUnavailable, err)
	}
	ids := make([]string, 0, len(cities))
	for _, c := range cities {
		ids = append(ids, c.ID)
	}
	if len(ids) == 0 {
		return &model.DueCheck{}, nil
	}
	open, err := s.store.ListOpenEntriesByCities(ctx, ids)
	if err != nil {
		return nil, sysErr(ReasonQueueRepoUnavailable, err)
	}
	now := s.now()
	due := false
	for i := range open {
		if open[i].Due(now) {
			due = true
			break
		}
	}
	if !due || s.ticks == nil {
		return &model.DueCheck{Due: due}, nil
	}
	report, err := s.ticks.RunTick(ctx, now, model.TriggerCheck)
	if err != nil {
		return nil, err
	}
	return &model.DueCheck{Due: true, Report: &report}, nil
}

// projectQueue 把 pending 项的预计时间接在前一项之后重新推算，不写库。
func (s *EconomyService) projectQueue(cityID string, open []domain.QueueEntry, now time.Time) model.QueueStatus {
	domain.SortQueue(open)
	tail := now
	if a := domain.ActiveEntry(open); a != nil && a.CompletesAt.After(now) {
		tail = a.CompletesAt
	}
	items := make([]model.QueueItem, 0, len(open))
	for i, e := range open {
		if e.Status == domain.StatusPending {
			e.StartedAt = tail
			e.CompletesAt = tail.Add(e.Duration())
			tail = e.CompletesAt
		}
		item := model.NewQueueItem(e, now)
		item.Position = i + 1
		items = append(items, item)
	}
	return model.QueueStatus{
		CityID:   cityID,
		Capacity: s.settings.Admission.QueueCapacity,
		Occupied: len(open),
		Entries:  items,
	}
}

func (s *EconomyService) buildingViews(bs []domain.Building) []model.BuildingView {
	out := make([]model.BuildingView, 0, len(bs))
	for _, b := range bs {
		v := model.BuildingView{ID: b.ID, Type: string(b.Type), Level: b.Level}
		if def, err := s.catalog.Get(b.Type); err == nil {
			v.Name = def.Name
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}

func completedAt(e domain.QueueEntry) time.Time {
	if e.CompletedAt != nil {
		return *e.CompletedAt
	}
	return e.CompletesAt
}
