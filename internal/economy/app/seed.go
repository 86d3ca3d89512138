package app

import (
	"context"

	"Polis/internal/economy/app/model"
	"Polis/internal/economy/domain"
	"Polis/internal/shared/gameconfig/building"

	"go.uber.org/zap"
)

// 新城市的初始库存与建筑。
var (
	StarterResources = domain.Resources{Wood: 1500, Stone: 1500, Silver: 800}
	StarterBuilding  = building.Type("senate")
)

// FoundStarterCity 为本地开发创建一座带 1 级 senate 的城市，产量按建筑完整计算。
func (s *EconomyService) FoundStarterCity(ctx context.Context, ownerID, name string) (*model.CityView, error) {
	if ownerID == "" {
		return nil, ErrReqParamERR.WithData("field", "owner_id")
	}
	if !s.catalog.Has(StarterBuilding) {
		return nil, domain.ErrInvalidType.WithData("building_type", string(StarterBuilding))
	}
	now := s.now()
	city := &domain.City{
		ID:                 s.newID(),
		OwnerID:            ownerID,
		Name:               name,
		LastResourceUpdate: now,
	}
	city.SetBalance(StarterResources)
	senate := domain.Building{ID: s.newID(), CityID: city.ID, Type: StarterBuilding, Level: 1, CreatedAt: now, UpdatedAt: now}
	city.ApplyProduction(domain.ComputeProduction(s.catalog, []domain.Building{senate}, s.settings.BasePopulation))

	err := s.store.Transaction(ctx, func(ctx context.Context, tx Store) error {
		if err := tx.CreateCity(ctx, city); err != nil {
			return err
		}
		return tx.SaveBuilding(ctx, &senate)
	})
	if err != nil {
		return nil, sysErr(ReasonSeedFail, err)
	}
	s.log.WithContext(ctx).Info("starter city founded", zap.String("city_id", city.ID), zap.String("owner_id", ownerID))
	return s.GetCityView(ctx, ownerID, city.ID)
}
