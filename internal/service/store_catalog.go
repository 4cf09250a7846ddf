package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/daypilot/internal/db"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrStoreInvalid 在商店录入数据不完整时返回
var ErrStoreInvalid = errors.New("invalid store input")

// StoreCatalogService 维护候选商店目录并向优化器提供 StoreOption 视图
type StoreCatalogService struct {
	db *gorm.DB
}

// NewStoreCatalogService 构造 StoreCatalogService
func NewStoreCatalogService(gdb *gorm.DB) *StoreCatalogService {
	return &StoreCatalogService{db: gdb}
}

// StoreInput 定义创建商店时可配置字段
type StoreInput struct {
	Name         string             `json:"name"`
	Address      string             `json:"address"`
	Lat          float64            `json:"lat"`
	Lng          float64            `json:"lng"`
	PriceLevel   string             `json:"price_level"`
	Rating       *float64           `json:"rating"`
	OpeningHours map[string]string  `json:"opening_hours"`
	Prices       map[string]float64 `json:"prices"`
}

// List 返回目录中全部商店，含在售单价
func (s *StoreCatalogService) List() ([]db.Store, error) {
	var stores []db.Store
	if err := s.db.Preload("Prices").Order("id ASC").Find(&stores).Error; err != nil {
		return nil, fmt.Errorf("list stores: %w", err)
	}
	return stores, nil
}

// Create 新建商店及其价目
func (s *StoreCatalogService) Create(input StoreInput) (*db.Store, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrStoreInvalid)
	}
	level := strings.TrimSpace(strings.ToLower(input.PriceLevel))
	switch level {
	case db.PriceLevelBudget, db.PriceLevelMid, db.PriceLevelPremium:
	default:
		return nil, fmt.Errorf("%w: unsupported price level %s", ErrStoreInvalid, input.PriceLevel)
	}

	hours := datatypes.JSONMap{}
	for day, span := range input.OpeningHours {
		hours[strings.ToLower(strings.TrimSpace(day))] = span
	}

	store := db.Store{
		Name:         strings.TrimSpace(input.Name),
		Address:      strings.TrimSpace(input.Address),
		Lat:          input.Lat,
		Lng:          input.Lng,
		PriceLevel:   level,
		Rating:       input.Rating,
		OpeningHours: hours,
	}
	for name, price := range input.Prices {
		store.Prices = append(store.Prices, db.StorePrice{ItemName: strings.TrimSpace(name), UnitPrice: price})
	}

	if err := s.db.Create(&store).Error; err != nil {
		return nil, fmt.Errorf("create store: %w", err)
	}
	return &store, nil
}

// Options 将目录映射为优化器输入
func (s *StoreCatalogService) Options() ([]StoreOption, error) {
	stores, err := s.List()
	if err != nil {
		return nil, err
	}

	options := make([]StoreOption, 0, len(stores))
	for _, store := range stores {
		option := StoreOption{
			ID:         store.ID,
			Name:       store.Name,
			Location:   GeoPoint{Lat: store.Lat, Lng: store.Lng},
			PriceLevel: store.PriceLevel,
			Rating:     store.Rating,
			Prices:     make(map[string]float64, len(store.Prices)),
		}
		if len(store.OpeningHours) > 0 {
			option.OpeningHours = make(map[string]string, len(store.OpeningHours))
			for day, span := range store.OpeningHours {
				if text, ok := span.(string); ok {
					option.OpeningHours[day] = text
				}
			}
		}
		for _, price := range store.Prices {
			option.Prices[price.ItemName] = price.UnitPrice
		}
		options = append(options, option)
	}
	return options, nil
}
