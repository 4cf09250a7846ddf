package db

import (
	"errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// 商店价位档次
const (
	PriceLevelBudget  = "budget"
	PriceLevelMid     = "mid"
	PriceLevelPremium = "premium"
)

// Store 描述一家候选商店
// OpeningHours 以星期缩写为键（mon..sun），值形如 "08:00-22:00"，空值视为歇业
// Rating 为可选的用户评分
type Store struct {
	gorm.Model
	Name         string `gorm:"size:100;not null"`
	Address      string
	Lat          float64
	Lng          float64
	PriceLevel   string
	Rating       *float64
	OpeningHours datatypes.JSONMap
	Prices       []StorePrice `gorm:"foreignKey:StoreID"`
}

// StorePrice 记录某商店在售商品的单价
// StoreID + ItemName 唯一，商品未出现在表中即视为无货
type StorePrice struct {
	gorm.Model
	StoreID   uint   `gorm:"index;index:idx_store_item_unique,unique"`
	Store     Store  `gorm:"constraint:OnDelete:CASCADE"`
	ItemName  string `gorm:"size:100;index:idx_store_item_unique,unique"`
	UnitPrice float64
}

// SeedStores 幂等地写入默认商店目录，已有数据时不做任何事
func SeedStores() error {
	if DB == nil {
		return errors.New("database not initialized")
	}

	var count int64
	if err := DB.Model(&Store{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	weekHours := func(hours string) datatypes.JSONMap {
		m := datatypes.JSONMap{}
		for _, day := range []string{"mon", "tue", "wed", "thu", "fri", "sat", "sun"} {
			m[day] = hours
		}
		return m
	}

	rating := func(v float64) *float64 { return &v }

	stores := []Store{
		{
			Name:         "平价超市",
			Address:      "幸福路 12 号",
			Lat:          31.2304,
			Lng:          121.4737,
			PriceLevel:   PriceLevelBudget,
			Rating:       rating(4.1),
			OpeningHours: weekHours("08:00-22:00"),
			Prices: []StorePrice{
				{ItemName: "牛奶", UnitPrice: 2.2},
				{ItemName: "鸡蛋", UnitPrice: 1.5},
				{ItemName: "面包", UnitPrice: 2.8},
				{ItemName: "大米", UnitPrice: 3.6},
			},
		},
		{
			Name:         "街角便利店",
			Address:      "梧桐街 3 号",
			Lat:          31.2355,
			Lng:          121.4801,
			PriceLevel:   PriceLevelMid,
			Rating:       rating(3.8),
			OpeningHours: weekHours("07:00-23:00"),
			Prices: []StorePrice{
				{ItemName: "牛奶", UnitPrice: 2.9},
				{ItemName: "面包", UnitPrice: 2.5},
				{ItemName: "咖啡豆", UnitPrice: 9.8},
			},
		},
		{
			Name:         "精选食材店",
			Address:      "湖滨道 88 号",
			Lat:          31.2210,
			Lng:          121.4650,
			PriceLevel:   PriceLevelPremium,
			Rating:       rating(4.6),
			OpeningHours: weekHours("10:00-20:00"),
			Prices: []StorePrice{
				{ItemName: "咖啡豆", UnitPrice: 8.9},
				{ItemName: "橄榄油", UnitPrice: 12.5},
				{ItemName: "鸡蛋", UnitPrice: 2.4},
			},
		},
	}

	return DB.Create(&stores).Error
}
