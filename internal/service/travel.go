package service

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// 支持的出行方式
const (
	TravelWalk  = "walk"
	TravelBike  = "bike"
	TravelBus   = "bus"
	TravelDrive = "drive"
)

// ErrUnknownTravelMethod 在出行方式不受支持时返回
var ErrUnknownTravelMethod = errors.New("unknown travel method")

// GeoPoint 表示一个经纬度坐标
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// TravelLookup 抽象外部路程时长服务，便于注入测试桩或真实地图 API
type TravelLookup interface {
	Estimate(origin, dest GeoPoint, method string) (int, error)
}

// HaversineTravelEstimator 是默认的路程估算实现：
// 球面距离除以方式均速，再加方式固定开销（如候车）
type HaversineTravelEstimator struct {
	speedKmh map[string]float64
	overhead map[string]int
}

// NewHaversineTravelEstimator 构造带默认速度表的估算器
func NewHaversineTravelEstimator() *HaversineTravelEstimator {
	return &HaversineTravelEstimator{
		speedKmh: map[string]float64{
			TravelWalk:  4.5,
			TravelBike:  15,
			TravelBus:   20,
			TravelDrive: 32,
		},
		overhead: map[string]int{
			TravelWalk:  0,
			TravelBike:  2,
			TravelBus:   8,
			TravelDrive: 5,
		},
	}
}

// Estimate 返回以分钟计的路程时长，向上取整
func (e *HaversineTravelEstimator) Estimate(origin, dest GeoPoint, method string) (int, error) {
	method = strings.TrimSpace(strings.ToLower(method))
	speed, ok := e.speedKmh[method]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownTravelMethod, method)
	}

	km := haversineKm(origin, dest)
	minutes := int(math.Ceil(km / speed * 60))
	return minutes + e.overhead[method], nil
}

// haversineKm 计算两坐标间的球面距离（公里）
func haversineKm(a, b GeoPoint) float64 {
	const earthRadiusKm = 6371.0

	latA := a.Lat * math.Pi / 180
	latB := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(latA)*math.Cos(latB)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}
