package model

import (
	"gorm.io/gorm"

	mainmodel "rd-topup-api/internal/model/main"
	ordermodel "rd-topup-api/internal/model/order"
)

// AutoMigrate 建表（开发环境或 mysql.autoMigrate=true 时调用）
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&mainmodel.Product{}, &mainmodel.Setting{}, &ordermodel.Order{})
}
