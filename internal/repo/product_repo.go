package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"rd-topup-api/internal/constant"
	mainmodel "rd-topup-api/internal/model/main"
)

type ProductRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) *ProductRepo {
	return &ProductRepo{db: db}
}

// GetActive 下单时读取在售商品
func (r *ProductRepo) GetActive(ctx context.Context, id uint64) (*mainmodel.Product, error) {
	var p mainmodel.Product
	err := r.db.WithContext(ctx).Where("id = ? AND active = ?", id, true).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, constant.NewErrorf(constant.CodeProductNotFound, "product %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListActive 在售商品，sort_order 升序
func (r *ProductRepo) ListActive(ctx context.Context) ([]mainmodel.Product, error) {
	var out []mainmodel.Product
	err := r.db.WithContext(ctx).Where("active = ?", true).Order("sort_order ASC, id ASC").Find(&out).Error
	return out, err
}
