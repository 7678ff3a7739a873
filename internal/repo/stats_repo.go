package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	ordermodel "rd-topup-api/internal/model/order"
)

// Bucket 数量与金额合计
type Bucket struct {
	Count int64 `json:"cnt"`
	Sum   int64 `json:"sum"`
}

// DayBucket 按天聚合
type DayBucket struct {
	Date string `json:"d"`
	Bucket
}

// Metrics 后台看板
type Metrics struct {
	Today   Bucket      `json:"today"`
	Total   Bucket      `json:"total"`
	Chart14 []DayBucket `json:"chart14"`
}

type StatsRepo struct {
	db  *gorm.DB
	now func() time.Time
}

func NewStatsRepo(db *gorm.DB) *StatsRepo {
	return &StatsRepo{db: db, now: time.Now}
}

// Metrics 今日、累计、近 14 天。按天分组在内存完成，避免依赖方言日期函数。
func (r *StatsRepo) Metrics(ctx context.Context) (*Metrics, error) {
	now := r.now()
	startToday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	start14 := startToday.AddDate(0, 0, -13)

	var m Metrics
	if err := r.bucket(ctx, nil, &m.Total); err != nil {
		return nil, err
	}
	if err := r.bucket(ctx, &startToday, &m.Today); err != nil {
		return nil, err
	}

	var rows []struct {
		CreatedAt   time.Time
		GrossAmount int64
	}
	err := r.db.WithContext(ctx).Model(&ordermodel.Order{}).
		Select("created_at, gross_amount").
		Where("created_at >= ?", start14).
		Order("created_at ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	idx := make(map[string]int)
	for _, row := range rows {
		d := row.CreatedAt.In(now.Location()).Format("2006-01-02")
		i, ok := idx[d]
		if !ok {
			m.Chart14 = append(m.Chart14, DayBucket{Date: d})
			i = len(m.Chart14) - 1
			idx[d] = i
		}
		m.Chart14[i].Count++
		m.Chart14[i].Sum += row.GrossAmount
	}
	return &m, nil
}

func (r *StatsRepo) bucket(ctx context.Context, since *time.Time, out *Bucket) error {
	q := r.db.WithContext(ctx).Model(&ordermodel.Order{}).
		Select("COUNT(*) AS count, COALESCE(SUM(gross_amount),0) AS sum")
	if since != nil {
		q = q.Where("created_at >= ?", *since)
	}
	return q.Scan(out).Error
}
