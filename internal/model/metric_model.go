package model

type Metric struct {
	Id    uint   `gorm:"primaryKey"`
	Event string `gorm:"type:varchar(255);not null;uniqueIndex:uq_metric_event"`
	Count int64  `gorm:"not null;default:0"`
}

func (Metric) TableName() string {
	return "metrics"
}
