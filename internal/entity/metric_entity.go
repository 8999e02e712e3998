package entity

type Metric struct {
	Event string
	Count int64
}
