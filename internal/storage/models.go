package storage

import (
	"database/sql"
	"time"
)

type sweepData struct {
	SessionID  int64
	Timestamp  time.Time
	Format     string
	Points     int
	Parameters string
	Settings   sql.NullString
}

type sampleData struct {
	SweepID   int64
	Parameter string
	Point     int
	Frequency float64
	Re        float64
	Im        float64
}
