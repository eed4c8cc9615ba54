package kpi

import "errors"

var (
	ErrSnapshotNotFound = errors.New("kpi snapshot not found")
)
