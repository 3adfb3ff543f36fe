package db

import (
	"gorm.io/gorm"
)

// CreateEvent persists a new event row. The id and created_at are
// store-assigned; callers never supply them.
func CreateEvent(db *gorm.DB, e *Event) error {
	return db.Create(e).Error
}

// FindEvents returns one page of events matching f plus the total number
// of matching rows. The page is ordered by created_at descending, most
// recent first.
//
// The count and the page are two independent reads with no snapshot
// guarantee between them; a concurrent write may make the total slightly
// stale relative to the page. Accepted for a dashboard workload.
func FindEvents(db *gorm.DB, f EventFilter) ([]Event, int64, error) {
	var total int64
	if err := f.apply(db.Model(&Event{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	events := make([]Event, 0, f.Limit)
	err := f.apply(db.Model(&Event{})).
		Order("created_at DESC").
		Limit(f.Limit).
		Offset(f.Offset).
		Find(&events).Error
	if err != nil {
		return nil, 0, err
	}

	return events, total, nil
}

// FindEventByID fetches a single event by primary key. Returns
// gorm.ErrRecordNotFound when no row matches.
func FindEventByID(db *gorm.DB, id string) (*Event, error) {
	var e Event
	if err := db.Where("id = ?", id).First(&e).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

// FindOwnedEvent fetches a single event scoped to its owner. A row that
// exists but belongs to a different userId is reported as not found,
// never as forbidden, so ownership cannot be probed.
func FindOwnedEvent(db *gorm.DB, id, userID string) (*Event, error) {
	var e Event
	if err := db.Where("id = ? AND user_id = ?", id, userID).First(&e).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

// DeleteEventByID hard-deletes a single event by exact id, with no
// ownership constraint. Reports whether a row was removed.
func DeleteEventByID(db *gorm.DB, id string) (bool, error) {
	res := db.Where("id = ?", id).Delete(&Event{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DeleteOwnedEvent hard-deletes a single event scoped to its owner.
// Reports whether a row was removed.
func DeleteOwnedEvent(db *gorm.DB, id, userID string) (bool, error) {
	res := db.Where("id = ? AND user_id = ?", id, userID).Delete(&Event{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DeleteAllEvents removes every event row and returns how many were
// deleted. An empty table deletes zero rows without error.
func DeleteAllEvents(db *gorm.DB) (int64, error) {
	res := db.Where("1 = 1").Delete(&Event{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// CountEvents returns the total number of stored events.
func CountEvents(db *gorm.DB) (int64, error) {
	var count int64
	if err := db.Model(&Event{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
