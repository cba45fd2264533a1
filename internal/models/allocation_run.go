package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// RunStatus captures whether every slot of a run was seated.
type RunStatus string

const (
	RunStatusCompleted RunStatus = "COMPLETED"
	RunStatusPartial   RunStatus = "PARTIAL"
)

// AllocationRun is the persisted record of one allocation pass: the parameters
// echo, its diagnostics, and the assignment count. Assignments are stored in a
// child table in their deterministic output order.
type AllocationRun struct {
	ID               string      `db:"id" json:"id"`
	RosterID         string      `db:"roster_id" json:"roster_id"`
	Status           RunStatus   `db:"status" json:"status"`
	TotalAssignments int         `db:"total_assignments" json:"total_assignments"`
	TotalSeats       int         `db:"total_seats" json:"total_seats"`
	Diagnostics      RunMeta     `db:"diagnostics" json:"diagnostics"`
	Rooms            RoomsColumn `db:"rooms" json:"rooms"`
	CreatedAt        time.Time   `db:"created_at" json:"created_at"`
}

// RunFilter captures paging parameters for run history.
type RunFilter struct {
	RosterID string
	Page     int
	PageSize int
}

// RunMeta stores the run diagnostics as JSONB.
type RunMeta struct {
	Diagnostics Diagnostics          `json:"diagnostics"`
	Stats       map[string]SlotStats `json:"stats"`
}

// Value marshals run metadata for persistence.
func (m RunMeta) Value() (driver.Value, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal run metadata: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON payloads into the metadata struct.
func (m *RunMeta) Scan(value interface{}) error {
	if value == nil {
		*m = RunMeta{}
		return nil
	}
	data, err := jsonColumnBytes(value)
	if err != nil {
		return fmt.Errorf("scan run metadata: %w", err)
	}
	return json.Unmarshal(data, m)
}

// RoomsColumn persists the ordered room configuration of a run as JSONB so a
// run can be replayed or audited later.
type RoomsColumn []Room

// Value marshals the room list for persistence.
func (r RoomsColumn) Value() (driver.Value, error) {
	data, err := json.Marshal([]Room(r))
	if err != nil {
		return nil, fmt.Errorf("marshal rooms column: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON payloads into the room list.
func (r *RoomsColumn) Scan(value interface{}) error {
	if value == nil {
		*r = nil
		return nil
	}
	data, err := jsonColumnBytes(value)
	if err != nil {
		return fmt.Errorf("scan rooms column: %w", err)
	}
	return json.Unmarshal(data, r)
}

func jsonColumnBytes(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported column type %T", value)
	}
}
