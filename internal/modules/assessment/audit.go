package assessment

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// deltaRecorder accumulates "field: old -> new" lines for one edit's
// change-log entry. Lines are kept in the order fields were compared.
type deltaRecorder struct {
	lines []string
}

func (d *deltaRecorder) add(label string, old, new any) {
	d.lines = append(d.lines, fmt.Sprintf("%s: %v -> %v", label, old, new))
}

func (d *deltaRecorder) str(label, old, new string) {
	if old != new {
		d.add(label, old, new)
	}
}

func (d *deltaRecorder) num(label string, old, new int) {
	if old != new {
		d.add(label, old, new)
	}
}

func (d *deltaRecorder) date(label string, old, new time.Time) {
	if !old.Equal(new) {
		d.add(label, old.Format("2006-01-02"), new.Format("2006-01-02"))
	}
}

func (d *deltaRecorder) strPtr(label string, old, new *string) {
	ov, nv := "", ""
	if old != nil {
		ov = *old
	}
	if new != nil {
		nv = *new
	}
	d.str(label, ov, nv)
}

func (d *deltaRecorder) empty() bool { return len(d.lines) == 0 }

func (d *deltaRecorder) json() (datatypes.JSON, error) {
	raw, err := json.Marshal(d.lines)
	if err != nil {
		return nil, fmt.Errorf("encode deltas: %w", err)
	}
	return datatypes.JSON(raw), nil
}
