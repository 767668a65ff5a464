package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestTimestampJSON(t *testing.T) {
	var ts Timestamp
	if err := json.Unmarshal([]byte(`"2024-05-01T10:00:00.000000000Z"`), &ts); err != nil {
		t.Fatalf("unmarshal string: %v", err)
	}
	if ts.Pending || !ts.Time.Equal(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected timestamp %+v", ts)
	}

	p := PendingNow()
	b, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Timestamp
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal object: %v", err)
	}
	if !back.Pending || !back.Time.Equal(p.Time) {
		t.Fatalf("pending flag lost: %+v", back)
	}

	var zero Timestamp
	if err := json.Unmarshal([]byte(`null`), &zero); err != nil || !zero.IsZero() {
		t.Fatalf("null should decode to zero, got %+v err=%v", zero, err)
	}
}
