package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/mind-engage/mindengage-pathways/internal/db"
	"github.com/mind-engage/mindengage-pathways/internal/events"
	"github.com/mind-engage/mindengage-pathways/internal/progression"
	"github.com/mind-engage/mindengage-pathways/internal/scoring"
)

func openLog(t *testing.T, name string) *events.EventLog {
	t.Helper()
	h, err := db.Open(context.Background(), db.DriverSQLite, "file:"+name+"?mode=memory&cache=shared")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { h.Close() })
	return events.NewEventLog(h, "")
}

func TestEventLog_AppendAndList(t *testing.T) {
	ctx := context.Background()
	log := openLog(t, "events_list")

	scored, err := events.AttemptScored(events.AttemptScoredPayload{
		StudentID: 5, TopicID: 101,
		Result: scoring.Default.Classify(80),
	})
	if err != nil {
		t.Fatal(err)
	}
	resolved, err := events.TargetResolved(events.TargetResolvedPayload{
		StudentID: 5, FromTopic: 101,
		Target: progression.Target{Type: progression.KindTopic, ID: 102, Title: "Quadratics", SubjectID: 10},
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := log.Append(ctx, scored, resolved); err != nil {
		t.Fatal(err)
	}

	all, err := log.List(ctx, "", 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 || all[0].ID != scored.ID || all[1].Type != events.TypeTargetResolved {
		t.Fatalf("records = %+v", all)
	}
	if all[0].SiteID != "local" || all[0].Key != "101" {
		t.Fatalf("record 0 = %+v", all[0])
	}

	var p events.TargetResolvedPayload
	if err := json.Unmarshal(all[1].Payload, &p); err != nil {
		t.Fatal(err)
	}
	if p.Target.ID != 102 || p.Target.Type != progression.KindTopic {
		t.Fatalf("payload = %+v", p)
	}

	only, err := log.List(ctx, events.TypeAttemptScored, 0, 10)
	if err != nil || len(only) != 1 {
		t.Fatalf("filtered: %+v, %v", only, err)
	}
	after, err := log.List(ctx, "", all[0].Seq, 10)
	if err != nil || len(after) != 1 || after[0].Seq != all[1].Seq {
		t.Fatalf("after seq: %+v, %v", after, err)
	}
}

func TestEventLog_DuplicateIDRollsBackBatch(t *testing.T) {
	ctx := context.Background()
	log := openLog(t, "events_dup")

	e, _ := events.New(events.TypeAttemptScored, "1", map[string]int{"percentage": 10})
	if err := log.Append(ctx, e, e); err == nil {
		t.Fatal("expected unique violation")
	}
	recs, err := log.List(ctx, "", 0, 10)
	if err != nil || len(recs) != 0 {
		t.Fatalf("batch not rolled back: %+v, %v", recs, err)
	}
}

type recordingSink struct {
	mu  sync.Mutex
	got []events.Event
	err error
}

func (s *recordingSink) Append(_ context.Context, evs ...events.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, evs...)
	return s.err
}

func TestMulti(t *testing.T) {
	ok := &recordingSink{}
	bad := &recordingSink{err: errors.New("broker down")}
	m := events.Multi{ok, nil, bad}

	e, _ := events.New(events.TypeTargetResolved, "7", progression.Target{Type: progression.KindCompleted})
	err := m.Append(context.Background(), e)
	if err == nil || err.Error() != "broker down" {
		t.Fatalf("err = %v", err)
	}
	if len(ok.got) != 1 || len(bad.got) != 1 {
		t.Fatalf("fan-out: ok=%d bad=%d", len(ok.got), len(bad.got))
	}
}

func TestNew_RejectsUnmarshalablePayload(t *testing.T) {
	if _, err := events.New(events.TypeAttemptScored, "x", make(chan int)); err == nil {
		t.Fatal("expected marshal error")
	}
}
