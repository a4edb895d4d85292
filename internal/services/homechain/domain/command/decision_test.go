package command

import (
	"testing"
	"time"

	"github.com/louisbranch/homechain/internal/services/homechain/domain/event"
)

func TestAcceptCopiesEvents(t *testing.T) {
	events := []event.Event{{Type: "property.for_sale"}}
	decision := Accept(events...)
	events[0].Type = "mutated"

	if decision.Events[0].Type != "property.for_sale" {
		t.Fatalf("event type = %s, want property.for_sale", decision.Events[0].Type)
	}
	if decision.Rejected() {
		t.Fatal("accepted decision must not be rejected")
	}
}

func TestRejectCarriesRejections(t *testing.T) {
	decision := Reject(Rejection{Code: "PROPERTY_NOT_FOR_SALE", Message: "Property must be for sale"})
	if !decision.Rejected() {
		t.Fatal("expected rejected decision")
	}
	if len(decision.Events) != 0 {
		t.Fatalf("events = %d, want 0", len(decision.Events))
	}
	if decision.Rejections[0].Code != "PROPERTY_NOT_FOR_SALE" {
		t.Fatalf("code = %s", decision.Rejections[0].Code)
	}
}

func TestNewEventCopiesEnvelope(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	cmd := Command{
		Type:          "property.perform_survey",
		ActorType:     ActorTypeSurveyor,
		ActorID:       "SURVEYOR_1",
		RequestID:     "req-1",
		CorrelationID: "corr-1",
		CausationID:   "cause-1",
	}

	evt := NewEvent(cmd, "property.survey_performed", "property", "PROPERTY_1", []byte(`{"property_id":"PROPERTY_1"}`), now)

	if evt.ActorType != event.ActorType(ActorTypeSurveyor) || evt.ActorID != "SURVEYOR_1" {
		t.Fatalf("actor = %s/%s", evt.ActorType, evt.ActorID)
	}
	if evt.RequestID != "req-1" || evt.CorrelationID != "corr-1" || evt.CausationID != "cause-1" {
		t.Fatalf("ids not copied: %+v", evt)
	}
	if evt.EntityType != "property" || evt.EntityID != "PROPERTY_1" {
		t.Fatalf("entity = %s/%s", evt.EntityType, evt.EntityID)
	}
	if !evt.Timestamp.Equal(now) {
		t.Fatalf("timestamp = %s, want %s", evt.Timestamp, now)
	}
	if evt.Seq != 0 || evt.ID != "" {
		t.Fatal("journal fields must be left for append")
	}
}
