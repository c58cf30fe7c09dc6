package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestSweeperRun(t *testing.T) {
	withPhone := uuid.New()
	noPhone := uuid.New()

	taskA := ReminderTask{ID: uuid.New(), PatientID: withPhone, MedicineName: "Metformin", Dosage: "500mg", DueAt: time.Now().Add(-time.Minute)}
	taskB := ReminderTask{ID: uuid.New(), PatientID: noPhone, MedicineName: "Lisinopril", DueAt: time.Now().Add(-time.Minute)}

	dir := &fakeDirectory{contacts: map[uuid.UUID]*Contact{
		withPhone: {Name: "Ana Gomez", Phone: "+15551234567"},
		noPhone:   {Name: "Ben Ito"},
	}}
	sender := &fakeSender{}
	tasks := &fakeTaskStore{due: []ReminderTask{taskA, taskB}}

	dispatcher := NewDispatcher(dir, sender, tasks, nil, nil)
	sweeper := NewSweeper(tasks, dispatcher, nil)

	if err := sweeper.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Only the reachable patient got a message, and only that task was marked.
	if len(sender.sent) != 1 {
		t.Fatalf("expected 1 send, got %d", len(sender.sent))
	}
	if len(tasks.marked) != 1 || tasks.marked[0] != taskA.ID {
		t.Errorf("expected only task %s marked, got %v", taskA.ID, tasks.marked)
	}
}

func TestSweeperRun_DeliveryFailureDoesNotAbortSweep(t *testing.T) {
	p1 := uuid.New()
	p2 := uuid.New()

	dir := &fakeDirectory{contacts: map[uuid.UUID]*Contact{
		p1: {Name: "Ana Gomez", Phone: "+15551111111"},
		p2: {Name: "Ben Ito", Phone: "+15552222222"},
	}}
	sender := &fakeSender{callErr: errors.New("provider down")}
	tasks := &fakeTaskStore{due: []ReminderTask{
		{ID: uuid.New(), PatientID: p1, MedicineName: "Metformin"},
		{ID: uuid.New(), PatientID: p2, MedicineName: "Omeprazole"},
	}}

	dispatcher := NewDispatcher(dir, sender, tasks, nil, nil)
	sweeper := NewSweeper(tasks, dispatcher, nil)

	if err := sweeper.Run(context.Background()); err != nil {
		t.Fatalf("delivery failures must not abort the sweep: %v", err)
	}
	if len(tasks.marked) != 0 {
		t.Error("failed deliveries must leave tasks un-notified for the next run")
	}
}

func TestSweeperRun_FindDueFailure(t *testing.T) {
	tasks := &fakeTaskStore{dueErr: errors.New("connection reset")}
	dispatcher := NewDispatcher(&fakeDirectory{}, &fakeSender{}, tasks, nil, nil)
	sweeper := NewSweeper(tasks, dispatcher, nil)

	if err := sweeper.Run(context.Background()); err == nil {
		t.Fatal("expected the query failure to surface")
	}
}
