package services

import (
	"context"
	"errors"
	"testing"

	"github.com/Likith-Yadav/echo-us/internal/core/domain"

	"github.com/google/uuid"
)

func TestAllowedTransitions(t *testing.T) {
	cases := []struct {
		from string
		to   string
		ok   bool
	}{
		{from: domain.CallStatusInitiated, to: domain.CallStatusRinging, ok: true},
		{from: domain.CallStatusInitiated, to: domain.CallStatusMissed, ok: true},
		{from: domain.CallStatusRinging, to: domain.CallStatusOngoing, ok: true},
		{from: domain.CallStatusRinging, to: domain.CallStatusRejected, ok: true},
		{from: domain.CallStatusRinging, to: domain.CallStatusMissed, ok: true},
		{from: domain.CallStatusOngoing, to: domain.CallStatusEnded, ok: true},
		{from: domain.CallStatusInitiated, to: domain.CallStatusOngoing, ok: false},
		{from: domain.CallStatusOngoing, to: domain.CallStatusRinging, ok: false},
		{from: domain.CallStatusEnded, to: domain.CallStatusOngoing, ok: false},
		{from: domain.CallStatusRejected, to: domain.CallStatusRinging, ok: false},
		{from: domain.CallStatusMissed, to: domain.CallStatusOngoing, ok: false},
	}

	for _, tc := range cases {
		_, allowed := allowedTransitions[tc.from][tc.to]
		if allowed != tc.ok {
			t.Fatalf("transition %s -> %s expected allowed=%v got=%v", tc.from, tc.to, tc.ok, allowed)
		}
	}
}

func newCallFixture() (*CallService, *fakeCallRepo, *fakeRegistry, *fakeQueue) {
	repo := newFakeCallRepo()
	reg := newFakeRegistry()
	queue := &fakeQueue{}
	svc := NewCallService(testLogger(), repo, reg, queue, "push-jobs")
	return svc, repo, reg, queue
}

func TestInitiateRelaysToOnlineReceiver(t *testing.T) {
	svc, _, reg, queue := newCallFixture()
	caller := uuid.New()
	receiver := uuid.New()
	reg.online[receiver.String()] = true

	call, err := svc.Initiate(context.Background(), caller, domain.CallInitiatePayload{
		ReceiverID: receiver,
		CallType:   domain.CallTypeVideo,
	})
	if err != nil {
		t.Fatalf("Initiate failed: %v", err)
	}
	if call.Status != domain.CallStatusRinging {
		t.Fatalf("expected status ringing, got %s", call.Status)
	}
	if len(reg.sends) != 1 || reg.sends[0].event != domain.EventIncomingCall {
		t.Fatalf("expected one incoming_call relay, got %+v", reg.sends)
	}
	if len(queue.published) != 0 {
		t.Fatalf("online receiver must not generate a push job")
	}
}

func TestInitiateOfflineReceiverQueuesPush(t *testing.T) {
	svc, _, _, queue := newCallFixture()

	call, err := svc.Initiate(context.Background(), uuid.New(), domain.CallInitiatePayload{
		ReceiverID: uuid.New(),
		CallType:   domain.CallTypeAudio,
	})
	if err != nil {
		t.Fatalf("Initiate failed: %v", err)
	}
	if call.ID == uuid.Nil {
		t.Fatal("expected persisted call id")
	}
	if len(queue.published) != 1 {
		t.Fatalf("expected one push job, got %d", len(queue.published))
	}
}

func TestInitiateRejectsBadPayload(t *testing.T) {
	svc, _, _, _ := newCallFixture()

	_, err := svc.Initiate(context.Background(), uuid.New(), domain.CallInitiatePayload{
		ReceiverID: uuid.Nil,
		CallType:   domain.CallTypeAudio,
	})
	if !errors.Is(err, domain.ErrPayloadInvalid) {
		t.Fatalf("expected ErrPayloadInvalid, got %v", err)
	}

	_, err = svc.Initiate(context.Background(), uuid.New(), domain.CallInitiatePayload{
		ReceiverID: uuid.New(),
		CallType:   "hologram",
	})
	if !errors.Is(err, domain.ErrPayloadInvalid) {
		t.Fatalf("expected ErrPayloadInvalid for unknown call type, got %v", err)
	}
}

func TestAnswerNotifiesCaller(t *testing.T) {
	svc, _, reg, _ := newCallFixture()
	caller := uuid.New()
	receiver := uuid.New()
	reg.online[caller.String()] = true

	call, err := svc.Initiate(context.Background(), caller, domain.CallInitiatePayload{
		ReceiverID: receiver,
		CallType:   domain.CallTypeAudio,
	})
	if err != nil {
		t.Fatalf("Initiate failed: %v", err)
	}

	updated, err := svc.Answer(context.Background(), receiver, domain.CallAnswerPayload{CallID: call.ID})
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if updated.Status != domain.CallStatusOngoing {
		t.Fatalf("expected ongoing, got %s", updated.Status)
	}

	last := reg.sends[len(reg.sends)-1]
	if last.event != domain.EventCallAnswered || last.userID != caller.String() {
		t.Fatalf("expected call_answered to caller, got %+v", last)
	}
}

func TestTransitionRejectsNonParticipant(t *testing.T) {
	svc, _, _, _ := newCallFixture()

	call, err := svc.Initiate(context.Background(), uuid.New(), domain.CallInitiatePayload{
		ReceiverID: uuid.New(),
		CallType:   domain.CallTypeAudio,
	})
	if err != nil {
		t.Fatalf("Initiate failed: %v", err)
	}

	_, err = svc.Answer(context.Background(), uuid.New(), domain.CallAnswerPayload{CallID: call.ID})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestEndIsIdempotent(t *testing.T) {
	svc, _, _, _ := newCallFixture()
	caller := uuid.New()
	receiver := uuid.New()

	call, err := svc.Initiate(context.Background(), caller, domain.CallInitiatePayload{
		ReceiverID: receiver,
		CallType:   domain.CallTypeAudio,
	})
	if err != nil {
		t.Fatalf("Initiate failed: %v", err)
	}
	if _, err := svc.Answer(context.Background(), receiver, domain.CallAnswerPayload{CallID: call.ID}); err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if _, err := svc.End(context.Background(), caller, domain.CallEndPayload{CallID: call.ID, Duration: 42}); err != nil {
		t.Fatalf("End failed: %v", err)
	}

	// The receiver's hang-up can race the caller's; both must succeed.
	ended, err := svc.End(context.Background(), receiver, domain.CallEndPayload{CallID: call.ID, Duration: 42})
	if err != nil {
		t.Fatalf("repeated End failed: %v", err)
	}
	if ended.Status != domain.CallStatusEnded {
		t.Fatalf("expected ended, got %s", ended.Status)
	}
}

func TestTerminalStateBlocksOtherTransitions(t *testing.T) {
	svc, _, _, _ := newCallFixture()
	caller := uuid.New()
	receiver := uuid.New()

	call, err := svc.Initiate(context.Background(), caller, domain.CallInitiatePayload{
		ReceiverID: receiver,
		CallType:   domain.CallTypeAudio,
	})
	if err != nil {
		t.Fatalf("Initiate failed: %v", err)
	}
	if _, err := svc.Reject(context.Background(), receiver, domain.CallRejectPayload{CallID: call.ID}); err != nil {
		t.Fatalf("Reject failed: %v", err)
	}

	_, err = svc.Answer(context.Background(), receiver, domain.CallAnswerPayload{CallID: call.ID})
	if !errors.Is(err, domain.ErrCallTerminal) {
		t.Fatalf("expected ErrCallTerminal, got %v", err)
	}
	_, err = svc.End(context.Background(), caller, domain.CallEndPayload{CallID: call.ID})
	if !errors.Is(err, domain.ErrCallTerminal) {
		t.Fatalf("expected ErrCallTerminal on cross-terminal end, got %v", err)
	}
}

func TestRingingCannotSkipToEndedViaUnknownStatus(t *testing.T) {
	svc, _, _, _ := newCallFixture()
	caller := uuid.New()

	call, err := svc.Initiate(context.Background(), caller, domain.CallInitiatePayload{
		ReceiverID: uuid.New(),
		CallType:   domain.CallTypeAudio,
	})
	if err != nil {
		t.Fatalf("Initiate failed: %v", err)
	}

	_, err = svc.Update(context.Background(), caller, call.ID, "paused", nil, nil)
	if !errors.Is(err, domain.ErrPayloadInvalid) {
		t.Fatalf("expected ErrPayloadInvalid for unknown status, got %v", err)
	}
}

func TestRelayCandidateDropsOffline(t *testing.T) {
	svc, _, reg, _ := newCallFixture()
	sender := uuid.New()
	receiver := uuid.New()

	svc.RelayCandidate(context.Background(), sender, domain.ICECandidatePayload{
		ReceiverID: receiver,
		Candidate:  []byte(`{"candidate":"a=candidate"}`),
	})

	// The attempt is recorded but undeliverable; no error and no push.
	if len(reg.sends) != 1 || reg.sends[0].event != domain.EventICECandidate {
		t.Fatalf("expected one ice_candidate relay attempt, got %+v", reg.sends)
	}
}
