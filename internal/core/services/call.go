package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/Likith-Yadav/echo-us/internal/core/contracts"
	"github.com/Likith-Yadav/echo-us/internal/core/domain"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// allowedTransitions encodes the call lifecycle. Terminal states have no
// outgoing edges; re-entering the same terminal state is handled separately
// as an idempotent no-op.
var allowedTransitions = map[string]map[string]struct{}{
	domain.CallStatusInitiated: {
		domain.CallStatusRinging: {},
		domain.CallStatusMissed:  {},
		domain.CallStatusEnded:   {},
	},
	domain.CallStatusRinging: {
		domain.CallStatusOngoing:  {},
		domain.CallStatusRejected: {},
		domain.CallStatusMissed:   {},
		domain.CallStatusEnded:    {},
	},
	domain.CallStatusOngoing: {
		domain.CallStatusEnded: {},
	},
	domain.CallStatusEnded:    {},
	domain.CallStatusRejected: {},
	domain.CallStatusMissed:   {},
}

// CallService drives the call lifecycle and relays session descriptions and
// ICE candidates between the two participants. Every persisted transition
// completes before its relay event is emitted.
type CallService struct {
	repo       domain.CallRepository
	registry   contracts.Registry
	queue      contracts.PushQueue
	pushStream string
	log        *slog.Logger
}

func NewCallService(
	log *slog.Logger,
	repo domain.CallRepository,
	registry contracts.Registry,
	queue contracts.PushQueue,
	pushStream string,
) *CallService {
	return &CallService{
		log:        log,
		repo:       repo,
		registry:   registry,
		queue:      queue,
		pushStream: pushStream,
	}
}

// Initiate creates the call in ringing and relays incoming_call to the
// receiver. The caller gets its call_initiated ack regardless of whether
// the receiver is reachable; an offline receiver gets a push job.
func (s *CallService) Initiate(ctx context.Context, callerID uuid.UUID, in domain.CallInitiatePayload) (*domain.Call, error) {
	ctx, span := tracer.Start(ctx, "CallService.Initiate", trace.WithAttributes(
		attribute.String("caller_id", callerID.String()),
		attribute.String("receiver_id", in.ReceiverID.String()),
		attribute.String("call_type", in.CallType),
	))
	defer span.End()

	if in.ReceiverID == uuid.Nil || !domain.ValidCallType(in.CallType) {
		return nil, domain.ErrPayloadInvalid
	}
	call, err := s.repo.CreateCall(ctx, &domain.Call{
		CallerID:   callerID,
		ReceiverID: in.ReceiverID,
		CallType:   in.CallType,
		Status:     domain.CallStatusRinging,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist failed")
		s.log.ErrorContext(ctx, "call - initiate - persist failed", "caller_id", callerID, "err", err)
		return nil, err
	}

	delivered := s.registry.SendToUser(ctx, in.ReceiverID.String(), domain.EventIncomingCall, domain.IncomingCallEvent{
		Call:     call,
		Offer:    in.Offer,
		CallerID: callerID,
		CallType: in.CallType,
	})
	if !delivered {
		s.enqueuePush(ctx, domain.PushJob{
			UserID: in.ReceiverID,
			Title:  callerName(call),
			Body:   incomingCallBody(in.CallType),
			Data:   map[string]string{"callId": call.ID.String(), "callType": in.CallType},
		})
	}
	s.log.InfoContext(ctx, "call - initiated",
		"call_id", call.ID, "caller_id", callerID, "receiver_id", in.ReceiverID, "delivered", delivered)
	return call, nil
}

// Answer moves a ringing call to ongoing and relays the session description
// to the caller. The caller address comes from the persisted row, not the
// client payload.
func (s *CallService) Answer(ctx context.Context, userID uuid.UUID, in domain.CallAnswerPayload) (*domain.Call, error) {
	call, err := s.transition(ctx, userID, in.CallID, domain.CallStatusOngoing, nil, nil)
	if err != nil {
		return nil, err
	}
	s.registry.SendToUser(ctx, call.CallerID.String(), domain.EventCallAnswered, domain.CallAnsweredEvent{
		CallID:     call.ID,
		Answer:     in.Answer,
		ReceiverID: userID,
	})
	s.log.InfoContext(ctx, "call - answered", "call_id", call.ID, "user_id", userID)
	return call, nil
}

// Reject terminates a ringing call and notifies the caller.
func (s *CallService) Reject(ctx context.Context, userID uuid.UUID, in domain.CallRejectPayload) (*domain.Call, error) {
	now := time.Now()
	call, err := s.transition(ctx, userID, in.CallID, domain.CallStatusRejected, nil, &now)
	if err != nil {
		return nil, err
	}
	s.registry.SendToUser(ctx, call.CallerID.String(), domain.EventCallRejected, domain.CallRejectedEvent{
		CallID: call.ID,
	})
	s.log.InfoContext(ctx, "call - rejected", "call_id", call.ID, "user_id", userID)
	return call, nil
}

// End terminates the call, records its duration, and notifies the other
// participant, resolved from the persisted row.
func (s *CallService) End(ctx context.Context, userID uuid.UUID, in domain.CallEndPayload) (*domain.Call, error) {
	now := time.Now()
	duration := in.Duration
	if duration < 0 {
		duration = 0
	}
	call, err := s.transition(ctx, userID, in.CallID, domain.CallStatusEnded, &duration, &now)
	if err != nil {
		return nil, err
	}
	other := call.CallerID
	if userID == call.CallerID {
		other = call.ReceiverID
	}
	s.registry.SendToUser(ctx, other.String(), domain.EventCallEnded, domain.CallEndedEvent{
		CallID: call.ID,
	})
	s.log.InfoContext(ctx, "call - ended", "call_id", call.ID, "user_id", userID, "duration", duration)
	return call, nil
}

// RelayCandidate forwards an ICE candidate, dropped silently when the
// receiver is offline.
func (s *CallService) RelayCandidate(ctx context.Context, senderID uuid.UUID, in domain.ICECandidatePayload) {
	s.registry.SendToUser(ctx, in.ReceiverID.String(), domain.EventICECandidate, domain.ICECandidateEvent{
		Candidate: in.Candidate,
		SenderID:  senderID,
	})
}

// History returns the user's most recent calls, newest first.
func (s *CallService) History(ctx context.Context, userID uuid.UUID) ([]domain.Call, error) {
	return s.repo.ListCallsForUser(ctx, userID, 50)
}

// CreateRecord creates a call row in initiated state without any relay; the
// REST gateway uses it for client-driven call logging.
func (s *CallService) CreateRecord(ctx context.Context, callerID, receiverID uuid.UUID, callType string) (*domain.Call, error) {
	if receiverID == uuid.Nil || !domain.ValidCallType(callType) {
		return nil, domain.ErrPayloadInvalid
	}
	return s.repo.CreateCall(ctx, &domain.Call{
		CallerID:   callerID,
		ReceiverID: receiverID,
		CallType:   callType,
		Status:     domain.CallStatusInitiated,
	})
}

// Update applies a client-requested status change through the same
// lifecycle rules as the signaling path.
func (s *CallService) Update(ctx context.Context, userID, callID uuid.UUID, status string, duration *int, endedAt *time.Time) (*domain.Call, error) {
	if _, ok := allowedTransitions[status]; !ok {
		return nil, domain.ErrPayloadInvalid
	}
	return s.transition(ctx, userID, callID, status, duration, endedAt)
}

// transition loads the call, validates the participant and the lifecycle
// edge, persists, and returns the updated row. Re-entering the current
// terminal state is accepted idempotently (endedAt may be re-set); any
// other transition out of a terminal state fails with ErrCallTerminal.
func (s *CallService) transition(ctx context.Context, userID, callID uuid.UUID, status string, duration *int, endedAt *time.Time) (*domain.Call, error) {
	ctx, span := tracer.Start(ctx, "CallService.transition", trace.WithAttributes(
		attribute.String("call_id", callID.String()),
		attribute.String("to_status", status),
	))
	defer span.End()

	if callID == uuid.Nil {
		return nil, domain.ErrPayloadInvalid
	}
	call, err := s.repo.GetCallByID(ctx, callID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if !call.IsParticipant(userID) {
		span.SetStatus(codes.Error, "not a participant")
		return nil, domain.ErrForbidden
	}
	if call.Status != status {
		if call.Terminal() {
			return nil, domain.ErrCallTerminal
		}
		if _, ok := allowedTransitions[call.Status][status]; !ok {
			return nil, domain.ErrCallTransition
		}
	}
	updated, err := s.repo.UpdateCallStatus(ctx, callID, status, duration, endedAt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist failed")
		s.log.ErrorContext(ctx, "call - transition - persist failed",
			"call_id", callID, "from", call.Status, "to", status, "err", err)
		return nil, err
	}
	return updated, nil
}

func (s *CallService) enqueuePush(ctx context.Context, job domain.PushJob) {
	if s.queue == nil {
		return
	}
	raw, err := json.Marshal(job)
	if err != nil {
		return
	}
	if err := s.queue.Publish(ctx, s.pushStream, raw); err != nil {
		s.log.ErrorContext(ctx, "call - push enqueue failed", "user_id", job.UserID, "err", err)
	}
}

func callerName(call *domain.Call) string {
	if call.Caller != nil && call.Caller.Name != "" {
		return call.Caller.Name
	}
	return "Incoming call"
}

func incomingCallBody(callType string) string {
	if callType == domain.CallTypeVideo {
		return "Incoming video call"
	}
	return "Incoming voice call"
}
