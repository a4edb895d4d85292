package transactions

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/louisbranch/homechain/internal/platform/grpc/pagination"
	"github.com/louisbranch/homechain/internal/platform/requestctx"
	"github.com/louisbranch/homechain/internal/services/homechain/domain/command"
	"github.com/louisbranch/homechain/internal/services/homechain/domain/event"
	"github.com/louisbranch/homechain/internal/services/homechain/domain/workflow"
	"github.com/louisbranch/homechain/internal/services/homechain/eventbus"
	"github.com/louisbranch/homechain/internal/services/homechain/storage"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

var eventPageSize = pagination.PageSizeConfig{Default: 50, Max: 500}

// Processor runs transactions.
type Processor interface {
	Process(ctx context.Context, cmd command.Command) (workflow.Result, error)
}

// Service implements TransactionServiceServer over a processor and its store.
type Service struct {
	UnimplementedTransactionServiceServer

	processor Processor
	store     storage.Registries
}

// NewService builds the transaction service.
func NewService(processor Processor, store storage.Registries) (*Service, error) {
	if processor == nil {
		return nil, errors.New("processor is required")
	}
	if store == nil {
		return nil, errors.New("store is required")
	}
	return &Service{processor: processor, store: store}, nil
}

// Submit decodes a transaction request and runs it through the processor.
// The actor comes from request metadata; the request body may name one only
// when no header does.
func (s *Service) Submit(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "submit request is required")
	}
	cmd, err := commandFromRequest(ctx, in)
	if err != nil {
		return nil, toStatus(ctx, err)
	}
	result, err := s.processor.Process(ctx, cmd)
	if err != nil {
		return nil, toStatus(ctx, err)
	}
	return eventsResponse(result.Events, "")
}

// GetProperty returns one property with its offers.
func (s *Service) GetProperty(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id := stringField(in, "id")
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, "property id is required")
	}
	p, err := s.store.GetProperty(ctx, id)
	if err != nil {
		return nil, toStatus(ctx, lookupError("property", id, err))
	}
	return structpb.NewStruct(propertyView(p))
}

// GetPerson returns one person with their mortgage.
func (s *Service) GetPerson(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id := stringField(in, "id")
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, "person id is required")
	}
	p, err := s.store.GetPerson(ctx, id)
	if err != nil {
		return nil, toStatus(ctx, lookupError("person", id, err))
	}
	return structpb.NewStruct(personView(p))
}

// ListEvents pages through the journal in sequence order.
func (s *Service) ListEvents(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	afterSeq, err := pagination.DecodeSeqToken(stringField(in, "page_token"))
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if afterSeq == 0 {
		if v, ok := numberField(in, "after_seq"); ok && v > 0 {
			afterSeq = uint64(v)
		}
	}
	size, _ := numberField(in, "page_size")
	if size > float64(eventPageSize.Max) {
		size = float64(eventPageSize.Max)
	}
	pageSize := pagination.ClampPageSize(int32(size), eventPageSize)

	// One extra row tells whether another page exists.
	events, err := s.store.ListEvents(ctx, afterSeq, pageSize+1)
	if err != nil {
		return nil, toStatus(ctx, &workflow.StoreError{Op: "list events", Err: err})
	}
	next := ""
	if len(events) > pageSize {
		events = events[:pageSize]
		next = pagination.EncodeSeqToken(events[len(events)-1].Seq)
	}
	return eventsResponse(events, next)
}

func commandFromRequest(ctx context.Context, in *structpb.Struct) (command.Command, error) {
	payload := []byte("{}")
	if v, ok := in.GetFields()["payload"]; ok {
		obj := v.GetStructValue()
		if obj == nil {
			return command.Command{}, command.ErrPayloadInvalid
		}
		raw, err := protojson.Marshal(obj)
		if err != nil {
			return command.Command{}, errors.Join(command.ErrPayloadInvalid, err)
		}
		payload = raw
	}

	actor, ok := requestctx.ActorFromContext(ctx)
	if !ok {
		actor = requestctx.Actor{Type: stringField(in, "actor_type"), ID: stringField(in, "actor_id")}
	}
	actorType := command.ActorType(strings.ToLower(actor.Type))
	if actorType == "" {
		actorType = command.ActorTypeSystem
	}

	requestID := stringField(in, "request_id")
	if requestID == "" {
		requestID = requestctx.RequestIDFromContext(ctx)
	}
	return command.Command{
		Type:          command.Type(stringField(in, "type")),
		ActorType:     actorType,
		ActorID:       actor.ID,
		RequestID:     requestID,
		CorrelationID: stringField(in, "correlation_id"),
		CausationID:   stringField(in, "causation_id"),
		PayloadJSON:   payload,
	}, nil
}

func lookupError(entityType, id string, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return &workflow.NotFoundError{EntityType: entityType, ID: id}
	}
	return &workflow.StoreError{Op: "load " + entityType, Err: err}
}

func eventsResponse(events []event.Event, nextPageToken string) (*structpb.Struct, error) {
	messages := make([]any, 0, len(events))
	for _, evt := range events {
		raw, err := json.Marshal(eventbus.NewMessage(evt))
		if err != nil {
			return nil, status.Errorf(codes.Internal, "encode event %s: %v", evt.ID, err)
		}
		var m map[string]any
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, status.Errorf(codes.Internal, "encode event %s: %v", evt.ID, err)
		}
		messages = append(messages, m)
	}
	out := map[string]any{"events": messages}
	if nextPageToken != "" {
		out["next_page_token"] = nextPageToken
	}
	resp, err := structpb.NewStruct(out)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return resp, nil
}

func stringField(in *structpb.Struct, key string) string {
	if in == nil {
		return ""
	}
	return strings.TrimSpace(in.GetFields()[key].GetStringValue())
}

func numberField(in *structpb.Struct, key string) (float64, bool) {
	if in == nil {
		return 0, false
	}
	v, ok := in.GetFields()[key].GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, false
	}
	return v.NumberValue, true
}
