// Package gameserver exposes running sessions over gRPC: a bidirectional stream
// that carries player commands in and game events out, and a snapshot call for
// renderers that poll.
package gameserver

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/cory-johannsen/delve/internal/game/event"
	"github.com/cory-johannsen/delve/internal/game/item"
	"github.com/cory-johannsen/delve/internal/sim"
)

// DefaultEventBuffer is the number of outbound messages queued per stream.
const DefaultEventBuffer = 256

// GameServiceServer implements GameService over a session registry.
type GameServiceServer struct {
	sessions *sim.Registry
	buffer   int
	logger   *zap.Logger
}

// NewGameServiceServer creates a GameServiceServer.
//
// Precondition: sessions and logger must be non-nil; buffer <= 0 selects DefaultEventBuffer.
func NewGameServiceServer(sessions *sim.Registry, buffer int, logger *zap.Logger) *GameServiceServer {
	if buffer <= 0 {
		buffer = DefaultEventBuffer
	}
	return &GameServiceServer{sessions: sessions, buffer: buffer, logger: logger}
}

// Session handles one client stream.
//
// The first message must name a loaded profile. Events emitted by a command are
// sent before that command's result. When the outbound queue is full, events are
// dropped; results never are.
func (s *GameServiceServer) Session(stream grpc.BidiStreamingServer[structpb.Struct, structpb.Struct]) error {
	first, err := stream.Recv()
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("receiving join request: %w", err)
	}
	profile := first.GetFields()[fieldProfile].GetStringValue()
	sess, ok := s.sessions.Get(profile)
	if !ok {
		return status.Errorf(codes.NotFound, "no session for profile %q", profile)
	}
	logger := s.logger.With(zap.String("profile", profile))
	logger.Info("client attached")

	out := make(chan *structpb.Struct, s.buffer)
	joined := newMessage(kindJoined, first.GetFields()[fieldRequestID].GetStringValue())
	joined.Fields[fieldProfile] = structpb.NewStringValue(profile)
	out <- joined

	stop := sess.Watch(func(name event.Name, payload any) {
		msg, err := eventMessage(name, payload)
		if err != nil {
			logger.Error("encoding event", zap.Error(err))
			return
		}
		select {
		case out <- msg:
		default:
			logger.Warn("event queue full, dropping event", zap.String("event", string(name)))
		}
	})

	ctx := stream.Context()
	done := make(chan error, 1)
	go func() { done <- forward(ctx, stream, out) }()

	loopErr := s.commandLoop(ctx, sess, stream, out)
	stop()
	close(out)
	fwdErr := <-done
	logger.Info("client detached")

	if loopErr != nil && !errors.Is(loopErr, io.EOF) {
		return loopErr
	}
	return fwdErr
}

// forward is the only sender on stream. It drains out until out is closed.
func forward(ctx context.Context, stream grpc.BidiStreamingServer[structpb.Struct, structpb.Struct], out <-chan *structpb.Struct) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-out:
			if !ok {
				return nil
			}
			if err := stream.Send(msg); err != nil {
				return fmt.Errorf("sending message: %w", err)
			}
		}
	}
}

func (s *GameServiceServer) commandLoop(ctx context.Context, sess *sim.Session, stream grpc.BidiStreamingServer[structpb.Struct, structpb.Struct], out chan<- *structpb.Struct) error {
	for {
		msg, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return io.EOF
		}
		if err != nil {
			return fmt.Errorf("receiving message: %w", err)
		}
		requestID := msg.GetFields()[fieldRequestID].GetStringValue()
		resp, err := s.dispatch(ctx, sess, msg)
		if err != nil {
			resp = errorMessage(requestID, err)
		} else {
			resp.Fields[fieldRequestID] = structpb.NewStringValue(requestID)
		}
		select {
		case out <- resp:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// commandFunc runs one command and reports whether the session accepted it.
type commandFunc func(ctx context.Context, sess *sim.Session, msg *structpb.Struct) (bool, error)

var commands = map[string]commandFunc{
	"recruit": func(_ context.Context, sess *sim.Session, msg *structpb.Struct) (bool, error) {
		id, err := stringArg(msg, fieldHeroID)
		if err != nil {
			return false, err
		}
		return sess.Recruit(id), nil
	},
	"equip": func(_ context.Context, sess *sim.Session, msg *structpb.Struct) (bool, error) {
		heroID, err := stringArg(msg, fieldHeroID)
		if err != nil {
			return false, err
		}
		itemID, err := stringArg(msg, fieldItemID)
		if err != nil {
			return false, err
		}
		return sess.Equip(heroID, itemID), nil
	},
	"unequip": func(_ context.Context, sess *sim.Session, msg *structpb.Struct) (bool, error) {
		heroID, err := stringArg(msg, fieldHeroID)
		if err != nil {
			return false, err
		}
		slot, err := stringArg(msg, fieldSlot)
		if err != nil {
			return false, err
		}
		return sess.Unequip(heroID, item.Slot(slot)), nil
	},
	"buy": func(_ context.Context, sess *sim.Session, msg *structpb.Struct) (bool, error) {
		i, err := intArg(msg, fieldIndex)
		if err != nil {
			return false, err
		}
		return sess.BuyShopItem(i), nil
	},
	"reroll_shop": func(_ context.Context, sess *sim.Session, _ *structpb.Struct) (bool, error) {
		return sess.RerollShop(), nil
	},
	"sell": itemCommand((*sim.Session).SellItem),
	"toggle_lock": itemCommand((*sim.Session).ToggleLock),
	"collect_loot": itemCommand((*sim.Session).CollectLoot),
	"challenge_boss": func(_ context.Context, sess *sim.Session, _ *structpb.Struct) (bool, error) {
		return sess.ChallengeBoss(), nil
	},
	"retreat": func(_ context.Context, sess *sim.Session, _ *structpb.Struct) (bool, error) {
		return sess.Retreat(), nil
	},
	"move_hero": func(_ context.Context, sess *sim.Session, msg *structpb.Struct) (bool, error) {
		heroID, err := stringArg(msg, fieldHeroID)
		if err != nil {
			return false, err
		}
		to, err := intArg(msg, fieldPosition)
		if err != nil {
			return false, err
		}
		return sess.MoveHero(heroID, to), nil
	},
	"set_option": func(_ context.Context, sess *sim.Session, msg *structpb.Struct) (bool, error) {
		key, err := stringArg(msg, fieldKey)
		if err != nil {
			return false, err
		}
		v, err := boolArg(msg, fieldValue)
		if err != nil {
			return false, err
		}
		return sess.SetOption(key, v), nil
	},
	"purchase_upgrade": func(_ context.Context, sess *sim.Session, msg *structpb.Struct) (bool, error) {
		id, err := stringArg(msg, fieldUpgradeID)
		if err != nil {
			return false, err
		}
		return sess.PurchaseUpgrade(id), nil
	},
	"prestige": func(ctx context.Context, sess *sim.Session, _ *structpb.Struct) (bool, error) {
		return sess.Prestige(ctx), nil
	},
	"save": func(ctx context.Context, sess *sim.Session, _ *structpb.Struct) (bool, error) {
		if err := sess.Save(ctx); err != nil {
			return false, err
		}
		return true, nil
	},
}

func itemCommand(fn func(*sim.Session, string) bool) commandFunc {
	return func(_ context.Context, sess *sim.Session, msg *structpb.Struct) (bool, error) {
		id, err := stringArg(msg, fieldItemID)
		if err != nil {
			return false, err
		}
		return fn(sess, id), nil
	}
}

// dispatch routes a client message to its command.
//
// Postcondition: Returns an error only for malformed messages; refused commands
// produce a result with ok == false.
func (s *GameServiceServer) dispatch(ctx context.Context, sess *sim.Session, msg *structpb.Struct) (*structpb.Struct, error) {
	name, err := stringArg(msg, fieldCommand)
	if err != nil {
		return nil, err
	}
	if name == "clear_ui_flags" {
		ui, err := toValue(sess.ClearUIFlags())
		if err != nil {
			return nil, err
		}
		resp := resultMessage("", name, true)
		resp.Fields[fieldUI] = ui
		return resp, nil
	}
	fn, ok := commands[name]
	if !ok {
		return nil, fmt.Errorf("unknown command %q", name)
	}
	accepted, err := fn(ctx, sess, msg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	s.logger.Debug("command handled", zap.String("profile", sess.ID()), zap.String("command", name), zap.Bool("ok", accepted))
	return resultMessage("", name, accepted), nil
}

// Snapshot returns the run of the profile named in req.
func (s *GameServiceServer) Snapshot(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	profile := req.GetFields()[fieldProfile].GetStringValue()
	sess, ok := s.sessions.Get(profile)
	if !ok {
		return nil, status.Errorf(codes.NotFound, "no session for profile %q", profile)
	}
	snap, err := sess.Snapshot()
	if err != nil {
		return nil, status.Errorf(codes.Internal, "snapshot: %v", err)
	}
	out, err := toStruct(snap)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encoding snapshot: %v", err)
	}
	return out, nil
}
