package actors

import (
	"context"
	"errors"
	"time"

	"gator-social/internal/engine"
	"gator-social/internal/logging"
	"gator-social/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"
)

// EngineActor is the single mailbox in front of the engine. Commands reach
// the store one at a time, in arrival order.
type EngineActor struct {
	engine  *engine.Engine
	metrics *utils.MetricsCollector
	logger  *zap.Logger
}

func NewEngineActor(e *engine.Engine, metrics *utils.MetricsCollector, logger *zap.Logger) actor.Actor {
	if metrics == nil {
		metrics = utils.NewMetricsCollector()
	}
	return &EngineActor{
		engine:  e,
		metrics: metrics,
		logger:  logging.OrNop(logger).Named("engine-actor"),
	}
}

// Spawn starts an EngineActor on system and returns its PID.
func Spawn(system *actor.ActorSystem, e *engine.Engine, metrics *utils.MetricsCollector, logger *zap.Logger) *actor.PID {
	props := actor.PropsFromProducer(func() actor.Actor {
		return NewEngineActor(e, metrics, logger)
	})
	return system.Root.Spawn(props)
}

// Receive handles incoming messages
func (a *EngineActor) Receive(context actor.Context) {
	switch context.Message().(type) {
	case *actor.Started:
		a.logger.Info("EngineActor started")
		return
	case *actor.Stopping:
		a.logger.Info("EngineActor stopping")
		return
	case *actor.Stopped, *actor.Restarting:
		return
	}

	startTime := time.Now()
	a.metrics.IncrementRequests()
	result, err := a.handle(context.Message())
	a.metrics.AddOperationLatency("actor_request", time.Since(startTime))

	if err != nil {
		a.metrics.IncrementErrors()
		var appErr *utils.AppError
		if !errors.As(err, &appErr) {
			appErr = utils.NewAppError(utils.ErrStorage, "request failed", err)
		}
		context.Respond(appErr)
		return
	}
	context.Respond(result)
}

func (a *EngineActor) handle(message interface{}) (interface{}, error) {
	ctx := context.Background()
	e := a.engine

	switch msg := message.(type) {
	// Spaces
	case *CreateSpaceMsg:
		id, err := e.CreateSpace(ctx, msg.Actor, msg.Handle, msg.ContentHash)
		return created(uint64(id), err)
	case *UpdateSpaceMsg:
		return ack(e.UpdateSpace(ctx, msg.Actor, msg.SpaceID, msg.Update))
	case *FollowSpaceMsg:
		return ack(e.FollowSpace(ctx, msg.Actor, msg.SpaceID))
	case *UnfollowSpaceMsg:
		return ack(e.UnfollowSpace(ctx, msg.Actor, msg.SpaceID))
	case *GetSpaceMsg:
		return e.Space(ctx, msg.SpaceID)
	case *GetSpaceByHandleMsg:
		return e.SpaceByHandle(ctx, msg.Handle)
	case *GetSpacesByOwnerMsg:
		return e.SpaceIDsByOwner(ctx, msg.Account)
	case *GetSpaceFollowersMsg:
		return e.SpaceFollowers(ctx, msg.SpaceID)
	case *GetSpacesFollowedByMsg:
		return e.SpacesFollowedBy(ctx, msg.Follower)

	// Posts
	case *CreatePostMsg:
		id, err := e.CreatePost(ctx, msg.Actor, msg.SpaceID, msg.ContentHash, msg.Extension)
		return created(uint64(id), err)
	case *UpdatePostMsg:
		return ack(e.UpdatePost(ctx, msg.Actor, msg.PostID, msg.Update))
	case *GetPostMsg:
		return e.Post(ctx, msg.PostID)
	case *GetSpacePostsMsg:
		return e.PostIDsBySpace(ctx, msg.SpaceID)
	case *GetPostSharesMsg:
		return e.SharedPostIDs(ctx, msg.PostID)

	// Comments
	case *CreateCommentMsg:
		id, err := e.CreateComment(ctx, msg.Actor, msg.PostID, msg.ParentID, msg.ContentHash)
		return created(uint64(id), err)
	case *UpdateCommentMsg:
		return ack(e.UpdateComment(ctx, msg.Actor, msg.CommentID, msg.Update))
	case *GetCommentMsg:
		return e.Comment(ctx, msg.CommentID)
	case *GetPostCommentsMsg:
		return e.CommentIDsByPost(ctx, msg.PostID)
	case *GetCommentRepliesMsg:
		return e.ReplyIDs(ctx, msg.CommentID)

	// Reactions
	case *CreateReactionMsg:
		if msg.CommentID != nil {
			id, err := e.CreateCommentReaction(ctx, msg.Actor, *msg.CommentID, msg.Kind)
			return created(uint64(id), err)
		}
		id, err := e.CreatePostReaction(ctx, msg.Actor, msg.PostID, msg.Kind)
		return created(uint64(id), err)
	case *UpdateReactionMsg:
		if msg.CommentID != nil {
			return ack(e.UpdateCommentReaction(ctx, msg.Actor, *msg.CommentID, msg.ReactionID, msg.Kind))
		}
		return ack(e.UpdatePostReaction(ctx, msg.Actor, msg.PostID, msg.ReactionID, msg.Kind))
	case *DeleteReactionMsg:
		if msg.CommentID != nil {
			return ack(e.DeleteCommentReaction(ctx, msg.Actor, *msg.CommentID, msg.ReactionID))
		}
		return ack(e.DeletePostReaction(ctx, msg.Actor, msg.PostID, msg.ReactionID))
	case *GetReactionMsg:
		return e.Reaction(ctx, msg.ReactionID)
	case *GetReactionsMsg:
		if msg.CommentID != nil {
			return e.CommentReactionIDs(ctx, *msg.CommentID)
		}
		return e.PostReactionIDs(ctx, msg.PostID)

	// Accounts
	case *FollowAccountMsg:
		return ack(e.FollowAccount(ctx, msg.Actor, msg.Account))
	case *UnfollowAccountMsg:
		return ack(e.UnfollowAccount(ctx, msg.Actor, msg.Account))
	case *CreateProfileMsg:
		return ack(e.CreateProfile(ctx, msg.Actor, msg.Username, msg.ContentHash))
	case *UpdateProfileMsg:
		return ack(e.UpdateProfile(ctx, msg.Actor, msg.Update))
	case *GetSocialAccountMsg:
		return a.accountView(ctx, msg)
	case *GetAccountFollowersMsg:
		return e.AccountFollowers(ctx, msg.Account)
	case *GetAccountsFollowedByMsg:
		return e.AccountsFollowedBy(ctx, msg.Account)
	case *GetAccountByUsernameMsg:
		return e.AccountByUsername(ctx, msg.Username)

	case *GetStatsMsg:
		height, err := e.Height(ctx)
		if err != nil {
			return nil, err
		}
		requests, errs := a.metrics.Counts()
		return &Stats{
			Height:   height,
			Requests: requests,
			Errors:   errs,
			Uptime:   a.metrics.Uptime().Round(time.Second).String(),
		}, nil
	}

	a.logger.Warn("Unknown message", zap.Any("message", message))
	return nil, utils.NewAppError(utils.ErrMessageRejected, "unknown message type", nil)
}

func (a *EngineActor) accountView(ctx context.Context, msg *GetSocialAccountMsg) (*AccountView, error) {
	view := &AccountView{Account: msg.Account}
	social, err := a.engine.SocialAccount(ctx, msg.Account)
	switch {
	case utils.IsErrorCode(err, utils.ErrNotFound):
	case err != nil:
		return nil, err
	default:
		view.Social = social
	}
	view.Reputation, err = a.engine.Reputation(ctx, msg.Account)
	if err != nil {
		return nil, err
	}
	return view, nil
}

func created(id uint64, err error) (interface{}, error) {
	if err != nil {
		return nil, err
	}
	return &CreatedResponse{ID: id}, nil
}

func ack(err error) (interface{}, error) {
	if err != nil {
		return nil, err
	}
	return true, nil
}
