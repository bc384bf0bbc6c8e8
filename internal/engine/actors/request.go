package actors

import (
	"errors"
	"time"

	"gator-social/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
)

// Request sends msg to pid and waits for the reply. An *utils.AppError reply
// is returned as the error.
func Request(root *actor.RootContext, pid *actor.PID, msg interface{}, timeout time.Duration) (interface{}, error) {
	result, err := root.RequestFuture(pid, msg, timeout).Result()
	if err != nil {
		if errors.Is(err, actor.ErrTimeout) {
			return nil, utils.NewActorTimeoutError("engine")
		}
		return nil, utils.NewAppError(utils.ErrMessageRejected, "engine did not accept the request", err)
	}
	if appErr, ok := result.(*utils.AppError); ok {
		return nil, appErr
	}
	return result, nil
}

// RequestAs is Request with the reply asserted to T.
func RequestAs[T any](root *actor.RootContext, pid *actor.PID, msg interface{}, timeout time.Duration) (T, error) {
	var zero T
	result, err := Request(root, pid, msg, timeout)
	if err != nil {
		return zero, err
	}
	typed, ok := result.(T)
	if !ok {
		return zero, utils.NewAppError(utils.ErrMessageRejected, "unexpected reply type", nil)
	}
	return typed, nil
}
