package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"gator-social/internal/api"
	"gator-social/internal/engine/actors"
	"gator-social/internal/logging"
	"gator-social/internal/middleware"
	"gator-social/internal/models"
	"gator-social/internal/utils"
	"gator-social/internal/websocket"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/bytedance/sonic"
	"go.uber.org/zap"
)

const maxBodySize = 1 << 20

// Server holds all server dependencies: the actor system, the engine
// actor, and the event hub.
type Server struct {
	Context        *actor.RootContext
	EnginePID      *actor.PID
	Metrics        *utils.MetricsCollector
	Hub            *websocket.Hub
	Auth           *middleware.Authenticator
	Logger         *zap.Logger
	RequestTimeout time.Duration
	AllowedOrigins []string
	MetricsEnabled bool
}

// NewServer creates a new Server instance with the given components
func NewServer(
	context *actor.RootContext,
	enginePID *actor.PID,
	metrics *utils.MetricsCollector,
	hub *websocket.Hub,
	auth *middleware.Authenticator,
	logger *zap.Logger,
) *Server {
	return &Server{
		Context:        context,
		EnginePID:      enginePID,
		Metrics:        metrics,
		Hub:            hub,
		Auth:           auth,
		Logger:         logging.OrNop(logger).Named("http"),
		RequestTimeout: 5 * time.Second,
		AllowedOrigins: []string{"*"},
		MetricsEnabled: true,
	}
}

// UnprotectedPaths are served without a bearer token. /ws authenticates
// with a query parameter instead.
var UnprotectedPaths = []string{"/health", "/metrics", "/ws"}

// Routes builds the full HTTP handler: routes, auth, then CORS.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.HandleHealth())
	if s.MetricsEnabled {
		mux.Handle("GET /metrics", s.Metrics.Handler())
	}
	mux.HandleFunc("GET /ws", s.HandleWebSocket())

	mux.HandleFunc("POST /spaces", s.HandleCreateSpace())
	mux.HandleFunc("GET /spaces/{id}", s.HandleGetSpace())
	mux.HandleFunc("PATCH /spaces/{id}", s.HandleUpdateSpace())
	mux.HandleFunc("POST /spaces/{id}/follow", s.HandleFollowSpace())
	mux.HandleFunc("DELETE /spaces/{id}/follow", s.HandleUnfollowSpace())
	mux.HandleFunc("GET /spaces/{id}/followers", s.HandleSpaceFollowers())
	mux.HandleFunc("GET /spaces/{id}/posts", s.HandleSpacePosts())
	mux.HandleFunc("GET /handles/{handle}", s.HandleSpaceByHandle())

	mux.HandleFunc("POST /posts", s.HandleCreatePost())
	mux.HandleFunc("GET /posts/{id}", s.HandleGetPost())
	mux.HandleFunc("PATCH /posts/{id}", s.HandleUpdatePost())
	mux.HandleFunc("GET /posts/{id}/comments", s.HandlePostComments())
	mux.HandleFunc("GET /posts/{id}/shares", s.HandlePostShares())
	mux.HandleFunc("GET /posts/{id}/reactions", s.HandleListReactions(postTarget))
	mux.HandleFunc("POST /posts/{id}/reactions", s.HandleCreateReaction(postTarget))
	mux.HandleFunc("PATCH /posts/{id}/reactions/{reaction}", s.HandleUpdateReaction(postTarget))
	mux.HandleFunc("DELETE /posts/{id}/reactions/{reaction}", s.HandleDeleteReaction(postTarget))

	mux.HandleFunc("POST /comments", s.HandleCreateComment())
	mux.HandleFunc("GET /comments/{id}", s.HandleGetComment())
	mux.HandleFunc("PATCH /comments/{id}", s.HandleUpdateComment())
	mux.HandleFunc("GET /comments/{id}/replies", s.HandleCommentReplies())
	mux.HandleFunc("GET /comments/{id}/reactions", s.HandleListReactions(commentTarget))
	mux.HandleFunc("POST /comments/{id}/reactions", s.HandleCreateReaction(commentTarget))
	mux.HandleFunc("PATCH /comments/{id}/reactions/{reaction}", s.HandleUpdateReaction(commentTarget))
	mux.HandleFunc("DELETE /comments/{id}/reactions/{reaction}", s.HandleDeleteReaction(commentTarget))

	mux.HandleFunc("GET /accounts/{account}", s.HandleGetAccount())
	mux.HandleFunc("GET /accounts/{account}/spaces", s.HandleAccountSpaces())
	mux.HandleFunc("GET /accounts/{account}/followers", s.HandleAccountFollowers())
	mux.HandleFunc("GET /accounts/{account}/following", s.HandleAccountFollowing())
	mux.HandleFunc("POST /accounts/{account}/follow", s.HandleFollowAccount())
	mux.HandleFunc("DELETE /accounts/{account}/follow", s.HandleUnfollowAccount())
	mux.HandleFunc("GET /usernames/{username}", s.HandleAccountByUsername())
	mux.HandleFunc("POST /profile", s.HandleCreateProfile())
	mux.HandleFunc("PATCH /profile", s.HandleUpdateProfile())

	cors := middleware.CORS(middleware.NewOriginPolicy(s.AllowedOrigins))
	return cors(s.Auth.Middleware(mux))
}

// request forwards msg to the engine actor.
func (s *Server) request(msg interface{}) (interface{}, error) {
	return actors.Request(s.Context, s.EnginePID, msg, s.RequestTimeout)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	body, err := sonic.Marshal(v)
	if err != nil {
		s.Logger.Error("Failed to encode response", zap.Error(err))
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	var appErr *utils.AppError
	if !errors.As(err, &appErr) {
		appErr = utils.NewAppError(utils.ErrStorage, "request failed", err)
	}
	status := utils.AppErrorToHTTPStatus(appErr.Code)
	if status >= http.StatusInternalServerError {
		s.Logger.Error("Request failed", zap.String("code", appErr.Code), zap.Error(err))
	}
	s.writeJSON(w, status, api.ErrorResponse{Code: appErr.Code, Message: appErr.Message})
}

// respond writes the engine reply for msg, or its error.
func (s *Server) respond(w http.ResponseWriter, status int, msg interface{}) {
	result, err := s.request(msg)
	if err != nil {
		s.writeError(w, err)
		return
	}
	switch r := result.(type) {
	case *actors.CreatedResponse:
		s.writeJSON(w, http.StatusCreated, api.CreatedResponse{ID: r.ID})
	case bool:
		w.WriteHeader(http.StatusNoContent)
	default:
		s.writeJSON(w, status, r)
	}
}

func decode(r *http.Request, v interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return utils.NewAppError(utils.ErrInvalidInput, "Failed to read request body", err)
	}
	if err := sonic.Unmarshal(body, v); err != nil {
		return utils.NewAppError(utils.ErrInvalidInput, "Invalid request format", err)
	}
	return nil
}

func pathID(r *http.Request, name string) (uint64, error) {
	id, err := strconv.ParseUint(r.PathValue(name), 10, 64)
	if err != nil || id == 0 {
		return 0, utils.NewAppError(utils.ErrInvalidInput, "Invalid "+name+" in path", err)
	}
	return id, nil
}

// callerActor returns the actor resolved by the auth middleware.
func callerActor(r *http.Request) (models.Actor, error) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		return models.Actor{}, utils.NewAppError(utils.ErrUnauthorized, "caller is not authenticated", nil)
	}
	return actor, nil
}
