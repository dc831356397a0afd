package router

import (
	"context"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/auth"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/recovery"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/selector"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/dtroode/podkeeper/internal/api/grpc/handler"
	"github.com/dtroode/podkeeper/internal/api/grpc/middleware"
	"github.com/dtroode/podkeeper/internal/api/grpc/rpc"
	"github.com/dtroode/podkeeper/internal/logger"
	"github.com/dtroode/podkeeper/internal/model"
)

// Router represents a gRPC router for podkeeper operations.
// It manages gRPC service registration and middleware configuration.
type Router struct {
	documentService handler.DocumentService
	accessService   handler.AccessService
	rosterService   handler.RosterService
	activityService handler.ActivityService
	tokenService    middleware.TokenService
	contextManager  model.ContextManager
	logger          *logger.Logger
}

// New creates new gRPC Router instance.
func New(
	documentService handler.DocumentService,
	accessService handler.AccessService,
	rosterService handler.RosterService,
	activityService handler.ActivityService,
	tokenService middleware.TokenService,
	contextManager model.ContextManager,
	logger *logger.Logger,
) *Router {
	return &Router{
		documentService: documentService,
		accessService:   accessService,
		rosterService:   rosterService,
		activityService: activityService,
		tokenService:    tokenService,
		contextManager:  contextManager,
		logger:          logger,
	}
}

// authSkip selects the calls that need a bearer token. Health checks are public.
func authSkip(_ context.Context, c interceptors.CallMeta) bool {
	return !strings.HasPrefix(c.FullMethod(), "/"+healthpb.Health_ServiceDesc.ServiceName+"/")
}

// Register registers all gRPC services and middleware.
// Returns the configured gRPC server instance.
func (r *Router) Register() *grpc.Server {
	logging := middleware.NewLogging(r.logger)
	authenticate := middleware.NewAuthenticate(r.tokenService, r.contextManager, r.logger)
	recoverer := recovery.WithRecoveryHandler(func(p any) error {
		r.logger.Error("gRPC handler panicked", "panic", p)
		return status.Error(codes.Internal, "internal server error")
	})

	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			logging.HandleGRPC,
			recovery.UnaryServerInterceptor(recoverer),
			selector.UnaryServerInterceptor(
				auth.UnaryServerInterceptor(authenticate.AuthFunc),
				selector.MatchFunc(authSkip),
			),
		),
		grpc.ChainStreamInterceptor(
			recovery.StreamServerInterceptor(recoverer),
			selector.StreamServerInterceptor(
				auth.StreamServerInterceptor(authenticate.AuthFunc),
				selector.MatchFunc(authSkip),
			),
		),
	)
	r.registerDocumentRoutes(s)
	r.registerAccessRoutes(s)
	r.registerRosterRoutes(s)
	healthpb.RegisterHealthServer(s, health.NewServer())

	return s
}

func (r *Router) registerDocumentRoutes(server *grpc.Server) {
	documentHandler := handler.NewDocuments(r.documentService, r.contextManager, r.logger)
	rpc.RegisterDocumentsServer(server, documentHandler)
}

func (r *Router) registerAccessRoutes(server *grpc.Server) {
	accessHandler := handler.NewAccess(r.accessService, r.contextManager, r.logger)
	rpc.RegisterAccessServer(server, accessHandler)
}

func (r *Router) registerRosterRoutes(server *grpc.Server) {
	rosterHandler := handler.NewRoster(r.rosterService, r.activityService, r.contextManager, r.logger)
	rpc.RegisterRosterServer(server, rosterHandler)
}
