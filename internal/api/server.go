package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/maqsadm/maqsadm/internal/service"
)

type Server struct {
	mx                 *chi.Mux
	userService        service.UserServiceI
	groupsService      service.GroupsServiceI
	tasksService       service.TasksServiceI
	completionsService service.CompletionsServiceI
	leaderboardService service.LeaderboardServiceI
	assistant          AssistantI
	jwtService         JWTServiceI
}

type ServicesList struct {
	UserService        service.UserServiceI
	GroupsService      service.GroupsServiceI
	TasksService       service.TasksServiceI
	CompletionsService service.CompletionsServiceI
	LeaderboardService service.LeaderboardServiceI
	Assistant          AssistantI
	JwtService         JWTServiceI
}

func New(servicesOptions *ServicesList) *Server {
	s := &Server{
		mx:                 chi.NewMux(),
		userService:        servicesOptions.UserService,
		groupsService:      servicesOptions.GroupsService,
		tasksService:       servicesOptions.TasksService,
		completionsService: servicesOptions.CompletionsService,
		leaderboardService: servicesOptions.LeaderboardService,
		assistant:          servicesOptions.Assistant,
		jwtService:         servicesOptions.JwtService,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mx.Handle("/metrics", promhttp.Handler())
	s.mx.Route("/api/v1", func(r chi.Router) {
		r.Use(s.RequestIDMiddleware)
		r.Use(s.SettingUpLoggerMiddleware)
		r.Use(s.MetricsMiddleware)
		r.Post("/auth/register", s.Register)
		r.Post("/auth/login", s.Login)
		r.Group(func(r chi.Router) {
			r.Use(s.AuthMiddleware)
			r.Use(s.LoggerExtensionMiddleware)
			r.Get("/users/me", s.GetMe)
			r.Patch("/users/me", s.UpdateGoals)
			r.Delete("/users/me", s.DeleteAccount)

			r.Post("/groups", s.CreateGroup)
			r.Get("/groups", s.MyGroups)
			r.Post("/groups/{id}/join", s.JoinGroup)
			r.Post("/groups/{id}/leave", s.LeaveGroup)
			r.Delete("/groups/{id}", s.DeleteGroup)
			r.Get("/groups/{id}/members", s.GroupMembers)

			r.Post("/tasks", s.CreateTask)
			r.Get("/tasks", s.ListTasks)
			r.Get("/tasks/today", s.TodayTasks)
			r.Delete("/tasks/{id}", s.DeleteTask)
			r.Post("/tasks/{id}/complete", s.CompleteTask)
			r.Get("/completions", s.CompletionHistory)

			r.Get("/leaderboard", s.Leaderboard)
			r.Get("/leaderboard/me", s.MyRank)

			r.Group(func(r chi.Router) {
				r.Use(s.AIRateLimitMiddleware)
				r.Post("/ai/analysis", s.Analysis)
				r.Post("/ai/assistant", s.AssistantFlow)
				r.Post("/ai/chat", s.Chat)
			})
		})
	})
}

func (s *Server) Run(address string) error {
	return http.ListenAndServe(address, s.mx)
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler {
	return s.mx
}
