// @title MaqsadM API
// @description API for social goal-tracker "MaqsadM"
// @BasePath /api/v1
// @schemes http
package main

import (
	"log"

	"github.com/maqsadm/maqsadm/internal/ai"
	"github.com/maqsadm/maqsadm/internal/api"
	"github.com/maqsadm/maqsadm/internal/repository"
	"github.com/maqsadm/maqsadm/internal/service"
	"github.com/maqsadm/maqsadm/pkg/cleanup"
	"github.com/maqsadm/maqsadm/pkg/config"
	jwtservice "github.com/maqsadm/maqsadm/pkg/jwt_service"
)

func init() {
	service.InitValidator()
}

func main() {
	defer cleanup.CleanUp()
	cfg := config.New()
	dbCfg := repository.PGCfg{
		Address:  cfg.GetString("POSTGRES_DB_ADDRESS"),
		Username: cfg.GetString("POSTGRES_USER"),
		Password: cfg.GetString("POSTGRES_PASSWORD"),
		DB:       cfg.GetString("POSTGRES_DB"),
	}
	redisCfg := repository.RedisCfg{
		Address:  cfg.GetString("REDIS_ADDRESS"),
		Password: cfg.GetString("REDIS_PASSWORD"),
		DB:       cfg.GetInt("REDIS_DB", 0),
	}

	usersRepo := repository.NewUsersRepo(&dbCfg)
	groupsRepo := repository.NewGroupsRepo(&dbCfg)
	tasksRepo := repository.NewTasksRepo(&dbCfg)
	completionsRepo := repository.NewCompletionsRepo(&dbCfg)
	leaderboardCache := repository.NewLeaderboardCache(&redisCfg)

	userService := service.NewUserService(usersRepo)
	groupsService := service.NewGroupsService(groupsRepo)
	tasksService := service.NewTasksService(tasksRepo, groupsRepo, completionsRepo)
	completionsService := service.NewCompletionsService(tasksRepo, groupsRepo, completionsRepo, leaderboardCache)
	leaderboardService := service.NewLeaderboardService(usersRepo, leaderboardCache)

	model, err := ai.NewModel(ai.Config{
		BaseURL: cfg.GetStringOr("AI_BASE_URL", ""),
		Model:   cfg.GetString("AI_MODEL"),
		APIKey:  cfg.GetString("AI_API_KEY"),
	})
	if err != nil {
		log.Fatal("creating ai client error: " + err.Error())
	}

	serv := api.New(&api.ServicesList{
		UserService:        userService,
		GroupsService:      groupsService,
		TasksService:       tasksService,
		CompletionsService: completionsService,
		LeaderboardService: leaderboardService,
		Assistant:          ai.NewAssistant(model, tasksService),
		JwtService:         jwtservice.New(cfg.GetString("JWT_SECRET")),
	})
	err = serv.Run(cfg.GetString("API_ADDRESS"))
	if err != nil {
		log.Println("Server error: " + err.Error())
	}
}
