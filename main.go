package main

import (
	"fmt"
	"log"
	"os"

	_ "talkplanner/docs"
	"talkplanner/internal/auth"
	"talkplanner/internal/handlers"
	"talkplanner/internal/models"
	"talkplanner/internal/storage"
	"talkplanner/internal/tasks"
	"talkplanner/internal/ws"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @Title						Public talk planner
// @securityDefinitions.apikey	BearerAuth
// @in							header
// @name						Authorization
func main() {
	key := os.Getenv("ENV_CHECK")
	if key == "" {
		fmt.Println("Loading .env")
		if err := godotenv.Load(); err != nil {
			log.Fatal("Could not load .env")
		}
	}

	storage.ConnectDatabase()

	if err := storage.DB.AutoMigrate(
		&models.User{},
		&models.Congregation{},
		&models.Talk{},
		&models.Speaker{},
		&models.ScheduleEntry{},
		&models.TalkHistory{},
		&models.Arrangement{},
	); err != nil {
		log.Fatal("Migration failed... ", err.Error())
	}

	storage.InitRedis()

	tasks.InitScheduler()

	go ws.HubInstance.Run()

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	authGroup := r.Group("/auth")
	{
		authGroup.POST("/login", handlers.Login)
		authGroup.POST("/refresh", handlers.RefreshToken)
		if os.Getenv("ALLOW_PUBLIC_REGISTRATION") == "true" {
			authGroup.POST("/register", handlers.Register)
		}
	}

	authProtected := r.Group("/auth", auth.AuthMiddleware())
	{
		authProtected.GET("/me", handlers.Me)
		authProtected.POST("/change-password", handlers.ChangePassword)
	}

	public := r.Group("/public")
	{
		public.GET("/upcoming-talks", handlers.GetUpcomingTalksHandler)
	}

	api := r.Group("/api", auth.AuthMiddleware())
	{
		api.GET("/schedule-entries", handlers.ListEntriesHandler)
		api.GET("/schedule-entries/upcoming", handlers.UpcomingEntriesHandler)
		api.GET("/schedule-entries/gaps", handlers.GapWeeksHandler)
		api.GET("/schedule-entries/:id", handlers.GetEntryHandler)
		api.POST("/schedule-entries", handlers.CreateEntryHandler)
		api.PUT("/schedule-entries/:id", handlers.UpdateEntryHandler)
		api.DELETE("/schedule-entries/:id", handlers.DeleteEntryHandler)
		api.POST("/schedule-entries/:id/complete", handlers.CompleteEntryHandler)

		api.GET("/talks", handlers.ListTalksHandler)
		api.GET("/talks/:id", handlers.GetTalkHandler)
		api.GET("/talks/:id/availability", handlers.TalkAvailabilityHandler)
		api.GET("/talks/:id/recent", handlers.TalkRecentHandler)
		api.GET("/talks/:id/history", handlers.TalkHistoryHandler)
		api.POST("/talks", handlers.CreateTalkHandler)
		api.PUT("/talks/:id", handlers.UpdateTalkHandler)
		api.DELETE("/talks/:id", handlers.DeleteTalkHandler)

		api.GET("/speakers", handlers.ListSpeakersHandler)
		api.GET("/speakers/:id", handlers.GetSpeakerHandler)
		api.GET("/speakers/:id/history", handlers.SpeakerHistoryHandler)

		api.GET("/congregations", handlers.ListCongregationsHandler)
		api.GET("/congregations/:id", handlers.GetCongregationHandler)
		api.GET("/congregations/:id/history", handlers.CongregationHistoryHandler)

		api.GET("/arrangements", handlers.ListArrangementsHandler)
		api.GET("/arrangements/:id", handlers.GetArrangementHandler)
		api.POST("/arrangements", handlers.CreateArrangementHandler)
		api.PUT("/arrangements/:id", handlers.UpdateArrangementHandler)
		api.DELETE("/arrangements/:id", handlers.DeleteArrangementHandler)

		api.GET("/users", handlers.ListUsersHandler)
		api.GET("/users/:id", handlers.GetUserHandler)
		api.PUT("/users/:id", handlers.UpdateUserHandler)
		api.POST("/users/:id/reset-password", handlers.ResetPasswordHandler)

		api.GET("/ws", ws.ScheduleWebSocketHandler)

		admin := api.Group("", auth.AdminMiddleware())
		{
			admin.POST("/speakers", handlers.CreateSpeakerHandler)
			admin.PUT("/speakers/:id", handlers.UpdateSpeakerHandler)
			admin.DELETE("/speakers/:id", handlers.DeleteSpeakerHandler)

			admin.POST("/congregations", handlers.CreateCongregationHandler)
			admin.PUT("/congregations/:id", handlers.UpdateCongregationHandler)
			admin.DELETE("/congregations/:id", handlers.DeleteCongregationHandler)

			admin.POST("/users", handlers.CreateUserHandler)
			admin.DELETE("/users/:id", handlers.DeleteUserHandler)
		}
	}

	if err := r.Run(":8080"); err != nil {
		log.Fatal("Server failed to start...", err.Error())
	}
}
