package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/edulane/edulane-backend/internal/config"
	"github.com/edulane/edulane-backend/internal/handler"
	"github.com/edulane/edulane-backend/internal/middleware"
	"github.com/edulane/edulane-backend/internal/model"
	"github.com/edulane/edulane-backend/internal/response"
	"github.com/edulane/edulane-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth         *handler.AuthHandler
	StudentExam  *handler.StudentExamHandler
	AdminExam    *handler.AdminExamHandler
	AdminStudent *handler.AdminStudentHandler
	Course       *handler.CourseHandler
	WS           *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Apply brotli middleware globally.
	router.Use(middleware.Brotli())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for auth routes (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/student/login", handlers.Auth.StudentLogin)
		auth.POST("/admin/login", handlers.Auth.AdminLogin)

		// Authenticated profile routes
		auth.POST("/student/logout", middleware.RequireStudentJWT(authService), handlers.Auth.StudentLogout)
		auth.GET("/student/me", middleware.RequireStudentJWT(authService), handlers.Auth.StudentMe)
	}

	// ─── 2. Student Group (JWT + Single Device) ────────────────────────
	studentAPI := router.Group("/api/v1/student")
	studentAPI.Use(
		middleware.RequireStudentJWT(authService),
		middleware.CheckSingleDeviceSession(authService),
	)
	{
		studentAPI.GET("/exams", handlers.StudentExam.GetLobby)
		studentAPI.POST("/exams/:exam_id/start", handlers.StudentExam.StartExam)
		studentAPI.GET("/exams/:exam_id/paper", handlers.StudentExam.GetExamPaper)
		studentAPI.PUT("/exams/:exam_id/answers", handlers.StudentExam.SaveAnswer)
		studentAPI.POST("/exams/:exam_id/submit", handlers.StudentExam.SubmitExam)
		studentAPI.GET("/exams/:exam_id/attempt", handlers.StudentExam.GetAttemptStatus)
	}

	// ─── 3. WebSocket Group (Student WS Auth) ──────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireStudentWSAuth(authService))
	{
		ws.GET("/student/stream", handlers.WS.ExamStream)
	}

	// ─── 4. Admin Group (JWT + RBAC) ───────────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.RequireAdminJWT(authService))
	{
		// Exam management
		adminAPI.GET("/exams",
			middleware.RequirePermission(string(model.PermissionExamsRead)),
			handlers.AdminExam.ListExams,
		)
		adminAPI.POST("/exams",
			middleware.RequirePermission(string(model.PermissionExamsWrite)),
			handlers.AdminExam.CreateExam,
		)
		adminAPI.GET("/exams/:exam_id",
			middleware.RequirePermission(string(model.PermissionExamsRead)),
			handlers.AdminExam.GetExam,
		)
		adminAPI.PUT("/exams/:exam_id",
			middleware.RequirePermission(string(model.PermissionExamsWrite)),
			handlers.AdminExam.UpdateExam,
		)
		adminAPI.DELETE("/exams/:exam_id",
			middleware.RequirePermission(string(model.PermissionExamsWrite)),
			handlers.AdminExam.DeleteExam,
		)
		adminAPI.POST("/exams/:exam_id/publish",
			middleware.RequirePermission(string(model.PermissionExamsPublish)),
			handlers.AdminExam.PublishExam,
		)
		adminAPI.POST("/exams/:exam_id/archive",
			middleware.RequirePermission(string(model.PermissionExamsPublish)),
			handlers.AdminExam.ArchiveExam,
		)

		// Question management
		adminAPI.GET("/exams/:exam_id/questions",
			middleware.RequirePermission(string(model.PermissionExamsRead)),
			handlers.AdminExam.ListQuestions,
		)
		adminAPI.PUT("/exams/:exam_id/questions",
			middleware.RequirePermission(string(model.PermissionExamsWrite)),
			handlers.AdminExam.ReplaceQuestions,
		)

		// Results and attempt administration
		adminAPI.GET("/exams/:exam_id/results",
			middleware.RequirePermission(string(model.PermissionExamsRead)),
			handlers.AdminExam.ListResults,
		)
		adminAPI.POST("/exams/:exam_id/students/:student_id/rewrite",
			middleware.RequirePermission(string(model.PermissionAttemptsRewrite)),
			handlers.AdminExam.RewriteAttempt,
		)
		adminAPI.POST("/exams/:exam_id/students/:student_id/finalize",
			middleware.RequirePermission(string(model.PermissionAttemptsFinalize)),
			handlers.AdminExam.FinalizeAttempt,
		)

		// Student management
		adminAPI.GET("/students",
			middleware.RequirePermission(string(model.PermissionStudentsRead)),
			handlers.AdminStudent.ListStudents,
		)
		adminAPI.POST("/students",
			middleware.RequirePermission(string(model.PermissionStudentsWrite)),
			handlers.AdminStudent.CreateStudent,
		)
		adminAPI.GET("/students/:student_id",
			middleware.RequirePermission(string(model.PermissionStudentsRead)),
			handlers.AdminStudent.GetStudent,
		)
		adminAPI.PUT("/students/:student_id",
			middleware.RequirePermission(string(model.PermissionStudentsWrite)),
			handlers.AdminStudent.UpdateStudent,
		)
		adminAPI.DELETE("/students/:student_id",
			middleware.RequirePermission(string(model.PermissionStudentsWrite)),
			handlers.AdminStudent.DeleteStudent,
		)
		adminAPI.POST("/students/:student_id/reset-session",
			middleware.RequirePermission(string(model.PermissionStudentsResetSession)),
			handlers.AdminStudent.ResetStudentSession,
		)

		// Courses and enrollment
		coursesGroup := adminAPI.Group("/courses")
		{
			coursesGroup.GET("", middleware.RequirePermission(string(model.PermissionExamsRead)), handlers.Course.ListCourses)
			coursesGroup.POST("", middleware.RequirePermission(string(model.PermissionExamsWrite)), handlers.Course.CreateCourse)
			coursesGroup.POST("/:course_id/students/:student_id", middleware.RequirePermission(string(model.PermissionStudentsWrite)), handlers.Course.EnrollStudent)
			coursesGroup.DELETE("/:course_id/students/:student_id", middleware.RequirePermission(string(model.PermissionStudentsWrite)), handlers.Course.UnenrollStudent)
		}
	}

	return router
}
