package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/edulane/edulane-backend/internal/config"
	"github.com/edulane/edulane-backend/internal/database"
	"github.com/edulane/edulane-backend/internal/logger"
	"github.com/edulane/edulane-backend/internal/model"
	"github.com/edulane/edulane-backend/internal/repository"
	"github.com/edulane/edulane-backend/internal/service"
)

// Seeds a demo course, students, and a published exam with one
// question of each type. Intended for local development only.
func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	studentRepo := repository.NewStudentRepository(pool)
	courseRepo := repository.NewCourseRepository(pool)
	examRepo := repository.NewExamRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	resultRepo := repository.NewResultRepository(pool)

	authService := service.NewAuthService(cfg, rdb)
	studentService := service.NewStudentService(studentRepo, authService, log)
	courseService := service.NewCourseService(courseRepo, studentRepo, log)
	examService := service.NewExamService(examRepo, questionRepo, resultRepo, rdb, log)

	fmt.Println("=== Seeding demo data ===")

	course, err := courseService.Create(ctx, "Introduction to Programming", "Demo course for local development")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create course")
	}
	fmt.Printf("Created course %s\n", course.ID)

	names := []string{"Alice Chen", "Bob Martin", "Carol Diaz", "Dan Okafor", "Eve Novak"}
	for i, name := range names {
		student, err := studentService.Create(ctx, &model.CreateStudentRequest{
			Email:    fmt.Sprintf("student%d@example.com", i+1),
			Name:     name,
			Password: "password123",
		})
		if err != nil {
			log.Fatal().Err(err).Str("name", name).Msg("Failed to create student")
		}
		if err := courseService.Enroll(ctx, course.ID, student.ID); err != nil {
			log.Fatal().Err(err).Msg("Failed to enroll student")
		}
		fmt.Printf("Created student %d (%s)\n", student.ID, student.Email)
	}

	exam, err := examService.Create(ctx, &model.CreateExamRequest{
		Title:                  "Programming Fundamentals Quiz",
		CourseID:               &course.ID,
		DurationMinutes:        30,
		PassPercentage:         60,
		DisconnectGraceSeconds: 120,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create exam")
	}

	options, _ := json.Marshal(map[string]string{
		"A": "A named storage location",
		"B": "A loop construct",
		"C": "A compiler directive",
		"D": "A type of function",
	})

	_, err = examService.ReplaceQuestions(ctx, exam.ID, &model.ReplaceQuestionsRequest{
		Questions: []model.AddQuestionRequest{
			{
				QuestionText:  "What is a variable?",
				QuestionType:  string(model.QuestionTypeMCQ),
				Marks:         10,
				Options:       options,
				CorrectOption: "A",
				OrderNum:      1,
			},
			{
				QuestionText: "Explain recursion and when you would use it.",
				QuestionType: string(model.QuestionTypeDescriptive),
				Marks:        10,
				Keywords:     []string{"recursion", "base case"},
				MinWordCount: 20,
				OrderNum:     2,
			},
			{
				QuestionText: "Write a function that reverses a string.",
				QuestionType: string(model.QuestionTypeCoding),
				Marks:        10,
				OrderNum:     3,
			},
		},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to add questions")
	}

	if err := examService.Publish(ctx, exam.ID); err != nil {
		log.Fatal().Err(err).Msg("Failed to publish exam")
	}

	fmt.Printf("Published exam %s\n", exam.ID)
	fmt.Println("Done.")
}
