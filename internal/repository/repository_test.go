package repository

import (
	"context"
	"errors"
	"sync"
	"techlift_backend/internal/model"
	"techlift_backend/internal/util"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(
		&model.User{},
		&model.LessonCompletion{},
		&model.CourseCompletion{},
		&model.QuizResultRecord{},
		&model.Post{},
		&model.PostLike{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func createUser(t *testing.T, db *gorm.DB, email string) *model.User {
	t.Helper()
	user := &model.User{DisplayName: "Dana", Email: email, Password: "x"}
	if err := NewUserRepository(db).Create(user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func TestCompletionRepository_RoundTrip(t *testing.T) {
	db := openTestDB(t)
	user := createUser(t, db, "dana@example.com")
	repo := NewCompletionRepository(db)
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	if err := repo.SetLessonCompleted(ctx, user.ID, "frontend_1", true, at); err != nil {
		t.Fatalf("set lesson: %v", err)
	}
	if err := repo.SetLessonCompleted(ctx, user.ID, "frontend_2", true, at); err != nil {
		t.Fatalf("set lesson: %v", err)
	}
	if err := repo.SetLessonCompleted(ctx, user.ID, "frontend_2", false, at); err != nil {
		t.Fatalf("unset lesson: %v", err)
	}
	if err := repo.SetCourseCompleted(ctx, user.ID, "ai", at); err != nil {
		t.Fatalf("set course: %v", err)
	}
	if err := repo.SetCourseCompleted(ctx, user.ID, "ai", at.Add(time.Hour)); err != nil {
		t.Fatalf("set course again: %v", err)
	}
	if err := repo.UpdateStreak(ctx, user.ID, 4, at); err != nil {
		t.Fatalf("update streak: %v", err)
	}

	record, err := repo.GetCompletionRecord(ctx, user.ID)
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if !record.CompletedLessonIDs["frontend_1"] || record.CompletedLessonIDs["frontend_2"] {
		t.Fatalf("unexpected lessons: %v", record.CompletedLessonIDs)
	}
	if len(record.CompletedCourseIDs) != 1 || !record.CompletedCourseIDs["ai"] {
		t.Fatalf("unexpected courses: %v", record.CompletedCourseIDs)
	}
	if record.CurrentStreakDays != 4 || !record.LastLoginAt.Equal(at) {
		t.Fatalf("unexpected streak: %d %v", record.CurrentStreakDays, record.LastLoginAt)
	}

	var rows int64
	db.Model(&model.LessonCompletion{}).Where("user_id = ?", user.ID).Count(&rows)
	if rows != 2 {
		t.Fatalf("expected one row per lesson, got %d", rows)
	}
}

func TestCompletionRepository_ConcurrentLessonWrites(t *testing.T) {
	db := openTestDB(t)
	user := createUser(t, db, "kai@example.com")
	repo := NewCompletionRepository(db)
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- repo.SetLessonCompleted(ctx, user.ID, "ai_1", true, at)
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("set lesson: %v", err)
		}
	}

	if err := repo.SetLessonCompleted(ctx, user.ID, "ai_1", false, at.Add(time.Minute)); err != nil {
		t.Fatalf("unset lesson: %v", err)
	}
	var rows []model.LessonCompletion
	db.Where("user_id = ? AND lesson_id = ?", user.ID, "ai_1").Find(&rows)
	if len(rows) != 1 || rows[0].Completed || rows[0].CompletedAt != nil {
		t.Fatalf("expected a single incomplete row, got %+v", rows)
	}

	if err := repo.SetCourseCompleted(ctx, user.ID, "ai", at); err != nil {
		t.Fatalf("set course: %v", err)
	}
	if err := repo.SetCourseCompleted(ctx, user.ID, "ai", at.Add(time.Hour)); err != nil {
		t.Fatalf("set course again: %v", err)
	}
	var course model.CourseCompletion
	if err := db.Where("user_id = ? AND course_id = ?", user.ID, "ai").First(&course).Error; err != nil {
		t.Fatalf("load course: %v", err)
	}
	if !course.CompletedAt.Equal(at) {
		t.Fatalf("expected first completion time kept, got %v", course.CompletedAt)
	}
}

func TestCompletionRepository_UnknownUser(t *testing.T) {
	db := openTestDB(t)
	repo := NewCompletionRepository(db)

	if _, err := repo.GetCompletionRecord(context.Background(), "missing"); !errors.Is(err, util.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if err := repo.UpdateStreak(context.Background(), "missing", 1, time.Now()); !errors.Is(err, util.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestCompletionRepository_QuizResults(t *testing.T) {
	db := openTestDB(t)
	repo := NewCompletionRepository(db)
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	for i, score := range []int{40, 80, 60} {
		result := model.QuizResult{
			QuizID:         "frontend_1",
			UserID:         "u1",
			ScorePercent:   score,
			TotalQuestions: 5,
			Passed:         score >= 70,
			CompletedAt:    at.Add(time.Duration(i) * time.Minute),
		}
		if err := repo.SaveQuizResult(ctx, result); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	history, err := repo.QuizHistory(ctx, "u1", "frontend_1", 10)
	if err != nil || len(history) != 3 {
		t.Fatalf("expected 3 attempts, got %d (%v)", len(history), err)
	}
	if history[0].ScorePercent != 60 {
		t.Fatalf("expected newest first, got %d", history[0].ScorePercent)
	}
	best, ok, err := repo.BestScore(ctx, "u1", "frontend_1")
	if err != nil || !ok || best != 80 {
		t.Fatalf("expected best 80, got %d %v %v", best, ok, err)
	}
	if _, ok, _ := repo.BestScore(ctx, "u1", "css"); ok {
		t.Fatalf("no attempts expected")
	}
}

func TestPostRepository_LikeOncePerUser(t *testing.T) {
	db := openTestDB(t)
	repo := NewPostRepository(db)

	post := &model.Post{UserID: "u1", Title: "Hello", Content: "First post"}
	if err := repo.Create(post); err != nil {
		t.Fatalf("create: %v", err)
	}

	for i := 0; i < 2; i++ {
		if _, err := repo.Like("u2", post.ID); err != nil {
			t.Fatalf("like: %v", err)
		}
	}
	got, err := repo.FindByID(post.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.Likes != 1 || !repo.HasLiked("u2", post.ID) {
		t.Fatalf("expected one like, got %d", got.Likes)
	}

	if err := repo.Delete(post.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if repo.HasLiked("u2", post.ID) {
		t.Fatalf("likes should be removed with the post")
	}
}

func TestPostRepository_CreateIfAbsentAndOrdering(t *testing.T) {
	db := openTestDB(t)
	repo := NewPostRepository(db)
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	older := &model.Post{UserID: "u1", Title: "Older", Content: "a"}
	older.ID = "seed-1"
	older.CreatedAt = base
	newer := &model.Post{UserID: "u1", Title: "Newer", Content: "b"}
	newer.ID = "seed-2"
	newer.CreatedAt = base.Add(time.Hour)

	for _, p := range []*model.Post{older, newer} {
		if created, err := repo.CreateIfAbsent(p); err != nil || !created {
			t.Fatalf("create %s: %v %v", p.ID, created, err)
		}
	}
	dup := &model.Post{UserID: "u1", Title: "Dup", Content: "c"}
	dup.ID = "seed-1"
	if created, err := repo.CreateIfAbsent(dup); err != nil || created {
		t.Fatalf("duplicate id must be skipped: %v %v", created, err)
	}

	posts, total, err := repo.FindWithPagination(0, 10, "", "")
	if err != nil || total != 2 {
		t.Fatalf("expected 2 posts, got %d (%v)", total, err)
	}
	if posts[0].ID != "seed-2" {
		t.Fatalf("expected newest first, got %s", posts[0].ID)
	}
}

func TestUserRepository_FindWithLocation(t *testing.T) {
	db := openTestDB(t)
	repo := NewUserRepository(db)

	lat, lng := 32.08, 34.78
	located := &model.User{DisplayName: "Avi", Email: "avi@example.com", Password: "x", Latitude: &lat, Longitude: &lng}
	if err := repo.Create(located); err != nil {
		t.Fatalf("create: %v", err)
	}
	createUser(t, db, "noloc@example.com")

	users, err := repo.FindWithLocation(10)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(users) != 1 || users[0].ID != located.ID {
		t.Fatalf("expected only the located user, got %d", len(users))
	}
}
