package service

import (
	"encoding/json"
	"techlift_backend/internal/model"
	"techlift_backend/internal/progress"
	"techlift_backend/pkg/logger"
	"techlift_backend/pkg/monitoring"
	"time"

	"go.uber.org/zap"
)

const (
	EventLessonCompleted = "lesson_completed"
	EventCourseCompleted = "course_completed"
	EventQuizFinished    = "quiz_finished"
	EventSyncFailed      = "sync_failed"
)

// Event is published to the user's channel for connected clients.
type Event struct {
	Type     string            `json:"type"`
	UserID   string            `json:"userId"`
	LessonID string            `json:"lessonId,omitempty"`
	CourseID string            `json:"courseId,omitempty"`
	Result   *model.QuizResult `json:"result,omitempty"`
	Op       string            `json:"op,omitempty"`
	Error    string            `json:"error,omitempty"`
	At       time.Time         `json:"at"`
}

func EventChannel(userID string) string {
	return "techlift:events:" + userID
}

// LogNotifier logs and counts progress events.
type LogNotifier struct{}

func NewLogNotifier() LogNotifier {
	return LogNotifier{}
}

func (LogNotifier) LessonCompleted(userID, lessonID string) {
	monitoring.CompletionEvents.WithLabelValues("lesson").Inc()
	logger.Log.Info("Lesson completed", zap.String("userID", userID), zap.String("lessonID", lessonID))
}

func (LogNotifier) CourseCompleted(userID, courseID string) {
	monitoring.CompletionEvents.WithLabelValues("course").Inc()
	logger.Log.Info("Course completed", zap.String("userID", userID), zap.String("courseID", courseID))
}

func (LogNotifier) QuizFinished(result model.QuizResult) {
	monitoring.QuizScore.WithLabelValues(result.QuizID).Observe(float64(result.ScorePercent))
	logger.Log.Info("Quiz finished",
		zap.String("userID", result.UserID),
		zap.String("quizID", result.QuizID),
		zap.Int("score", result.ScorePercent),
		zap.Bool("passed", result.Passed))
}

func (LogNotifier) SyncFailed(userID, op string, err error) {
	monitoring.SyncFailures.WithLabelValues(op).Inc()
}

// EventNotifier streams progress events to the user's clients through the hub.
type EventNotifier struct {
	Hub *EventHub
}

func NewEventNotifier(hub *EventHub) *EventNotifier {
	return &EventNotifier{Hub: hub}
}

func (n *EventNotifier) LessonCompleted(userID, lessonID string) {
	n.publish(Event{Type: EventLessonCompleted, UserID: userID, LessonID: lessonID})
}

func (n *EventNotifier) CourseCompleted(userID, courseID string) {
	n.publish(Event{Type: EventCourseCompleted, UserID: userID, CourseID: courseID})
}

func (n *EventNotifier) QuizFinished(result model.QuizResult) {
	n.publish(Event{Type: EventQuizFinished, UserID: result.UserID, Result: &result})
}

func (n *EventNotifier) SyncFailed(userID, op string, err error) {
	n.publish(Event{Type: EventSyncFailed, UserID: userID, Op: op, Error: err.Error()})
}

func (n *EventNotifier) publish(ev Event) {
	if n.Hub == nil || ev.UserID == "" {
		return
	}
	ev.At = time.Now()
	payload, err := json.Marshal(ev)
	if err != nil {
		logger.Log.Warn("Failed to encode progress event", zap.String("type", ev.Type), zap.Error(err))
		return
	}
	n.Hub.Publish(ev.UserID, payload)
}

// NewProgressNotifier logs every event and streams it to connected clients.
func NewProgressNotifier(hub *EventHub) progress.Notifier {
	return progress.MultiNotifier{NewLogNotifier(), NewEventNotifier(hub)}
}
