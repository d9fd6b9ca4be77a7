package quiz

import (
	"techlift_backend/internal/model"
	"time"
)

// CorrectCount counts the answers that match the correct option index.
// Unanswered entries never match.
func CorrectCount(q model.Quiz, answers []int) int {
	correct := 0
	for i, question := range q.Questions {
		if i < len(answers) && answers[i] == question.CorrectOptionIndex {
			correct++
		}
	}
	return correct
}

// ScorePercent is floor(correct*100/total). An empty quiz scores 0.
func ScorePercent(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return correct * 100 / total
}

func Passed(scorePercent, passingScorePercent int) bool {
	return scorePercent >= passingScorePercent
}

// Grade computes the result of an attempt finished at now.
func Grade(q model.Quiz, userID string, attempt model.QuizAttempt, now time.Time) model.QuizResult {
	total := len(q.Questions)
	correct := CorrectCount(q, attempt.UserAnswers)
	score := ScorePercent(correct, total)

	return model.QuizResult{
		QuizID:         q.ID,
		UserID:         userID,
		ScorePercent:   score,
		CorrectCount:   correct,
		TotalQuestions: total,
		ElapsedMillis:  now.Sub(attempt.StartedAt).Milliseconds(),
		Passed:         Passed(score, q.PassingScorePercent),
		CompletedAt:    now,
	}
}
