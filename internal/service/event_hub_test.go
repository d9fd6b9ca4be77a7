package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"techlift_backend/internal/model"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met in time")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestEventHub_DeliversToUserStream(t *testing.T) {
	hub := NewEventHub(nil)
	defer hub.Stop()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Serve(w, r, r.URL.Query().Get("user"))
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?user=u1"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	waitFor(t, func() bool { return hub.Subscribers("u1") == 1 })

	notifier := NewEventNotifier(hub)
	notifier.LessonCompleted("u2", "frontend_1")
	notifier.CourseCompleted("u1", "frontend")

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.Type != EventCourseCompleted || ev.CourseID != "frontend" || ev.UserID != "u1" {
		t.Fatalf("unexpected event: %+v", ev)
	}

	conn.Close()
	waitFor(t, func() bool { return hub.Subscribers("u1") == 0 })
}

func TestEventNotifier_WithoutHub(t *testing.T) {
	n := NewEventNotifier(nil)
	n.QuizFinished(model.QuizResult{UserID: "u1", QuizID: "q", ScorePercent: 80, Passed: true})
	n.SyncFailed("u1", "SaveQuizResult", http.ErrHandlerTimeout)
}

func TestKeyedMutex_SerialisesSameKey(t *testing.T) {
	locks := newKeyedMutex()
	var wg sync.WaitGroup
	counter := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock("user-1")
			defer unlock()
			v := counter
			time.Sleep(time.Microsecond)
			counter = v + 1
		}()
	}
	wg.Wait()
	if counter != 50 {
		t.Fatalf("expected 50 increments, got %d", counter)
	}

	unlockA := locks.Lock("a")
	unlockB := locks.Lock("b")
	unlockB()
	unlockA()
}

func TestEventHub_PublishKeepsOrder(t *testing.T) {
	hub := NewEventHub(nil)
	defer hub.Stop()

	var mu sync.Mutex
	var got []string
	hub.publish = func(ctx context.Context, channel string, payload []byte) error {
		var ev Event
		if err := json.Unmarshal(payload, &ev); err != nil {
			return err
		}
		if ev.Type == EventLessonCompleted {
			time.Sleep(30 * time.Millisecond)
		}
		mu.Lock()
		defer mu.Unlock()
		got = append(got, channel+" "+ev.Type)
		return nil
	}

	notifier := NewEventNotifier(hub)
	notifier.LessonCompleted("u1", "frontend_3")
	notifier.CourseCompleted("u1", "frontend")

	mu.Lock()
	defer mu.Unlock()
	want := []string{
		EventChannel("u1") + " " + EventLessonCompleted,
		EventChannel("u1") + " " + EventCourseCompleted,
	}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("expected %v, got %v", want, got)
	}
}
