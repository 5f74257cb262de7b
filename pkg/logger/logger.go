package logger

import (
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"
)

var (
	mu  sync.Mutex
	out io.Writer = os.Stdout
)

func Init() {
	mu.Lock()
	defer mu.Unlock()
	out = os.Stdout
}

// SetOutput redirects log output, used by tests to silence or capture events.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
}

func emit(level, event string, fields map[string]interface{}) {
	entry := map[string]interface{}{
		"ts":    time.Now().UTC().Format(time.RFC3339Nano),
		"level": level,
		"event": event,
	}
	for key, value := range fields {
		entry[key] = value
	}

	encoded, err := json.Marshal(entry)
	if err != nil {
		return
	}

	mu.Lock()
	defer mu.Unlock()
	_, _ = out.Write(append(encoded, '\n'))
}

func Info(event string, fields map[string]interface{}) {
	emit("info", event, fields)
}

func Warn(event string, fields map[string]interface{}) {
	emit("warn", event, fields)
}

func Error(event string, err error, fields map[string]interface{}) {
	merged := map[string]interface{}{}
	for key, value := range fields {
		merged[key] = value
	}
	if err != nil {
		merged["error"] = err.Error()
	}
	emit("error", event, merged)
}

func InfoWithUser(userID, event string, fields map[string]interface{}) {
	merged := map[string]interface{}{"user_id": userID}
	for key, value := range fields {
		merged[key] = value
	}
	emit("info", event, merged)
}

func WarnWithUser(userID, event string, fields map[string]interface{}) {
	merged := map[string]interface{}{"user_id": userID}
	for key, value := range fields {
		merged[key] = value
	}
	emit("warn", event, merged)
}
