package utils

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func performHandlerRequest(t *testing.T, handler fiber.Handler) *http.Response {
	t.Helper()

	app := fiber.New()
	app.Get("/test", handler)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/test", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed reading body: %v", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("failed decoding body %q: %v", string(raw), err)
	}
	return payload
}

func TestError(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		message string
	}{
		{
			name:    "validation error",
			status:  fiber.StatusBadRequest,
			message: "invalid email",
		},
		{
			name:    "not found",
			status:  fiber.StatusNotFound,
			message: "student not found",
		},
		{
			name:    "conflict",
			status:  fiber.StatusConflict,
			message: "user already exists",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := performHandlerRequest(t, func(c *fiber.Ctx) error {
				return Error(c, tt.status, tt.message)
			})

			if resp.StatusCode != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, resp.StatusCode)
			}

			body := decodeBody(t, resp)
			if body["message"] != tt.message {
				t.Fatalf("expected message %q, got %+v", tt.message, body)
			}
			if len(body) != 1 {
				t.Fatalf("error body must carry only the message, got %+v", body)
			}
		})
	}
}

func TestOK(t *testing.T) {
	resp := performHandlerRequest(t, func(c *fiber.Ctx) error {
		return OK(c, fiber.Map{"ok": true})
	})

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	body := decodeBody(t, resp)
	if body["ok"] != true {
		t.Fatalf("expected ok=true, got %+v", body)
	}
}
