package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pvidal/amigoinvisible/internal/auth"
	"github.com/pvidal/amigoinvisible/internal/service"
	"github.com/pvidal/amigoinvisible/internal/storage/memory"
)

func setupTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.New()
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	authService := service.NewAuthService(auth.NewPasswordAuthenticator(store), jwtManager, store, logger)
	groupService := service.NewGroupService(store, logger)

	r := chi.NewRouter()
	NewHandlers(authService, groupService, logger).SetupRoutes(r, jwtManager)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

// doJSON performs a request with an optional bearer token and decodes the
// response body into out when it is non-nil.
func doJSON(t *testing.T, srv *httptest.Server, method, path, token string, body, out any) int {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, srv.URL+path, reqBody)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
			t.Fatalf("failed to decode response: %v", err)
		}
	}
	return resp.StatusCode
}

// register creates an account and returns its token and user ID.
func register(t *testing.T, srv *httptest.Server, name string) (token, userID string) {
	t.Helper()

	var session sessionResponse
	status := doJSON(t, srv, http.MethodPost, "/auth/register", "", registerRequest{
		Email:       name + "@example.com",
		Password:    "secret1",
		DisplayName: name,
	}, &session)
	if status != http.StatusCreated {
		t.Fatalf("register %s: status %d", name, status)
	}
	if session.Token == "" {
		t.Fatalf("register %s: empty token", name)
	}
	return session.Token, session.User.ID
}

func TestRegisterAndLogin(t *testing.T) {
	srv := setupTestServer(t)

	token, _ := register(t, srv, "ana")

	var me userResponse
	if status := doJSON(t, srv, http.MethodGet, "/me", token, nil, &me); status != http.StatusOK {
		t.Fatalf("GET /me: status %d", status)
	}
	if me.Email != "ana@example.com" || me.DisplayName != "ana" {
		t.Errorf("unexpected profile: %+v", me)
	}

	var session sessionResponse
	status := doJSON(t, srv, http.MethodPost, "/auth/login", "", loginRequest{
		Email: "ana@example.com", Password: "secret1",
	}, &session)
	if status != http.StatusOK || session.Token == "" {
		t.Errorf("login: status %d, token %q", status, session.Token)
	}

	status = doJSON(t, srv, http.MethodPost, "/auth/login", "", loginRequest{
		Email: "ana@example.com", Password: "wrong99",
	}, nil)
	if status != http.StatusUnauthorized {
		t.Errorf("bad login: status %d, want 401", status)
	}
}

func TestRegister_Conflicts(t *testing.T) {
	srv := setupTestServer(t)
	register(t, srv, "ana")

	status := doJSON(t, srv, http.MethodPost, "/auth/register", "", registerRequest{
		Email: "ana@example.com", Password: "secret1", DisplayName: "Other",
	}, nil)
	if status != http.StatusConflict {
		t.Errorf("duplicate email: status %d, want 409", status)
	}

	status = doJSON(t, srv, http.MethodPost, "/auth/register", "", registerRequest{
		Email: "new@example.com", Password: "short", DisplayName: "New",
	}, nil)
	if status != http.StatusBadRequest {
		t.Errorf("weak password: status %d, want 400", status)
	}
}

func TestAuthRequired(t *testing.T) {
	srv := setupTestServer(t)

	if status := doJSON(t, srv, http.MethodGet, "/groups/", "", nil, nil); status != http.StatusUnauthorized {
		t.Errorf("no token: status %d, want 401", status)
	}
	if status := doJSON(t, srv, http.MethodGet, "/groups/", "garbage", nil, nil); status != http.StatusUnauthorized {
		t.Errorf("bad token: status %d, want 401", status)
	}
}

// TestGroupLifecycle walks the whole flow: create, join by code, draw,
// reveal. Assignments must stay hidden everywhere except each member's own
// /assignment call.
func TestGroupLifecycle(t *testing.T) {
	srv := setupTestServer(t)

	ownerToken, ownerID := register(t, srv, "ana")
	beaToken, _ := register(t, srv, "bea")
	carlaToken, _ := register(t, srv, "carla")

	var group groupResponse
	status := doJSON(t, srv, http.MethodPost, "/groups/", ownerToken, createGroupRequest{Name: "Navidad"}, &group)
	if status != http.StatusCreated {
		t.Fatalf("create group: status %d", status)
	}
	if group.CreatedBy != ownerID || group.Code == "" {
		t.Fatalf("unexpected group: %+v", group)
	}

	for _, token := range []string{beaToken, carlaToken} {
		if status := doJSON(t, srv, http.MethodPost, "/groups/join", token, joinGroupRequest{Code: group.Code}, nil); status != http.StatusOK {
			t.Fatalf("join: status %d", status)
		}
	}

	// Non-owner cannot draw.
	status = doJSON(t, srv, http.MethodPost, "/groups/"+group.ID+"/draw", beaToken, nil, nil)
	if status != http.StatusForbidden {
		t.Fatalf("non-owner draw: status %d, want 403", status)
	}

	var drawn groupResponse
	status = doJSON(t, srv, http.MethodPost, "/groups/"+group.ID+"/draw", ownerToken, nil, &drawn)
	if status != http.StatusOK || !drawn.IsDrawn {
		t.Fatalf("draw: status %d, is_drawn %v", status, drawn.IsDrawn)
	}

	// The member list never carries assignments.
	var detail map[string]any
	if status := doJSON(t, srv, http.MethodGet, "/groups/"+group.ID, beaToken, nil, &detail); status != http.StatusOK {
		t.Fatalf("get group: status %d", status)
	}
	members, _ := detail["members"].([]any)
	if len(members) != 3 {
		t.Fatalf("expected 3 members, got %d", len(members))
	}
	for _, m := range members {
		if _, leaked := m.(map[string]any)["assigned_to"]; leaked {
			t.Errorf("member payload leaks assignment: %+v", m)
		}
	}

	// Every member sees exactly one name, never their own.
	names := map[string]bool{"ana": true, "bea": true, "carla": true}
	for me, token := range map[string]string{"ana": ownerToken, "bea": beaToken, "carla": carlaToken} {
		var a assignmentResponse
		if status := doJSON(t, srv, http.MethodGet, "/groups/"+group.ID+"/assignment", token, nil, &a); status != http.StatusOK {
			t.Fatalf("assignment for %s: status %d", me, status)
		}
		if a.DisplayName == me {
			t.Errorf("%s was assigned to themselves", me)
		}
		if !names[a.DisplayName] {
			t.Errorf("%s assigned to unknown or repeated name %q", me, a.DisplayName)
		}
		delete(names, a.DisplayName)
	}
	if len(names) != 0 {
		t.Errorf("members never assigned to anyone: %v", names)
	}
}

func TestJoin_Errors(t *testing.T) {
	srv := setupTestServer(t)

	ownerToken, _ := register(t, srv, "ana")
	beaToken, _ := register(t, srv, "bea")
	carlaToken, _ := register(t, srv, "carla")
	eveToken, _ := register(t, srv, "eva")

	var group groupResponse
	if status := doJSON(t, srv, http.MethodPost, "/groups/", ownerToken, createGroupRequest{Name: "Oficina"}, &group); status != http.StatusCreated {
		t.Fatalf("create group: status %d", status)
	}

	if status := doJSON(t, srv, http.MethodPost, "/groups/join", beaToken, joinGroupRequest{Code: "NOPE22"}, nil); status != http.StatusNotFound {
		t.Errorf("unknown code: status %d, want 404", status)
	}

	for _, token := range []string{beaToken, carlaToken} {
		if status := doJSON(t, srv, http.MethodPost, "/groups/join", token, joinGroupRequest{Code: group.Code}, nil); status != http.StatusOK {
			t.Fatalf("join: status %d", status)
		}
	}
	if status := doJSON(t, srv, http.MethodPost, "/groups/join", beaToken, joinGroupRequest{Code: group.Code}, nil); status != http.StatusConflict {
		t.Errorf("double join: status %d, want 409", status)
	}

	if status := doJSON(t, srv, http.MethodPost, "/groups/"+group.ID+"/draw", ownerToken, nil, nil); status != http.StatusOK {
		t.Fatalf("draw: status %d", status)
	}
	if status := doJSON(t, srv, http.MethodPost, "/groups/join", eveToken, joinGroupRequest{Code: group.Code}, nil); status != http.StatusConflict {
		t.Errorf("join after draw: status %d, want 409", status)
	}
}

func TestDraw_Errors(t *testing.T) {
	srv := setupTestServer(t)

	ownerToken, _ := register(t, srv, "ana")
	beaToken, _ := register(t, srv, "bea")

	var group groupResponse
	if status := doJSON(t, srv, http.MethodPost, "/groups/", ownerToken, createGroupRequest{Name: "Pequeño"}, &group); status != http.StatusCreated {
		t.Fatalf("create group: status %d", status)
	}
	if status := doJSON(t, srv, http.MethodPost, "/groups/join", beaToken, joinGroupRequest{Code: group.Code}, nil); status != http.StatusOK {
		t.Fatalf("join: status %d", status)
	}

	// Two members are not enough.
	if status := doJSON(t, srv, http.MethodPost, "/groups/"+group.ID+"/draw", ownerToken, nil, nil); status != http.StatusUnprocessableEntity {
		t.Errorf("undersized draw: status %d, want 422", status)
	}

	// Assignment before any draw.
	if status := doJSON(t, srv, http.MethodGet, "/groups/"+group.ID+"/assignment", beaToken, nil, nil); status != http.StatusConflict {
		t.Errorf("assignment before draw: status %d, want 409", status)
	}
}

func TestRedrawRequiresConfirm(t *testing.T) {
	srv := setupTestServer(t)

	ownerToken, _ := register(t, srv, "ana")
	tokens := []string{ownerToken}
	for _, name := range []string{"bea", "carla"} {
		token, _ := register(t, srv, name)
		tokens = append(tokens, token)
	}

	var group groupResponse
	if status := doJSON(t, srv, http.MethodPost, "/groups/", ownerToken, createGroupRequest{Name: "Familia"}, &group); status != http.StatusCreated {
		t.Fatalf("create group: status %d", status)
	}
	for _, token := range tokens[1:] {
		if status := doJSON(t, srv, http.MethodPost, "/groups/join", token, joinGroupRequest{Code: group.Code}, nil); status != http.StatusOK {
			t.Fatalf("join: status %d", status)
		}
	}

	drawPath := fmt.Sprintf("/groups/%s/draw", group.ID)
	if status := doJSON(t, srv, http.MethodPost, drawPath, ownerToken, nil, nil); status != http.StatusOK {
		t.Fatalf("first draw: status %d", status)
	}
	if status := doJSON(t, srv, http.MethodPost, drawPath, ownerToken, nil, nil); status != http.StatusConflict {
		t.Errorf("unconfirmed redraw: status %d, want 409", status)
	}
	if status := doJSON(t, srv, http.MethodPost, drawPath, ownerToken, drawRequest{Confirm: true}, nil); status != http.StatusOK {
		t.Errorf("confirmed redraw: status %d, want 200", status)
	}
}

func TestDeleteGroup(t *testing.T) {
	srv := setupTestServer(t)

	ownerToken, _ := register(t, srv, "ana")
	beaToken, _ := register(t, srv, "bea")

	var group groupResponse
	if status := doJSON(t, srv, http.MethodPost, "/groups/", ownerToken, createGroupRequest{Name: "Borrable"}, &group); status != http.StatusCreated {
		t.Fatalf("create group: status %d", status)
	}
	if status := doJSON(t, srv, http.MethodPost, "/groups/join", beaToken, joinGroupRequest{Code: group.Code}, nil); status != http.StatusOK {
		t.Fatalf("join: status %d", status)
	}

	if status := doJSON(t, srv, http.MethodDelete, "/groups/"+group.ID, beaToken, nil, nil); status != http.StatusForbidden {
		t.Errorf("non-owner delete: status %d, want 403", status)
	}
	if status := doJSON(t, srv, http.MethodDelete, "/groups/"+group.ID, ownerToken, nil, nil); status != http.StatusNoContent {
		t.Errorf("owner delete: status %d, want 204", status)
	}
	if status := doJSON(t, srv, http.MethodGet, "/groups/"+group.ID, ownerToken, nil, nil); status != http.StatusNotFound {
		t.Errorf("get after delete: status %d, want 404", status)
	}
}

func TestListGroups(t *testing.T) {
	srv := setupTestServer(t)

	anaToken, _ := register(t, srv, "ana")
	beaToken, _ := register(t, srv, "bea")

	var g1, g2 groupResponse
	if status := doJSON(t, srv, http.MethodPost, "/groups/", anaToken, createGroupRequest{Name: "Uno"}, &g1); status != http.StatusCreated {
		t.Fatalf("create: status %d", status)
	}
	if status := doJSON(t, srv, http.MethodPost, "/groups/", beaToken, createGroupRequest{Name: "Dos"}, &g2); status != http.StatusCreated {
		t.Fatalf("create: status %d", status)
	}
	if status := doJSON(t, srv, http.MethodPost, "/groups/join", anaToken, joinGroupRequest{Code: g2.Code}, nil); status != http.StatusOK {
		t.Fatalf("join: status %d", status)
	}

	var groups []groupResponse
	if status := doJSON(t, srv, http.MethodGet, "/groups/", anaToken, nil, &groups); status != http.StatusOK {
		t.Fatalf("list: status %d", status)
	}
	if len(groups) != 2 {
		t.Errorf("expected 2 groups for ana, got %d", len(groups))
	}

	groups = nil
	if status := doJSON(t, srv, http.MethodGet, "/groups/", beaToken, nil, &groups); status != http.StatusOK {
		t.Fatalf("list: status %d", status)
	}
	if len(groups) != 1 || groups[0].ID != g2.ID {
		t.Errorf("expected only %s for bea, got %+v", g2.ID, groups)
	}
}
