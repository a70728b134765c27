package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/teamtodo/teamtodo-api/internal/dto"
)

func createTodoOverHTTP(t *testing.T, env *handlerTestEnv, cookies []*http.Cookie, bearer, title string) dto.TodoDTO {
	t.Helper()

	w := env.request(t, http.MethodPost, "/api/todos", map[string]interface{}{
		"title": title,
	}, cookies, bearer)
	require.Equal(t, http.StatusCreated, w.Code)

	var todo dto.TodoDTO
	decodeJSON(t, w, &todo)
	return todo
}

func TestTodoHandler_CRUD(t *testing.T) {
	env := setupHandlerTestEnv(t)
	cookies := env.signup(t, "alice@example.com", "alice", "supersecret")

	created := createTodoOverHTTP(t, env, cookies, "", "write the report")
	require.Equal(t, "write the report", created.Title)
	require.Equal(t, "open", string(created.Status))

	w := env.request(t, http.MethodPatch, fmt.Sprintf("/api/todos/%d", created.ID), map[string]interface{}{
		"status": "done",
	}, cookies, "")
	require.Equal(t, http.StatusOK, w.Code)

	var updated dto.TodoDTO
	decodeJSON(t, w, &updated)
	require.Equal(t, "done", string(updated.Status))

	w = env.request(t, http.MethodDelete, fmt.Sprintf("/api/todos/%d", created.ID), nil, cookies, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = env.request(t, http.MethodGet, fmt.Sprintf("/api/todos/%d", created.ID), nil, cookies, "")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestTodoHandler_CrossTenantIsolationOverHTTP(t *testing.T) {
	env := setupHandlerTestEnv(t)
	aliceCookies := env.signup(t, "alice@example.com", "alice", "supersecret")
	bobCookies := env.signup(t, "bob@example.com", "bobby", "supersecret")

	aliceTodo := createTodoOverHTTP(t, env, aliceCookies, "", "alpha secret")
	createTodoOverHTTP(t, env, bobCookies, "", "beta secret")

	// Every caller sees exactly their own organization's todos.
	var list dto.TodoListDTO
	w := env.request(t, http.MethodGet, "/api/todos", nil, aliceCookies, "")
	require.Equal(t, http.StatusOK, w.Code)
	decodeJSON(t, w, &list)
	require.Len(t, list.Todos, 1)
	require.Equal(t, "alpha secret", list.Todos[0].Title)

	// Direct id access across organizations misses, and so do writes.
	path := fmt.Sprintf("/api/todos/%d", aliceTodo.ID)
	require.Equal(t, http.StatusNotFound, env.request(t, http.MethodGet, path, nil, bobCookies, "").Code)
	require.Equal(t, http.StatusNotFound, env.request(t, http.MethodPatch, path, map[string]interface{}{
		"title": "hijacked",
	}, bobCookies, "").Code)
	require.Equal(t, http.StatusNotFound, env.request(t, http.MethodDelete, path, nil, bobCookies, "").Code)

	w = env.request(t, http.MethodGet, path, nil, aliceCookies, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "alpha secret")
}

func TestTodoHandler_APIKeyReachesSameData(t *testing.T) {
	env := setupHandlerTestEnv(t)
	cookies := env.signup(t, "alice@example.com", "alice", "supersecret")

	created := createTodoOverHTTP(t, env, cookies, "", "via session")

	w := env.request(t, http.MethodPost, "/api/api-keys", map[string]string{
		"name": "ci",
	}, cookies, "")
	require.Equal(t, http.StatusCreated, w.Code)
	var key struct {
		Key string `json:"key"`
	}
	decodeJSON(t, w, &key)

	// The API key sees the session-created todo and can write alongside.
	var list dto.TodoListDTO
	w = env.request(t, http.MethodGet, "/api/todos", nil, nil, key.Key)
	require.Equal(t, http.StatusOK, w.Code)
	decodeJSON(t, w, &list)
	require.Len(t, list.Todos, 1)
	require.Equal(t, created.ID, list.Todos[0].ID)

	createTodoOverHTTP(t, env, nil, key.Key, "via api key")

	w = env.request(t, http.MethodGet, "/api/todos", nil, cookies, "")
	require.Equal(t, http.StatusOK, w.Code)
	decodeJSON(t, w, &list)
	require.Len(t, list.Todos, 2)
}

func TestTodoHandler_FiltersAndTags(t *testing.T) {
	env := setupHandlerTestEnv(t)
	cookies := env.signup(t, "alice@example.com", "alice", "supersecret")

	w := env.request(t, http.MethodPost, "/api/tags", map[string]string{
		"name":  "urgent",
		"color": "#ff0000",
	}, cookies, "")
	require.Equal(t, http.StatusCreated, w.Code)
	var tag dto.TagDTO
	decodeJSON(t, w, &tag)

	// Duplicate tag name in the same organization conflicts.
	w = env.request(t, http.MethodPost, "/api/tags", map[string]string{
		"name": "urgent",
	}, cookies, "")
	require.Equal(t, http.StatusConflict, w.Code)

	w = env.request(t, http.MethodPost, "/api/todos", map[string]interface{}{
		"title":   "tagged task",
		"tag_ids": []uint64{tag.ID},
	}, cookies, "")
	require.Equal(t, http.StatusCreated, w.Code)
	plain := createTodoOverHTTP(t, env, cookies, "", "plain task")

	w = env.request(t, http.MethodPatch, fmt.Sprintf("/api/todos/%d", plain.ID), map[string]interface{}{
		"status": "done",
	}, cookies, "")
	require.Equal(t, http.StatusOK, w.Code)

	var list dto.TodoListDTO

	w = env.request(t, http.MethodGet, "/api/todos?status=open", nil, cookies, "")
	require.Equal(t, http.StatusOK, w.Code)
	decodeJSON(t, w, &list)
	require.Len(t, list.Todos, 1)
	require.Equal(t, "tagged task", list.Todos[0].Title)

	w = env.request(t, http.MethodGet, fmt.Sprintf("/api/todos?tag_id=%d", tag.ID), nil, cookies, "")
	require.Equal(t, http.StatusOK, w.Code)
	decodeJSON(t, w, &list)
	require.Len(t, list.Todos, 1)
	require.Len(t, list.Todos[0].Tags, 1)
	require.Equal(t, "urgent", list.Todos[0].Tags[0].Name)

	w = env.request(t, http.MethodGet, "/api/todos?search=plain", nil, cookies, "")
	require.Equal(t, http.StatusOK, w.Code)
	decodeJSON(t, w, &list)
	require.Len(t, list.Todos, 1)
	require.Equal(t, "plain task", list.Todos[0].Title)

	// Unknown tag ids are rejected at creation.
	w = env.request(t, http.MethodPost, "/api/todos", map[string]interface{}{
		"title":   "bad tags",
		"tag_ids": []uint64{9999},
	}, cookies, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
}
