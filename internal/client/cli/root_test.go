package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minangbatik/batikhub/internal/common"
)

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func apiServer(t *testing.T, h http.HandlerFunc) string {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv.URL
}

func reply(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func stubReadPassword(t *testing.T, answers ...string) {
	t.Helper()
	orig := readPassword
	readPassword = func(int) ([]byte, error) {
		if len(answers) == 0 {
			return nil, io.EOF
		}
		pw := answers[0]
		answers = answers[1:]
		return []byte(pw), nil
	}
	t.Cleanup(func() { readPassword = orig })
}

func TestLogin_PromptsAndPrintsToken(t *testing.T) {
	stubReadPassword(t, "password123")
	url := apiServer(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "rina@example.com", body["email"])
		assert.Equal(t, "password123", body["password"])
		reply(t, w, http.StatusOK, map[string]any{
			"access_token": "tok-1",
			"token_type":   "Bearer",
			"user":         map[string]any{"id": 1, "name": "Rina"},
		})
	})

	out, err := runCLI(t, "rina@example.com\n", "--server", url, "--token", "", "login")

	require.NoError(t, err)
	assert.Contains(t, out, "Welcome, Rina.")
	assert.Contains(t, out, "export "+common.TokenEnvName+"=tok-1")
}

func TestRegister_UsesFlagsAndConfirmation(t *testing.T) {
	stubReadPassword(t, "password123", "password123")
	url := apiServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/register", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Rina", body["name"])
		assert.Equal(t, "password123", body["password_confirmation"])
		reply(t, w, http.StatusCreated, map[string]any{"access_token": "tok-2", "user": map[string]any{"id": 2, "name": "Rina"}})
	})

	out, err := runCLI(t, "", "--server", url, "register", "--name", "Rina", "--email", "rina@example.com")

	require.NoError(t, err)
	assert.Contains(t, out, "tok-2")
}

func TestCommandsRequireToken(t *testing.T) {
	t.Setenv(common.TokenEnvName, "")
	for _, args := range [][]string{
		{"logout"},
		{"whoami"},
		{"mine"},
		{"delete", "1"},
		{"clear"},
		{"comment", "1", "nice"},
		{"uncomment", "1"},
	} {
		t.Run(args[0], func(t *testing.T) {
			_, err := runCLI(t, "", append([]string{"--server", "http://127.0.0.1:1"}, args...)...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "not logged in")
		})
	}
}

func TestList_PrintsRows(t *testing.T) {
	url := apiServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/batiks", r.URL.Path)
		reply(t, w, http.StatusOK, []map[string]any{
			{"id": 1, "is_minangkabau_batik": true, "batik_name": "Motif Kawung", "url": "http://x/storage/a"},
			{"id": 2, "is_minangkabau_batik": false, "batik_name": "Not a Minangkabau batik", "url": "http://x/storage/b"},
		})
	})

	out, err := runCLI(t, "", "--server", url, "list")

	require.NoError(t, err)
	assert.Equal(t, "1\tM\tMotif Kawung\thttp://x/storage/a\n2\t-\tNot a Minangkabau batik\thttp://x/storage/b\n", out)
}

func TestMine_JSONOutput(t *testing.T) {
	url := apiServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/my-batiks", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get(common.AuthorizationHeaderName))
		reply(t, w, http.StatusOK, []map[string]any{{"id": 9}})
	})

	out, err := runCLI(t, "", "--server", url, "--token", "tok", "--json", "mine")

	require.NoError(t, err)
	var got []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 1)
	assert.EqualValues(t, 9, got[0]["id"])
}

func TestShow_InvalidID(t *testing.T) {
	_, err := runCLI(t, "", "--server", "http://127.0.0.1:1", "show", "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid id "abc"`)
}

func TestUpload_SendsOnlyChangedFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kawung.png")
	require.NoError(t, os.WriteFile(path, []byte("png-bytes"), 0o600))

	url := apiServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/batiks/store", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "true", r.FormValue("is_minangkabau_batik"))
		assert.Equal(t, "Motif Kawung", r.FormValue("batik_name"))
		_, hasOrigin := r.MultipartForm.Value["origin"]
		assert.False(t, hasOrigin)
		_, fh, err := r.FormFile("image")
		require.NoError(t, err)
		assert.Equal(t, "kawung.png", fh.Filename)

		reply(t, w, http.StatusCreated, map[string]any{
			"message": "Batik stored successfully",
			"data":    map[string]any{"id": 4, "batik_name": "Motif Kawung", "url": "http://x/storage/batik_images/1_kawung.png"},
		})
	})

	out, err := runCLI(t, "", "--server", url, "--token", "tok", "upload", path, "--minangkabau", "--name", "Motif Kawung")

	require.NoError(t, err)
	assert.Equal(t, "Stored #4 Motif Kawung\nhttp://x/storage/batik_images/1_kawung.png\n", out)
}

func TestUpload_FileTooLarge(t *testing.T) {
	orig := readImage
	t.Cleanup(func() { readImage = orig })
	var gotLimit int64
	readImage = func(_ string, limit int64) ([]byte, error) {
		gotLimit = limit
		return nil, assert.AnError
	}

	_, err := runCLI(t, "", "--server", "http://127.0.0.1:1", "--token", "tok", "upload", "huge.jpg")

	require.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, int64(maxUploadSize), gotLimit)
}

func TestClear_ReportsCount(t *testing.T) {
	url := apiServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/histories/clear-all", r.URL.Path)
		reply(t, w, http.StatusOK, map[string]any{"message": "ok", "data": map[string]any{"deleted": 3}})
	})

	out, err := runCLI(t, "", "--server", url, "--token", "tok", "clear")

	require.NoError(t, err)
	assert.Equal(t, "Deleted 3 entries\n", out)
}

func TestDelete_NotFoundSurfacesMessage(t *testing.T) {
	url := apiServer(t, func(w http.ResponseWriter, r *http.Request) {
		reply(t, w, http.StatusNotFound, map[string]string{"message": "Batik not found"})
	})

	_, err := runCLI(t, "", "--server", url, "--token", "tok", "delete", "7")

	require.Error(t, err)
	assert.Equal(t, "Batik not found", err.Error())
}

func TestCommentAndComments(t *testing.T) {
	url := apiServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "very nice motif", body["content"])
			reply(t, w, http.StatusCreated, map[string]any{"data": map[string]any{"id": 11}})
		default:
			reply(t, w, http.StatusOK, []map[string]any{
				{"id": 11, "content": "very nice motif", "user": map[string]any{"id": 1, "name": "Rina"}},
			})
		}
	})

	out, err := runCLI(t, "", "--server", url, "--token", "tok", "comment", "3", "very", "nice", "motif")
	require.NoError(t, err)
	assert.Equal(t, "Comment #11 added\n", out)

	out, err = runCLI(t, "", "--server", url, "comments", "3")
	require.NoError(t, err)
	assert.Equal(t, "11\tRina\tvery nice motif\n", out)
}

func TestUncomment_Forbidden(t *testing.T) {
	url := apiServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/comments/5", r.URL.Path)
		reply(t, w, http.StatusForbidden, map[string]string{"message": "You are not allowed to delete this comment"})
	})

	_, err := runCLI(t, "", "--server", url, "--token", "tok", "uncomment", "5")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not allowed")
}

func TestConfigFileSuppliesServerAndToken(t *testing.T) {
	t.Setenv(common.TokenEnvName, "")
	t.Setenv("BATIK_SERVER", "")
	url := apiServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer file-tok", r.Header.Get(common.AuthorizationHeaderName))
		reply(t, w, http.StatusOK, map[string]any{"id": 1, "name": "Rina", "email": "rina@example.com"})
	})
	path := filepath.Join(t.TempDir(), "batikctl.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"server":"`+url+`","token":"file-tok"}`), 0o600))

	out, err := runCLI(t, "", "--config", path, "whoami")

	require.NoError(t, err)
	assert.Equal(t, "1\tRina\trina@example.com\n", out)
}
