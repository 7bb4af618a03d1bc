package objectgen

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestMeshyProvider(serverURL string) *MeshyProvider {
	return NewMeshyProviderWithConfig(MeshyConfig{
		APIKey:       "msy_test",
		Endpoint:     serverURL,
		PollInterval: time.Millisecond,
	})
}

func mustNormalize(t *testing.T, raw RawGenerationRequest) *GenerationRequest {
	t.Helper()
	req, err := NormalizeRequest(raw)
	if err != nil {
		t.Fatalf("NormalizeRequest returned error: %v", err)
	}
	return req
}

func TestMeshyAttemptRequiresAPIKey(t *testing.T) {
	provider := NewMeshyProviderWithConfig(MeshyConfig{Endpoint: "https://api.example.com"})

	_, err := provider.Attempt(context.Background(),
		mustNormalize(t, RawGenerationRequest{Prompt: "a chair"}), ResolvedReferences{})
	if ErrorKindOf(err) != ErrKindConfigMissing {
		t.Errorf("error kind = %q, want %q", ErrorKindOf(err), ErrKindConfigMissing)
	}
}

func TestMeshyAttemptReturnsImmediateArtifacts(t *testing.T) {
	polled := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			polled = true
		}
		if got := r.Header.Get("Authorization"); got != "Bearer msy_test" {
			t.Errorf("Authorization = %q, want bearer key", got)
		}

		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("submission body is not JSON: %v", err)
		}
		if _, ok := body["prompt"]; !ok {
			t.Error("submission body has no prompt")
		}

		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":        "SUCCEEDED",
			"thumbnail_url": "https://cdn.meshy.example/thumb.png",
			"model_urls": map[string]interface{}{
				"glb": "https://cdn.meshy.example/helmet.glb",
				"obj": "https://cdn.meshy.example/helmet.obj",
			},
		})
	}))
	defer server.Close()

	provider := newTestMeshyProvider(server.URL)
	outcome, err := provider.Attempt(context.Background(),
		mustNormalize(t, RawGenerationRequest{Prompt: "a chrome racing helmet"}), ResolvedReferences{})
	if err != nil {
		t.Fatalf("Attempt returned error: %v", err)
	}

	if polled {
		t.Error("provider polled despite artifacts in the submission response")
	}
	if len(outcome.Downloads) != 2 {
		t.Fatalf("got %d downloads, want 2: %+v", len(outcome.Downloads), outcome.Downloads)
	}
	if len(outcome.Renders) != 1 {
		t.Errorf("got %d renders, want 1", len(outcome.Renders))
	}
	types := map[string]bool{}
	for _, d := range outcome.Downloads {
		types[d.Type] = true
		if d.Provider != MeshyProviderKey {
			t.Errorf("download attributed to %q", d.Provider)
		}
	}
	if !types["glb"] || !types["obj"] {
		t.Errorf("download types = %v, want glb and obj", types)
	}
}

func TestMeshyAttemptPollsTaskToCompletion(t *testing.T) {
	statusPolls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("POST /", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"result": "task-123",
			"status": "PENDING",
		})
	})
	mux.HandleFunc("GET /task-123", func(w http.ResponseWriter, r *http.Request) {
		statusPolls++
		if statusPolls < 3 {
			json.NewEncoder(w).Encode(map[string]interface{}{"status": "IN_PROGRESS"})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "SUCCEEDED",
			"model_urls": map[string]interface{}{
				"glb": "https://cdn.meshy.example/object.glb",
			},
		})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	provider := newTestMeshyProvider(server.URL)
	outcome, err := provider.Attempt(context.Background(),
		mustNormalize(t, RawGenerationRequest{Prompt: "a chair"}), ResolvedReferences{})
	if err != nil {
		t.Fatalf("Attempt returned error: %v", err)
	}

	if statusPolls != 3 {
		t.Errorf("status polled %d times, want 3", statusPolls)
	}
	if len(outcome.Downloads) != 1 {
		t.Fatalf("got %d downloads, want 1", len(outcome.Downloads))
	}
	if outcome.Downloads[0].URL != "https://cdn.meshy.example/object.glb" {
		t.Errorf("unexpected download URL %q", outcome.Downloads[0].URL)
	}
}

func TestMeshyAttemptSurfacesTaskFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"result": "task-err"})
	})
	mux.HandleFunc("GET /task-err", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "FAILED",
			"task_error": map[string]interface{}{
				"message": "prompt rejected by moderation",
			},
		})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	provider := newTestMeshyProvider(server.URL)
	_, err := provider.Attempt(context.Background(),
		mustNormalize(t, RawGenerationRequest{Prompt: "a chair"}), ResolvedReferences{})
	if ErrorKindOf(err) != ErrKindJobFailure {
		t.Fatalf("error kind = %q, want %q (err: %v)", ErrorKindOf(err), ErrKindJobFailure, err)
	}
}

func TestMeshyAttemptTimesOut(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"result": "task-slow"})
	})
	mux.HandleFunc("GET /task-slow", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"status": "IN_PROGRESS"})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	provider := newTestMeshyProvider(server.URL)
	_, err := provider.Attempt(context.Background(),
		mustNormalize(t, RawGenerationRequest{Prompt: "a chair"}), ResolvedReferences{})
	if ErrorKindOf(err) != ErrKindTimeout {
		t.Errorf("error kind = %q, want %q (err: %v)", ErrorKindOf(err), ErrKindTimeout, err)
	}
}
