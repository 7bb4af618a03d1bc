package payloadscan

import (
	"encoding/json"
	"sort"
	"testing"
)

// decode parses a JSON document into the generic shape the scanner consumes.
func decode(t *testing.T, doc string) interface{} {
	t.Helper()
	var payload interface{}
	if err := json.Unmarshal([]byte(doc), &payload); err != nil {
		t.Fatalf("invalid test payload: %v", err)
	}
	return payload
}

func sorted(values []string) []string {
	out := append([]string(nil), values...)
	sort.Strings(out)
	return out
}

func downloadURLs(refs []DownloadRef) []string {
	urls := make([]string, 0, len(refs))
	for _, ref := range refs {
		urls = append(urls, ref.URL)
	}
	return sorted(urls)
}

func TestImageURLs(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    []string
	}{
		{
			name:    "image key hint",
			payload: `{"preview_image": "https://cdn.example.com/a"}`,
			want:    []string{"https://cdn.example.com/a"},
		},
		{
			name:    "image extension without hint",
			payload: `{"result": "https://cdn.example.com/render.png"}`,
			want:    []string{"https://cdn.example.com/render.png"},
		},
		{
			name:    "data uri always qualifies",
			payload: `{"whatever": "data:image/png;base64,iVBORw0KGgo="}`,
			want:    []string{"data:image/png;base64,iVBORw0KGgo="},
		},
		{
			name:    "model extension excluded even with image key",
			payload: `{"thumbnail": "https://cdn.example.com/mesh.glb"}`,
			want:    nil,
		},
		{
			name:    "plain string without hint or extension ignored",
			payload: `{"status": "https://api.example.com/tasks/123"}`,
			want:    nil,
		},
		{
			name: "nested arrays inherit field key",
			payload: `{"renders": {"thumbnails": ["https://cdn.example.com/1", "https://cdn.example.com/2"]},
			           "other": [42, true, null]}`,
			want: []string{"https://cdn.example.com/1", "https://cdn.example.com/2"},
		},
		{
			name:    "duplicates collapsed",
			payload: `{"cover": "https://cdn.example.com/x.png", "poster": "https://cdn.example.com/x.png"}`,
			want:    []string{"https://cdn.example.com/x.png"},
		},
		{
			name:    "non-url string ignored",
			payload: `{"image": "not a url"}`,
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sorted(ImageURLs(decode(t, tt.payload)))
			want := sorted(tt.want)
			if len(got) != len(want) {
				t.Fatalf("ImageURLs = %v, want %v", got, want)
			}
			for i := range got {
				if got[i] != want[i] {
					t.Errorf("ImageURLs = %v, want %v", got, want)
					break
				}
			}
		})
	}
}

func TestDownloadRefs(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    []string
	}{
		{
			name:    "model extension",
			payload: `{"result": "https://cdn.example.com/asset.glb"}`,
			want:    []string{"https://cdn.example.com/asset.glb"},
		},
		{
			name:    "model key hint without extension",
			payload: `{"mesh_link": "https://cdn.example.com/fetch?id=9"}`,
			want:    []string{"https://cdn.example.com/fetch?id=9"},
		},
		{
			name: "well-known model_urls field accepted without hint",
			payload: `{"model_urls": {"binary": "https://cdn.example.com/dl/41f2"},
			           "unrelated": "https://cdn.example.com/other"}`,
			want: []string{"https://cdn.example.com/dl/41f2"},
		},
		{
			name:    "image urls excluded",
			payload: `{"preview": "https://cdn.example.com/r.png"}`,
			want:    nil,
		},
		{
			name: "query strings do not defeat extension detection",
			payload: `{"files": ["https://cdn.example.com/a.zip?token=abc",
			                     "https://cdn.example.com/b.obj#frag"]}`,
			want: []string{"https://cdn.example.com/a.zip?token=abc", "https://cdn.example.com/b.obj#frag"},
		},
		{
			name: "direct and generic extraction deduplicate",
			payload: `{"glb": "https://cdn.example.com/x.glb",
			           "deep": {"model_url": "https://cdn.example.com/x.glb"}}`,
			want: []string{"https://cdn.example.com/x.glb"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := downloadURLs(DownloadRefs(decode(t, tt.payload)))
			want := sorted(tt.want)
			if len(got) != len(want) {
				t.Fatalf("DownloadRefs = %v, want %v", got, want)
			}
			for i := range got {
				if got[i] != want[i] {
					t.Errorf("DownloadRefs = %v, want %v", got, want)
					break
				}
			}
		})
	}
}

func TestDownloadRefTypes(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		fieldKey string
		want     string
	}{
		{"glb extension", "https://cdn.example.com/a.glb", "result", "glb"},
		{"zip extension", "https://cdn.example.com/a.zip", "archive", "zip"},
		{"extension with query", "https://cdn.example.com/a.usdz?sig=x", "file", "usdz"},
		{"field hint fallback", "https://cdn.example.com/fetch", "obj_url", "obj"},
		{"generic fallback", "https://cdn.example.com/fetch", "mesh", "model"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FileType(tt.url, tt.fieldKey); got != tt.want {
				t.Errorf("FileType(%q, %q) = %q, want %q", tt.url, tt.fieldKey, got, tt.want)
			}
		})
	}
}

func TestWalkTerminatesOnCyclicPayload(t *testing.T) {
	// Real API payloads are acyclic; the walk must not assume so.
	inner := map[string]interface{}{
		"image": "https://cdn.example.com/r.png",
	}
	inner["self"] = inner

	ring := []interface{}{inner}
	inner["ring"] = ring

	images := ImageURLs(inner)
	if len(images) != 1 || images[0] != "https://cdn.example.com/r.png" {
		t.Errorf("ImageURLs on cyclic payload = %v, want single render URL", images)
	}

	if refs := DownloadRefs(inner); len(refs) != 0 {
		t.Errorf("DownloadRefs on cyclic payload = %v, want empty", refs)
	}
}

func TestExtractionIsIdempotent(t *testing.T) {
	payload := decode(t, `{
		"model_urls": {"glb": "https://cdn.example.com/a.glb", "obj": "https://cdn.example.com/a.obj"},
		"tasks": [{"mesh_url": "https://cdn.example.com/a.glb"}],
		"preview": "https://cdn.example.com/a.png"
	}`)

	first := downloadURLs(DownloadRefs(payload))
	second := downloadURLs(DownloadRefs(payload))

	if len(first) != len(second) {
		t.Fatalf("extraction not idempotent: %v vs %v", first, second)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("extraction not idempotent: %v vs %v", first, second)
			break
		}
	}
	if len(first) != 2 {
		t.Errorf("expected 2 unique downloads, got %v", first)
	}
}
