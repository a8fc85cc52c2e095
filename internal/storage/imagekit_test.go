package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
)

// fakeImageKit emulates the parts of the ImageKit API the store uses.
type fakeImageKit struct {
	mu     sync.Mutex
	files  map[string][]byte
	names  map[string]string
	lastTr string
	srv    *httptest.Server
}

func newFakeImageKit(t *testing.T) *fakeImageKit {
	t.Helper()
	f := &fakeImageKit{files: map[string][]byte{}, names: map[string]string{}}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/files/upload", func(w http.ResponseWriter, r *http.Request) {
		if user, _, ok := r.BasicAuth(); !ok || user != "private" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var data []byte
		if file, _, err := r.FormFile("file"); err == nil {
			data, _ = io.ReadAll(file)
		} else {
			data = []byte(r.FormValue("file"))
		}
		id := "ik-" + r.FormValue("fileName")

		f.mu.Lock()
		f.files[id] = data
		f.names[id] = r.FormValue("folder") + "/" + r.FormValue("fileName")
		f.mu.Unlock()

		_ = json.NewEncoder(w).Encode(map[string]any{
			"fileId": id,
			"name":   r.FormValue("fileName"),
			"size":   len(data),
		})
	})
	mux.HandleFunc("GET /v1/files/{id}/details", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		f.mu.Lock()
		_, ok := f.files[id]
		f.mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"fileId": id,
			"url":    f.srv.URL + "/media/" + url.PathEscape(id),
		})
	})
	mux.HandleFunc("DELETE /v1/files/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		f.mu.Lock()
		defer f.mu.Unlock()
		if _, ok := f.files[id]; !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		delete(f.files, id)
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /media/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		data, ok := f.files[r.PathValue("id")]
		f.lastTr = r.URL.Query().Get("tr")
		f.mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write(data)
	})

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func TestImageKitStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	fake := newFakeImageKit(t)
	s := NewImageKitStore(ImageKitOptions{
		PrivateKey: "private",
		APIURL:     fake.srv.URL,
		UploadURL:  fake.srv.URL,
	})

	obj, err := s.Upload(ctx, []byte("pixels"), "photo.png", "albums")
	if err != nil {
		t.Fatalf("Upload() error: %v", err)
	}
	if obj.Key != "ik-photo.png" {
		t.Errorf("Key = %q, want %q", obj.Key, "ik-photo.png")
	}
	if obj.Size != 6 {
		t.Errorf("Size = %d, want 6", obj.Size)
	}
	if obj.MimeType != "image/png" {
		t.Errorf("MimeType = %q, want image/png", obj.MimeType)
	}
	if got := fake.names[obj.Key]; got != "albums/photo.png" {
		t.Errorf("uploaded as %q, want folder albums", got)
	}

	rc, err := s.Stream(ctx, obj.Key, url.Values{"tr": {"w-100,h-100"}})
	if err != nil {
		t.Fatalf("Stream() error: %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != "pixels" {
		t.Errorf("Stream() = %q, want %q", data, "pixels")
	}
	if fake.lastTr != "w-100,h-100" {
		t.Errorf("transformation = %q, want %q", fake.lastTr, "w-100,h-100")
	}

	if err := s.Delete(ctx, obj.Key); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if err := s.Delete(ctx, obj.Key); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
	if _, err := s.Stream(ctx, obj.Key, nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("Stream() after delete error = %v, want ErrNotFound", err)
	}
}

func TestImageKitStore_BadCredentials(t *testing.T) {
	fake := newFakeImageKit(t)
	s := NewImageKitStore(ImageKitOptions{
		PrivateKey: "wrong",
		APIURL:     fake.srv.URL,
		UploadURL:  fake.srv.URL,
	})

	obj, err := s.Upload(context.Background(), []byte("x"), "x.png", "")
	if err == nil {
		t.Fatalf("Upload() = %+v, want error for rejected credentials", obj)
	}
	if len(fake.files) != 0 {
		t.Errorf("fake holds %d files, want 0", len(fake.files))
	}
}
