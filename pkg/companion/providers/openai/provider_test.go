package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/todak-labs/todak/pkg/companion/errs"
	"github.com/todak-labs/todak/pkg/companion/providers"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New("test-key", WithBaseURL(server.URL), WithHTTPClient(server.Client()))
}

func TestTranscribeUploadsMultipartWAV(t *testing.T) {
	t.Parallel()
	wav := []byte("RIFF....WAVE")

	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/transcriptions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization = %q", got)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if got := r.FormValue("model"); got != DefaultTranscribeModel {
			t.Errorf("model = %q, want %q", got, DefaultTranscribeModel)
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer file.Close()
		var buf bytes.Buffer
		buf.ReadFrom(file)
		if !bytes.Equal(buf.Bytes(), wav) {
			t.Error("uploaded audio does not match input")
		}
		json.NewEncoder(w).Encode(map[string]string{"text": "안녕하세요"})
	})

	text, err := p.Transcribe(context.Background(), wav)
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	if text != "안녕하세요" {
		t.Fatalf("text = %q", text)
	}
}

func TestCompleteSendsHistoryAndReturnsReply(t *testing.T) {
	t.Parallel()
	history := []providers.Message{
		{Role: providers.RoleSystem, Content: "persona"},
		{Role: providers.RoleUser, Content: "hi"},
	}

	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != DefaultDialogueModel {
			t.Errorf("model = %q", req.Model)
		}
		if len(req.Messages) != 2 || req.Messages[1].Content != "hi" {
			t.Errorf("messages = %+v", req.Messages)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"content": "hello there"}},
			},
		})
	})

	reply, err := p.Complete(context.Background(), history)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if reply != "hello there" {
		t.Fatalf("reply = %q", reply)
	}
}

func TestCompleteNoChoicesIsProviderError(t *testing.T) {
	t.Parallel()
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	})

	_, err := p.Complete(context.Background(), nil)
	var provErr *errs.ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("err = %v, want ProviderError", err)
	}
}

func TestSpeakReturnsAudioBytes(t *testing.T) {
	t.Parallel()
	mp3 := []byte{0xFF, 0xFB, 0x90, 0x00}

	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/speech" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req speechRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Voice != DefaultVoice {
			t.Errorf("voice = %q, want %q", req.Voice, DefaultVoice)
		}
		if req.Input != "잘했어!" {
			t.Errorf("input = %q", req.Input)
		}
		w.Write(mp3)
	})

	audio, err := p.Speak(context.Background(), "잘했어!")
	if err != nil {
		t.Fatalf("speak: %v", err)
	}
	if !bytes.Equal(audio, mp3) {
		t.Fatalf("audio = %v", audio)
	}
}

func TestErrorResponseExtractsAPIMessage(t *testing.T) {
	t.Parallel()
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "invalid api key"},
		})
	})

	_, err := p.Complete(context.Background(), nil)
	var provErr *errs.ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("err = %v, want ProviderError", err)
	}
	if provErr.Status != http.StatusUnauthorized {
		t.Errorf("status = %d", provErr.Status)
	}
	if provErr.Message != "invalid api key" {
		t.Errorf("message = %q", provErr.Message)
	}
}

func TestErrorResponseFallsBackToRawBody(t *testing.T) {
	t.Parallel()
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream unavailable"))
	})

	_, err := p.Speak(context.Background(), "hi")
	var provErr *errs.ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("err = %v, want ProviderError", err)
	}
	if provErr.Message != "upstream unavailable" {
		t.Errorf("message = %q", provErr.Message)
	}
}
