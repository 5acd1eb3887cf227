package webclient_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/raysh454/postdesk/internal/logging"
	"github.com/raysh454/postdesk/internal/webclient"
)

func newCallback(t *testing.T, httpClient *http.Client) *webclient.CallbackClient {
	t.Helper()
	client, err := webclient.NewCallbackClient(webclient.Config{}, logging.NewNop(), httpClient)
	if err != nil {
		t.Fatalf("NewCallbackClient: %v", err)
	}
	return client
}

func TestCallbackClient_Send_FiresOnLoad(t *testing.T) {
	t.Parallel()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, "{}")
	}))
	defer ts.Close()

	client := newCallback(t, ts.Client())
	defer client.Close()

	loaded := make(chan *webclient.Response, 1)
	client.Send(context.Background(), &webclient.Request{Method: "GET", URL: ts.URL}, webclient.Handlers{
		OnLoad:  func(r *webclient.Response) { loaded <- r },
		OnError: func(err error) { t.Errorf("unexpected OnError: %v", err) },
	})

	select {
	case resp := <-loaded:
		if resp.StatusCode != http.StatusNotFound || resp.StatusText != "Not Found" {
			t.Errorf("unexpected status %d %q", resp.StatusCode, resp.StatusText)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("OnLoad never fired")
	}
}

func TestCallbackClient_Send_FiresOnErrorForUnreachableHost(t *testing.T) {
	t.Parallel()
	client := newCallback(t, &http.Client{Timeout: time.Second})
	defer client.Close()

	failed := make(chan error, 1)
	client.Send(context.Background(), &webclient.Request{Method: "GET", URL: "http://127.0.0.1:1"}, webclient.Handlers{
		OnLoad:  func(*webclient.Response) { t.Error("unexpected OnLoad") },
		OnError: func(err error) { failed <- err },
	})

	select {
	case err := <-failed:
		if err == nil {
			t.Fatal("expected a transport error")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("OnError never fired")
	}
}

func TestCallbackClient_Send_ReturnsBeforeResponse(t *testing.T) {
	t.Parallel()
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
	}))
	defer ts.Close()

	client := newCallback(t, ts.Client())

	var fired atomic.Bool
	done := make(chan struct{})
	client.Send(context.Background(), &webclient.Request{Method: "GET", URL: ts.URL}, webclient.Handlers{
		OnLoad: func(*webclient.Response) { fired.Store(true); close(done) },
	})
	if fired.Load() {
		t.Fatal("handler fired before the server answered")
	}
	close(release)
	<-done
	_ = client.Close()
}

func TestCallbackClient_Do_AdaptsCallbacks(t *testing.T) {
	t.Parallel()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_, _ = w.Write(body)
	}))
	defer ts.Close()

	client := newCallback(t, ts.Client())
	defer client.Close()

	resp, err := client.Do(context.Background(), &webclient.Request{Method: "POST", URL: ts.URL, Body: []byte("echo")})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if string(resp.Body) != "echo" {
		t.Errorf("expected echo, got %q", resp.Body)
	}
}

func TestCallbackClient_Do_NilRequest(t *testing.T) {
	t.Parallel()
	client := newCallback(t, nil)
	defer client.Close()

	_, err := client.Do(context.Background(), nil)
	if !errors.Is(err, webclient.ErrNilRequest) {
		t.Fatalf("expected ErrNilRequest, got %v", err)
	}
}

func TestCallbackClient_SendAfterClose(t *testing.T) {
	t.Parallel()
	client := newCallback(t, nil)
	if err := client.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	_, err := client.Get(context.Background(), "http://127.0.0.1:1")
	if !errors.Is(err, webclient.ErrClientClosed) {
		t.Fatalf("expected ErrClientClosed, got %v", err)
	}
}
