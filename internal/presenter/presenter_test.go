package presenter_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raysh454/postdesk/internal/invoker"
	"github.com/raysh454/postdesk/internal/presenter"
)

const url = "https://api.test/posts"

func TestPresent(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		in   invoker.Outcome
		want presenter.DisplayMessage
	}{
		{
			name: "get renders title and body",
			in:   invoker.Success("GET", url+"/1", []byte(`{"userId":1,"title":"foo","body":"bar"}`)),
			want: presenter.DisplayMessage{Text: "Title: foo\n\nBody: bar"},
		},
		{
			name: "get with missing fields",
			in:   invoker.Success("GET", url+"/1", []byte(`{"id":1}`)),
			want: presenter.DisplayMessage{Text: "Title: undefined\n\nBody: undefined"},
		},
		{
			name: "get with non-string fields",
			in:   invoker.Success("GET", url+"/1", []byte(`{"title":42,"body":{"a":[1, 2]}}`)),
			want: presenter.DisplayMessage{Text: "Title: 42\n\nBody: {\"a\":[1,2]}"},
		},
		{
			name: "get with null fields",
			in:   invoker.Success("GET", url+"/1", []byte(`{"title":null,"body":"b"}`)),
			want: presenter.DisplayMessage{Text: "Title: null\n\nBody: b"},
		},
		{
			name: "get with array payload",
			in:   invoker.Success("GET", url, []byte(`[{"title":"x"}]`)),
			want: presenter.DisplayMessage{Text: "Title: undefined\n\nBody: undefined"},
		},
		{
			name: "post created keeps key order",
			in:   invoker.Success("POST", url, []byte(`{"title":"t","body":"b","id":101}`)),
			want: presenter.DisplayMessage{Text: "Post Created Successfully:\n\n{\n  \"title\": \"t\",\n  \"body\": \"b\",\n  \"id\": 101\n}"},
		},
		{
			name: "put keeps the server's number and escape tokens",
			in:   invoker.Success("PUT", url+"/5", []byte(`{"id":5,"score":1.0,"title":"caf\u00e9"}`)),
			want: presenter.DisplayMessage{Text: "Post Updated Successfully:\n\n{\n  \"id\": 5,\n  \"score\": 1.0,\n  \"title\": \"caf\\u00e9\"\n}"},
		},
		{
			name: "put updated",
			in:   invoker.Success("PUT", url+"/5", []byte(`{"id":5}`)),
			want: presenter.DisplayMessage{Text: "Post Updated Successfully:\n\n{\n  \"id\": 5\n}"},
		},
		{
			name: "client error",
			in:   invoker.ClientError("POST", url, invoker.MissingFieldsMessage),
			want: presenter.DisplayMessage{Text: "Client Error: All fields are required.", IsError: true},
		},
		{
			name: "server error",
			in:   invoker.ServerError("PUT", url+"/5", 404, "Not Found"),
			want: presenter.DisplayMessage{Text: "Server Error (404): Not Found", IsError: true},
		},
		{
			name: "network error",
			in:   invoker.NetworkError("GET", url+"/1"),
			want: presenter.DisplayMessage{
				Text:    "Network Error: Unable to reach the server. Please check your internet connection.",
				IsError: true,
			},
		},
		{
			name: "zero outcome",
			in:   invoker.Outcome{},
			want: presenter.DisplayMessage{Text: `Error: unknown outcome ""`, IsError: true},
		},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, c.want, presenter.Present(c.in))
		})
	}
}

func TestPresent_IsPure(t *testing.T) {
	t.Parallel()
	out := invoker.Success("GET", url, []byte(`{"title":"a","body":"b"}`))
	first := presenter.Present(out)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, presenter.Present(out))
	}
}

func TestPresentError(t *testing.T) {
	t.Parallel()
	err := fmt.Errorf("%w: invalid character", invoker.ErrMalformedPayload)
	msg := presenter.PresentError(err)
	assert.True(t, msg.IsError)
	assert.Equal(t, "Error: response body is not valid JSON: invalid character", msg.Text)

	assert.Equal(t, "Error: boom", presenter.PresentError(errors.New("boom")).Text)
}

func TestRender_ShowsPresentedMessage(t *testing.T) {
	t.Parallel()
	var slot presenter.Slot
	_, ok := slot.Latest()
	assert.False(t, ok)

	got := presenter.Render(&slot, invoker.ServerError("GET", url, 500, "Internal Server Error"))
	latest, ok := slot.Latest()
	require.True(t, ok)
	assert.Equal(t, got, latest)
	assert.Equal(t, "Server Error (500): Internal Server Error", latest.Text)
}

// ─── Sinks ─────────────────────────────────────────────────────────────

func TestSlot_LastWriteWins(t *testing.T) {
	t.Parallel()
	var slot presenter.Slot
	slot.Show(presenter.DisplayMessage{Text: "first"})
	slot.Show(presenter.DisplayMessage{Text: "second", IsError: true})

	latest, ok := slot.Latest()
	require.True(t, ok)
	assert.Equal(t, presenter.DisplayMessage{Text: "second", IsError: true}, latest)
}

func TestSlot_ConcurrentWriters(t *testing.T) {
	t.Parallel()
	var slot presenter.Slot
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			slot.Show(presenter.DisplayMessage{Text: fmt.Sprint(i)})
		}(i)
	}
	wg.Wait()
	_, ok := slot.Latest()
	assert.True(t, ok)
}

func TestChan_EvictsUnreadMessage(t *testing.T) {
	t.Parallel()
	c := presenter.NewChan()
	c.Show(presenter.DisplayMessage{Text: "stale"})
	c.Show(presenter.DisplayMessage{Text: "fresh"})

	select {
	case m := <-c.C():
		assert.Equal(t, "fresh", m.Text)
	case <-time.After(time.Second):
		t.Fatal("no message on channel")
	}
	select {
	case m := <-c.C():
		t.Fatalf("unexpected second message %q", m.Text)
	default:
	}
}

func TestChan_NeverBlocksWriters(t *testing.T) {
	t.Parallel()
	c := presenter.NewChan()
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			c.Show(presenter.DisplayMessage{Text: fmt.Sprint(i)})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Show blocked without a reader")
	}
	assert.Equal(t, "99", (<-c.C()).Text)
}

func TestMulti_FansOut(t *testing.T) {
	t.Parallel()
	var a, b presenter.Slot
	var seen []string
	m := presenter.Multi{&a, nil, &b, presenter.DisplayFunc(func(msg presenter.DisplayMessage) {
		seen = append(seen, msg.Text)
	})}

	m.Show(presenter.DisplayMessage{Text: "hello"})

	la, _ := a.Latest()
	lb, _ := b.Latest()
	assert.Equal(t, "hello", la.Text)
	assert.Equal(t, "hello", lb.Text)
	assert.Equal(t, []string{"hello"}, seen)
}
