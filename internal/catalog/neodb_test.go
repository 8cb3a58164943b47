package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/readsync/internal/retry"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(server.URL, retry.Fixed(3, time.Millisecond), zerolog.Nop())
}

func TestLookupDoubanURL(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "exact match with douban link",
			body: `{"data": [
				{"isbn": "9780000000001", "external_resources": [{"url": "https://book.douban.com/subject/1/"}]},
				{"isbn": "9787111111111", "external_resources": [
					{"url": "https://www.goodreads.com/book/show/2"},
					{"url": "https://book.douban.com/subject/2/"}
				]}
			]}`,
			want: "https://book.douban.com/subject/2/",
		},
		{
			name: "no results",
			body: `{"data": []}`,
			want: "",
		},
		{
			name: "null data",
			body: `{}`,
			want: "",
		},
		{
			name: "no exact isbn match",
			body: `{"data": [{"isbn": "9780000000001", "external_resources": [{"url": "https://book.douban.com/subject/1/"}]}]}`,
			want: "",
		},
		{
			name: "match without douban link",
			body: `{"data": [{"isbn": "9787111111111", "external_resources": [{"url": "https://openlibrary.org/books/x"}]}]}`,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, searchPath, r.URL.Path)
				assert.Equal(t, "9787111111111", r.URL.Query().Get("query"))
				assert.Equal(t, "book", r.URL.Query().Get("category"))
				_, _ = w.Write([]byte(tt.body))
			})

			got, err := client.LookupDoubanURL(context.Background(), "9787111111111")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLookupDoubanURL_RetriesTransientFailures(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"data": [{"isbn": "9787111111111", "external_resources": [{"url": "https://book.douban.com/subject/2/"}]}]}`))
	})

	got, err := client.LookupDoubanURL(context.Background(), "9787111111111")
	require.NoError(t, err)
	assert.Equal(t, "https://book.douban.com/subject/2/", got)
	assert.Equal(t, 3, calls)
}

func TestLookupDoubanURL_GivesUpAfterThreeAttempts(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.LookupDoubanURL(context.Background(), "9787111111111")
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
	assert.Equal(t, 3, calls)
}

func TestLookupDoubanURL_BlankISBN(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected for a blank ISBN")
	})

	got, err := client.LookupDoubanURL(context.Background(), "  ")
	require.NoError(t, err)
	assert.Empty(t, got)
}
