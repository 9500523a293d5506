package feed

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supertypeai/sgx-buyback-pipeline/internal/fetch"
)

func testClient() *fetch.Client {
	return fetch.New(fetch.WithRetry(1, time.Millisecond), fetch.WithRateLimit(0))
}

func day(s string) time.Time {
	t, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestLister_PageURL(t *testing.T) {
	l := New(nil, WithBaseURL("https://api.example.com/announcements/"), WithPageSize(50))

	raw := l.PageURL(day("20241107"), day("20241108"), 3)
	u, err := url.Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, "api.example.com", u.Host)
	q := u.Query()
	assert.Equal(t, "20241107_160000", q.Get("periodstart"))
	assert.Equal(t, "20241108_155959", q.Get("periodend"))
	assert.Equal(t, "ANNC", q.Get("cat"))
	assert.Equal(t, "ANNC14", q.Get("sub"))
	assert.Equal(t, "3", q.Get("pagestart"))
	assert.Equal(t, "50", q.Get("pagesize"))
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("20241107")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 11, 7, 0, 0, 0, 0, time.UTC), got)

	_, err = ParseDate("2024-11-07")
	assert.Error(t, err)
}

func TestLister_List(t *testing.T) {
	pages := map[string]string{
		"0": `{"data":[{"url":"https://links.sgx.com/a","issuer_name":"ACME HOLDINGS LIMITED"},{"url":"","issuer_name":"NO LINK LTD"}]}`,
		"1": `{"data":[{"url":"https://links.sgx.com/b","issuer_name":"GAMMA REIT"}]}`,
		"2": `{"data":null}`,
	}

	var requested []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("authorizationtoken"))
		n := r.URL.Query().Get("pagestart")
		requested = append(requested, n)
		fmt.Fprint(w, pages[n])
	}))
	defer srv.Close()

	l := New(testClient(), WithBaseURL(srv.URL+"/"), WithToken("secret"))
	entries, err := l.List(context.Background(), day("20241107"), day("20241108"))
	require.NoError(t, err)

	require.Len(t, entries, 2)
	assert.Equal(t, "https://links.sgx.com/a", entries[0].URL)
	assert.Equal(t, "GAMMA REIT", entries[1].IssuerName)
	assert.Equal(t, []string{"0", "1", "2"}, requested)
}

func TestLister_ListStops(t *testing.T) {
	tests := []struct {
		name      string
		handler   func(page int) (int, string)
		maxPages  int
		wantCount int
		wantErr   bool
	}{
		{
			name:      "empty page",
			handler:   func(page int) (int, string) { return http.StatusOK, `{"data":[]}` },
			wantCount: 0,
		},
		{
			name: "page limit",
			handler: func(page int) (int, string) {
				return http.StatusOK, fmt.Sprintf(`{"data":[{"url":"https://links.sgx.com/%d"}]}`, page)
			},
			maxPages:  3,
			wantCount: 3,
		},
		{
			name: "error after first page",
			handler: func(page int) (int, string) {
				if page == 0 {
					return http.StatusOK, `{"data":[{"url":"https://links.sgx.com/a"}]}`
				}
				return http.StatusForbidden, `denied`
			},
			wantCount: 1,
			wantErr:   true,
		},
		{
			name:     "malformed body",
			handler:  func(page int) (int, string) { return http.StatusOK, `<html>` },
			wantErr:  true,
			maxPages: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				page, _ := strconv.Atoi(r.URL.Query().Get("pagestart"))
				status, body := tt.handler(page)
				w.WriteHeader(status)
				fmt.Fprint(w, body)
			}))
			defer srv.Close()

			l := New(testClient(), WithBaseURL(srv.URL+"/"), WithMaxPages(tt.maxPages))
			entries, err := l.List(context.Background(), day("20241107"), day("20241108"))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Len(t, entries, tt.wantCount)
		})
	}
}

func TestLister_ListCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	entries, err := New(testClient()).List(ctx, day("20241107"), day("20241108"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, entries)
}
