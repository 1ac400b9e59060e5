package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/capwatch/app/capture"
	"github.com/umputun/capwatch/app/tracker"
	"github.com/umputun/capwatch/app/tracker/mocks"
)

func prepTestServer(t *testing.T, rm *mocks.RemoteMock) (*Server, *tracker.Tracker) {
	t.Helper()
	if rm.ListFunc == nil {
		rm.ListFunc = func(context.Context) ([]capture.Job, error) { return testJobs(), nil }
	}
	if rm.ProbeFunc == nil {
		rm.ProbeFunc = func(context.Context, string) (int64, error) { return 0, errors.New("not expected") }
	}
	tr := tracker.New(tracker.Params{Remote: rm})
	require.NoError(t, tr.Refresh(context.Background()))
	srv, err := New(Config{Tracker: tr, Version: "test"})
	require.NoError(t, err)
	return srv, tr
}

func testJobs() []capture.Job {
	size := int64(2048)
	return []capture.Job{
		{JobID: "a", Index: 1, Status: capture.StatusComplete, CaptureURL: "http://one.example",
			UserTag: "zeta", StartTime: capture.UnixMilli(1000), AccessURL: "http://store/a1.wacz", Size: &size},
		{JobID: "b", Index: 1, Status: capture.StatusInProgress, CaptureURL: "http://two.example",
			StartTime: capture.UnixMilli(3000)},
		{JobID: "c", Index: 2, Status: capture.StatusFailed, CaptureURL: "http://three.example",
			UserTag: "alpha", StartTime: capture.UnixMilli(2000)},
	}
}

func doRequest(t *testing.T, h http.Handler, method, url, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, url, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, url, http.NoBody)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestNew(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
}

func TestServer_List(t *testing.T) {
	srv, _ := prepTestServer(t, &mocks.RemoteMock{})
	h := srv.routes()

	t.Run("default sort", func(t *testing.T) {
		rr := doRequest(t, h, http.MethodGet, "/api/v1/captures", "")
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		var resp APICapturesResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		require.Len(t, resp.Captures, 3)
		assert.Equal(t, capture.SortStartTime, resp.Sort)
		assert.True(t, resp.Desc)
		assert.Equal(t, []string{"b-1", "c-2", "a-1"},
			[]string{resp.Captures[0].Key, resp.Captures[1].Key, resp.Captures[2].Key})
		assert.Len(t, resp.SortKeys, len(capture.SortKeys))
		assert.Empty(t, resp.Message)
	})

	t.Run("by label ascending", func(t *testing.T) {
		rr := doRequest(t, h, http.MethodGet, "/api/v1/captures?sort=userTag&desc=false", "")
		require.Equal(t, http.StatusOK, rr.Code)

		var resp APICapturesResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		require.Len(t, resp.Captures, 3)
		assert.Equal(t, []string{"alpha", "b", "zeta"},
			[]string{resp.Captures[0].Label, resp.Captures[1].Label, resp.Captures[2].Label})
	})

	t.Run("view fields", func(t *testing.T) {
		rr := doRequest(t, h, http.MethodGet, "/api/v1/captures?sort=size", "")
		require.Equal(t, http.StatusOK, rr.Code)

		var resp APICapturesResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		var a1, b1 APICapture
		for _, c := range resp.Captures {
			switch c.Key {
			case "a-1":
				a1 = c
			case "b-1":
				b1 = c
			}
		}
		assert.Equal(t, "2.0 kB", a1.SizeHuman)
		assert.True(t, a1.Retryable)
		assert.Nil(t, a1.Preview, "preview off by default")
		assert.False(t, b1.Retryable, "in progress job is not retryable")
		assert.Empty(t, b1.SizeHuman)
	})

	t.Run("bad params", func(t *testing.T) {
		rr := doRequest(t, h, http.MethodGet, "/api/v1/captures?sort=bad", "")
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		rr = doRequest(t, h, http.MethodGet, "/api/v1/captures?desc=maybe", "")
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestServer_Submit(t *testing.T) {
	rm := &mocks.RemoteMock{SubmitFunc: func(context.Context, []string, string) error { return nil }}
	srv, tr := prepTestServer(t, rm)
	h := srv.routes()

	rr := doRequest(t, h, http.MethodPost, "/api/v1/captures", `{"urls":"http://x.example\nhttps://y.example","tag":"t1"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.Len(t, rm.SubmitCalls(), 1)
	assert.Equal(t, []string{"http://x.example", "https://y.example"}, rm.SubmitCalls()[0].Urls)
	assert.Equal(t, "t1", rm.SubmitCalls()[0].Tag)

	rr = doRequest(t, h, http.MethodPost, "/api/v1/captures", `{"urls":"http://x.example\nbad","tag":"t1"}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), tracker.MsgInvalidURLs)
	assert.Len(t, rm.SubmitCalls(), 1)
	assert.Equal(t, tracker.MsgInvalidURLs, tr.Error())

	rr = doRequest(t, h, http.MethodGet, "/api/v1/captures", "")
	assert.Contains(t, rr.Body.String(), tracker.MsgInvalidURLs, "error slot reported with list")

	rr = doRequest(t, h, http.MethodDelete, "/api/v1/error", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, tr.Error())

	rr = doRequest(t, h, http.MethodPost, "/api/v1/captures", `{bad json`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestServer_SubmitFailed(t *testing.T) {
	rm := &mocks.RemoteMock{SubmitFunc: func(context.Context, []string, string) error { return errors.New("status 500") }}
	srv, _ := prepTestServer(t, rm)

	rr := doRequest(t, srv.routes(), http.MethodPost, "/api/v1/captures", `{"urls":"http://x.example"}`)
	require.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Contains(t, rr.Body.String(), tracker.MsgSubmitFailed)
}

func TestServer_Delete(t *testing.T) {
	var fail bool
	rm := &mocks.RemoteMock{DeleteFunc: func(context.Context, capture.Key) error {
		if fail {
			return errors.New("status 500")
		}
		return nil
	}}
	srv, tr := prepTestServer(t, rm)
	h := srv.routes()

	rr := doRequest(t, h, http.MethodDelete, "/api/v1/captures/a/1", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.Len(t, rm.DeleteCalls(), 1)
	assert.Equal(t, capture.Key{JobID: "a", Index: 1}, rm.DeleteCalls()[0].Key)
	for _, v := range tr.Views() {
		if v.Key == (capture.Key{JobID: "a", Index: 1}) {
			assert.True(t, v.IsDeleting)
		}
	}

	fail = true
	rr = doRequest(t, h, http.MethodDelete, "/api/v1/captures/c/2", "")
	require.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Contains(t, rr.Body.String(), tracker.MsgDeleteFailed)

	rr = doRequest(t, h, http.MethodDelete, "/api/v1/captures/c/x", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	rr = doRequest(t, h, http.MethodDelete, "/api/v1/captures/c/0", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Len(t, rm.DeleteCalls(), 2)
}

func TestServer_Retry(t *testing.T) {
	rm := &mocks.RemoteMock{SubmitFunc: func(context.Context, []string, string) error { return nil }}
	srv, _ := prepTestServer(t, rm)
	h := srv.routes()

	rr := doRequest(t, h, http.MethodPost, "/api/v1/captures/c/2/retry", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.Len(t, rm.SubmitCalls(), 1)
	assert.Equal(t, []string{"http://three.example"}, rm.SubmitCalls()[0].Urls)
	assert.Equal(t, "alpha", rm.SubmitCalls()[0].Tag)

	rr = doRequest(t, h, http.MethodPost, "/api/v1/captures/zz/1/retry", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestServer_Preview(t *testing.T) {
	srv, _ := prepTestServer(t, &mocks.RemoteMock{})
	h := srv.routes()

	rr := doRequest(t, h, http.MethodPost, "/api/v1/captures/a/1/preview", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.JSONEq(t, `{"key":"a-1","showPreview":true}`, rr.Body.String())

	rr = doRequest(t, h, http.MethodGet, "/api/v1/captures", "")
	var resp APICapturesResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	for _, c := range resp.Captures {
		if c.Key == "a-1" {
			require.NotNil(t, c.Preview)
			assert.Equal(t, APIPreview{Source: "http://store/a1.wacz", URL: "http://one.example"}, *c.Preview)
		}
	}

	rr = doRequest(t, h, http.MethodPost, "/api/v1/captures/a/1/preview", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"key":"a-1","showPreview":false}`, rr.Body.String())

	rr = doRequest(t, h, http.MethodPost, "/api/v1/captures/zz/1/preview", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestServer_Refresh(t *testing.T) {
	rm := &mocks.RemoteMock{}
	srv, tr := prepTestServer(t, rm)
	require.Len(t, rm.ListCalls(), 1)

	rr := doRequest(t, srv.routes(), http.MethodPost, "/api/v1/refresh", "")
	require.Equal(t, http.StatusOK, rr.Code)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go tr.Run(ctx)
	// startup refresh plus the one requested
	require.Eventually(t, func() bool { return len(rm.ListCalls()) == 3 }, time.Second, 10*time.Millisecond)
}

func TestServer_Ping(t *testing.T) {
	srv, _ := prepTestServer(t, &mocks.RemoteMock{})
	rr := doRequest(t, srv.routes(), http.MethodGet, "/ping", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "pong", rr.Body.String())
}

func TestServer_RateLimit(t *testing.T) {
	rm := &mocks.RemoteMock{SubmitFunc: func(context.Context, []string, string) error { return nil }}
	tr := tracker.New(tracker.Params{Remote: rm})
	srv, err := New(Config{Tracker: tr, RateLimit: 1})
	require.NoError(t, err)
	h := srv.routes()

	codes := make([]int, 0, 3)
	for range 3 {
		codes = append(codes, doRequest(t, h, http.MethodPost, "/api/v1/refresh", "").Code)
	}
	assert.Equal(t, http.StatusOK, codes[0])
	assert.Contains(t, codes, http.StatusTooManyRequests)

	rr := doRequest(t, h, http.MethodGet, "/api/v1/captures", "")
	assert.Equal(t, http.StatusOK, rr.Code, "read route not limited")
}
