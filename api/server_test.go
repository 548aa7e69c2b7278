package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JungMoonYoung/auto-insight-platform/adapters/sqlite"
	"github.com/JungMoonYoung/auto-insight-platform/api"
	"github.com/JungMoonYoung/auto-insight-platform/internal/config"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	db, err := sqlite.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{}
	cfg.Server.Port = "0"
	cfg.Database.Path = ":memory:"
	cfg.Mapping.NameWeight = 0.6
	cfg.Mapping.DataWeight = 0.4
	cfg.Mapping.MaxColumns = 200
	cfg.Upload.MaxBytes = 1 << 20

	srv := api.NewServer(cfg, sqlite.NewDatasetRepository(db), sqlite.NewAnalysisRepository(db))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func uploadCSV(t *testing.T, ts *httptest.Server, filename, content string) string {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(ts.URL+"/api/datasets", mw.FormDataContentType(), &body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var ds struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ds))
	require.NotEmpty(t, ds.ID)
	return ds.ID
}

func postJSON(t *testing.T, url, body string) (*http.Response, map[string]json.RawMessage) {
	t.Helper()

	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var doc map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&doc))
	return resp, doc
}

const reviewCSV = `리뷰,평점
"배송이 빠르고 정말 좋아요",9
"최악의 제품입니다 환불했어요",2
"그냥 무난한 상품",6
"quality is great, would buy again",10
`

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestUploadListDelete(t *testing.T) {
	ts := newTestServer(t)
	id := uploadCSV(t, ts, "reviews.csv", reviewCSV)

	resp, err := http.Get(ts.URL + "/api/datasets")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list struct {
		Datasets []struct {
			ID       string `json:"id"`
			Filename string `json:"filename"`
			RowCount int    `json:"row_count"`
		} `json:"datasets"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Len(t, list.Datasets, 1)
	assert.Equal(t, id, list.Datasets[0].ID)
	assert.Equal(t, "reviews.csv", list.Datasets[0].Filename)
	assert.Equal(t, 4, list.Datasets[0].RowCount)

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/datasets/"+id, nil)
	require.NoError(t, err)
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp2.StatusCode)

	resp3, err := http.Get(ts.URL + "/api/datasets/" + id)
	require.NoError(t, err)
	resp3.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp3.StatusCode)
}

func TestUploadUnsupportedFormat(t *testing.T) {
	ts := newTestServer(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "notes.txt")
	require.NoError(t, err)
	fmt.Fprint(part, "hello")
	require.NoError(t, mw.Close())

	resp, err := http.Post(ts.URL+"/api/datasets", mw.FormDataContentType(), &body)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
}

func TestMappingReviewDomain(t *testing.T) {
	ts := newTestServer(t)
	id := uploadCSV(t, ts, "reviews.csv", reviewCSV)

	resp, doc := postJSON(t, ts.URL+"/api/datasets/"+id+"/mapping", `{"domain":"review"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var validation struct {
		IsValid bool `json:"is_valid"`
	}
	require.NoError(t, json.Unmarshal(doc["validation"], &validation))
	assert.True(t, validation.IsValid)

	var result struct {
		Fields map[string]struct {
			UserColumn string `json:"user_column"`
		} `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(doc["mapping"], &result))
	require.Contains(t, result.Fields, "review_text")
	assert.Equal(t, "리뷰", result.Fields["review_text"].UserColumn)
	require.Contains(t, result.Fields, "rating")
	assert.Equal(t, "평점", result.Fields["rating"].UserColumn)
}

func TestMappingUnknownDomain(t *testing.T) {
	ts := newTestServer(t)
	id := uploadCSV(t, ts, "reviews.csv", reviewCSV)

	resp, _ := postJSON(t, ts.URL+"/api/datasets/"+id+"/mapping", `{"domain":"weather"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSentimentAnalysisRun(t *testing.T) {
	ts := newTestServer(t)
	id := uploadCSV(t, ts, "reviews.csv", reviewCSV)

	resp, doc := postJSON(t, ts.URL+"/api/datasets/"+id+"/analyses", `{"kind":"sentiment"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var kind string
	require.NoError(t, json.Unmarshal(doc["kind"], &kind))
	assert.Equal(t, "sentiment", kind)

	var result struct {
		Summary struct {
			Total    int `json:"total"`
			Positive int `json:"positive"`
			Negative int `json:"negative"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(doc["result"], &result))
	assert.Equal(t, 4, result.Summary.Total)
	assert.Equal(t, 2, result.Summary.Positive)
	assert.Equal(t, 1, result.Summary.Negative)

	var commented struct {
		Insights struct {
			KeyFindings []string `json:"key_findings"`
			ActionItems []string `json:"action_items"`
		} `json:"insights"`
	}
	require.NoError(t, json.Unmarshal(doc["result"], &commented))
	require.NotEmpty(t, commented.Insights.KeyFindings)
	assert.Contains(t, strings.Join(commented.Insights.KeyFindings, "\n"), "보통 수준")
	assert.NotEmpty(t, commented.Insights.ActionItems)

	var analysisID string
	require.NoError(t, json.Unmarshal(doc["id"], &analysisID))

	got, err := http.Get(ts.URL + "/api/analyses/" + analysisID)
	require.NoError(t, err)
	got.Body.Close()
	assert.Equal(t, http.StatusOK, got.StatusCode)

	listResp, err := http.Get(ts.URL + "/api/datasets/" + id + "/analyses")
	require.NoError(t, err)
	defer listResp.Body.Close()
	require.Equal(t, http.StatusOK, listResp.StatusCode)

	var list struct {
		Analyses []struct {
			Kind string `json:"kind"`
		} `json:"analyses"`
	}
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&list))
	require.Len(t, list.Analyses, 1)
	assert.Equal(t, "sentiment", list.Analyses[0].Kind)
}

func TestPreprocessEndpoint(t *testing.T) {
	ts := newTestServer(t)

	const messyCSV = `상품,수량,가격
노트북,1,1000
노트북,1,1000
마우스,,30
키보드,2,
`
	id := uploadCSV(t, ts, "messy.csv", messyCSV)

	resp, doc := postJSON(t, ts.URL+"/api/datasets/"+id+"/preprocess", `{"missing":"auto"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var ds struct {
		ID       string `json:"id"`
		Filename string `json:"filename"`
		RowCount int    `json:"row_count"`
	}
	require.NoError(t, json.Unmarshal(doc["dataset"], &ds))
	require.NotEmpty(t, ds.ID)
	assert.NotEqual(t, id, ds.ID, "cleaning always produces a new dataset")
	assert.Equal(t, "messy_cleaned.csv", ds.Filename)
	assert.Equal(t, 3, ds.RowCount, "imputation makes the two laptop rows identical, one is dropped")

	var logLines []string
	require.NoError(t, json.Unmarshal(doc["log"], &logLines))
	assert.Contains(t, strings.Join(logLines, "\n"), "중복 행 제거: 1개")

	got, err := http.Get(ts.URL + "/api/datasets/" + ds.ID)
	require.NoError(t, err)
	got.Body.Close()
	assert.Equal(t, http.StatusOK, got.StatusCode)

	// The source dataset keeps its original shape.
	src, err := http.Get(ts.URL + "/api/datasets/" + id)
	require.NoError(t, err)
	defer src.Body.Close()
	var original struct {
		RowCount int `json:"row_count"`
	}
	require.NoError(t, json.NewDecoder(src.Body).Decode(&original))
	assert.Equal(t, 4, original.RowCount)
}

func TestPreprocessRejectsUnknownStrategy(t *testing.T) {
	ts := newTestServer(t)
	id := uploadCSV(t, ts, "reviews.csv", reviewCSV)

	resp, _ := postJSON(t, ts.URL+"/api/datasets/"+id+"/preprocess", `{"missing":"interpolate"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAnalysisUnknownKind(t *testing.T) {
	ts := newTestServer(t)
	id := uploadCSV(t, ts, "reviews.csv", reviewCSV)

	resp, _ := postJSON(t, ts.URL+"/api/datasets/"+id+"/analyses", `{"kind":"forecast"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAnalysisWrongDomainData(t *testing.T) {
	ts := newTestServer(t)
	id := uploadCSV(t, ts, "reviews.csv", reviewCSV)

	// Review data cannot satisfy the e-commerce catalog's required
	// fields; the run must stop at validation.
	resp, doc := postJSON(t, ts.URL+"/api/datasets/"+id+"/analyses", `{"kind":"rfm"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	require.Contains(t, doc, "validation")

	var validation struct {
		IsValid bool     `json:"is_valid"`
		Missing []string `json:"missing"`
	}
	require.NoError(t, json.Unmarshal(doc["validation"], &validation))
	assert.False(t, validation.IsValid)
	assert.NotEmpty(t, validation.Missing)
}
