package fetch

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"
)

// Transport 把 Client 包装成 http.RoundTripper，让 colly 采集器复用同一套重试 / UA 轮换策略。
// colly 发出的请求头会被忽略，实际请求头来自 Client 的 Profile。
type Transport struct {
	Client   *Client
	Courtesy time.Duration
	// Context 非空时优先使用（colly 自己构造的请求不带调用方的 ctx）
	Context context.Context
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := t.Context
	if ctx == nil {
		ctx = req.Context()
	}

	resp, err := t.Client.get(ctx, req.URL.String(), t.Courtesy)
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	ct := resp.header.Get("Content-Type")
	if !strings.Contains(strings.ToLower(ct), "html") {
		// colly 只对 html / xml 响应触发 OnHTML
		ct = "text/html; charset=utf-8"
	}
	header.Set("Content-Type", ct)

	return &http.Response{
		Status:        "200 OK",
		StatusCode:    http.StatusOK,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(resp.body)),
		ContentLength: int64(len(resp.body)),
		Request:       req,
	}, nil
}
