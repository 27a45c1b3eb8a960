package server

import (
	"bufio"
	"bytes"
	"crypto/subtle"
	"io"
	"io/fs"
	"mime"
	"net"
	"net/http"
	"net/url"
	"path"
	"time"

	"hello-web/internal/logger"
	"hello-web/internal/threadpool"

	"github.com/PuerkitoBio/purell"
)

const (
	// ShutdownHeader は停止要求が受理されたレスポンスに付くヘッダー
	ShutdownHeader = "X-Shutdown"
	// ShutdownAccepted は ShutdownHeader の値
	ShutdownAccepted = "accepted"

	maxFormSize = 4 << 10
)

// reply は接続に書き込むレスポンス
type reply struct {
	code     int
	page     string
	accepted bool
}

func (s *Server) connectionJob(conn net.Conn) threadpool.Job {
	return func() threadpool.Status {
		return s.handleConnection(conn)
	}
}

// handleConnection は1つのリクエストを読み、ページを返して接続を閉じる
func (s *Server) handleConnection(conn net.Conn) threadpool.Status {
	defer conn.Close()

	if s.config.ReadTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
	}

	req, err := http.ReadRequest(bufio.NewReader(conn))
	if err != nil {
		logger.Warn("server", "Bad request from %s: %v", conn.RemoteAddr(), err)
		if werr := writeResponse(conn, http.StatusBadRequest, "text/plain; charset=utf-8", []byte("bad request\n"), false); werr != nil {
			logger.Debug("server", "Failed to write response: %v", werr)
		}
		return threadpool.Active
	}

	r := s.route(req)

	body, err := fs.ReadFile(s.pages, r.page)
	if err != nil {
		logger.Error("server", "Failed to read page %s: %v", r.page, err)
		r.code = http.StatusInternalServerError
		body = []byte("internal server error\n")
	}

	contentType := mime.TypeByExtension(path.Ext(r.page))
	if contentType == "" || r.code == http.StatusInternalServerError {
		contentType = "text/plain; charset=utf-8"
	}
	if err := writeResponse(conn, r.code, contentType, body, r.accepted); err != nil {
		logger.Warn("server", "Failed to write response to %s: %v", conn.RemoteAddr(), err)
	}

	if r.accepted {
		return threadpool.Terminate
	}
	return threadpool.Active
}

// route はリクエストに対応するページを決める
func (s *Server) route(req *http.Request) reply {
	p := normalizePath(req.URL)
	logger.Debug("server", "%s %s", req.Method, p)

	switch {
	case req.Method == http.MethodGet && p == "/":
		return reply{code: http.StatusOK, page: "hello.html"}
	case req.Method == http.MethodGet && p == "/sleep":
		time.Sleep(s.config.SleepDelay)
		return reply{code: http.StatusOK, page: "sleep.html"}
	case req.Method == http.MethodGet && p == "/shutdown":
		return reply{code: http.StatusOK, page: "shutdown.html"}
	case req.Method == http.MethodGet && p == "/styles.css":
		return reply{code: http.StatusOK, page: "styles.css"}
	case req.Method == http.MethodPost && p == "/shutdown":
		if s.checkPassword(req) {
			logger.Info("server", "Correct password received. The server will shut down shortly.")
			return reply{code: http.StatusOK, page: "shutdown_successful.html", accepted: true}
		}
		logger.Warn("server", "Wrong password received.")
		return reply{code: http.StatusOK, page: "shutdown.html"}
	default:
		return reply{code: http.StatusNotFound, page: "404.html"}
	}
}

// normalizePath はドットセグメントや重複スラッシュを取り除いたパスを返す
func normalizePath(u *url.URL) string {
	p := purell.NormalizeURL(&url.URL{Path: u.Path},
		purell.FlagsSafe|purell.FlagRemoveDotSegments|purell.FlagRemoveDuplicateSlashes|purell.FlagRemoveTrailingSlash)
	if p == "" {
		return "/"
	}
	return p
}

// checkPassword はフォームの password フィールドを設定値と比較する
func (s *Server) checkPassword(req *http.Request) bool {
	if s.config.ShutdownPassword == "" || req.Body == nil {
		return false
	}

	data, err := io.ReadAll(io.LimitReader(req.Body, maxFormSize))
	if err != nil {
		return false
	}
	form, err := url.ParseQuery(string(data))
	if err != nil {
		return false
	}

	got := []byte(form.Get("password"))
	want := []byte(s.config.ShutdownPassword)
	return subtle.ConstantTimeCompare(got, want) == 1
}

func writeResponse(w io.Writer, code int, contentType string, body []byte, accepted bool) error {
	resp := &http.Response{
		StatusCode:    code,
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        make(http.Header),
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
		Close:         true,
	}
	resp.Header.Set("Content-Type", contentType)
	if accepted {
		resp.Header.Set(ShutdownHeader, ShutdownAccepted)
	}
	return resp.Write(w)
}
