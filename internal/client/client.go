package client

import (
	"fmt"
	"net/url"
	"time"

	"hello-web/internal/server"

	gen "gopkg.in/h2non/gentleman.v2"
	"gopkg.in/h2non/gentleman.v2/plugins/timeout"
)

// Client は hello-web サーバーへの HTTP クライアント
type Client struct {
	cli *gen.Client
}

// New は baseURL に対するクライアントを作成する（timeout 0 で無制限）
func New(baseURL string, d time.Duration) *Client {
	cli := gen.New().URL(baseURL)
	if d > 0 {
		cli.Use(timeout.Request(d))
	}
	return &Client{cli: cli}
}

// Get は path を取得し、ステータスコードと本文を返す
func (c *Client) Get(path string) (int, string, error) {
	res, err := c.cli.Request().Method("GET").Path(path).Send()
	if err != nil {
		return 0, "", fmt.Errorf("GET %s: %w", path, err)
	}
	defer res.Close()
	return res.StatusCode, res.String(), nil
}

// Shutdown は停止パスワードを送信し、受理されたかどうかを返す
func (c *Client) Shutdown(password string) (bool, error) {
	form := url.Values{"password": {password}}

	req := c.cli.Request().Method("POST").Path("/shutdown")
	req.SetHeader("Content-Type", "application/x-www-form-urlencoded")
	req.BodyString(form.Encode())

	res, err := req.Send()
	if err != nil {
		return false, fmt.Errorf("POST /shutdown: %w", err)
	}
	defer res.Close()

	if res.StatusCode != 200 {
		return false, fmt.Errorf("POST /shutdown: unexpected status %d", res.StatusCode)
	}
	return res.Header.Get(server.ShutdownHeader) == server.ShutdownAccepted, nil
}
