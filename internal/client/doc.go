// Package client talks to a running hello-web server.
//
// It is what `hello-web -stop` uses to send the shutdown password, and what
// the server tests use to drive a live listener.
//
//	c := client.New("http://127.0.0.1:7878", 5*time.Second)
//	ok, err := c.Shutdown("password")
package client
