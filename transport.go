package goSession

import (
	"net/http"

	"github.com/MrEthical07/goSession/cookies"
)

// Transport performs one HTTP exchange. *http.Client satisfies it.
//
// A Transport reports network failures as errors. It may report an HTTP failure as a
// [*ResponseError]; the response status is then inspected like a returned response.
type Transport interface {
	Do(req *http.Request) (*http.Response, error)
}

// TransportFunc adapts a function to [Transport].
type TransportFunc func(req *http.Request) (*http.Response, error)

// Do calls f(req).
func (f TransportFunc) Do(req *http.Request) (*http.Response, error) { return f(req) }

// send performs one exchange through the configured transport. With credentials the
// client's cookie jar is attached to the request and updated from the response.
func (c *Client) send(req *http.Request, credentials bool) (*http.Response, error) {
	jar := c.credentialJar
	if credentials && jar != nil {
		jar.AttachCredentials(req)
	}
	resp, err := c.transport.Do(req)
	if credentials && jar != nil {
		storeCredentials(jar, req, resp, err)
	}
	return resp, err
}

func storeCredentials(jar *cookies.JarStore, req *http.Request, resp *http.Response, err error) {
	if resp == nil {
		resp = responseOf(err)
	}
	if resp == nil {
		return
	}
	if resp.Request == nil {
		r := *resp
		r.Request = req
		resp = &r
	}
	jar.StoreCredentials(resp)
}
