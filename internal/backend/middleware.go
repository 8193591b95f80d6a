package backend

import "net/http"

type HeaderMiddleware struct {
	Headers map[string]string
	Proxied http.RoundTripper
}

func (hm HeaderMiddleware) RoundTrip(req *http.Request) (res *http.Response, e error) {
	// RoundTrippers must not modify the caller's request
	req = req.Clone(req.Context())
	for k, v := range hm.Headers {
		req.Header.Add(k, v)
	}

	return hm.Proxied.RoundTrip(req)
}
