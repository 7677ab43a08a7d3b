// Reader is a testing facility to read the output of a http reporter.

package reporter

import (
	"io"
	"net/http"
	"net/url"
)

type HttpReader struct {
	baseURL string
}

func NewHttpReader(serverIP string, serverPort string) *HttpReader {
	return &HttpReader{baseURL: "http://" + serverIP + ":" + serverPort}
}

// NewHttpReaderFromURL is used with httptest servers.
func NewHttpReaderFromURL(baseURL string) *HttpReader {
	return &HttpReader{baseURL: baseURL}
}

func (hr *HttpReader) GetHello() (string, error) {
	return hr.get(ROUTE_HELLO, nil)
}

func (hr *HttpReader) GetMintBySignature(sig string) (string, error) {
	return hr.get(ROUTE_MINT, url.Values{"signature": {sig}})
}

func (hr *HttpReader) GetBurnByBtcAddr(btcAddr string) (string, error) {
	return hr.get(ROUTE_BURN, url.Values{"btc_addr": {btcAddr}})
}

func (hr *HttpReader) GetWatermark() (string, error) {
	return hr.get(ROUTE_WATERMARK, nil)
}

func (hr *HttpReader) get(route string, q url.Values) (string, error) {
	u := hr.baseURL + route
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	resp, err := http.Get(u)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}
