package core

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"reqbook/database"
	"reqbook/logger"
	"reqbook/models"

	"github.com/elazarl/goproxy"
	"github.com/google/uuid"
)

// captureContextData rides along on the goproxy context so the
// response hook can finish the entry the request hook started.
type captureContextData struct {
	Entry *models.CaptureEntry
}

// StartCaptureRelay runs a plain forwarding proxy that records every
// request/response exchange passing through it into the capture log.
// HTTPS CONNECT tunnels are passed through untouched and are not
// recorded; the relay exists to observe plain-HTTP backend traffic
// during local development, not to intercept TLS.
func StartCaptureRelay(port string) error {
	proxy := goproxy.NewProxyHttpServer()
	proxy.Logger = log.New(io.Discard, "", 0)

	proxy.OnRequest().DoFunc(
		func(r *http.Request, ctx *goproxy.ProxyCtx) (*http.Request, *http.Response) {
			reqHeadersJSON, _ := json.Marshal(r.Header)

			entry := &models.CaptureEntry{
				ExchangeID:     uuid.NewString(),
				Method:         r.Method,
				URL:            r.URL.String(),
				RequestHeaders: models.NullString(string(reqHeadersJSON)),
			}
			ctx.UserData = &captureContextData{Entry: entry}

			logger.ProxyInfo("CAPTURE REQ: %s %s (exchange %s)", r.Method, entry.URL, entry.ExchangeID)
			return r, nil
		})

	proxy.OnResponse().DoFunc(
		func(resp *http.Response, ctx *goproxy.ProxyCtx) *http.Response {
			cCtxData, ok := ctx.UserData.(*captureContextData)
			if !ok || cCtxData == nil || cCtxData.Entry == nil {
				return resp
			}
			entry := cCtxData.Entry

			if resp == nil {
				logger.ProxyError("CAPTURE RESP: nil response for %s %s", entry.Method, entry.URL)
				entry.Status = 0
			} else {
				respHeadersJSON, _ := json.Marshal(resp.Header)
				entry.Status = resp.StatusCode
				entry.ResponseHeaders = models.NullString(string(respHeadersJSON))
				entry.ResponseContentType = models.NullString(resp.Header.Get("Content-Type"))
			}

			if _, err := database.InsertCaptureEntry(*entry); err != nil {
				logger.ProxyError("CAPTURE: failed to record exchange %s: %v", entry.ExchangeID, err)
			} else {
				logger.ProxyInfo("CAPTURE RESP: %d for %s %s (exchange %s)", entry.Status, entry.Method, entry.URL, entry.ExchangeID)
			}
			return resp
		})

	logger.ProxyInfo("Capture relay starting on :%s", port)
	return http.ListenAndServe(":"+port, proxy)
}
