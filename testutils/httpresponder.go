package testutils

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/jarcoal/httpmock"

	"github.com/salt-ha/salt-ha/internal/saltapi"
)

var LoginResponder, _ = httpmock.NewJsonResponder(http.StatusOK, map[string]interface{}{
	"return": []map[string]interface{}{{
		"token":  DummyToken,
		"expire": 1709350442.65,
		"start":  1709307242.65,
		"user":   "saltapi",
		"eauth":  "pam",
		"perms":  []string{".*", "@wheel", "@runner"},
	}},
})

var OkResponder, _ = httpmock.NewJsonResponder(http.StatusOK, map[string]interface{}{"success": true})

var UnauthorizedResponder = httpmock.NewStringResponder(http.StatusUnauthorized, "401 Unauthorized: No permission")

var NotFoundResponder = httpmock.NewStringResponder(http.StatusNotFound, "404 Not Found")

var ServerErrorResponder = httpmock.NewStringResponder(http.StatusInternalServerError, "reactor failed")

var GarbageResponder = httpmock.NewStringResponder(http.StatusOK, "{\"return\": [")

// KeysResponder answers /keys with the given accepted and pending minions.
func KeysResponder(accepted, pending []string) httpmock.Responder {
	responder, err := httpmock.NewJsonResponder(http.StatusOK, saltapi.KeysResponse{
		Return: saltapi.Keys{
			Local:    []string{"master.pem", "master.pub"},
			Accepted: accepted,
			Pending:  pending,
			Rejected: []string{},
			Denied:   []string{},
		},
	})
	if err != nil {
		panic(err)
	}
	return responder
}

// MetadataResponder serves a metadata.yaml document.
func MetadataResponder(user, password string, port int) httpmock.Responder {
	body := "salt_api_user: " + user + "\nsalt_api_password: " + password + "\nsalt_api_port: " + strconv.Itoa(port) + "\n"
	return httpmock.NewStringResponder(http.StatusOK, body)
}

// Recorder captures request bodies and headers seen by a responder.
type Recorder struct {
	mu      sync.Mutex
	Bodies  [][]byte
	Forms   []map[string]string
	Headers []http.Header
}

// Responder returns a 200 JSON responder recording every request.
func (r *Recorder) Responder() httpmock.Responder {
	return func(req *http.Request) (*http.Response, error) {
		r.mu.Lock()
		defer r.mu.Unlock()

		r.Headers = append(r.Headers, req.Header.Clone())
		if strings.HasPrefix(req.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
			if err := req.ParseForm(); err != nil {
				return nil, err
			}
			form := map[string]string{}
			for k := range req.PostForm {
				form[k] = req.PostForm.Get(k)
			}
			r.Forms = append(r.Forms, form)
		} else if req.Body != nil {
			raw, err := io.ReadAll(req.Body)
			if err != nil {
				return nil, err
			}
			if len(raw) > 0 {
				r.Bodies = append(r.Bodies, raw)
			}
		}

		return httpmock.NewJsonResponse(http.StatusOK, map[string]interface{}{"success": true})
	}
}

// DecodeLast decodes the last recorded JSON body into v.
func (r *Recorder) DecodeLast(v interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return json.Unmarshal(r.Bodies[len(r.Bodies)-1], v)
}
