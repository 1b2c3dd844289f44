package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// requestTimeout bounds plain API calls; installs can take minutes
const requestTimeout = 15 * time.Minute

var httpClient = &http.Client{Timeout: requestTimeout}

// apiError carries the server's user-facing error text
type apiError struct {
	Status  int
	Message string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.Status)
}

// callAPI sends payload (if any) as JSON and decodes the response into out
func callAPI(method, path string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, serverURL+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var errBody struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &errBody) != nil || errBody.Error == "" {
			errBody.Error = string(data)
		}
		return &apiError{Status: resp.StatusCode, Message: errBody.Error}
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

// mustCall runs callAPI and exits on failure
func mustCall(method, path string, payload, out interface{}) {
	if err := callAPI(method, path, payload, out); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
