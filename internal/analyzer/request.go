package analyzer

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Accept-Encoding is left to the transport, which asks for gzip and
// decompresses the answer itself.
const acceptType = "application/json"

type multipartFile struct {
	field string
	name  string
	body  io.Reader
}

func (c *Client) postMultipart(ctx context.Context, url, requestID string, file multipartFile, fields map[string]string) (*http.Response, error) {
	var b bytes.Buffer
	w := multipart.NewWriter(&b)

	part, err := w.CreateFormFile(file.field, file.name)
	if err != nil {
		return nil, err
	}
	if _, err = io.Copy(part, file.body); err != nil {
		return nil, fmt.Errorf("copying %s: %w", file.name, err)
	}

	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		field, err := w.CreateFormField(key)
		if err != nil {
			return nil, err
		}

		if _, err = io.Copy(field, strings.NewReader(fields[key])); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &b)
	if err != nil {
		return nil, err
	}

	req = c.setHeaders(req)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("X-Request-ID", requestID)

	return c.request(req)
}

func (c *Client) request(req *http.Request) (*http.Response, error) {
	c.logger.Debug("make request", zap.String("url", req.URL.String()))
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}

	return resp, nil
}

func (c *Client) setHeaders(req *http.Request) *http.Request {
	if c.Token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.Token))
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", acceptType)

	return req
}

// readBody returns the response body. Bodies the transport did not
// decompress are un-gzipped here.
func readBody(resp *http.Response) ([]byte, error) {
	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	return io.ReadAll(reader)
}

// errorMessage extracts the "error" member of a failure body.
func errorMessage(data []byte) string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return DefaultErrorMessage
	}

	if msg := strings.TrimSpace(body.Error); msg != "" {
		return msg
	}

	return DefaultErrorMessage
}
