// Package solid talks to pod servers following the Solid protocol over HTTP.
package solid

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dtroode/podkeeper/internal/dataset"
	"github.com/dtroode/podkeeper/internal/model"
)

const (
	ldpBasicContainer = `<http://www.w3.org/ns/ldp#BasicContainer>; rel="type"`
	ldpResource       = `<http://www.w3.org/ns/ldp#Resource>; rel="type"`
	ldpContains       = "http://www.w3.org/ns/ldp#contains"
	aclSuffix         = ".acl"
	turtle            = "text/turtle"
	errorBodyLimit    = 512
)

var _ model.Gateway = (*Gateway)(nil)

// Gateway is a pod gateway speaking HTTP to Solid servers. Every request
// carries the session credential as a bearer token.
type Gateway struct {
	client *http.Client
}

// NewGateway creates a gateway using the transport built by layer. A zero
// timeout leaves requests bounded only by their context.
func NewGateway(layer TransportLayer, timeout time.Duration) (*Gateway, error) {
	rt, err := layer.RoundTripper()
	if err != nil {
		return nil, fmt.Errorf("failed to build transport: %w", err)
	}
	return NewGatewayWithClient(&http.Client{Transport: rt, Timeout: timeout}), nil
}

// NewGatewayWithClient wraps an existing client (used in tests).
func NewGatewayWithClient(client *http.Client) *Gateway {
	return &Gateway{client: client}
}

func (g *Gateway) CreateContainer(ctx context.Context, s model.Session, containerURL string) error {
	if !strings.HasSuffix(containerURL, "/") {
		return fmt.Errorf("%w: container url %q must end with a slash", model.ErrAddressing, containerURL)
	}

	resp, err := g.do(ctx, s, http.MethodPut, containerURL, nil, map[string]string{
		"Content-Type":  turtle,
		"Link":          ldpBasicContainer,
		"If-None-Match": "*",
	})
	if err != nil {
		return err
	}
	defer drain(resp)

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
		return nil
	case http.StatusPreconditionFailed:
		return model.ErrAlreadyExists
	default:
		return statusError(http.MethodPut, containerURL, resp)
	}
}

func (g *Gateway) ReadResource(ctx context.Context, s model.Session, resourceURL string) (model.Resource, error) {
	return g.get(ctx, s, resourceURL, "")
}

func (g *Gateway) WriteResource(ctx context.Context, s model.Session, containerURL string, data []byte, opts model.WriteOptions) (string, error) {
	location := strings.TrimSuffix(containerURL, "/") + "/" + url.PathEscape(opts.Name)
	headers := map[string]string{
		"Content-Type": opts.MimeType,
		"Link":         ldpResource,
	}
	if !opts.Overwrite {
		headers["If-None-Match"] = "*"
	}

	if err := g.put(ctx, s, location, data, headers); err != nil {
		return "", err
	}
	return location, nil
}

func (g *Gateway) ListContainer(ctx context.Context, s model.Session, containerURL string) ([]string, error) {
	res, err := g.get(ctx, s, containerURL, dataset.ContentType)
	if err != nil {
		return nil, err
	}

	_, raw, err := graphNodes(res.Data)
	if err != nil {
		return nil, model.NewRemoteError(http.MethodGet, containerURL, http.StatusOK, fmt.Errorf("unreadable container listing: %w", err))
	}

	var children []string
	for _, n := range objects(raw) {
		id, _ := n["@id"].(string)
		if resolve(containerURL, id) != containerURL {
			continue
		}
		for _, key := range []string{ldpContains, "ldp:contains", "contains"} {
			children = append(children, ids(n[key], containerURL)...)
		}
	}

	out := children[:0]
	for _, child := range children {
		if !strings.HasSuffix(child, aclSuffix) {
			out = append(out, child)
		}
	}
	return out, nil
}

func (g *Gateway) ReadDataset(ctx context.Context, s model.Session, datasetURL string) (*model.Dataset, error) {
	res, err := g.get(ctx, s, datasetURL, dataset.ContentType)
	if err != nil {
		return nil, err
	}
	return dataset.Decode(res.Data)
}

func (g *Gateway) CreateDataset(ctx context.Context, s model.Session, datasetURL string, ds *model.Dataset) error {
	return g.put(ctx, s, datasetURL, dataset.Encode(ds), map[string]string{
		"Content-Type":  dataset.ContentType,
		"If-None-Match": "*",
	})
}

func (g *Gateway) WriteDataset(ctx context.Context, s model.Session, datasetURL string, ds *model.Dataset) error {
	return g.put(ctx, s, datasetURL, dataset.Encode(ds), map[string]string{
		"Content-Type": dataset.ContentType,
	})
}

func (g *Gateway) DeleteResource(ctx context.Context, s model.Session, resourceURL string) error {
	return g.delete(ctx, s, resourceURL, false)
}

// DeleteContainer removes an empty container. Pod servers answer 409 for a
// container that still has children.
func (g *Gateway) DeleteContainer(ctx context.Context, s model.Session, containerURL string) error {
	return g.delete(ctx, s, containerURL, true)
}

func (g *Gateway) ReadAccessControl(ctx context.Context, s model.Session, resourceURL string) (*model.AccessControl, error) {
	aclURL, err := g.aclURL(ctx, s, resourceURL)
	if err != nil {
		return nil, err
	}

	res, err := g.get(ctx, s, aclURL, dataset.ContentType)
	if err != nil {
		return nil, err
	}

	acl, err := decodeACL(res.Data, aclURL)
	if err != nil {
		return nil, err
	}
	if acl.Resource == "" {
		acl.Resource = resourceURL
	}
	return acl, nil
}

func (g *Gateway) WriteAccessControl(ctx context.Context, s model.Session, resourceURL string, acl *model.AccessControl) error {
	aclURL, err := g.aclURL(ctx, s, resourceURL)
	if err != nil {
		return err
	}

	doc := *acl
	doc.Resource = resourceURL
	data, err := encodeACL(&doc)
	if err != nil {
		return fmt.Errorf("failed to encode access control: %w", err)
	}

	return g.put(ctx, s, aclURL, data, map[string]string{"Content-Type": dataset.ContentType})
}

// aclURL discovers the access control resource of resourceURL from its
// Link header, falling back to the conventional ".acl" sibling.
func (g *Gateway) aclURL(ctx context.Context, s model.Session, resourceURL string) (string, error) {
	resp, err := g.do(ctx, s, http.MethodHead, resourceURL, nil, nil)
	if err != nil {
		return "", err
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusOK {
		return "", statusError(http.MethodHead, resourceURL, resp)
	}
	if acl, ok := parseLinks(resp.Header.Values("Link"))["acl"]; ok {
		return resolve(resourceURL, acl), nil
	}
	return resourceURL + aclSuffix, nil
}

func (g *Gateway) get(ctx context.Context, s model.Session, resourceURL, accept string) (model.Resource, error) {
	var headers map[string]string
	if accept != "" {
		headers = map[string]string{"Accept": accept}
	}
	resp, err := g.do(ctx, s, http.MethodGet, resourceURL, nil, headers)
	if err != nil {
		return model.Resource{}, err
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusOK {
		return model.Resource{}, statusError(http.MethodGet, resourceURL, resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.Resource{}, model.NewRemoteError(http.MethodGet, resourceURL, resp.StatusCode, err)
	}

	res := model.Resource{
		URL:         resourceURL,
		Data:        data,
		ContentType: resp.Header.Get("Content-Type"),
	}
	if lm := resp.Header.Get("Last-Modified"); lm != "" {
		if t, err := http.ParseTime(lm); err == nil {
			res.LastModified = t
		}
	}
	return res, nil
}

func (g *Gateway) put(ctx context.Context, s model.Session, resourceURL string, data []byte, headers map[string]string) error {
	resp, err := g.do(ctx, s, http.MethodPut, resourceURL, data, headers)
	if err != nil {
		return err
	}
	defer drain(resp)

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent, http.StatusResetContent:
		return nil
	case http.StatusPreconditionFailed:
		return model.ErrAlreadyExists
	default:
		return statusError(http.MethodPut, resourceURL, resp)
	}
}

func (g *Gateway) delete(ctx context.Context, s model.Session, resourceURL string, container bool) error {
	resp, err := g.do(ctx, s, http.MethodDelete, resourceURL, nil, nil)
	if err != nil {
		return err
	}
	defer drain(resp)

	switch code := resp.StatusCode; {
	case code == http.StatusOK, code == http.StatusAccepted, code == http.StatusNoContent:
		return nil
	case code == http.StatusConflict && container:
		return model.ErrNotEmpty
	default:
		return statusError(http.MethodDelete, resourceURL, resp)
	}
}

func (g *Gateway) do(ctx context.Context, s model.Session, method, resourceURL string, body []byte, headers map[string]string) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, resourceURL, reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrAddressing, err)
	}
	if s.Credential != "" {
		req.Header.Set("Authorization", "Bearer "+s.Credential)
	}
	for k, v := range headers {
		if v != "" {
			req.Header.Set(k, v)
		}
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, model.NewRemoteError(method, resourceURL, 0, err)
	}
	return resp, nil
}

func statusError(method, resourceURL string, resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusNotFound, http.StatusGone:
		return model.ErrNotFound
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
	var cause error
	if msg := strings.TrimSpace(string(body)); msg != "" {
		cause = errors.New(msg)
	}
	return model.NewRemoteError(method, resourceURL, resp.StatusCode, cause)
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

// parseLinks maps each rel of an HTTP Link header to its target.
func parseLinks(values []string) map[string]string {
	links := map[string]string{}
	for _, value := range values {
		for _, link := range strings.Split(value, ",") {
			parts := strings.Split(link, ";")
			target := strings.TrimSpace(parts[0])
			if !strings.HasPrefix(target, "<") || !strings.HasSuffix(target, ">") {
				continue
			}
			target = target[1 : len(target)-1]
			for _, param := range parts[1:] {
				key, val, ok := strings.Cut(strings.TrimSpace(param), "=")
				if !ok || strings.TrimSpace(key) != "rel" {
					continue
				}
				for _, rel := range strings.Fields(strings.Trim(strings.TrimSpace(val), `"`)) {
					links[rel] = target
				}
			}
		}
	}
	return links
}
