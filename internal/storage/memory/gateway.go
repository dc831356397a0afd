// Package memory is an in-process pod gateway. It keeps the same container
// rules as a real pod server and is used for local runs and tests.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dtroode/podkeeper/internal/dataset"
	"github.com/dtroode/podkeeper/internal/model"
)

var _ model.Gateway = (*Gateway)(nil)

type object struct {
	data        []byte
	contentType string
	modified    time.Time
}

// Gateway stores containers, resources and ACLs in maps guarded by a mutex.
type Gateway struct {
	mu         sync.Mutex
	containers map[string]time.Time
	objects    map[string]object
	acls       map[string]model.AccessControl
	failures   map[string]error
	now        func() time.Time
}

// New returns an empty gateway.
func New() *Gateway {
	return &Gateway{
		containers: make(map[string]time.Time),
		objects:    make(map[string]object),
		acls:       make(map[string]model.AccessControl),
		failures:   make(map[string]error),
		now:        time.Now,
	}
}

// FailOn makes every call touching url return err. A nil err clears it.
func (g *Gateway) FailOn(url string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err == nil {
		delete(g.failures, url)
		return
	}
	g.failures[url] = err
}

// Put stores raw bytes at url, creating parent containers as needed.
func (g *Gateway) Put(url string, data []byte, contentType string, modified time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ensureParents(url)
	g.objects[url] = object{data: append([]byte(nil), data...), contentType: contentType, modified: modified}
}

// Exists reports whether a container or resource is stored at url.
func (g *Gateway) Exists(url string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, isContainer := g.containers[url]
	_, isObject := g.objects[url]
	return isContainer || isObject
}

func (g *Gateway) CreateContainer(_ context.Context, _ model.Session, url string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.failure(url); err != nil {
		return err
	}
	if !strings.HasSuffix(url, "/") {
		return fmt.Errorf("%w: container url %q must end with a slash", model.ErrAddressing, url)
	}
	if _, ok := g.containers[url]; ok {
		return model.ErrAlreadyExists
	}
	g.ensureParents(url)
	g.containers[url] = g.now()
	return nil
}

func (g *Gateway) ReadResource(_ context.Context, _ model.Session, url string) (model.Resource, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.failure(url); err != nil {
		return model.Resource{}, err
	}
	obj, ok := g.objects[url]
	if !ok {
		return model.Resource{}, model.ErrNotFound
	}
	return model.Resource{
		URL:          url,
		Data:         append([]byte(nil), obj.data...),
		ContentType:  obj.contentType,
		LastModified: obj.modified,
	}, nil
}

func (g *Gateway) WriteResource(_ context.Context, _ model.Session, containerURL string, data []byte, opts model.WriteOptions) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.failure(containerURL); err != nil {
		return "", err
	}
	if _, ok := g.containers[containerURL]; !ok {
		return "", model.ErrNotFound
	}

	location := containerURL + url.PathEscape(opts.Name)
	if err := g.failure(location); err != nil {
		return "", err
	}
	if _, ok := g.objects[location]; ok && !opts.Overwrite {
		return "", model.ErrAlreadyExists
	}
	g.objects[location] = object{data: append([]byte(nil), data...), contentType: opts.MimeType, modified: g.now()}
	return location, nil
}

func (g *Gateway) ListContainer(_ context.Context, _ model.Session, containerURL string) ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.failure(containerURL); err != nil {
		return nil, err
	}
	if _, ok := g.containers[containerURL]; !ok {
		return nil, model.ErrNotFound
	}
	return g.children(containerURL), nil
}

func (g *Gateway) ReadDataset(ctx context.Context, s model.Session, url string) (*model.Dataset, error) {
	res, err := g.ReadResource(ctx, s, url)
	if err != nil {
		return nil, err
	}
	return dataset.Decode(res.Data)
}

func (g *Gateway) CreateDataset(_ context.Context, _ model.Session, url string, ds *model.Dataset) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.failure(url); err != nil {
		return err
	}
	if _, ok := g.objects[url]; ok {
		return model.ErrAlreadyExists
	}
	return g.writeDataset(url, ds)
}

func (g *Gateway) WriteDataset(_ context.Context, _ model.Session, url string, ds *model.Dataset) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.failure(url); err != nil {
		return err
	}
	return g.writeDataset(url, ds)
}

func (g *Gateway) DeleteResource(_ context.Context, _ model.Session, url string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.failure(url); err != nil {
		return err
	}
	if _, ok := g.objects[url]; !ok {
		return model.ErrNotFound
	}
	delete(g.objects, url)
	delete(g.acls, url)
	return nil
}

func (g *Gateway) DeleteContainer(_ context.Context, _ model.Session, url string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.failure(url); err != nil {
		return err
	}
	if _, ok := g.containers[url]; !ok {
		return model.ErrNotFound
	}
	if len(g.children(url)) > 0 {
		return model.ErrNotEmpty
	}
	delete(g.containers, url)
	delete(g.acls, url)
	return nil
}

func (g *Gateway) ReadAccessControl(_ context.Context, _ model.Session, resourceURL string) (*model.AccessControl, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.failure(resourceURL); err != nil {
		return nil, err
	}
	acl, ok := g.acls[resourceURL]
	if !ok {
		return nil, model.ErrNotFound
	}
	return copyACL(acl), nil
}

func (g *Gateway) WriteAccessControl(_ context.Context, _ model.Session, resourceURL string, acl *model.AccessControl) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.failure(resourceURL); err != nil {
		return err
	}
	_, isContainer := g.containers[resourceURL]
	_, isObject := g.objects[resourceURL]
	if !isContainer && !isObject {
		return model.ErrNotFound
	}
	g.acls[resourceURL] = *copyACL(*acl)
	return nil
}

func (g *Gateway) writeDataset(url string, ds *model.Dataset) error {
	parent := parentOf(url)
	if _, ok := g.containers[parent]; !ok {
		return model.ErrNotFound
	}
	g.objects[url] = object{data: dataset.Encode(ds), contentType: dataset.ContentType, modified: g.now()}
	return nil
}

func (g *Gateway) children(containerURL string) []string {
	var out []string
	for u := range g.containers {
		if u != containerURL && parentOf(u) == containerURL {
			out = append(out, u)
		}
	}
	for u := range g.objects {
		if parentOf(u) == containerURL {
			out = append(out, u)
		}
	}
	sort.Strings(out)
	return out
}

func (g *Gateway) ensureParents(url string) {
	for p := parentOf(url); p != "" && strings.Count(p, "/") >= 3; p = parentOf(p) {
		if _, ok := g.containers[p]; !ok {
			g.containers[p] = g.now()
		}
	}
}

func (g *Gateway) failure(url string) error {
	if err, ok := g.failures[url]; ok {
		return err
	}
	return nil
}

// parentOf returns the container url directly holding url.
func parentOf(url string) string {
	trimmed := strings.TrimSuffix(url, "/")
	idx := strings.LastIndex(trimmed, "/")
	if idx < 0 {
		return ""
	}
	return trimmed[:idx+1]
}

func copyACL(acl model.AccessControl) *model.AccessControl {
	out := model.AccessControl{Resource: acl.Resource}
	for _, a := range acl.Authorizations {
		a.Modes = append([]model.Mode(nil), a.Modes...)
		out.Authorizations = append(out.Authorizations, a)
	}
	for _, raw := range acl.Preserved {
		out.Preserved = append(out.Preserved, append(json.RawMessage(nil), raw...))
	}
	return &out
}
