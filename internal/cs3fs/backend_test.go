package cs3fs

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cboxdev/cs3fs-go/internal/cs3"
)

// fakeBackend is an in-memory storage gateway good enough to exercise
// the adapter end to end over real HTTP. State is keyed by absolute
// path; directories and files live in separate maps.
type fakeBackend struct {
	mu        sync.Mutex
	files     map[string][]byte
	dirs      map[string]bool
	treeSizes map[string]int64
	readOnly  map[string]bool
	versions  map[string][]cs3.FileVersion

	shares         []cs3.Share
	receivedStates map[string]cs3.ShareState

	statCalls   int
	listCalls   int
	deleteCalls int
	uploadCalls int

	srv *httptest.Server
}

type pathRequest struct {
	Path string `json:"path"`
}

type moveWire struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
}

type restoreWire struct {
	Path string `json:"path"`
	Key  string `json:"key"`
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()

	b := &fakeBackend{
		files:     make(map[string][]byte),
		dirs:      map[string]bool{"/": true},
		treeSizes: make(map[string]int64),
		readOnly:  make(map[string]bool),
		versions:  make(map[string][]cs3.FileVersion),

		receivedStates: make(map[string]cs3.ShareState),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/storage/stat", b.handleStat)
	mux.HandleFunc("/storage/list", b.handleList)
	mux.HandleFunc("/storage/create-container", b.handleMkdir)
	mux.HandleFunc("/storage/delete", b.handleDelete)
	mux.HandleFunc("/storage/move", b.handleMove)
	mux.HandleFunc("/storage/touch", b.handleTouch)
	mux.HandleFunc("/storage/quota", b.handleQuota)
	mux.HandleFunc("/storage/download", b.handleDownload)
	mux.HandleFunc("/storage/upload", b.handleUpload)
	mux.HandleFunc("/storage/versions", b.handleVersions)
	mux.HandleFunc("/storage/versions/restore", b.handleRestore)
	mux.HandleFunc("/shares/create", b.handleShareCreate)
	mux.HandleFunc("/shares/list", b.handleShareList)
	mux.HandleFunc("/shares/received/list", b.handleReceivedList)
	mux.HandleFunc("/shares/received/update", b.handleReceivedUpdate)

	b.srv = httptest.NewServer(mux)
	t.Cleanup(b.srv.Close)

	return b
}

// newTestFS wires an FS to a fresh fake backend.
func newTestFS(t *testing.T) (*fakeBackend, *FS) {
	t.Helper()

	b := newFakeBackend(t)

	tokenPath := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(tokenPath, []byte("test-token\n"), 0o600))

	credential, err := cs3.LoadCredential(tokenPath, slog.Default())
	require.NoError(t, err)

	client := cs3.NewClient(b.srv.URL, http.DefaultClient, credential, slog.Default())

	return b, New(client, "/home", slog.Default())
}

func (b *fakeBackend) putFile(path, content string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.files[path] = []byte(content)
}

func (b *fakeBackend) putDir(path string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.dirs[path] = true
}

func (b *fakeBackend) fileContent(path string) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	data, ok := b.files[path]

	return string(data), ok
}

func (b *fakeBackend) hasDir(path string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.dirs[path]
}

func decodeInto(w http.ResponseWriter, r *http.Request, out any) bool {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)

		return false
	}

	return true
}

// infoFor builds a descriptor for an existing path. Caller holds b.mu.
func (b *fakeBackend) infoFor(path string) (cs3.ResourceInfo, bool) {
	if data, ok := b.files[path]; ok {
		info := cs3.ResourceInfo{
			ID:    "id:" + path,
			Path:  path,
			Type:  cs3.ResourceTypeFile,
			Size:  uint64(len(data)),
			Mtime: &cs3.Timestamp{Seconds: 1700000000},
		}
		if !b.readOnly[path] {
			info.PermissionSet = &cs3.PermissionSet{CreateContainer: true, Delete: true}
		} else {
			info.PermissionSet = &cs3.PermissionSet{Stat: true, ListContainer: true}
		}

		return info, true
	}

	if b.dirs[path] {
		info := cs3.ResourceInfo{
			ID:            "id:" + path,
			Path:          path,
			Type:          cs3.ResourceTypeContainer,
			Size:          uint64(b.shallowSize(path)),
			Mtime:         &cs3.Timestamp{Seconds: 1700000000},
			PermissionSet: &cs3.PermissionSet{CreateContainer: true, Delete: true},
		}
		if size, ok := b.treeSizes[path]; ok {
			info.Opaque = map[string]cs3.OpaqueEntry{
				"eos": {Decoder: "json", Value: []byte(fmt.Sprintf(`{"tree_size":%d}`, size))},
			}
		}

		return info, true
	}

	return cs3.ResourceInfo{}, false
}

// shallowSize sums direct child file sizes. Caller holds b.mu.
func (b *fakeBackend) shallowSize(dir string) int {
	total := 0
	prefix := strings.TrimSuffix(dir, "/") + "/"

	for path, data := range b.files {
		if strings.HasPrefix(path, prefix) && !strings.Contains(strings.TrimPrefix(path, prefix), "/") {
			total += len(data)
		}
	}

	return total
}

func (b *fakeBackend) handleStat(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.statCalls++

	var req pathRequest
	if !decodeInto(w, r, &req) {
		return
	}

	info, ok := b.infoFor(req.Path)
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)

		return
	}

	_ = json.NewEncoder(w).Encode(map[string]cs3.ResourceInfo{"info": info})
}

func (b *fakeBackend) handleList(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.listCalls++

	var req pathRequest
	if !decodeInto(w, r, &req) {
		return
	}

	if !b.dirs[req.Path] {
		http.Error(w, "not found", http.StatusNotFound)

		return
	}

	prefix := strings.TrimSuffix(req.Path, "/") + "/"
	infos := []cs3.ResourceInfo{}

	for path := range b.files {
		if strings.HasPrefix(path, prefix) && !strings.Contains(strings.TrimPrefix(path, prefix), "/") {
			info, _ := b.infoFor(path)
			infos = append(infos, info)
		}
	}

	for path := range b.dirs {
		if strings.HasPrefix(path, prefix) && !strings.Contains(strings.TrimPrefix(path, prefix), "/") {
			info, _ := b.infoFor(path)
			infos = append(infos, info)
		}
	}

	_ = json.NewEncoder(w).Encode(map[string][]cs3.ResourceInfo{"infos": infos})
}

func (b *fakeBackend) handleMkdir(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var req pathRequest
	if !decodeInto(w, r, &req) {
		return
	}

	if b.dirs[req.Path] {
		http.Error(w, "exists", http.StatusConflict)

		return
	}

	b.dirs[req.Path] = true
	w.WriteHeader(http.StatusOK)
}

// handleDelete removes the resource and, for directories, the whole
// subtree, matching the gateway's server-side recursion.
func (b *fakeBackend) handleDelete(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.deleteCalls++

	var req pathRequest
	if !decodeInto(w, r, &req) {
		return
	}

	if _, ok := b.files[req.Path]; ok {
		delete(b.files, req.Path)
		w.WriteHeader(http.StatusOK)

		return
	}

	if !b.dirs[req.Path] {
		http.Error(w, "not found", http.StatusNotFound)

		return
	}

	prefix := strings.TrimSuffix(req.Path, "/") + "/"

	delete(b.dirs, req.Path)

	for path := range b.files {
		if strings.HasPrefix(path, prefix) {
			delete(b.files, path)
		}
	}

	for path := range b.dirs {
		if strings.HasPrefix(path, prefix) {
			delete(b.dirs, path)
		}
	}

	w.WriteHeader(http.StatusOK)
}

func (b *fakeBackend) handleMove(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var req moveWire
	if !decodeInto(w, r, &req) {
		return
	}

	if data, ok := b.files[req.Source]; ok {
		delete(b.files, req.Source)
		b.files[req.Destination] = data
		w.WriteHeader(http.StatusOK)

		return
	}

	if b.dirs[req.Source] {
		delete(b.dirs, req.Source)
		b.dirs[req.Destination] = true

		srcPrefix := strings.TrimSuffix(req.Source, "/") + "/"
		dstPrefix := strings.TrimSuffix(req.Destination, "/") + "/"

		for path, data := range b.files {
			if strings.HasPrefix(path, srcPrefix) {
				delete(b.files, path)
				b.files[dstPrefix+strings.TrimPrefix(path, srcPrefix)] = data
			}
		}

		w.WriteHeader(http.StatusOK)

		return
	}

	http.Error(w, "not found", http.StatusNotFound)
}

func (b *fakeBackend) handleTouch(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var req pathRequest
	if !decodeInto(w, r, &req) {
		return
	}

	if _, ok := b.files[req.Path]; !ok {
		b.files[req.Path] = nil
	}

	w.WriteHeader(http.StatusOK)
}

func (b *fakeBackend) handleQuota(w http.ResponseWriter, _ *http.Request) {
	_ = json.NewEncoder(w).Encode(map[string]cs3.Quota{
		"quota": {TotalBytes: 1 << 30, UsedBytes: 1 << 20},
	})
}

func (b *fakeBackend) handleDownload(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	data, ok := b.files[r.URL.Query().Get("path")]
	b.mu.Unlock()

	if !ok {
		http.Error(w, "not found", http.StatusNotFound)

		return
	}

	_, _ = w.Write(data)
}

func (b *fakeBackend) handleUpload(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "read", http.StatusBadRequest)

		return
	}

	b.mu.Lock()
	b.uploadCalls++
	b.files[r.URL.Query().Get("path")] = data
	b.mu.Unlock()

	w.WriteHeader(http.StatusOK)
}

func (b *fakeBackend) handleVersions(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var req pathRequest
	if !decodeInto(w, r, &req) {
		return
	}

	versions := b.versions[req.Path]
	if versions == nil {
		versions = []cs3.FileVersion{}
	}

	_ = json.NewEncoder(w).Encode(map[string][]cs3.FileVersion{"versions": versions})
}

type shareCreateWire struct {
	Resource cs3.ResourceInfo `json:"resource"`
	Grantee  cs3.Grantee      `json:"grantee"`
	Role     string           `json:"role"`
}

type shareListWire struct {
	Filters []cs3.ShareFilter `json:"filters"`
}

type receivedUpdateWire struct {
	ID    string         `json:"id"`
	State cs3.ShareState `json:"state"`
}

func (b *fakeBackend) handleShareCreate(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var req shareCreateWire
	if !decodeInto(w, r, &req) {
		return
	}

	// The share API keys on the canonical resource id, never the path.
	if req.Resource.ID == "" {
		http.Error(w, "missing resource id", http.StatusBadRequest)

		return
	}

	share := cs3.Share{
		ID:         fmt.Sprintf("share-%d", len(b.shares)+1),
		ResourceID: req.Resource.ID,
		Role:       req.Role,
		Grantee:    req.Grantee,
	}
	b.shares = append(b.shares, share)

	_ = json.NewEncoder(w).Encode(map[string]cs3.Share{"share": share})
}

func (b *fakeBackend) handleShareList(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var req shareListWire
	if !decodeInto(w, r, &req) {
		return
	}

	matches := []cs3.Share{}

	for _, share := range b.shares {
		match := len(req.Filters) == 0
		for _, f := range req.Filters {
			if f.ResourceID != "" && share.ResourceID == "id:"+f.ResourceID {
				match = true
			}
		}

		if match {
			matches = append(matches, share)
		}
	}

	_ = json.NewEncoder(w).Encode(map[string][]cs3.Share{"shares": matches})
}

func (b *fakeBackend) handleReceivedList(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	received := []cs3.ReceivedShare{}
	for _, share := range b.shares {
		state, ok := b.receivedStates[share.ID]
		if !ok {
			state = "SHARE_STATE_PENDING"
		}

		received = append(received, cs3.ReceivedShare{Share: share, State: state})
	}

	_ = json.NewEncoder(w).Encode(map[string][]cs3.ReceivedShare{"shares": received})
}

func (b *fakeBackend) handleReceivedUpdate(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var req receivedUpdateWire
	if !decodeInto(w, r, &req) {
		return
	}

	for _, share := range b.shares {
		if share.ID == req.ID {
			b.receivedStates[req.ID] = req.State
			w.WriteHeader(http.StatusOK)

			return
		}
	}

	http.Error(w, "not found", http.StatusNotFound)
}

func (b *fakeBackend) handleRestore(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var req restoreWire
	if !decodeInto(w, r, &req) {
		return
	}

	for _, v := range b.versions[req.Path] {
		if v.Key == req.Key {
			w.WriteHeader(http.StatusOK)

			return
		}
	}

	http.Error(w, "not found", http.StatusNotFound)
}
