// Package growitest provides an in-process fake GROWI server for tests. It
// stores pages in memory and rejects writes whose revision id is not the
// page's current one.
package growitest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// OutdatedMessage is returned for a write carrying a stale revision id.
const OutdatedMessage = `Posted param "revisionId" is outdated.`

const maxUploadMemory = 32 << 20

// Call is one request the server received.
type Call struct {
	Method string
	Path   string
	Query  url.Values
	Form   url.Values
}

// Upload is a file received by the attachment endpoint.
type Upload struct {
	PageID   string
	Path     string
	FileName string
	MIMEType string
	Data     []byte
}

// Page is the stored state of one page.
type Page struct {
	ID         string
	Path       string
	Body       string
	Grant      int
	RevisionID string
	Tags       []string
	UpdatedAt  time.Time
}

// Server is a fake GROWI API backed by an in-memory page store.
type Server struct {
	*httptest.Server

	// Token, when set, must be sent as the access_token query parameter.
	Token string
	// FailAttach makes the attachment endpoint reply 200 with ok:false.
	FailAttach bool
	// BeforeWrite runs before update and rename are applied, outside the store
	// lock. Tests use it to line up concurrent writers.
	BeforeWrite func(op string)

	mu      sync.Mutex
	pages   map[string]*Page
	nextID  int
	nextRev int
	calls   []Call
	uploads []Upload
}

// NewServer starts a fake server. Call Close when done.
func NewServer() *Server {
	s := &Server{pages: make(map[string]*Page)}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /_api/v3/page", s.handleGetPage)
	mux.HandleFunc("GET /_api/pages.list", s.handleListPages)
	mux.HandleFunc("POST /_api/v3/pages", s.handleCreate)
	mux.HandleFunc("POST /_api/pages.update", s.handleUpdate)
	mux.HandleFunc("PUT /_api/v3/pages/rename", s.handleRename)
	mux.HandleFunc("POST /_api/attachments.add", s.handleAttach)
	mux.HandleFunc("GET /_api/tags.list", s.handleTagsList)
	mux.HandleFunc("GET /_api/pages.getPageTag", s.handlePageTags)

	s.Server = httptest.NewServer(s.authenticate(mux))

	return s
}

// Seed stores a page directly and returns it.
func (s *Server) Seed(path, body string, tags ...string) Page {
	s.mu.Lock()
	defer s.mu.Unlock()

	page := s.insert(path, body, 1)
	page.Tags = append([]string(nil), tags...)

	return *page
}

// Lookup returns a copy of the page stored at path.
func (s *Server) Lookup(path string) (Page, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	page := s.byPath(path)
	if page == nil {
		return Page{}, false
	}

	return *page, true
}

// Calls returns every request received so far, in order.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]Call(nil), s.calls...)
}

// CallCount returns the number of requests received so far.
func (s *Server) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.calls)
}

// Uploads returns every file received by the attachment endpoint.
func (s *Server) Uploads() []Upload {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]Upload(nil), s.uploads...)
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if s.Token != "" && request.URL.Query().Get("access_token") != s.Token {
			writeJSON(writer, http.StatusUnauthorized, v3Error("Unauthorized", "unauthorized"))

			return
		}

		next.ServeHTTP(writer, request)
	})
}

func (s *Server) record(request *http.Request) {
	query := request.URL.Query()
	query.Del("access_token")

	call := Call{Method: request.Method, Path: request.URL.Path, Query: query, Form: url.Values{}}

	switch {
	case request.MultipartForm != nil:
		for key, values := range request.MultipartForm.Value {
			call.Form[key] = values
		}
	case request.PostForm != nil:
		for key, values := range request.PostForm {
			call.Form[key] = values
		}
	}

	s.mu.Lock()
	s.calls = append(s.calls, call)
	s.mu.Unlock()
}

func (s *Server) handleGetPage(writer http.ResponseWriter, request *http.Request) {
	s.record(request)

	s.mu.Lock()
	defer s.mu.Unlock()

	page := s.find(request.URL.Query().Get("path"), request.URL.Query().Get("pageId"))
	if page == nil {
		writeJSON(writer, http.StatusNotFound, v3Error("Page is not found", "not_found"))

		return
	}

	writeJSON(writer, http.StatusOK, map[string]interface{}{"page": pageJSON(page, true)})
}

func (s *Server) handleListPages(writer http.ResponseWriter, request *http.Request) {
	s.record(request)

	query := request.URL.Query()
	prefix := query.Get("path")
	user := query.Get("user")

	if prefix == "" && user == "" {
		writeJSON(writer, http.StatusOK, legacyError("Parameter path or user is required."))

		return
	}

	limit, err := strconv.ParseInt(query.Get("limit"), 10, 64)
	if err != nil || limit <= 0 {
		limit = 50
	}

	offset, _ := strconv.Atoi(query.Get("offset"))

	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []*Page

	for _, page := range s.sorted() {
		if user != "" || strings.HasPrefix(page.Path, prefix) {
			matched = append(matched, page)
		}
	}

	window := paginate(len(matched), offset, limit)
	pages := make([]map[string]interface{}, 0, window[1]-window[0])

	for _, page := range matched[window[0]:window[1]] {
		pages = append(pages, pageJSON(page, false))
	}

	writeJSON(writer, http.StatusOK, map[string]interface{}{
		"ok":         true,
		"pages":      pages,
		"totalCount": len(matched),
	})
}

func (s *Server) handleCreate(writer http.ResponseWriter, request *http.Request) {
	_ = request.ParseForm()
	s.record(request)

	path := request.PostForm.Get("path")
	if path == "" {
		writeJSON(writer, http.StatusBadRequest, v3Error("Invalid value for path", "validation_failed"))

		return
	}

	grant, err := strconv.Atoi(request.PostForm.Get("grant"))
	if err != nil {
		grant = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.byPath(path) != nil {
		writeJSON(writer, http.StatusBadRequest, v3Error(fmt.Sprintf("Page '%s' already exists", path), "already_exists"))

		return
	}

	page := s.insert(path, request.PostForm.Get("body"), grant)

	writeJSON(writer, http.StatusCreated, map[string]interface{}{
		"page":     pageJSON(page, false),
		"tags":     []string{},
		"revision": revisionJSON(page),
	})
}

func (s *Server) handleUpdate(writer http.ResponseWriter, request *http.Request) {
	_ = request.ParseForm()
	s.record(request)

	if s.BeforeWrite != nil {
		s.BeforeWrite("update")
	}

	form := request.PostForm

	s.mu.Lock()
	defer s.mu.Unlock()

	page := s.pages[form.Get("page_id")]
	if page == nil {
		writeJSON(writer, http.StatusOK, legacyError("Page not found."))

		return
	}

	if form.Get("revision_id") != page.RevisionID {
		writeJSON(writer, http.StatusOK, legacyError(OutdatedMessage))

		return
	}

	page.Body = form.Get("body")
	page.RevisionID = s.revision()
	page.UpdatedAt = time.Now().UTC()

	if grant, err := strconv.Atoi(form.Get("grant")); err == nil {
		page.Grant = grant
	}

	writeJSON(writer, http.StatusOK, map[string]interface{}{"ok": true, "page": pageJSON(page, false)})
}

func (s *Server) handleRename(writer http.ResponseWriter, request *http.Request) {
	_ = request.ParseForm()
	s.record(request)

	if s.BeforeWrite != nil {
		s.BeforeWrite("rename")
	}

	form := request.PostForm
	newPath := form.Get("newPagePath")

	s.mu.Lock()
	defer s.mu.Unlock()

	page := s.pages[form.Get("pageId")]

	switch {
	case page == nil:
		writeJSON(writer, http.StatusNotFound, v3Error("Page is not found", "not_found"))
	case newPath == "":
		writeJSON(writer, http.StatusBadRequest, v3Error("Invalid value for newPagePath", "validation_failed"))
	case form.Get("revisionId") != page.RevisionID:
		writeJSON(writer, http.StatusConflict, v3Error(OutdatedMessage, "conflict"))
	case s.byPath(newPath) != nil:
		writeJSON(writer, http.StatusBadRequest, v3Error(newPath+" already exists", "already_exists"))
	default:
		page.Path = newPath
		page.UpdatedAt = time.Now().UTC()

		writeJSON(writer, http.StatusOK, map[string]interface{}{"page": pageJSON(page, false)})
	}
}

func (s *Server) handleAttach(writer http.ResponseWriter, request *http.Request) {
	err := request.ParseMultipartForm(maxUploadMemory)
	s.record(request)

	if err != nil {
		writeJSON(writer, http.StatusBadRequest, legacyError("Malformed multipart body."))

		return
	}

	file, header, err := request.FormFile("file")
	if err != nil {
		writeJSON(writer, http.StatusOK, legacyError("File error."))

		return
	}

	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(writer, http.StatusInternalServerError, legacyError("Read error."))

		return
	}

	if s.FailAttach {
		writeJSON(writer, http.StatusOK, legacyError("Failed to upload the attachment."))

		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	page := s.pages[request.FormValue("page_id")]
	if page == nil {
		writeJSON(writer, http.StatusOK, legacyError("Page not found."))

		return
	}

	s.uploads = append(s.uploads, Upload{
		PageID:   page.ID,
		Path:     request.FormValue("path"),
		FileName: header.Filename,
		MIMEType: header.Header.Get("Content-Type"),
		Data:     data,
	})

	attachmentID := fmt.Sprintf("a%023d", len(s.uploads))

	writeJSON(writer, http.StatusOK, map[string]interface{}{
		"ok":   true,
		"page": pageJSON(page, false),
		"attachment": map[string]interface{}{
			"_id":                 attachmentID,
			"page":                page.ID,
			"fileName":            attachmentID + "-" + header.Filename,
			"originalName":        header.Filename,
			"fileFormat":          header.Header.Get("Content-Type"),
			"fileSize":            len(data),
			"filePathProxied":     "/attachment/" + attachmentID,
			"downloadPathProxied": "/download/" + attachmentID,
		},
	})
}

func (s *Server) handleTagsList(writer http.ResponseWriter, request *http.Request) {
	s.record(request)

	query := request.URL.Query()

	limit, err := strconv.ParseInt(query.Get("limit"), 10, 64)
	if err != nil || limit <= 0 {
		limit = 50
	}

	offset, _ := strconv.Atoi(query.Get("offset"))

	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[string]int)

	for _, page := range s.pages {
		for _, tag := range page.Tags {
			counts[tag]++
		}
	}

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}

	sort.Strings(names)

	window := paginate(len(names), offset, limit)
	data := make([]map[string]interface{}, 0, window[1]-window[0])

	for _, name := range names[window[0]:window[1]] {
		data = append(data, map[string]interface{}{"name": name, "count": counts[name]})
	}

	writeJSON(writer, http.StatusOK, map[string]interface{}{"ok": true, "data": data, "totalCount": len(names)})
}

func (s *Server) handlePageTags(writer http.ResponseWriter, request *http.Request) {
	s.record(request)

	s.mu.Lock()
	defer s.mu.Unlock()

	page := s.pages[request.URL.Query().Get("pageId")]
	if page == nil {
		writeJSON(writer, http.StatusOK, legacyError("Page not found."))

		return
	}

	tags := append([]string{}, page.Tags...)

	writeJSON(writer, http.StatusOK, map[string]interface{}{"ok": true, "tags": tags})
}

// insert must be called with s.mu held.
func (s *Server) insert(path, body string, grant int) *Page {
	s.nextID++

	page := &Page{
		ID:         fmt.Sprintf("p%023d", s.nextID),
		Path:       path,
		Body:       body,
		Grant:      grant,
		RevisionID: s.revision(),
		UpdatedAt:  time.Now().UTC(),
	}
	s.pages[page.ID] = page

	return page
}

func (s *Server) revision() string {
	s.nextRev++

	return "r" + strconv.Itoa(s.nextRev)
}

func (s *Server) find(path, id string) *Page {
	if id != "" {
		return s.pages[id]
	}

	return s.byPath(path)
}

func (s *Server) byPath(path string) *Page {
	for _, page := range s.pages {
		if page.Path == path {
			return page
		}
	}

	return nil
}

func (s *Server) sorted() []*Page {
	pages := make([]*Page, 0, len(s.pages))
	for _, page := range s.pages {
		pages = append(pages, page)
	}

	sort.Slice(pages, func(i, j int) bool { return pages[i].Path < pages[j].Path })

	return pages
}

func paginate(total, offset int, limit int64) [2]int {
	start := min(max(offset, 0), total)

	end := total
	if limit < int64(total-start) {
		end = start + int(limit)
	}

	return [2]int{start, end}
}

func revisionJSON(page *Page) map[string]interface{} {
	return map[string]interface{}{
		"_id":       page.RevisionID,
		"body":      page.Body,
		"author":    map[string]interface{}{"_id": "u1", "username": "admin"},
		"createdAt": page.UpdatedAt.Format(time.RFC3339),
	}
}

// pageJSON renders the page the way the API does: the page endpoint embeds
// the revision, the legacy endpoints send only its id.
func pageJSON(page *Page, embedRevision bool) map[string]interface{} {
	var revision interface{} = page.RevisionID
	if embedRevision {
		revision = revisionJSON(page)
	}

	return map[string]interface{}{
		"_id":            page.ID,
		"path":           page.Path,
		"grant":          page.Grant,
		"status":         "published",
		"revision":       revision,
		"creator":        map[string]interface{}{"_id": "u1", "username": "admin"},
		"lastUpdateUser": "u1",
		"commentCount":   0,
		"createdAt":      page.UpdatedAt.Format(time.RFC3339),
		"updatedAt":      page.UpdatedAt.Format(time.RFC3339),
	}
}

func v3Error(message, code string) map[string]interface{} {
	return map[string]interface{}{"errors": []map[string]interface{}{{"message": message, "code": code}}}
}

func legacyError(message string) map[string]interface{} {
	return map[string]interface{}{"ok": false, "error": message}
}

func writeJSON(writer http.ResponseWriter, status int, body interface{}) {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	_ = json.NewEncoder(writer).Encode(body)
}
