package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/zapdos-labs/videopipeline/kvs"
	"github.com/zapdos-labs/videopipeline/videoframe"
)

func (s *Server) handleKVSSet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	attrs, ok := s.decodeBody(w, r)
	if !ok {
		return
	}
	s.store.SetAttributes(attrs, nil)
	w.WriteHeader(http.StatusOK)
}

// handleKVSSetWithTTL parses /kvs/set-with-ttl/{ms}.
func (s *Server) handleKVSSetWithTTL(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	msStr := strings.TrimPrefix(r.URL.Path, "/kvs/set-with-ttl/")
	ms, err := strconv.ParseInt(msStr, 10, 64)
	if err != nil || ms <= 0 {
		http.Error(w, "Invalid ttl in path. Expected /kvs/set-with-ttl/{ms}", http.StatusBadRequest)
		return
	}
	attrs, ok := s.decodeBody(w, r)
	if !ok {
		return
	}
	ttl := time.Duration(ms) * time.Millisecond
	s.store.SetAttributes(attrs, &ttl)
	w.WriteHeader(http.StatusOK)
}

// parseNsName parses the trailing /{ns}/{name} of a path with the given
// fixed prefix.
func parseNsName(path, prefix string) (ns, name string, ok bool) {
	trimmed := strings.TrimPrefix(path, prefix)
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

func (s *Server) handleKVSDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ns, name, ok := parseNsName(r.URL.Path, "/kvs/delete/")
	if !ok {
		http.Error(w, "Invalid path. Expected /kvs/delete/{ns}/{name}", http.StatusBadRequest)
		return
	}
	if err := s.store.DelAttributes(ns, name); err != nil {
		s.writePatternError(w, err)
		return
	}
	s.writeAttributeSet(w, nil)
}

func (s *Server) handleKVSDeleteSingle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ns, name, ok := parseNsName(r.URL.Path, "/kvs/delete-single/")
	if !ok {
		http.Error(w, "Invalid path. Expected /kvs/delete-single/{ns}/{name}", http.StatusBadRequest)
		return
	}
	var attrs []videoframe.Attribute
	if prev, existed := s.store.DelAttribute(ns, name); existed {
		attrs = []videoframe.Attribute{prev}
	}
	s.writeAttributeSet(w, attrs)
}

func (s *Server) handleKVSGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ns, name, ok := parseNsName(r.URL.Path, "/kvs/get/")
	if !ok {
		http.Error(w, "Invalid path. Expected /kvs/get/{ns}/{name}", http.StatusBadRequest)
		return
	}
	var attrs []videoframe.Attribute
	if attr, found := s.store.GetAttribute(ns, name); found {
		attrs = []videoframe.Attribute{attr}
	}
	s.writeAttributeSet(w, attrs)
}

func (s *Server) handleKVSSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ns, name, ok := parseNsName(r.URL.Path, "/kvs/search/")
	if !ok {
		http.Error(w, "Invalid path. Expected /kvs/search/{ns}/{name}", http.StatusBadRequest)
		return
	}
	attrs, err := s.store.SearchAttributes(ns, name)
	if err != nil {
		s.writePatternError(w, err)
		return
	}
	s.writeAttributeSet(w, attrs)
}

func (s *Server) handleKVSSearchKeys(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ns, name, ok := parseNsName(r.URL.Path, "/kvs/search-keys/")
	if !ok {
		http.Error(w, "Invalid path. Expected /kvs/search-keys/{ns}/{name}", http.StatusBadRequest)
		return
	}
	keys, err := s.store.SearchKeys(ns, name)
	if err != nil {
		s.writePatternError(w, err)
		return
	}
	type pair struct {
		NS   string `json:"ns"`
		Name string `json:"name"`
	}
	out := make([]pair, len(keys))
	for i, k := range keys {
		out[i] = pair{NS: k.Namespace, Name: k.Name}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request) ([]videoframe.Attribute, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read body", http.StatusBadRequest)
		return nil, false
	}
	attrs, err := s.codec.Decode(body)
	if err != nil {
		http.Error(w, "Invalid AttributeSet body: "+err.Error(), http.StatusBadRequest)
		return nil, false
	}
	return attrs, true
}

func (s *Server) writeAttributeSet(w http.ResponseWriter, attrs []videoframe.Attribute) {
	data, err := s.codec.Encode(attrs)
	if err != nil {
		http.Error(w, "Failed to encode AttributeSet", http.StatusInternalServerError)
		return
	}
	w.Write(data)
}

func (s *Server) writePatternError(w http.ResponseWriter, err error) {
	if errors.Is(err, kvs.ErrInvalidPattern) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}
