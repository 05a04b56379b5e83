package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
)

// MirrorFile is the on-disk snapshot served by rate-mirror. It uses the same
// shape as the keyless latest endpoint so LatestSource can read it directly.
type MirrorFile struct {
	Base    string             `json:"base"`
	Updated time.Time          `json:"updated"`
	Rates   map[string]float64 `json:"rates"`
}

// BuildMirror collects the newest stored rate for each quote.
func BuildMirror(ctx context.Context, repo *Repo, base string, quotes []string) (MirrorFile, error) {
	m := MirrorFile{Base: base, Rates: map[string]float64{}}
	for _, q := range quotes {
		latest, err := repo.Latest(ctx, base, q)
		if err != nil {
			return MirrorFile{}, err
		}
		if latest == nil {
			continue
		}
		m.Rates[q] = latest.Value
		if latest.FetchedAt.After(m.Updated) {
			m.Updated = latest.FetchedAt
		}
	}
	return m, nil
}

func ReadMirror(path string) (MirrorFile, error) {
	var m MirrorFile
	b, err := os.ReadFile(path)
	if err != nil {
		return m, err
	}
	if err := json.Unmarshal(b, &m); err != nil {
		return m, fmt.Errorf("%s invalid JSON: %w", path, err)
	}
	m.Base = strings.ToUpper(m.Base)
	return m, nil
}

// MirrorHandler serves a mirror file in both provider shapes:
//
//	GET /v4/latest/{base}
//	GET /v6/{key}/pair/{base}/{quote}
//
// The file is re-read on every request so it can be replaced while running.
func MirrorHandler(path string) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v4/latest/{base}", func(w http.ResponseWriter, r *http.Request) {
		m, ok := loadMirror(w, path, r.PathValue("base"))
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, m)
	})

	mux.HandleFunc("GET /v6/{key}/pair/{base}/{quote}", func(w http.ResponseWriter, r *http.Request) {
		m, ok := loadMirror(w, path, r.PathValue("base"))
		if !ok {
			return
		}
		quote := strings.ToUpper(r.PathValue("quote"))
		v, found := m.Rates[quote]
		if !found {
			writeJSON(w, http.StatusNotFound, map[string]string{"result": "error", "error-type": "unsupported-code"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"result":          "success",
			"base_code":       m.Base,
			"target_code":     quote,
			"conversion_rate": v,
		})
	})

	return mux
}

func loadMirror(w http.ResponseWriter, path, base string) (MirrorFile, bool) {
	m, err := ReadMirror(path)
	if err != nil {
		http.Error(w, "cannot read mirror: "+err.Error(), http.StatusInternalServerError)
		return m, false
	}
	if !strings.EqualFold(m.Base, base) {
		writeJSON(w, http.StatusNotFound, map[string]string{"result": "error", "error-type": "unsupported-code"})
		return m, false
	}
	return m, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
