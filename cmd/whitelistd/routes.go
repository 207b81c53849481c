package main

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/wtreehq/merkletree/pkg/apperr"
	"github.com/wtreehq/merkletree/pkg/config"
	"github.com/wtreehq/merkletree/pkg/log"
	"github.com/wtreehq/merkletree/pkg/metrics"
	"github.com/wtreehq/merkletree/pkg/treelifecycle"
	"github.com/wtreehq/merkletree/pkg/whitelist"
)

// newAPIMux wires the seven group-gated routes onto a bare net/http
// mux. It is a thin example handler demonstrating how pkg/config's
// group lists, pkg/treelifecycle, and pkg/whitelist compose into a
// JSON-over-HTTP surface; a production router, request validation, and
// caller-identity extraction are out of scope here.
func newAPIMux(cfg *config.Config, orchestrator *treelifecycle.Orchestrator, svc *whitelist.Service) *http.ServeMux {
	mux := http.NewServeMux()

	mux.Handle("/whitelists/", withMetrics("/whitelists/", func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Path[len("/whitelists/"):]
		switch r.Method {
		case http.MethodPut:
			if !authorized(r, cfg.AuthorizedGroups.UploadWhitelist) {
				writeJSONError(w, apperr.New(apperr.UnauthorizedAccess, "caller not authorized to upload whitelists"))
				return
			}
			body, err := io.ReadAll(r.Body)
			if err != nil {
				writeJSONError(w, apperr.Wrap(apperr.Validation, "reading request body", err))
				return
			}
			if err := svc.UploadWhitelist(r.Context(), name, body); err != nil {
				writeJSONError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		case http.MethodDelete:
			if !authorized(r, cfg.AuthorizedGroups.DeleteWhitelist) {
				writeJSONError(w, apperr.New(apperr.UnauthorizedAccess, "caller not authorized to delete whitelists"))
				return
			}
			if err := orchestrator.DeleteWhitelist(r.Context(), name); err != nil {
				writeJSONError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))

	mux.Handle("/trees/", withMetrics("/trees/", func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Path[len("/trees/"):]
		switch r.Method {
		case http.MethodPost:
			if !authorized(r, cfg.AuthorizedGroups.CreateMerkleTree) {
				writeJSONError(w, apperr.New(apperr.UnauthorizedAccess, "caller not authorized to create Merkle trees"))
				return
			}
			root, err := orchestrator.CreateTree(r.Context(), name)
			if err != nil {
				writeJSONError(w, err)
				return
			}
			writeJSON(w, http.StatusCreated, map[string]string{"root": root})
		case http.MethodDelete:
			if !authorized(r, cfg.AuthorizedGroups.DeleteMerkleTree) {
				writeJSONError(w, apperr.New(apperr.UnauthorizedAccess, "caller not authorized to delete Merkle trees"))
				return
			}
			if err := orchestrator.DeleteTree(r.Context(), name); err != nil {
				writeJSONError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		case http.MethodGet:
			if !authorized(r, cfg.AuthorizedGroups.GetMerkleRoot) {
				writeJSONError(w, apperr.New(apperr.UnauthorizedAccess, "caller not authorized to read Merkle roots"))
				return
			}
			rec, err := svc.GetMerkleRoot(r.Context(), name)
			if err != nil {
				writeJSONError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, rec)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))

	mux.Handle("/trees", withMetrics("/trees", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !authorized(r, cfg.AuthorizedGroups.GetMerkleRoots) {
			writeJSONError(w, apperr.New(apperr.UnauthorizedAccess, "caller not authorized to list Merkle roots"))
			return
		}
		pageSize, token := paginationParams(r)
		page, err := svc.GetMerkleRoots(r.Context(), pageSize, token)
		if err != nil {
			writeJSONError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, page)
	}))

	mux.Handle("/proofs/", withMetrics("/proofs/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !authorized(r, cfg.AuthorizedGroups.GetMerkleProofs) {
			writeJSONError(w, apperr.New(apperr.UnauthorizedAccess, "caller not authorized to read Merkle proofs"))
			return
		}
		name := r.URL.Path[len("/proofs/"):]
		if address := r.URL.Query().Get("address"); address != "" {
			proof, err := svc.GetMerkleProof(r.Context(), name, address)
			if err != nil {
				writeJSONError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, proof)
			return
		}
		proofs, err := svc.GetMerkleProofs(r.Context(), name)
		if err != nil {
			writeJSONError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, proofs)
	}))

	return mux
}

// withMetrics records request counts and durations under route,
// keeping pkg/metrics's APIRequestsTotal/APIRequestDuration populated,
// and logs each request at debug level through the shared logger
// helpers.
func withMetrics(route string, h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		timer := metrics.NewTimer()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		h(sw, r)

		timer.ObserveDurationVec(metrics.APIRequestDuration, route)
		metrics.APIRequestsTotal.WithLabelValues(route, strconv.Itoa(sw.status)).Inc()
		log.Debug(r.Method + " " + route + " " + strconv.Itoa(sw.status))
	})
}

// statusWriter captures the status code passed to WriteHeader so
// withMetrics can label the request after the handler returns.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(status int) {
	sw.status = status
	sw.ResponseWriter.WriteHeader(status)
}

// authorized is a placeholder caller-identity check: it reads the
// groups a real deployment would populate from a verified identity
// token via this header. No token verification happens here; that
// belongs to the route boundary this example only sketches.
func authorized(r *http.Request, groups []string) bool {
	callerGroups := r.Header.Values("X-Caller-Group")
	return config.IsAuthorized(groups, callerGroups)
}

func paginationParams(r *http.Request) (int32, string) {
	pageSize := int32(100)
	if raw := r.URL.Query().Get("pageSize"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			pageSize = int32(n)
		}
	}
	return pageSize, r.URL.Query().Get("token")
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// statusFor maps an apperr.Kind to the HTTP status code the route
// boundary returns.
func statusFor(err error) (int, string) {
	kind := apperr.KindOf(err)
	switch kind {
	case apperr.Validation:
		return http.StatusBadRequest, string(kind)
	case apperr.ResourceNotFound:
		return http.StatusNotFound, string(kind)
	case apperr.ConditionalCheckFailed, apperr.Conflict:
		return http.StatusConflict, string(kind)
	case apperr.Throttled:
		return http.StatusTooManyRequests, string(kind)
	case apperr.AccessDenied, apperr.UnauthorizedAccess:
		return http.StatusForbidden, string(kind)
	default:
		return http.StatusInternalServerError, string(kind)
	}
}
