package auth

import (
	"net/http"
	"strings"
)

const alarmReportsPath = "/api/v1/alarm-reports"

// Policy maps requests to the permission they need.
type Policy struct {
	ExemptPaths    map[string]struct{}
	ExemptPrefixes []string
}

// NewDefaultPolicy builds a default policy with exemptions.
func NewDefaultPolicy(exemptPaths []string, exemptPrefixes []string) Policy {
	set := make(map[string]struct{}, len(exemptPaths))
	for _, path := range exemptPaths {
		set[path] = struct{}{}
	}
	return Policy{ExemptPaths: set, ExemptPrefixes: exemptPrefixes}
}

// IsExempt returns true when a request should skip auth/RBAC.
func (p Policy) IsExempt(r *http.Request) bool {
	if r == nil {
		return true
	}
	if _, ok := p.ExemptPaths[r.URL.Path]; ok {
		return true
	}
	for _, prefix := range p.ExemptPrefixes {
		if strings.HasPrefix(r.URL.Path, prefix) {
			return true
		}
	}
	return false
}

// RequiredPermission resolves the permission a request needs. ok is false for routes outside the API.
func (p Policy) RequiredPermission(r *http.Request) (perm Permission, ok bool) {
	if r == nil {
		return "", false
	}
	path := strings.TrimSuffix(r.URL.Path, "/")
	readOnly := r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions

	switch {
	case path == alarmReportsPath+"/download", path == alarmReportsPath+"/export.xlsx":
		return PermGenerateReports, true
	case strings.HasPrefix(path, alarmReportsPath+"/") && strings.HasSuffix(path, "/review"):
		return PermReviewReports, true
	case path == alarmReportsPath, strings.HasPrefix(path, alarmReportsPath+"/"):
		if readOnly {
			return PermViewReports, true
		}
		return PermReviewReports, true
	case strings.HasPrefix(path, "/api/"):
		if readOnly {
			return PermViewReports, true
		}
		return PermGenerateReports, true
	}
	return "", false
}
