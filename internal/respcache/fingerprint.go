package respcache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

const guest = "guest"

// facets are the request properties that can change a response body.
// encoding/json writes struct fields in declaration order and map keys
// sorted, which keeps the serialization canonical.
type facets struct {
	URL     string            `json:"url"`
	Method  string            `json:"method"`
	User    string            `json:"user"`
	Filters map[string]string `json:"filters"`
	Page    string            `json:"page"`
	PerPage string            `json:"per_page"`
	Sort    string            `json:"sort"`
	Include string            `json:"include"`
}

// Fingerprint hashes the cache relevant facets of r for user. An empty
// user is keyed as "guest".
func Fingerprint(prefix string, r *http.Request, user string) (string, error) {
	if user == "" {
		user = guest
	}
	q := r.URL.Query()

	filters := make(map[string]string)
	for k, vs := range q {
		if strings.HasPrefix(k, "filters[") && strings.HasSuffix(k, "]") {
			filters[k[len("filters["):len(k)-1]] = strings.Join(vs, ",")
		}
	}

	url := r.URL.Path
	if enc := q.Encode(); enc != "" {
		url += "?" + enc
	}

	data, err := json.Marshal(facets{
		URL:     url,
		Method:  strings.ToUpper(r.Method),
		User:    user,
		Filters: filters,
		Page:    q.Get("page"),
		PerPage: q.Get("per_page"),
		Sort:    q.Get("sort"),
		Include: q.Get("include"),
	})
	if err != nil {
		return "", fmt.Errorf("encode fingerprint: %w", err)
	}

	sum := sha256.Sum256(data)
	return prefix + hex.EncodeToString(sum[:]), nil
}
