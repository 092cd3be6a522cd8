// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package putlogs

import (
	"crypto/hmac"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/bureau-foundation/slsship/lib/compress"
)

var (
	// ErrUnauthorized covers a missing, malformed, or mismatched
	// Authorization header and unknown access keys.
	ErrUnauthorized = errors.New("putlogs: unauthorized")

	// ErrInvalidRequest covers a well-signed request whose headers
	// disagree with its body or with the API.
	ErrInvalidRequest = errors.New("putlogs: invalid request")
)

// Verified describes a request that passed Verify.
type Verified struct {
	AccessKeyID string
	Logstore    string

	// ShardKey is the route key, or "" for service-chosen routing.
	ShardKey string

	Codec   compress.Codec
	RawSize int
}

// SecretLookup returns the secret for an access key id.
type SecretLookup func(accessKeyID string) (secret string, ok bool)

// Verify checks a received PutLogs request the way the ingestion
// service does: path shape, API headers, body digest, and signature.
func Verify(request *http.Request, body []byte, lookup SecretLookup) (*Verified, error) {
	logstore, shardKey, err := parsePath(request)
	if err != nil {
		return nil, err
	}

	accessKeyID, signature, ok := parseAuthorization(request.Header.Get(HeaderAuthorization))
	if !ok {
		return nil, fmt.Errorf("%w: malformed Authorization header", ErrUnauthorized)
	}
	secret, ok := lookup(accessKeyID)
	if !ok {
		return nil, fmt.Errorf("%w: unknown access key %q", ErrUnauthorized, accessKeyID)
	}

	contentMD5 := request.Header.Get(HeaderContentMD5)
	contentType := request.Header.Get(HeaderContentType)
	resource := Resource(logstore, shardKey)
	expected := Sign([]byte(secret), SignString(request.Method, contentMD5, contentType, request.Header.Get(HeaderDate), request.Header, resource))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return nil, fmt.Errorf("%w: signature mismatch", ErrUnauthorized)
	}

	if request.Method != http.MethodPost {
		return nil, fmt.Errorf("%w: method %s", ErrInvalidRequest, request.Method)
	}
	if contentType != ContentType {
		return nil, fmt.Errorf("%w: content type %q", ErrInvalidRequest, contentType)
	}
	if got := ContentMD5(body); got != contentMD5 {
		return nil, fmt.Errorf("%w: Content-MD5 %s does not match body digest %s", ErrInvalidRequest, contentMD5, got)
	}
	if got := request.Header.Get(HeaderAPIVersion); got != APIVersion {
		return nil, fmt.Errorf("%w: api version %q", ErrInvalidRequest, got)
	}
	if got := request.Header.Get(HeaderSignatureMethod); got != SignatureMethod {
		return nil, fmt.Errorf("%w: signature method %q", ErrInvalidRequest, got)
	}
	rawSize, err := strconv.Atoi(request.Header.Get(HeaderBodyRawSize))
	if err != nil || rawSize < 0 {
		return nil, fmt.Errorf("%w: x-log-bodyrawsize %q", ErrInvalidRequest, request.Header.Get(HeaderBodyRawSize))
	}
	if rawSize > compress.MaxRawSize {
		return nil, fmt.Errorf("%w: x-log-bodyrawsize %d exceeds %d", ErrInvalidRequest, rawSize, compress.MaxRawSize)
	}
	codec, err := compress.ParseHeader(request.Header.Get(HeaderCompressType))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	return &Verified{
		AccessKeyID: accessKeyID,
		Logstore:    logstore,
		ShardKey:    shardKey,
		Codec:       codec,
		RawSize:     rawSize,
	}, nil
}

func parseAuthorization(value string) (accessKeyID, signature string, ok bool) {
	credential, found := strings.CutPrefix(value, "LOG ")
	if !found {
		return "", "", false
	}
	accessKeyID, signature, found = strings.Cut(credential, ":")
	if !found || accessKeyID == "" || signature == "" {
		return "", "", false
	}
	return accessKeyID, signature, true
}

func parsePath(request *http.Request) (logstore, shardKey string, err error) {
	segments := strings.Split(strings.TrimPrefix(request.URL.Path, "/"), "/")
	if len(segments) != 4 || segments[0] != "logstores" || segments[1] == "" || segments[2] != "shards" {
		return "", "", fmt.Errorf("%w: path %q", ErrInvalidRequest, request.URL.Path)
	}
	logstore = segments[1]
	query := request.URL.Query()
	switch segments[3] {
	case "lb":
		if len(query) != 0 {
			return "", "", fmt.Errorf("%w: unexpected query on load-balanced path", ErrInvalidRequest)
		}
		return logstore, "", nil
	case "route":
		keys := query["key"]
		if len(keys) != 1 || keys[0] == "" || len(query) != 1 {
			return "", "", fmt.Errorf("%w: route path needs exactly one key parameter (got %v)", ErrInvalidRequest, slices.Sorted(maps.Keys(query)))
		}
		return logstore, keys[0], nil
	default:
		return "", "", fmt.Errorf("%w: path %q", ErrInvalidRequest, request.URL.Path)
	}
}
