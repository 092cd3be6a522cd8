// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package putlogs

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/bureau-foundation/slsship/lib/compress"
	"github.com/bureau-foundation/slsship/lib/transport"
	"github.com/bureau-foundation/slsship/lib/version"
)

// Header names and fixed values of the PutLogs API.
const (
	HeaderAuthorization   = "Authorization"
	HeaderContentMD5      = "Content-MD5"
	HeaderContentType     = "Content-Type"
	HeaderDate            = "Date"
	HeaderUserAgent       = "User-Agent"
	HeaderAPIVersion      = "x-log-apiversion"
	HeaderBodyRawSize     = "x-log-bodyrawsize"
	HeaderCompressType    = "x-log-compresstype"
	HeaderSignatureMethod = "x-log-signaturemethod"

	ContentType     = "application/x-protobuf"
	APIVersion      = "0.6.0"
	SignatureMethod = "hmac-sha1"
)

// Config identifies the target logstore and the signing credentials.
type Config struct {
	// Endpoint is the regional service host, for example
	// "cn-hangzhou.log.aliyuncs.com". The project name is prepended as
	// a subdomain.
	Endpoint string

	Project  string
	Logstore string

	AccessKeyID     string
	AccessKeySecret string

	// Scheme is "https" (the default) or "http".
	Scheme string

	// Address, when set, is the host:port requests are sent to while the
	// Host header still names {project}.{endpoint}. Used to reach a
	// local mock endpoint.
	Address string
}

// Validate checks that every required field is present.
func (config Config) Validate() error {
	var errs []error
	require := func(value, name string) {
		if strings.TrimSpace(value) == "" {
			errs = append(errs, fmt.Errorf("%s is required", name))
		}
	}
	require(config.Endpoint, "endpoint")
	require(config.Project, "project")
	require(config.Logstore, "logstore")
	require(config.AccessKeyID, "access key id")
	require(config.AccessKeySecret, "access key secret")
	if strings.Contains(config.Endpoint, "/") {
		errs = append(errs, fmt.Errorf("endpoint %q must be a bare host, not a URL", config.Endpoint))
	}
	switch config.Scheme {
	case "", "https", "http":
	default:
		errs = append(errs, fmt.Errorf("scheme %q must be http or https", config.Scheme))
	}
	return errors.Join(errs...)
}

// Builder turns compressed group bodies into signed requests for one
// logstore. It is immutable and safe for concurrent use.
type Builder struct {
	scheme      string
	host        string
	address     string
	logstore    string
	accessKeyID string
	secret      []byte
	userAgent   string
}

// NewBuilder validates config and returns a Builder.
func NewBuilder(config Config) (*Builder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	scheme := config.Scheme
	if scheme == "" {
		scheme = "https"
	}
	return &Builder{
		scheme:      scheme,
		host:        config.Project + "." + config.Endpoint,
		address:     config.Address,
		logstore:    config.Logstore,
		accessKeyID: config.AccessKeyID,
		secret:      []byte(config.AccessKeySecret),
		userAgent:   version.UserAgent(),
	}, nil
}

// Host returns the virtual host requests are signed for.
func (b *Builder) Host() string {
	return b.host
}

// Resource returns the canonical resource for a shard key ("" for
// service-chosen routing).
func Resource(logstore, shardKey string) string {
	if shardKey == "" {
		return "/logstores/" + logstore + "/shards/lb"
	}
	return "/logstores/" + logstore + "/shards/route?key=" + shardKey
}

// Build returns the signed request carrying body. rawSize is the body
// length before compression and codec the compression applied to it.
func (b *Builder) Build(body []byte, rawSize int, codec compress.Codec, shardKey string, now time.Time) *transport.Request {
	contentMD5 := ContentMD5(body)
	date := now.UTC().Format(http.TimeFormat)

	header := make(http.Header, 10)
	header.Set(HeaderContentType, ContentType)
	header.Set(HeaderContentMD5, contentMD5)
	header.Set(HeaderDate, date)
	header.Set(HeaderAPIVersion, APIVersion)
	header.Set(HeaderBodyRawSize, strconv.Itoa(rawSize))
	if value := codec.Header(); value != "" {
		header.Set(HeaderCompressType, value)
	}
	header.Set(HeaderSignatureMethod, SignatureMethod)
	header.Set(HeaderUserAgent, b.userAgent)

	resource := Resource(b.logstore, shardKey)
	signature := Sign(b.secret, SignString(http.MethodPost, contentMD5, ContentType, date, header, resource))
	header.Set(HeaderAuthorization, "LOG "+b.accessKeyID+":"+signature)

	path := "/logstores/" + b.logstore + "/shards/lb"
	if shardKey != "" {
		path = "/logstores/" + b.logstore + "/shards/route?key=" + url.QueryEscape(shardKey)
	}
	request := &transport.Request{
		Method: http.MethodPost,
		URL:    b.scheme + "://" + b.host + path,
		Header: header,
		Body:   body,
	}
	if b.address != "" {
		request.URL = b.scheme + "://" + b.address + path
		request.Host = b.host
	}
	return request
}

// ContentMD5 returns the uppercase hex MD5 digest of body.
func ContentMD5(body []byte) string {
	digest := md5.Sum(body)
	return strings.ToUpper(hex.EncodeToString(digest[:]))
}

// SignString assembles the string the signature covers. Only x-log- and
// x-acs- headers participate, lowercased and sorted by name.
func SignString(method, contentMD5, contentType, date string, header http.Header, resource string) string {
	var names []string
	for name := range header {
		lower := strings.ToLower(name)
		if strings.HasPrefix(lower, "x-log-") || strings.HasPrefix(lower, "x-acs-") {
			names = append(names, name)
		}
	}
	slices.SortFunc(names, func(a, b string) int {
		return strings.Compare(strings.ToLower(a), strings.ToLower(b))
	})

	var builder strings.Builder
	builder.WriteString(method)
	builder.WriteByte('\n')
	builder.WriteString(contentMD5)
	builder.WriteByte('\n')
	builder.WriteString(contentType)
	builder.WriteByte('\n')
	builder.WriteString(date)
	builder.WriteByte('\n')
	for _, name := range names {
		builder.WriteString(strings.ToLower(name))
		builder.WriteByte(':')
		builder.WriteString(strings.TrimSpace(header.Get(name)))
		builder.WriteByte('\n')
	}
	builder.WriteString(resource)
	return builder.String()
}

// Sign returns base64(HMAC-SHA1(secret, signString)).
func Sign(secret []byte, signString string) string {
	mac := hmac.New(sha1.New, secret)
	mac.Write([]byte(signString))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
