// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package putlogs

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bureau-foundation/slsship/lib/compress"
	"github.com/bureau-foundation/slsship/lib/transport"
)

var testConfig = Config{
	Endpoint:        "cn-hangzhou.log.aliyuncs.com",
	Project:         "playground",
	Logstore:        "app",
	AccessKeyID:     "ak-test",
	AccessKeySecret: "secret-test",
}

var fixedTime = time.Date(2026, 3, 14, 15, 9, 26, 0, time.FixedZone("CST", 8*3600))

func lookup(accessKeyID string) (string, bool) {
	if accessKeyID == testConfig.AccessKeyID {
		return testConfig.AccessKeySecret, true
	}
	return "", false
}

// toHTTP replays a built request as the server would receive it.
func toHTTP(t *testing.T, request *transport.Request) *http.Request {
	t.Helper()
	received := httptest.NewRequest(request.Method, request.URL, bytes.NewReader(request.Body))
	for name, values := range request.Header {
		received.Header[name] = values
	}
	return received
}

func TestBuildHeaders(t *testing.T) {
	builder, err := NewBuilder(testConfig)
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}
	body := []byte("compressed")
	request := builder.Build(body, 42, compress.LZ4, "", fixedTime)

	if request.Method != http.MethodPost {
		t.Errorf("Method = %s, want POST", request.Method)
	}
	if want := "https://playground.cn-hangzhou.log.aliyuncs.com/logstores/app/shards/lb"; request.URL != want {
		t.Errorf("URL = %s, want %s", request.URL, want)
	}
	for name, want := range map[string]string{
		HeaderContentType:     ContentType,
		HeaderContentMD5:      ContentMD5(body),
		HeaderDate:            "Sat, 14 Mar 2026 07:09:26 GMT",
		HeaderAPIVersion:      "0.6.0",
		HeaderBodyRawSize:     "42",
		HeaderCompressType:    "lz4",
		HeaderSignatureMethod: "hmac-sha1",
	} {
		if got := request.Header.Get(name); got != want {
			t.Errorf("header %s = %q, want %q", name, got, want)
		}
	}
	if !strings.HasPrefix(request.Header.Get(HeaderAuthorization), "LOG ak-test:") {
		t.Errorf("Authorization = %q", request.Header.Get(HeaderAuthorization))
	}
	if request.Header.Get(HeaderUserAgent) == "" {
		t.Error("User-Agent is missing")
	}
}

func TestBuildIdentityOmitsCompressType(t *testing.T) {
	builder, _ := NewBuilder(testConfig)
	request := builder.Build([]byte("raw"), 3, compress.Identity, "", fixedTime)
	if _, present := request.Header[http.CanonicalHeaderKey(HeaderCompressType)]; present {
		t.Fatal("identity request carries x-log-compresstype")
	}
}

func TestBuildShardKeyRoutesByQuery(t *testing.T) {
	builder, _ := NewBuilder(testConfig)
	request := builder.Build([]byte("x"), 1, compress.Identity, "a b", fixedTime)
	if want := "https://playground.cn-hangzhou.log.aliyuncs.com/logstores/app/shards/route?key=a+b"; request.URL != want {
		t.Fatalf("URL = %s, want %s", request.URL, want)
	}
	if bytes.Contains(request.Body, []byte("a b")) {
		t.Fatal("shard key leaked into the body")
	}
}

func TestBuildAddressOverride(t *testing.T) {
	config := testConfig
	config.Scheme = "http"
	config.Address = "127.0.0.1:9000"
	builder, err := NewBuilder(config)
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}
	request := builder.Build([]byte("x"), 1, compress.Identity, "", fixedTime)
	if want := "http://127.0.0.1:9000/logstores/app/shards/lb"; request.URL != want {
		t.Fatalf("URL = %s, want %s", request.URL, want)
	}
	if request.Host != "playground.cn-hangzhou.log.aliyuncs.com" {
		t.Fatalf("Host = %q", request.Host)
	}
}

func TestSignString(t *testing.T) {
	header := make(http.Header)
	header.Set(HeaderSignatureMethod, SignatureMethod)
	header.Set(HeaderBodyRawSize, "42")
	header.Set(HeaderCompressType, "deflate")
	header.Set(HeaderAPIVersion, APIVersion)
	header.Set(HeaderUserAgent, "ignored")

	got := SignString("POST", "ABC", ContentType, "Sat, 14 Mar 2026 07:09:26 GMT", header, "/logstores/app/shards/lb")
	want := "POST\nABC\napplication/x-protobuf\nSat, 14 Mar 2026 07:09:26 GMT\n" +
		"x-log-apiversion:0.6.0\n" +
		"x-log-bodyrawsize:42\n" +
		"x-log-compresstype:deflate\n" +
		"x-log-signaturemethod:hmac-sha1\n" +
		"/logstores/app/shards/lb"
	if got != want {
		t.Fatalf("SignString:\ngot  %q\nwant %q", got, want)
	}
}

func TestSignKnownVector(t *testing.T) {
	// HMAC-SHA1("key", "The quick brown fox jumps over the lazy dog").
	got := Sign([]byte("key"), "The quick brown fox jumps over the lazy dog")
	if want := "3nybhbi3iqa8ino29wqQcBydtNk="; got != want {
		t.Fatalf("Sign = %s, want %s", got, want)
	}
}

func TestVerifyAcceptsBuiltRequest(t *testing.T) {
	builder, _ := NewBuilder(testConfig)
	for _, shardKey := range []string{"", "0123456789abcdef0123456789abcdef", "key with spaces&symbols"} {
		request := builder.Build([]byte("body"), 10, compress.Deflate, shardKey, fixedTime)
		verified, err := Verify(toHTTP(t, request), request.Body, lookup)
		if err != nil {
			t.Fatalf("Verify(shard %q): %v", shardKey, err)
		}
		if verified.Logstore != "app" || verified.ShardKey != shardKey {
			t.Errorf("Verify(shard %q) = logstore %q shard %q", shardKey, verified.Logstore, verified.ShardKey)
		}
		if verified.Codec != compress.Deflate || verified.RawSize != 10 {
			t.Errorf("Verify(shard %q) = codec %s raw %d", shardKey, verified.Codec, verified.RawSize)
		}
	}
}

func TestVerifyRejects(t *testing.T) {
	builder, _ := NewBuilder(testConfig)

	t.Run("tampered body", func(t *testing.T) {
		request := builder.Build([]byte("body"), 4, compress.Identity, "", fixedTime)
		_, err := Verify(toHTTP(t, request), []byte("BODY"), lookup)
		if !errors.Is(err, ErrInvalidRequest) {
			t.Fatalf("error = %v, want ErrInvalidRequest", err)
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		config := testConfig
		config.AccessKeySecret = "other"
		impostor, _ := NewBuilder(config)
		request := impostor.Build([]byte("body"), 4, compress.Identity, "", fixedTime)
		_, err := Verify(toHTTP(t, request), request.Body, lookup)
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("error = %v, want ErrUnauthorized", err)
		}
	})

	t.Run("tampered signed header", func(t *testing.T) {
		request := builder.Build([]byte("body"), 4, compress.Identity, "", fixedTime)
		received := toHTTP(t, request)
		received.Header.Set(HeaderBodyRawSize, "5")
		_, err := Verify(received, request.Body, lookup)
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("error = %v, want ErrUnauthorized", err)
		}
	})

	t.Run("unknown key", func(t *testing.T) {
		config := testConfig
		config.AccessKeyID = "someone-else"
		stranger, _ := NewBuilder(config)
		request := stranger.Build([]byte("body"), 4, compress.Identity, "", fixedTime)
		_, err := Verify(toHTTP(t, request), request.Body, lookup)
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("error = %v, want ErrUnauthorized", err)
		}
	})

	t.Run("raw size beyond limit", func(t *testing.T) {
		request := builder.Build([]byte("body"), compress.MaxRawSize+1, compress.LZ4, "", fixedTime)
		_, err := Verify(toHTTP(t, request), request.Body, lookup)
		if !errors.Is(err, ErrInvalidRequest) {
			t.Fatalf("error = %v, want ErrInvalidRequest", err)
		}
	})

	t.Run("wrong path", func(t *testing.T) {
		received := httptest.NewRequest(http.MethodPost, "/logstores/app/index", nil)
		_, err := Verify(received, nil, lookup)
		if !errors.Is(err, ErrInvalidRequest) {
			t.Fatalf("error = %v, want ErrInvalidRequest", err)
		}
	})
}

func TestConfigValidate(t *testing.T) {
	if err := testConfig.Validate(); err != nil {
		t.Fatalf("valid config: %v", err)
	}
	err := Config{Endpoint: "https://example.com/"}.Validate()
	if err == nil {
		t.Fatal("empty config validated")
	}
	for _, fragment := range []string{"project is required", "logstore is required", "access key id is required", "bare host"} {
		if !strings.Contains(err.Error(), fragment) {
			t.Errorf("error %q does not mention %q", err, fragment)
		}
	}
}
