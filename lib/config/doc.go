// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads slsship client settings from a file and turns
// them into [sls.Options].
//
// The file is named by the SLSSHIP_CONFIG environment variable (via
// [Load]) or passed explicitly (via [LoadFile], which is what the
// --config flag uses). There is no discovery: no home directory search
// and no implicit defaults file.
//
// Files ending in .json or .jsonc are JSON with // and /* */ comments
// and trailing commas allowed; everything else is YAML. Both use the
// same keys:
//
//	endpoint: cn-hangzhou.log.aliyuncs.com
//	project: playground
//	logstore: app
//	access_key_id: ${SLS_ACCESS_KEY_ID}
//	access_key_secret: ${SLS_ACCESS_KEY_SECRET}
//	topic: api
//	tags:
//	  env: ${DEPLOY_ENV:-dev}
//	  region: cn-hangzhou
//	shard_key: {policy: hash, value: "${HOSTNAME}"}
//	min_level: info
//	drain_interval: 2s
//	compression: {lz4: true}
//
// ${VAR} and ${VAR:-default} are expanded in string values after
// parsing, so credentials can stay in the environment. Durations are
// Go duration strings. Tags keep file order.
//
// This package depends only on lib/sls and the packages it configures.
package config
