package agent

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/anthic/corvus/pkg/llm"
)

// The Executor places at most three prompt-cache anchors per request,
// ordered longest-to-shortest TTL: the system prompt, the tool descriptor
// block, then the trailing user turn. Ordering the short-TTL anchor last
// keeps it lexicographically after the long-TTL ones in the message array.
const (
	cacheLongTTL  = "1h"
	cacheShortTTL = "5m"
)

// placeCacheBreakpoints marks the system message, the last tool
// descriptor, and the last user message as cache anchors, and returns a
// digest of the static prefix (system prompt text + tool names) so the
// caller can tell whether the prefix drifted since the previous turn.
func placeCacheBreakpoints(req *llm.CompletionRequest) string {
	h := sha256.New()

	if len(req.Messages) > 0 && req.Messages[0].Role == "system" {
		req.Messages[0].CacheControl = &llm.CacheControl{Type: "ephemeral", TTL: cacheLongTTL}
		if s, ok := req.Messages[0].Content.(string); ok {
			h.Write([]byte(s))
		}
	}

	if n := len(req.Tools); n > 0 {
		req.Tools[n-1].CacheControl = &llm.CacheControl{Type: "ephemeral", TTL: cacheLongTTL}
		for _, t := range req.Tools {
			h.Write([]byte(t.Function.Name))
		}
	}

	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == "user" {
			req.Messages[i].CacheControl = &llm.CacheControl{Type: "ephemeral", TTL: cacheShortTTL}
			break
		}
	}

	return hex.EncodeToString(h.Sum(nil))
}

// cachePrefixChanged reports whether the static prefix hash differs from
// the one recorded on the previous turn, meaning the long-TTL anchors
// will miss upstream and the request pays full prefill cost again.
func cachePrefixChanged(state *LoopState, newHash string) bool {
	return state.CachePrefixHash != "" && state.CachePrefixHash != newHash
}
