package transport

import (
	"encoding/json"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"secmcp/internal/tool"
)

// metadataCacheSize bounds the descriptor-metadata cache below; there are
// only ever a handful of tool classes, so this is generous headroom rather
// than a tight budget.
const metadataCacheSize = 64

// eventBroker fans out completed tool executions to every connected
// GET /events subscriber as Server-Sent Events. A slow or absent subscriber
// never blocks an execution: publish drops the event for that subscriber
// rather than waiting on a full channel.
type eventBroker struct {
	mu   sync.Mutex
	subs map[chan []byte]struct{}

	// metadataCache holds each tool's already-marshaled Metadata, so a
	// tool with unchanging Metadata (the common case) never pays a
	// re-marshal cost on every execution event.
	metadataCache *lru.Cache[string, json.RawMessage]
}

func newEventBroker() *eventBroker {
	cache, err := lru.New[string, json.RawMessage](metadataCacheSize)
	if err != nil {
		// Only returns an error for a non-positive size, which
		// metadataCacheSize never is.
		panic(err)
	}
	return &eventBroker{subs: make(map[chan []byte]struct{}), metadataCache: cache}
}

func (b *eventBroker) subscribe() chan []byte {
	ch := make(chan []byte, 16)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *eventBroker) unsubscribe(ch chan []byte) {
	b.mu.Lock()
	delete(b.subs, ch)
	b.mu.Unlock()
}

func (b *eventBroker) closeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		close(ch)
		delete(b.subs, ch)
	}
}

func (b *eventBroker) publish(toolName string, out tool.Output) {
	metadata := b.cachedMetadata(toolName, out.Metadata)

	payload, err := json.Marshal(map[string]any{
		"tool":           toolName,
		"returncode":     out.ReturnCode,
		"timed_out":      out.TimedOut,
		"error_type":     out.ErrorType,
		"correlation_id": out.CorrelationID,
		"metadata":       metadata,
	})
	if err != nil {
		return
	}
	frame := []byte(fmt.Sprintf("event: execution\ndata: %s\n\n", payload))

	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- frame:
		default:
			// subscriber too slow; drop rather than block publishers.
		}
	}
}

// cachedMetadata returns md's already-marshaled form, computing and caching
// it on first sight per tool and reusing it on every subsequent publish for
// that tool (descriptor Metadata never changes after registry discovery).
func (b *eventBroker) cachedMetadata(toolName string, md map[string]string) json.RawMessage {
	if cached, ok := b.metadataCache.Get(toolName); ok {
		return cached
	}
	raw, err := json.Marshal(md)
	if err != nil {
		return json.RawMessage("null")
	}
	b.metadataCache.Add(toolName, raw)
	return raw
}
