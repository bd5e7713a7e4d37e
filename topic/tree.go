package topic

import (
	"sort"
	"strings"
	"time"
)

// Tree is a trie over `/`-delimited topic segments. Nodes are created
// on demand during insertion; interior nodes become topics once a
// message lands exactly on them.
//
// Tree is not safe for concurrent use. The dispatcher owns it on a
// single goroutine.
type Tree struct {
	root        node
	totalTopics int
}

type node struct {
	children        map[string]*node
	isTopic         bool
	messageCount    uint64
	bytesReceived   uint64
	lastMessageTime time.Time
}

// Info is the projection of a visible node emitted during traversal.
// It is recomputed on every visibility query and never cached.
type Info struct {
	FullPath        string    `json:"full_path"`
	Segment         string    `json:"segment"`
	Depth           int       `json:"depth"`
	IsExpanded      bool      `json:"is_expanded"`
	HasChildren     bool      `json:"has_children"`
	MessageCount    uint64    `json:"message_count"`
	BytesReceived   uint64    `json:"bytes_received"`
	LastMessageTime time.Time `json:"last_message_time,omitzero"`
}

// Stats holds the counters recorded for a single topic.
type Stats struct {
	MessageCount    uint64
	BytesReceived   uint64
	LastMessageTime time.Time
}

// NewTree creates an empty topic tree.
func NewTree() *Tree {
	return &Tree{}
}

// Insert records a message on topic, creating trie nodes as needed.
// The terminal node's counters are updated and the unique-topic count
// is incremented exactly once per node transitioning to a topic.
func (t *Tree) Insert(topic string, payloadSize int) {
	current := &t.root
	for _, segment := range strings.Split(topic, "/") {
		if current.children == nil {
			current.children = make(map[string]*node)
		}
		child, ok := current.children[segment]
		if !ok {
			child = &node{}
			current.children[segment] = child
		}
		current = child
	}

	if !current.isTopic {
		current.isTopic = true
		t.totalTopics++
	}

	current.messageCount++
	current.bytesReceived += uint64(payloadSize)
	current.lastMessageTime = time.Now()
}

// TopicCount returns the number of distinct topics inserted.
func (t *Tree) TopicCount() int {
	return t.totalTopics
}

// TotalMessages returns the message count summed over all topics.
func (t *Tree) TotalMessages() uint64 {
	return countMessages(&t.root)
}

func countMessages(n *node) uint64 {
	count := n.messageCount
	for _, child := range n.children {
		count += countMessages(child)
	}
	return count
}

// VisibleTopics flattens the tree into display order. Children are
// visited lexicographically for determinism and a node's subtree is
// only descended into when its full path is present in expanded, which
// bounds traversal cost to what is actually displayed.
func (t *Tree) VisibleTopics(expanded map[string]bool) []Info {
	var result []Info
	collectVisible(&t.root, "", 0, expanded, &result)
	return result
}

func collectVisible(n *node, path string, depth int, expanded map[string]bool, result *[]Info) {
	segments := make([]string, 0, len(n.children))
	for segment := range n.children {
		segments = append(segments, segment)
	}
	sort.Strings(segments)

	for _, segment := range segments {
		child := n.children[segment]
		fullPath := segment
		if path != "" {
			fullPath = path + "/" + segment
		}

		isExpanded := expanded[fullPath]
		*result = append(*result, Info{
			FullPath:        fullPath,
			Segment:         segment,
			Depth:           depth,
			IsExpanded:      isExpanded,
			HasChildren:     len(child.children) > 0,
			MessageCount:    child.messageCount,
			BytesReceived:   child.bytesReceived,
			LastMessageTime: child.lastMessageTime,
		})

		if isExpanded {
			collectVisible(child, fullPath, depth+1, expanded, result)
		}
	}
}

// Search returns the full path of every topic whose path contains the
// query, case-insensitively. The whole trie is walked: corpora are
// topic counts, not payload volume, so correctness wins over speed.
func (t *Tree) Search(query string) []string {
	var results []string
	searchNode(&t.root, "", strings.ToLower(query), &results)
	return results
}

func searchNode(n *node, path, query string, results *[]string) {
	segments := make([]string, 0, len(n.children))
	for segment := range n.children {
		segments = append(segments, segment)
	}
	sort.Strings(segments)

	for _, segment := range segments {
		child := n.children[segment]
		fullPath := segment
		if path != "" {
			fullPath = path + "/" + segment
		}

		if child.isTopic && strings.Contains(strings.ToLower(fullPath), query) {
			*results = append(*results, fullPath)
		}

		searchNode(child, fullPath, query, results)
	}
}

// TopicStats returns the counters for an exact topic, or false when the
// path does not exist or no message has landed exactly there.
func (t *Tree) TopicStats(topic string) (Stats, bool) {
	current := &t.root
	for _, segment := range strings.Split(topic, "/") {
		child, ok := current.children[segment]
		if !ok {
			return Stats{}, false
		}
		current = child
	}

	if !current.isTopic {
		return Stats{}, false
	}
	return Stats{
		MessageCount:    current.messageCount,
		BytesReceived:   current.bytesReceived,
		LastMessageTime: current.lastMessageTime,
	}, true
}

// Clear drops all nodes and counters.
func (t *Tree) Clear() {
	t.root = node{}
	t.totalTopics = 0
}
