package persist

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/c360/topiclens/errors"
)

// MetricDef is a saved metric tracking definition.
type MetricDef struct {
	Label        string `json:"label"`
	TopicPattern string `json:"topic_pattern"`
	FieldPath    string `json:"field_path"`
}

// UserData is the state persisted across sessions.
type UserData struct {
	StarredTopics  map[string]bool `json:"starred_topics,omitempty"`
	StarredDevices map[string]bool `json:"starred_devices,omitempty"`
	LastTopic      string          `json:"last_topic,omitempty"`
	TrackedMetrics []MetricDef     `json:"tracked_metrics,omitempty"`
}

// NewUserData returns an empty state.
func NewUserData() *UserData {
	return &UserData{
		StarredTopics:  map[string]bool{},
		StarredDevices: map[string]bool{},
	}
}

// DefaultPath locates the user data file under the OS config dir.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "topiclens", "userdata.json")
}

// Load reads user data from path, returning empty state when the file
// does not exist yet.
func Load(path string) (*UserData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewUserData(), nil
		}
		return nil, errors.WrapTransient(err, "UserData", "Load", "read user data")
	}

	u := NewUserData()
	if err := json.Unmarshal(data, u); err != nil {
		return nil, errors.WrapInvalid(errors.ErrParsingFailed, "UserData", "Load", "parse user data: "+err.Error())
	}
	if u.StarredTopics == nil {
		u.StarredTopics = map[string]bool{}
	}
	if u.StarredDevices == nil {
		u.StarredDevices = map[string]bool{}
	}
	return u, nil
}

// Save writes user data to path, creating parent directories.
func (u *UserData) Save(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return errors.WrapTransient(err, "UserData", "Save", "create data directory")
		}
	}
	data, err := json.MarshalIndent(u, "", "  ")
	if err != nil {
		return errors.WrapInvalid(err, "UserData", "Save", "marshal user data")
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return errors.WrapTransient(err, "UserData", "Save", "write user data")
	}
	return nil
}

// ToggleTopicStar flips the starred state of a topic and reports the
// new state.
func (u *UserData) ToggleTopicStar(topic string) bool {
	if u.StarredTopics[topic] {
		delete(u.StarredTopics, topic)
		return false
	}
	u.StarredTopics[topic] = true
	return true
}

// IsTopicStarred reports whether a topic is starred.
func (u *UserData) IsTopicStarred(topic string) bool {
	return u.StarredTopics[topic]
}

// ToggleDeviceStar flips the starred state of a device and reports the
// new state.
func (u *UserData) ToggleDeviceStar(deviceID string) bool {
	if u.StarredDevices[deviceID] {
		delete(u.StarredDevices, deviceID)
		return false
	}
	u.StarredDevices[deviceID] = true
	return true
}

// IsDeviceStarred reports whether a device is starred.
func (u *UserData) IsDeviceStarred(deviceID string) bool {
	return u.StarredDevices[deviceID]
}

// AddMetric saves a metric definition, replacing any existing one with
// the same label.
func (u *UserData) AddMetric(label, topicPattern, fieldPath string) {
	u.RemoveMetric(label)
	u.TrackedMetrics = append(u.TrackedMetrics, MetricDef{
		Label:        label,
		TopicPattern: topicPattern,
		FieldPath:    fieldPath,
	})
}

// RemoveMetric drops the saved definition with the given label.
func (u *UserData) RemoveMetric(label string) {
	kept := u.TrackedMetrics[:0]
	for _, m := range u.TrackedMetrics {
		if m.Label != label {
			kept = append(kept, m)
		}
	}
	u.TrackedMetrics = kept
}
