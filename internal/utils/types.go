package utils

type BatchEntry struct {
	Name string `yaml:"name,omitempty"`
	URL  string `yaml:"link"`
}
